package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/c360/graphbatch/dataset"
	"github.com/c360/graphbatch/loader"
)

type command func(ctx context.Context, e *env, args []string) error

var commands = map[string]command{
	"fetch":    runFetch,
	"process":  runProcess,
	"iterate":  runIterate,
	"splits":   runSplits,
	"validate": runValidate,
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(appName+" "+name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (e *env) emit(v any) error {
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (e *env) fetcher() dataset.Fetcher {
	if e.cfg.Fetch.URL == "" {
		return nil
	}
	return &dataset.HTTPFetcher{
		URL:    e.cfg.Fetch.URL,
		Client: &http.Client{Timeout: e.cfg.Fetch.Timeout},
		Retry:  e.cfg.Dataset.Retry,
		Logger: e.logger,
	}
}

// openDataset makes sure the raw source exists and opens the dataset.
func (e *env) openDataset(ctx context.Context) (*dataset.Dataset, error) {
	if err := e.cfg.Dataset.Validate(); err != nil {
		return nil, err
	}
	if err := dataset.EnsureSource(ctx, e.cfg.Dataset, e.fetcher()); err != nil {
		return nil, err
	}
	opts := []dataset.Option{dataset.WithLogger(e.logger)}
	if e.metrics != nil {
		opts = append(opts, dataset.WithMetrics(e.metrics))
	}
	return dataset.Open(ctx, e.cfg.Dataset, e.cfg.Builder.GraphBuilder(), opts...)
}

func runFetch(ctx context.Context, e *env, args []string) error {
	if err := newFlagSet("fetch").Parse(args); err != nil {
		return err
	}
	if err := e.cfg.Dataset.Validate(); err != nil {
		return err
	}
	if err := dataset.EnsureSource(ctx, e.cfg.Dataset, e.fetcher()); err != nil {
		return err
	}
	return e.emit(map[string]string{"raw_path": e.cfg.Dataset.RawPath()})
}

func runProcess(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("process")
	workers := fs.Int("workers", runtime.NumCPU(), "Concurrent builds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := e.openDataset(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.Process(ctx, *workers)
	if err != nil {
		return err
	}
	return e.emit(struct {
		Samples int `json:"samples"`
		dataset.ProcessResult
		Processed string `json:"processed_dir"`
	}{d.Len(), res, e.cfg.Dataset.ProcessedPath()})
}

// passReport summarizes one loader pass.
type passReport struct {
	Pass    uint64        `json:"pass"`
	Batches int           `json:"batches"`
	Graphs  int           `json:"graphs"`
	Nodes   int           `json:"nodes"`
	Took    time.Duration `json:"took_ns"`
}

func runIterate(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("iterate")
	split := fs.String("split", "", "Iterate only this split")
	passes := fs.Int("passes", 1, "Number of passes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.cfg.Loader.Validate(); err != nil {
		return err
	}
	builder, err := e.cfg.Batch.Builder()
	if err != nil {
		return err
	}

	d, err := e.openDataset(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	var src dataset.Source = d
	if *split != "" {
		sub, err := d.Split(*split)
		if err != nil {
			return err
		}
		src = sub
	}

	l, err := loader.New(src, builder, e.cfg.Loader, loader.WithLogger(e.logger), loader.WithMetrics(e.metrics))
	if err != nil {
		return err
	}

	reports := make([]passReport, 0, *passes)
	for p := 0; p < *passes; p++ {
		r, err := iteratePass(ctx, l)
		if err != nil {
			return err
		}
		e.logger.Info("Pass complete", "pass", r.Pass, "batches", r.Batches, "graphs", r.Graphs, "took", r.Took)
		reports = append(reports, r)
	}
	return e.emit(reports)
}

func iteratePass(ctx context.Context, l *loader.Loader) (passReport, error) {
	it := l.Iterate(ctx)
	defer it.Close()

	r := passReport{Pass: it.Pass()}
	start := time.Now()
	for {
		b, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return r, err
		}
		r.Batches++
		r.Graphs += b.NumGraphs()
		r.Nodes += b.Ptr[len(b.Ptr)-1]
	}
	r.Took = time.Since(start)
	return r, nil
}

func runSplits(ctx context.Context, e *env, args []string) error {
	if err := newFlagSet("splits").Parse(args); err != nil {
		return err
	}
	d, err := e.openDataset(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	sizes := map[string]int{}
	if idx := d.Splits(); idx != nil {
		names, err := idx.Names()
		if err != nil {
			return err
		}
		for _, name := range names {
			sub, err := d.Split(name)
			if err != nil {
				return err
			}
			sizes[name] = sub.Len()
		}
	}
	return e.emit(struct {
		Samples int            `json:"samples"`
		Splits  map[string]int `json:"splits"`
	}{d.Len(), sizes})
}

func runValidate(_ context.Context, e *env, args []string) error {
	if err := newFlagSet("validate").Parse(args); err != nil {
		return err
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(e.stdout, e.cfg.String())
	return err
}
