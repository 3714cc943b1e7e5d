package loader

import (
	"context"
	stderrors "errors"
	"io"
	"sync"

	"github.com/c360/graphbatch/batch"
	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/graph"
	"github.com/c360/graphbatch/pkg/worker"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = stderrors.New("iterator closed")

type job struct {
	seq   int
	index int
}

type result struct {
	seq   int
	index int
	graph *graph.Graph
	err   error
}

// Iterator yields the batches of one pass in dispatch order. Next and Close
// must be called from a single goroutine.
type Iterator struct {
	loader *Loader
	pass   uint64
	order  []int

	ctx    context.Context
	cancel context.CancelFunc
	pool   *worker.Pool[job]

	// A slot is taken per dispatched sample and returned when the consumer
	// takes it in order, so results never holds more than the window.
	slots   chan struct{}
	results chan result
	pending map[int]result
	next    int
	emitted int

	dispatched chan struct{}
	err        error
	stopErr    error
	stopOnce   sync.Once
}

func newIterator(parent context.Context, l *Loader, pass uint64) *Iterator {
	ctx, cancel := context.WithCancel(parent)
	order := l.Order(pass)

	window := l.cfg.Prefetch * l.cfg.BatchSize
	if window > len(order) {
		window = len(order)
	}
	if window < 1 {
		window = 1
	}

	it := &Iterator{
		loader:     l,
		pass:       pass,
		order:      order,
		ctx:        ctx,
		cancel:     cancel,
		slots:      make(chan struct{}, window),
		results:    make(chan result, window),
		pending:    make(map[int]result, window),
		dispatched: make(chan struct{}),
	}

	opts := []worker.Option[job]{
		worker.WithErrorHandler(it.failed),
		worker.WithLogger[job](l.logger),
	}
	if l.registry != nil {
		opts = append(opts, worker.WithMetricsRegistry[job](l.registry, "loader_workers"))
	}
	it.pool = worker.NewPool(l.cfg.Workers, window, it.process, opts...)
	if err := it.pool.Start(ctx); err != nil {
		it.err = errors.WrapFatal(err, "Loader", "Iterate", "start workers")
		cancel()
		close(it.dispatched)
		return it
	}

	l.logger.Debug("loader pass started",
		"pass", pass, "samples", len(order), "batches", l.Len(), "workers", l.cfg.Workers, "window", window)
	go it.dispatch()
	return it
}

// Pass returns the zero-based pass number.
func (it *Iterator) Pass() uint64 { return it.pass }

func (it *Iterator) dispatch() {
	defer close(it.dispatched)
	for seq, index := range it.order {
		select {
		case it.slots <- struct{}{}:
		case <-it.ctx.Done():
			return
		}
		if err := it.pool.SubmitWait(it.ctx, job{seq: seq, index: index}); err != nil {
			return
		}
	}
}

func (it *Iterator) process(ctx context.Context, j job) error {
	g, err := it.loader.source.Get(ctx, j.index)
	if err != nil {
		return err
	}
	it.results <- result{seq: j.seq, index: j.index, graph: g}
	return nil
}

// failed receives processor errors and recovered panics so every
// dispatched sample resolves.
func (it *Iterator) failed(j job, err error) {
	it.results <- result{seq: j.seq, index: j.index, err: err}
}

// Next returns the next batch, or io.EOF once the pass is complete. Any
// other error ends the pass and is returned again by later calls.
func (it *Iterator) Next() (*batch.Batch, error) {
	if it.err != nil {
		return nil, it.err
	}
	bs := it.loader.cfg.BatchSize
	for it.next < len(it.order) {
		end := min(it.next+bs, len(it.order))
		graphs := make([]*graph.Graph, 0, end-it.next)
		for it.next < end {
			r, err := it.await(it.next)
			if err != nil {
				return nil, it.fail(err)
			}
			it.next++
			<-it.slots
			if r.err != nil {
				if it.skip(r) {
					continue
				}
				return nil, it.fail(r.err)
			}
			graphs = append(graphs, r.graph)
		}
		if len(graphs) == 0 {
			continue
		}
		b, err := it.loader.builder.Build(graphs)
		if err != nil {
			return nil, it.fail(err)
		}
		it.emitted++
		return b, nil
	}

	it.err = io.EOF
	it.loader.logger.Debug("loader pass complete", "pass", it.pass, "batches", it.emitted)
	_ = it.stop()
	return nil, io.EOF
}

func (it *Iterator) await(seq int) (result, error) {
	for {
		if r, ok := it.pending[seq]; ok {
			delete(it.pending, seq)
			return r, nil
		}
		select {
		case r := <-it.results:
			it.pending[r.seq] = r
		case <-it.ctx.Done():
			return result{}, it.ctx.Err()
		}
	}
}

func (it *Iterator) skip(r result) bool {
	if !it.loader.cfg.SkipRejected || !errors.IsSkippable(r.err) {
		return false
	}
	reason := "malformed"
	if stderrors.Is(r.err, errors.ErrFiltered) {
		reason = "filtered"
	}
	it.loader.metrics.RecordSkipped(reason)
	it.loader.logger.Warn("skipping sample", "pass", it.pass, "index", r.index, "reason", reason, "error", r.err)
	return true
}

func (it *Iterator) fail(err error) error {
	it.err = err
	it.loader.logger.Error("loader pass failed", "pass", it.pass, "batches", it.emitted, "error", err)
	_ = it.stop()
	return err
}

// Close stops dispatch and waits up to StopTimeout for in-flight loads.
// It returns worker.ErrStopTimeout if workers are still busy. Close is
// idempotent; Next returns ErrClosed afterwards unless the pass had
// already ended.
func (it *Iterator) Close() error {
	if it.err == nil {
		it.err = ErrClosed
	}
	return it.stop()
}

func (it *Iterator) stop() error {
	it.stopOnce.Do(func() {
		it.cancel()
		<-it.dispatched
		if err := it.pool.Stop(it.loader.cfg.StopTimeout); err != nil {
			it.loader.logger.Warn("loader workers did not stop in time",
				"pass", it.pass, "timeout", it.loader.cfg.StopTimeout, "error", err)
			it.stopErr = errors.WrapTransient(err, "Loader", "Close", "stop workers")
		}
	})
	return it.stopErr
}
