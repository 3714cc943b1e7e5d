// Package dataset exposes a fixed-size, randomly indexable collection of
// graphs materialized on demand from a raw CSV source and cached durably.
package dataset

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/graph"
	"github.com/c360/graphbatch/metric"
	"github.com/c360/graphbatch/pkg/cache"
	"github.com/c360/graphbatch/pkg/retry"
	"github.com/c360/graphbatch/storage"
	"github.com/c360/graphbatch/storage/filestore"
	"github.com/c360/graphbatch/storage/kvstore"
	"github.com/c360/graphbatch/storage/leveldbstore"
	"github.com/c360/graphbatch/storage/memstore"
)

// Source is anything the loader can draw samples from.
type Source interface {
	Len() int
	Get(ctx context.Context, i int) (*graph.Graph, error)
}

// Dataset is a lazily materialized collection of graphs. It is safe for
// concurrent use. Returned graphs are shared with the cache and must not be
// modified.
type Dataset struct {
	cfg     Config
	src     *source
	builder GraphBuilder
	opts    options

	store     storage.Store
	ownsStore bool
	memory    cache.Cache[int, *graph.Graph]
	builds    singleflight.Group

	// Builds run under life, which Close cancels, and not under any one
	// caller's context. A build is cancelled once its last caller leaves.
	mu      sync.Mutex
	flights map[int]*flight
	closed  bool
	life    context.Context
	stop    context.CancelFunc
	running sync.WaitGroup

	logger  *slog.Logger
	metrics *metric.Metrics
}

var _ Source = (*Dataset)(nil)

// flight is one shared build of a sample and the callers waiting on it.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Open loads the raw source and opens the durable store. The raw file must
// already exist; call EnsureSource first to fetch it.
func Open(ctx context.Context, cfg Config, builder GraphBuilder, opts ...Option) (*Dataset, error) {
	if builder == nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: graph builder", errors.ErrMissingConfig), "dataset", "Open", "check builder")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Dataset{
		cfg:     cfg,
		builder: builder,
		opts:    o,
		flights: make(map[int]*flight),
		logger:  o.logger.With("component", "dataset", "raw", cfg.RawPath()),
		metrics: o.metrics,
	}

	src, err := loadSource(cfg.RawPath())
	if err != nil {
		return nil, err
	}
	d.src = src

	if d.opts.splits == nil && cfg.SplitPath() != "" {
		d.opts.splits = NewSplitIndex(cfg.SplitPath())
	}

	d.memory, err = newMemoryCache(cfg, o.registry, d.logger)
	if err != nil {
		return nil, err
	}

	if o.store != nil {
		d.store = o.store
	} else {
		d.store, err = openStore(ctx, cfg, d.logger)
		if err != nil {
			_ = d.memory.Close()
			return nil, err
		}
		d.ownsStore = true
	}

	d.life, d.stop = context.WithCancel(context.Background())
	d.logger.Debug("Dataset opened", "len", d.Len(), "backend", cfg.Store.Backend)
	return d, nil
}

func openStore(ctx context.Context, cfg Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Store.Backend {
	case "", BackendFile:
		s, err := filestore.New(cfg.ProcessedPath())
		if err != nil {
			return nil, err
		}
		if n, _ := s.CleanTemp(filestore.TempGrace); n > 0 {
			logger.Debug("Removed interrupted sample writes", "count", n, "dir", s.Dir())
		}
		return s, nil
	case BackendLevelDB:
		s, err := leveldbstore.Open(cfg.ProcessedPath())
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return memstore.New(), nil
	case BackendNATS:
		s, err := kvstore.Connect(ctx, cfg.Store.URL, kvstore.Config{Bucket: cfg.Store.Bucket}, cfg.Store.clientOptions(logger)...)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.WrapInvalid(fmt.Errorf("%w: store backend %q", errors.ErrInvalidConfig, cfg.Store.Backend),
			"dataset", "Open", "open store")
	}
}

// newMemoryCache builds the memory layer. Metrics are labelled by raw file
// name; a second dataset over the same file and registry runs without them.
func newMemoryCache(cfg Config, registry metric.MetricsRegistrar, logger *slog.Logger) (cache.Cache[int, *graph.Graph], error) {
	if registry != nil {
		prefix := "dataset_" + strings.TrimSuffix(cfg.RawFile, filepath.Ext(cfg.RawFile))
		c, err := cache.NewFromConfig(cfg.MemoryCache, cache.WithMetrics[int, *graph.Graph](registry, prefix))
		if err == nil {
			return c, nil
		}
		if !errors.IsTransient(err) {
			return nil, err
		}
		logger.Warn("Memory cache metrics unavailable", "error", err)
	}
	return cache.NewFromConfig[int, *graph.Graph](cfg.MemoryCache)
}

// Config returns the configuration the dataset was opened with.
func (d *Dataset) Config() Config { return d.cfg }

// Len returns the number of raw records. It never changes.
func (d *Dataset) Len() int { return d.src.Len() }

// Get returns sample i: from memory, else from the durable store, else
// built from the raw record and persisted. The transform, if any, is
// applied last on every call.
func (d *Dataset) Get(ctx context.Context, i int) (*graph.Graph, error) {
	if i < 0 || i >= d.Len() {
		return nil, errors.Invalidf(errors.ErrIndexOutOfRange, "dataset", "Get", "index %d not in [0, %d)", i, d.Len())
	}

	g, err := d.materialize(ctx, i)
	if err != nil {
		return nil, err
	}
	if d.opts.transform == nil {
		return g, nil
	}
	out, err := d.opts.transform(g.Clone())
	if err != nil {
		return nil, errors.Wrap(err, "dataset", "Get", "transform sample "+strconv.Itoa(i))
	}
	return out, nil
}

func (d *Dataset) materialize(ctx context.Context, i int) (*graph.Graph, error) {
	if g, ok := d.memory.Get(i); ok {
		return d.fromMemory(i, g)
	}

	f, err := d.join(i)
	if err != nil {
		return nil, err
	}
	defer d.leave(i, f)

	ch := d.builds.DoChan(strconv.Itoa(i), func() (any, error) {
		if !d.track() {
			return nil, errClosed()
		}
		defer d.running.Done()
		g, err := d.load(f.ctx, i)
		if err != nil && d.life.Err() != nil {
			return nil, errClosed()
		}
		return g, err
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*graph.Graph), nil
	}
}

// join registers a caller on the build of sample i.
func (d *Dataset) join(i int) (*flight, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errClosed()
	}
	f := d.flights[i]
	if f == nil {
		ctx, cancel := context.WithCancel(d.life)
		f = &flight{ctx: ctx, cancel: cancel}
		d.flights[i] = f
	}
	f.waiters++
	return f, nil
}

// leave unregisters a caller. The last one out cancels the build and makes
// the next caller start a fresh one.
func (d *Dataset) leave(i int, f *flight) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	delete(d.flights, i)
	d.builds.Forget(strconv.Itoa(i))
}

// track counts a running build so Close can wait for it.
func (d *Dataset) track() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.running.Add(1)
	return true
}

func errClosed() error {
	return errors.WrapFatal(errors.ErrShuttingDown, "dataset", "Get", "dataset closed")
}

func (d *Dataset) fromMemory(i int, g *graph.Graph) (*graph.Graph, error) {
	if g == nil {
		return nil, filtered(i)
	}
	d.metrics.RecordSample(metric.SourceMemory)
	return g, nil
}

// load consults the durable store and falls back to building.
func (d *Dataset) load(ctx context.Context, i int) (*graph.Graph, error) {
	if g, ok := d.memory.Get(i); ok {
		return d.fromMemory(i, g)
	}

	key := storage.IndexKey(i)
	data, err := d.store.Get(ctx, key)
	switch {
	case err == nil:
		g, derr := decodeRecord(data)
		if derr == nil {
			d.metrics.RecordDurableLookup(true)
			d.memory.Set(i, g)
			if g == nil {
				return nil, filtered(i)
			}
			d.metrics.RecordSample(metric.SourceDurable)
			return g, nil
		}
		d.logger.Warn("Discarding unreadable cached sample", "index", i, "error", derr)
		if err := d.store.Delete(ctx, key); err != nil {
			d.logger.Warn("Failed to delete unreadable cached sample", "index", i, "error", err)
		}
	case storage.IsNotFound(err):
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		d.logger.Warn("Durable lookup failed, rebuilding", "index", i, "error", err)
	}
	d.metrics.RecordDurableLookup(false)

	return d.build(ctx, i)
}

func (d *Dataset) build(ctx context.Context, i int) (*graph.Graph, error) {
	rec := d.src.record(i)

	g, err := retry.DoWithResult(ctx, d.cfg.Retry.ToRetryConfig(), func() (*graph.Graph, error) {
		return d.builder.Build(ctx, rec)
	})
	if err == nil && g == nil {
		err = fmt.Errorf("builder returned no graph")
	}
	if err == nil {
		err = g.Validate()
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, d.buildFailed(i, err)
	}

	if d.opts.preFilter != nil && !d.opts.preFilter(g) {
		d.metrics.RecordBuildFailure("filtered")
		d.memory.Set(i, nil)
		d.persist(ctx, i, encodeTombstone())
		return nil, filtered(i)
	}

	if d.opts.preTransform != nil {
		g, err = d.opts.preTransform(g)
		if err == nil && g == nil {
			err = fmt.Errorf("pre-transform returned no graph")
		}
		if err != nil {
			return nil, d.buildFailed(i, err)
		}
	}

	data, err := encodeGraph(g)
	if err != nil {
		return nil, d.buildFailed(i, err)
	}
	d.persist(ctx, i, data)
	d.memory.Set(i, g)
	d.metrics.RecordSample(metric.SourceBuilt)
	return g, nil
}

// buildFailed classifies a build failure. Anything that is not transient
// after retries is a malformed record.
func (d *Dataset) buildFailed(i int, err error) error {
	if errors.IsTransient(err) && !stderrors.Is(err, errors.ErrMalformedRecord) {
		d.metrics.RecordBuildFailure(errors.ErrorTransient.String())
		return errors.WrapTransient(err, "dataset", "Get", "build sample "+strconv.Itoa(i))
	}
	d.metrics.RecordBuildFailure("malformed")
	if !stderrors.Is(err, errors.ErrMalformedRecord) {
		err = fmt.Errorf("%w: %v", errors.ErrMalformedRecord, err)
	}
	return errors.WrapInvalid(err, "dataset", "Get", "build sample "+strconv.Itoa(i))
}

// persist publishes a record. Failure degrades to an uncached sample and is
// reported through the log, the metric and the hook.
func (d *Dataset) persist(ctx context.Context, i int, data []byte) {
	err := d.store.Put(ctx, storage.IndexKey(i), data)
	if err == nil {
		return
	}
	err = errors.WrapTransient(fmt.Errorf("%w: %v", errors.ErrCacheWrite, err), "dataset", "Get", "persist sample "+strconv.Itoa(i))
	d.logger.Warn("Cache write failed", "index", i, "error", err)
	d.metrics.RecordCacheWriteError()
	if d.opts.onCacheWriteError != nil {
		d.opts.onCacheWriteError(i, err)
	}
}

func filtered(i int) error {
	return errors.Invalidf(errors.ErrFiltered, "dataset", "Get", "sample %d", i)
}

// Splits returns the split index, or nil when none is configured.
func (d *Dataset) Splits() *SplitIndex { return d.opts.splits }

// Split returns the named split as a subset.
func (d *Dataset) Split(name string) (*Subset, error) {
	if d.opts.splits == nil {
		return nil, errors.Invalidf(errors.ErrUnknownSplit, "dataset", "Split", "no split index configured, wanted %q", name)
	}
	if err := d.opts.splits.validate(d.Len()); err != nil {
		return nil, err
	}
	idx, err := d.opts.splits.Get(name)
	if err != nil {
		return nil, err
	}
	return &Subset{parent: d, indices: idx}, nil
}

// Stats describes the dataset's cache state.
type Stats struct {
	Len    int
	Cached int
	Memory cache.StatsSummary
}

// Stats returns a snapshot of cache statistics.
func (d *Dataset) Stats() Stats {
	return Stats{
		Len:    d.Len(),
		Cached: d.memory.Size(),
		Memory: d.memory.Stats().Summary(),
	}
}

// Close cancels running builds, waits for them to return, then releases the
// memory cache and, if Open created it, the store. Get fails afterwards.
func (d *Dataset) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.stop()
	d.running.Wait()

	err := d.memory.Close()
	if d.ownsStore {
		if serr := d.store.Close(); serr != nil {
			err = serr
		}
	}
	return err
}
