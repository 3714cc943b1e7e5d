package loader

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/c360/graphbatch/batch"
	"github.com/c360/graphbatch/dataset"
	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/metric"
)

// Config controls batching, ordering and parallelism.
type Config struct {
	BatchSize    int           `json:"batch_size" yaml:"batch_size"`
	Shuffle      bool          `json:"shuffle" yaml:"shuffle"`
	Seed         uint64        `json:"seed" yaml:"seed"`
	Workers      int           `json:"workers" yaml:"workers"`
	DropLast     bool          `json:"drop_last" yaml:"drop_last"`
	Prefetch     int           `json:"prefetch" yaml:"prefetch"`
	SkipRejected bool          `json:"skip_rejected" yaml:"skip_rejected"`
	StopTimeout  time.Duration `json:"stop_timeout" yaml:"stop_timeout"`
}

// DefaultConfig returns batches of 32 loaded by one worker per CPU with two
// batches of prefetch.
func DefaultConfig() Config {
	return Config{
		BatchSize:   32,
		Workers:     runtime.NumCPU(),
		Prefetch:    2,
		StopTimeout: 5 * time.Second,
	}
}

// Validate rejects settings that cannot produce a batch.
func (c Config) Validate() error {
	switch {
	case c.BatchSize <= 0:
		return errors.Invalidf(errors.ErrInvalidConfig, "Loader", "Validate", "batch_size must be positive, got %d", c.BatchSize)
	case c.Workers < 0:
		return errors.Invalidf(errors.ErrInvalidConfig, "Loader", "Validate", "workers must not be negative, got %d", c.Workers)
	case c.Prefetch < 0:
		return errors.Invalidf(errors.ErrInvalidConfig, "Loader", "Validate", "prefetch must not be negative, got %d", c.Prefetch)
	case c.StopTimeout < 0:
		return errors.Invalidf(errors.ErrInvalidConfig, "Loader", "Validate", "stop_timeout must not be negative, got %s", c.StopTimeout)
	}
	return nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers == 0 {
		c.Workers = d.Workers
	}
	if c.Prefetch == 0 {
		c.Prefetch = d.Prefetch
	}
	if c.StopTimeout == 0 {
		c.StopTimeout = d.StopTimeout
	}
	return c
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics records passes and skipped samples in the registry's core
// metrics and registers worker pool metrics with it.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(l *Loader) {
		if registry != nil {
			l.registry = registry
			l.metrics = registry.CoreMetrics()
		}
	}
}

// Loader turns a Source into a sequence of batches, one pass per Iterate.
type Loader struct {
	source   dataset.Source
	builder  *batch.Builder
	cfg      Config
	logger   *slog.Logger
	metrics  *metric.Metrics
	registry metric.MetricsRegistrar
	passes   atomic.Uint64
}

// New creates a Loader. A nil builder collates with the plain policy. Zero
// Workers, Prefetch and StopTimeout take their defaults.
func New(source dataset.Source, builder *batch.Builder, cfg Config, opts ...Option) (*Loader, error) {
	if source == nil {
		return nil, errors.Invalidf(errors.ErrMissingConfig, "Loader", "New", "source is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if builder == nil {
		builder = &batch.Builder{}
	}
	l := &Loader{
		source:  source,
		builder: builder,
		cfg:     cfg.withDefaults(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.builder.Metrics == nil && l.metrics != nil {
		b := *l.builder
		b.Metrics = l.metrics
		l.builder = &b
	}
	return l, nil
}

// Config returns the effective configuration.
func (l *Loader) Config() Config { return l.cfg }

// Len returns the number of batches in one pass.
func (l *Loader) Len() int {
	n, bs := l.source.Len(), l.cfg.BatchSize
	if l.cfg.DropLast {
		return n / bs
	}
	return (n + bs - 1) / bs
}

// Order returns the sample indices dispatched in the given pass. With
// Shuffle the permutation depends only on Seed and pass; DropLast trims the
// incomplete tail.
func (l *Loader) Order(pass uint64) []int {
	n := l.source.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if l.cfg.Shuffle {
		r := rand.New(rand.NewPCG(l.cfg.Seed, pass))
		r.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	if l.cfg.DropLast {
		order = order[:n/l.cfg.BatchSize*l.cfg.BatchSize]
	}
	return order
}

// Iterate starts the next pass. The iterator owns a worker pool until Next
// returns an error or Close is called.
func (l *Loader) Iterate(ctx context.Context) *Iterator {
	pass := l.passes.Add(1) - 1
	l.metrics.RecordPass()
	return newIterator(ctx, l, pass)
}
