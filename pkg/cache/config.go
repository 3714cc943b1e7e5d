package cache

import (
	"container/list"
	"fmt"

	"github.com/c360/graphbatch/errors"
)

// Strategy selects the eviction policy.
type Strategy string

const (
	// StrategySimple never evicts.
	StrategySimple Strategy = "simple"

	// StrategyLRU evicts the least recently used entry beyond MaxSize.
	StrategyLRU Strategy = "lru"
)

// Config describes an in-memory cache.
type Config struct {
	// Enabled turns the cache on. A disabled cache never hits.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Strategy is the eviction policy.
	Strategy Strategy `json:"strategy" yaml:"strategy"`

	// MaxSize bounds the number of entries for StrategyLRU.
	MaxSize int `json:"max_size" yaml:"max_size"`
}

// DefaultConfig returns an enabled LRU cache of 1024 entries.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Strategy: StrategyLRU,
		MaxSize:  1024,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.Strategy {
	case StrategySimple:
	case StrategyLRU:
		if c.MaxSize <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
				fmt.Sprintf("max_size must be positive for LRU cache, got %d", c.MaxSize))
		}
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			fmt.Sprintf("unknown cache strategy: %q", c.Strategy))
	}
	return nil
}

// NewFromConfig builds the cache described by config. A disabled config yields a no-op cache.
func NewFromConfig[K comparable, V any](config Config, options ...Option[K, V]) (Cache[K, V], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !config.Enabled {
		return NewNoop[K, V](), nil
	}

	switch config.Strategy {
	case StrategySimple:
		return NewSimple[K, V](options...)
	default:
		return NewLRU[K, V](config.MaxSize, options...)
	}
}

// NewLRU creates an LRU cache holding at most maxSize entries.
func NewLRU[K comparable, V any](maxSize int, options ...Option[K, V]) (Cache[K, V], error) {
	if maxSize <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "NewLRU",
			fmt.Sprintf("max size must be positive, got %d", maxSize))
	}
	opts := applyOptions(options...)
	rec, err := opts.recorder("NewLRU")
	if err != nil {
		return nil, err
	}
	return &lruCache[K, V]{
		maxSize: maxSize,
		items:   make(map[K]*list.Element),
		order:   list.New(),
		rec:     rec,
		evictFn: opts.evictCallback,
	}, nil
}

// NewSimple creates an unbounded cache.
func NewSimple[K comparable, V any](options ...Option[K, V]) (Cache[K, V], error) {
	opts := applyOptions(options...)
	rec, err := opts.recorder("NewSimple")
	if err != nil {
		return nil, err
	}
	return &simpleCache[K, V]{
		items:   make(map[K]V),
		rec:     rec,
		evictFn: opts.evictCallback,
	}, nil
}

// NewNoop creates a cache that stores nothing and always misses.
func NewNoop[K comparable, V any]() Cache[K, V] {
	return noopCache[K, V]{}
}

type noopCache[K comparable, V any] struct{}

func (noopCache[K, V]) Get(K) (V, bool) {
	var zero V
	return zero, false
}
func (noopCache[K, V]) Set(K, V) bool      { return false }
func (noopCache[K, V]) Delete(K) bool      { return false }
func (noopCache[K, V]) Clear()             {}
func (noopCache[K, V]) Size() int          { return 0 }
func (noopCache[K, V]) Keys() []K          { return nil }
func (noopCache[K, V]) Stats() *Statistics { return nil }
func (noopCache[K, V]) Close() error       { return nil }
