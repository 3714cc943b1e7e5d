package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c360/graphbatch/batch"
	"github.com/c360/graphbatch/dataset"
	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/loader"
)

// Policy names for BatchConfig.Policy.
const (
	PolicyPlain     = "plain"
	PolicyPaired    = "paired"
	PolicyBipartite = "bipartite"
)

// Config is the complete graphbatch configuration.
type Config struct {
	Dataset dataset.Config `json:"dataset" yaml:"dataset"`
	Builder BuilderConfig  `json:"builder" yaml:"builder"`
	Batch   BatchConfig    `json:"batch" yaml:"batch"`
	Loader  loader.Config  `json:"loader" yaml:"loader"`
	Fetch   FetchConfig    `json:"fetch" yaml:"fetch"`
	Metrics MetricsConfig  `json:"metrics" yaml:"metrics"`
	Log     LogConfig      `json:"log" yaml:"log"`
}

// BuilderConfig configures the edge-list graph builder.
type BuilderConfig struct {
	NodesColumn  string   `json:"nodes_column,omitempty" yaml:"nodes_column,omitempty"`
	EdgesColumn  string   `json:"edges_column,omitempty" yaml:"edges_column,omitempty"`
	GraphColumns []string `json:"graph_columns,omitempty" yaml:"graph_columns,omitempty"`
	Undirected   bool     `json:"undirected" yaml:"undirected"`
}

// BatchConfig selects the attribute policy used to collate batches.
type BatchConfig struct {
	// Policy is plain, paired or bipartite.
	Policy string `json:"policy" yaml:"policy"`

	// Pairs maps index keys to the node key offsetting them (paired).
	Pairs map[string]string `json:"pairs,omitempty" yaml:"pairs,omitempty"`

	// IndexKey, SrcKey and DstKey configure the bipartite policy.
	IndexKey string `json:"index_key,omitempty" yaml:"index_key,omitempty"`
	SrcKey   string `json:"src_key,omitempty" yaml:"src_key,omitempty"`
	DstKey   string `json:"dst_key,omitempty" yaml:"dst_key,omitempty"`

	// Track lists keys that get a membership vector.
	Track []string `json:"track,omitempty" yaml:"track,omitempty"`

	SkipNodeMembership bool `json:"skip_node_membership" yaml:"skip_node_membership"`
}

// FetchConfig locates the remote raw source.
type FetchConfig struct {
	URL     string        `json:"url,omitempty" yaml:"url,omitempty"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
	Path    string `json:"path" yaml:"path"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns the configuration every Load starts from.
func Default() *Config {
	return &Config{
		Dataset: dataset.DefaultConfig(),
		Batch:   BatchConfig{Policy: PolicyPlain},
		Loader:  loader.DefaultConfig(),
		Fetch:   FetchConfig{Timeout: 5 * time.Minute},
		Metrics: MetricsConfig{Addr: ":9090", Path: "/metrics"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Dataset.Validate(); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	if err := c.Loader.Validate(); err != nil {
		return fmt.Errorf("loader: %w", err)
	}
	builder, err := c.Batch.Builder()
	if err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	if err := builder.Validate(); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	if c.Fetch.Timeout < 0 {
		return invalid("fetch.timeout must not be negative, got %s", c.Fetch.Timeout)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return invalid("metrics.addr is required when metrics are enabled")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return invalid("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.Invalidf(errors.ErrInvalidConfig, "Config", "Validate", format, args...)
}

// ResolvePolicy resolves the configured policy.
func (b BatchConfig) ResolvePolicy() (*batch.Policy, error) {
	switch b.Policy {
	case "", PolicyPlain:
		return batch.Plain(), nil
	case PolicyPaired:
		if len(b.Pairs) == 0 {
			return nil, invalid("batch.pairs is required for the paired policy")
		}
		return batch.Paired(b.Pairs), nil
	case PolicyBipartite:
		if b.IndexKey == "" || b.SrcKey == "" || b.DstKey == "" {
			return nil, invalid("batch.index_key, src_key and dst_key are required for the bipartite policy")
		}
		return batch.Bipartite(b.IndexKey, b.SrcKey, b.DstKey), nil
	default:
		return nil, invalid("unknown batch policy %q", b.Policy)
	}
}

// Builder returns the batch builder described by b.
func (b BatchConfig) Builder() (*batch.Builder, error) {
	policy, err := b.ResolvePolicy()
	if err != nil {
		return nil, err
	}
	return &batch.Builder{
		Policy:             policy,
		Track:              b.Track,
		SkipNodeMembership: b.SkipNodeMembership,
	}, nil
}

// GraphBuilder returns the edge-list builder described by b.
func (b BuilderConfig) GraphBuilder() dataset.EdgeListBuilder {
	return dataset.EdgeListBuilder{
		NodesColumn:  b.NodesColumn,
		EdgesColumn:  b.EdgesColumn,
		GraphColumns: b.GraphColumns,
		Undirected:   b.Undirected,
	}
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, invalid("log.level must be debug, info, warn or error, got %q", level)
	}
}

// String returns the config as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
