package dataset

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/natsclient"
	"github.com/c360/graphbatch/pkg/cache"
)

// Backend names for StoreConfig.Backend.
const (
	BackendFile    = "file"
	BackendLevelDB = "leveldb"
	BackendNATS    = "nats"
	BackendMemory  = "memory"
)

// StoreConfig selects the durable sample store.
type StoreConfig struct {
	// Backend is one of file, leveldb, nats or memory. Empty means file.
	Backend string `json:"backend" yaml:"backend"`

	// URL is the NATS server for the nats backend.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Bucket is the KV bucket for the nats backend.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`

	// User and Password authenticate to the nats backend. Token is the
	// alternative for token-authenticated servers.
	User     string `json:"user,omitempty" yaml:"user,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`

	// Timeout bounds connecting to the nats backend. Zero keeps the client default.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// clientOptions translates the nats backend settings into client options.
func (s StoreConfig) clientOptions(logger *slog.Logger) []natsclient.ClientOption {
	opts := []natsclient.ClientOption{natsclient.WithName("graphbatch-dataset"), natsclient.WithLogger(logger)}
	if s.User != "" {
		opts = append(opts, natsclient.WithCredentials(s.User, s.Password))
	}
	if s.Token != "" {
		opts = append(opts, natsclient.WithToken(s.Token))
	}
	if s.Timeout > 0 {
		opts = append(opts, natsclient.WithTimeout(s.Timeout))
	}
	return opts
}

// Config locates a dataset on disk. Every path is derived from these
// fields alone: relative RawDir and ProcessedDir resolve against Root.
type Config struct {
	Root         string `json:"root" yaml:"root"`
	RawDir       string `json:"raw_dir" yaml:"raw_dir"`
	ProcessedDir string `json:"processed_dir" yaml:"processed_dir"`

	// RawFile is the CSV file inside RawDir, one sample per row after the header.
	RawFile string `json:"raw_file" yaml:"raw_file"`

	// SplitFile is an optional JSON or YAML split index inside RawDir.
	SplitFile string `json:"split_file,omitempty" yaml:"split_file,omitempty"`

	Store       StoreConfig        `json:"store" yaml:"store"`
	MemoryCache cache.Config       `json:"memory_cache" yaml:"memory_cache"`
	Retry       errors.RetryConfig `json:"retry" yaml:"retry"`

	// SkipMalformed makes Process log and count malformed records instead
	// of failing on the first one.
	SkipMalformed bool `json:"skip_malformed" yaml:"skip_malformed"`
}

// DefaultConfig returns a config with conventional subdirectories and an
// LRU memory cache. Root and RawFile must still be set.
func DefaultConfig() Config {
	return Config{
		RawDir:       "raw",
		ProcessedDir: "processed",
		Store:        StoreConfig{Backend: BackendFile},
		MemoryCache:  cache.DefaultConfig(),
		Retry:        errors.DefaultRetryConfig(),
	}
}

// Validate checks required fields and nested configs.
func (c Config) Validate() error {
	if c.RawFile == "" {
		return errors.WrapInvalid(fmt.Errorf("%w: raw_file", errors.ErrMissingConfig), "dataset", "Validate", "check raw_file")
	}
	if filepath.Base(c.RawFile) != c.RawFile {
		return errors.WrapInvalid(fmt.Errorf("%w: raw_file must be a file name, got %q", errors.ErrInvalidConfig, c.RawFile),
			"dataset", "Validate", "check raw_file")
	}
	if c.Root == "" && (!filepath.IsAbs(c.RawDir) || !filepath.IsAbs(c.ProcessedDir)) {
		return errors.WrapInvalid(fmt.Errorf("%w: root", errors.ErrMissingConfig), "dataset", "Validate", "check root")
	}
	switch c.Store.Backend {
	case "", BackendFile, BackendLevelDB, BackendMemory:
	case BackendNATS:
		if c.Store.URL == "" {
			return errors.WrapInvalid(fmt.Errorf("%w: store.url", errors.ErrMissingConfig), "dataset", "Validate", "check store")
		}
		if (c.Store.User == "") != (c.Store.Password == "") {
			return errors.WrapInvalid(fmt.Errorf("%w: store.user and store.password go together", errors.ErrInvalidConfig),
				"dataset", "Validate", "check store")
		}
		if c.Store.Timeout < 0 {
			return errors.WrapInvalid(fmt.Errorf("%w: store.timeout must not be negative", errors.ErrInvalidConfig),
				"dataset", "Validate", "check store")
		}
	default:
		return errors.WrapInvalid(fmt.Errorf("%w: unknown store backend %q", errors.ErrInvalidConfig, c.Store.Backend),
			"dataset", "Validate", "check store")
	}
	if c.Retry.MaxRetries < 0 {
		return errors.WrapInvalid(fmt.Errorf("%w: retry.max_retries must be >= 0", errors.ErrInvalidConfig),
			"dataset", "Validate", "check retry")
	}
	return c.MemoryCache.Validate()
}

func (c Config) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Root, dir)
}

// RawPath returns the raw CSV path.
func (c Config) RawPath() string {
	return filepath.Join(c.resolve(c.RawDir), c.RawFile)
}

// SplitPath returns the split index path, or "" when none is configured.
func (c Config) SplitPath() string {
	if c.SplitFile == "" {
		return ""
	}
	return filepath.Join(c.resolve(c.RawDir), c.SplitFile)
}

// ProcessedPath returns the directory holding durable sample records.
func (c Config) ProcessedPath() string {
	return c.resolve(c.ProcessedDir)
}
