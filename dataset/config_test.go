package dataset

import (
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/natsclient"
)

func TestConfig_Paths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Root = "/data/qm"
	cfg.RawFile = "graphs.csv"
	cfg.SplitFile = "splits.json"

	assert.Equal(t, filepath.Join("/data/qm", "raw", "graphs.csv"), cfg.RawPath())
	assert.Equal(t, filepath.Join("/data/qm", "raw", "splits.json"), cfg.SplitPath())
	assert.Equal(t, filepath.Join("/data/qm", "processed"), cfg.ProcessedPath())

	cfg.ProcessedDir = "/cache/qm"
	assert.Equal(t, "/cache/qm", cfg.ProcessedPath())

	cfg.SplitFile = ""
	assert.Empty(t, cfg.SplitPath())
}

func TestStoreConfig_ClientOptions(t *testing.T) {
	assert.Len(t, StoreConfig{}.clientOptions(nil), 2, "name and logger only")

	store := StoreConfig{
		Backend:  BackendNATS,
		URL:      "nats://localhost:4222",
		User:     "loader",
		Password: "secret",
		Token:    "t0ken",
		Timeout:  time.Second,
	}
	opts := store.clientOptions(slog.Default())
	assert.Len(t, opts, 5)
	_, err := natsclient.NewClient(store.URL, opts...)
	require.NoError(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	valid.Root = "/data"
	valid.RawFile = "graphs.csv"
	require.NoError(t, valid.Validate())

	cases := map[string]func(*Config){
		"missing raw file": func(c *Config) { c.RawFile = "" },
		"raw file path":    func(c *Config) { c.RawFile = "sub/graphs.csv" },
		"missing root":     func(c *Config) { c.Root = "" },
		"unknown backend":  func(c *Config) { c.Store.Backend = "s3" },
		"nats without url": func(c *Config) { c.Store.Backend = BackendNATS },
		"nats user only": func(c *Config) {
			c.Store = StoreConfig{Backend: BackendNATS, URL: "nats://localhost:4222", User: "loader"}
		},
		"nats negative timeout": func(c *Config) {
			c.Store = StoreConfig{Backend: BackendNATS, URL: "nats://localhost:4222", Timeout: -time.Second}
		},
		"negative retries": func(c *Config) { c.Retry.MaxRetries = -1 },
		"bad memory cache": func(c *Config) { c.MemoryCache.MaxSize = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err), "%v", err)
		})
	}
}

func TestConfig_Decode(t *testing.T) {
	const doc = `{
		"root": "/data",
		"raw_file": "graphs.csv",
		"store": {"backend": "leveldb"},
		"memory_cache": {"enabled": true, "strategy": "lru", "max_size": 64},
		"retry": {"max_retries": 2, "initial_delay": "50ms", "max_delay": "1s", "backoff_factor": 2},
		"skip_malformed": true
	}`
	var fromJSON Config
	require.NoError(t, json.Unmarshal([]byte(doc), &fromJSON))
	assert.Equal(t, BackendLevelDB, fromJSON.Store.Backend)
	assert.Equal(t, 64, fromJSON.MemoryCache.MaxSize)
	assert.Equal(t, 50*time.Millisecond, fromJSON.Retry.InitialDelay)
	assert.True(t, fromJSON.SkipMalformed)

	const y = `
root: /data
raw_file: graphs.csv
store:
  backend: nats
  url: nats://localhost:4222
  bucket: QM9
retry:
  max_retries: 1
  initial_delay: 10ms
`
	var fromYAML Config
	require.NoError(t, yaml.Unmarshal([]byte(y), &fromYAML))
	assert.Equal(t, "QM9", fromYAML.Store.Bucket)
	assert.Equal(t, 10*time.Millisecond, fromYAML.Retry.InitialDelay)
}
