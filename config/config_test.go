package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/graphbatch/dataset"
	"github.com/c360/graphbatch/errors"
)

func writeLayer(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_DefaultsNeedRawFile(t *testing.T) {
	_, err := NewLoader().WithEnv(noEnv).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)

	l := NewLoader().WithEnv(noEnv)
	l.EnableValidation(false)
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Loader, cfg.Loader)
	assert.Equal(t, "raw", cfg.Dataset.RawDir)
	assert.Equal(t, dataset.BackendFile, cfg.Dataset.Store.Backend)
	assert.Equal(t, 100*time.Millisecond, cfg.Dataset.Retry.InitialDelay)
}

func TestLoad_YAMLAndJSONLayers(t *testing.T) {
	base := writeLayer(t, "base.yaml", `
dataset:
  root: /data/graphs
  raw_file: graphs.csv
  store:
    backend: leveldb
  retry:
    max_retries: 5
    initial_delay: 250ms
loader:
  batch_size: 64
  shuffle: true
  seed: 9
  stop_timeout: 30s
batch:
  policy: paired
  pairs:
    edge_index_s: x_s
    edge_index_t: x_t
  track: [edge_index_s]
log:
  level: debug
`)
	override := writeLayer(t, "override.json", `{
  "loader": {"batch_size": 16, "workers": 3},
  "dataset": {"memory_cache": {"enabled": false}},
  "fetch": {"url": "https://example.com/graphs.csv", "timeout": "2m"}
}`)

	l := NewLoader().WithEnv(noEnv)
	l.AddLayer(base)
	l.AddLayer(override)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/graphs", cfg.Dataset.Root)
	assert.Equal(t, dataset.BackendLevelDB, cfg.Dataset.Store.Backend)
	assert.Equal(t, 5, cfg.Dataset.Retry.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Dataset.Retry.InitialDelay)
	assert.Equal(t, 5*time.Second, cfg.Dataset.Retry.MaxDelay, "untouched nested fields keep defaults")
	assert.False(t, cfg.Dataset.MemoryCache.Enabled)

	assert.Equal(t, 16, cfg.Loader.BatchSize)
	assert.Equal(t, 3, cfg.Loader.Workers)
	assert.True(t, cfg.Loader.Shuffle)
	assert.Equal(t, uint64(9), cfg.Loader.Seed)
	assert.Equal(t, 30*time.Second, cfg.Loader.StopTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Fetch.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)

	b, err := cfg.Batch.Builder()
	require.NoError(t, err)
	assert.Equal(t, "paired", b.Policy.Name())
	assert.Equal(t, []string{"edge_index_s"}, b.Track)
}

func TestLoad_NATSStoreSettings(t *testing.T) {
	path := writeLayer(t, "nats.yaml", `
dataset:
  root: /data
  raw_file: graphs.csv
  store:
    backend: nats
    url: nats://queue:4222
    user: loader
    timeout: 3s
`)
	l := NewLoader().WithEnv(envMap(map[string]string{
		"GRAPHBATCH_STORE_PASSWORD": "secret",
		"GRAPHBATCH_STORE_TIMEOUT":  "4s",
	}))
	cfg, err := l.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "loader", cfg.Dataset.Store.User)
	assert.Equal(t, "secret", cfg.Dataset.Store.Password)
	assert.Equal(t, 4*time.Second, cfg.Dataset.Store.Timeout, "environment wins over files")

	_, err = NewLoader().WithEnv(noEnv).LoadFile(path)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig, "user without password")

	raw := NewLoader().WithEnv(noEnv)
	raw.EnableValidation(false)
	withoutEnv, err := raw.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, withoutEnv.Dataset.Store.Timeout)
}

func TestLoad_SchemaRejectsUnknownKeys(t *testing.T) {
	path := writeLayer(t, "bad.json", `{"loader": {"batchsize": 4}}`)
	_, err := NewLoader().WithEnv(noEnv).LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "batchsize")
}

func TestLoad_SchemaRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"zero batch":        `{"loader": {"batch_size": 0}}`,
		"bad backend":       `{"dataset": {"store": {"backend": "s3"}}}`,
		"bad duration":      `{"loader": {"stop_timeout": "soon"}}`,
		"bad policy":        `{"batch": {"policy": "hetero"}}`,
		"negative prefetch": `{"loader": {"prefetch": -1}}`,
		"bad store timeout": `{"dataset": {"store": {"timeout": "soon"}}}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeLayer(t, "layer.json", doc)
			_, err := NewLoader().WithEnv(noEnv).LoadFile(path)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestLoad_FileErrors(t *testing.T) {
	_, err := NewLoader().WithEnv(noEnv).LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, errors.ErrConfigNotFound)

	_, err = NewLoader().WithEnv(noEnv).LoadFile(writeLayer(t, "cfg.toml", "x = 1"))
	assert.Error(t, err)

	_, err = NewLoader().WithEnv(noEnv).LoadFile(writeLayer(t, "broken.json", `{"loader": {`))
	assert.Error(t, err)

	_, err = NewLoader().WithEnv(noEnv).LoadFile(writeLayer(t, "broken.yaml", "loader: [1, 2"))
	assert.ErrorIs(t, err, errors.ErrParsingFailed)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeLayer(t, "base.json", `{"dataset": {"root": "/data", "raw_file": "graphs.csv"}, "loader": {"batch_size": 8}}`)
	l := NewLoader().WithEnv(envMap(map[string]string{
		"GRAPHBATCH_BATCH_SIZE":    "128",
		"GRAPHBATCH_SHUFFLE":       "true",
		"GRAPHBATCH_SEED":          "77",
		"GRAPHBATCH_STORE_BACKEND": "memory",
		"GRAPHBATCH_STOP_TIMEOUT":  "1s",
		"GRAPHBATCH_LOG_FORMAT":    "json",
		"GRAPHBATCH_WORKERS":       "",
	}))
	cfg, err := l.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 128, cfg.Loader.BatchSize)
	assert.True(t, cfg.Loader.Shuffle)
	assert.Equal(t, uint64(77), cfg.Loader.Seed)
	assert.Equal(t, time.Second, cfg.Loader.StopTimeout)
	assert.Equal(t, dataset.BackendMemory, cfg.Dataset.Store.Backend)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, Default().Loader.Workers, cfg.Loader.Workers)
}

func TestLoad_EnvOverrideErrors(t *testing.T) {
	path := writeLayer(t, "base.json", `{"dataset": {"root": "/data", "raw_file": "graphs.csv"}}`)
	for _, env := range []map[string]string{
		{"GRAPHBATCH_BATCH_SIZE": "many"},
		{"GRAPHBATCH_SHUFFLE": "sometimes"},
		{"GRAPHBATCH_SEED": "-1"},
		{"GRAPHBATCH_STOP_TIMEOUT": "later"},
		{"GRAPHBATCH_STORE_TIMEOUT": "later"},
	} {
		_, err := NewLoader().WithEnv(envMap(env)).LoadFile(path)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig, "%v", env)
	}
}

func TestBatchConfig_Builder(t *testing.T) {
	b, err := BatchConfig{}.Builder()
	require.NoError(t, err)
	assert.Equal(t, "plain", b.Policy.Name())

	b, err = BatchConfig{Policy: PolicyBipartite, IndexKey: "edge_index", SrcKey: "x_s", DstKey: "x_t", SkipNodeMembership: true}.Builder()
	require.NoError(t, err)
	assert.Equal(t, "bipartite", b.Policy.Name())
	assert.True(t, b.SkipNodeMembership)

	for _, bad := range []BatchConfig{
		{Policy: PolicyPaired},
		{Policy: PolicyBipartite, IndexKey: "edge_index"},
		{Policy: "hetero"},
	} {
		_, err := bad.Builder()
		assert.ErrorIs(t, err, errors.ErrInvalidConfig, bad.Policy)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Dataset.Root = "/data"
		cfg.Dataset.RawFile = "graphs.csv"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"loader":           func(c *Config) { c.Loader.BatchSize = 0 },
		"log level":        func(c *Config) { c.Log.Level = "trace" },
		"log format":       func(c *Config) { c.Log.Format = "xml" },
		"metrics addr":     func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" },
		"fetch timeout":    func(c *Config) { c.Fetch.Timeout = -time.Second },
		"nats without url": func(c *Config) { c.Dataset.Store.Backend = dataset.BackendNATS },
		"reserved track":   func(c *Config) { c.Batch.Track = []string{"x", "batch"} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Dataset.Root = "/data"
	cfg.Dataset.RawFile = "graphs.csv"
	cfg.Loader.Seed = 3
	cfg.Loader.StopTimeout = 2 * time.Second

	for _, name := range []string{"saved.json", "saved.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := NewLoader().WithEnv(noEnv).LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg.Loader, loaded.Loader)
			assert.Equal(t, cfg.Dataset.Retry.MaxDelay, loaded.Dataset.Retry.MaxDelay)
		})
	}
}

func TestValidateJSONDepth(t *testing.T) {
	assert.NoError(t, validateJSONDepth([]byte(`{"a": "}}}", "b": [1, {"c": "\"["}]}`)))
	assert.Error(t, validateJSONDepth([]byte(`{"a": [}`+"]]")))
	deep := make([]byte, 0, 2*(maxJSONDepth+1))
	for i := 0; i <= maxJSONDepth; i++ {
		deep = append(deep, '[')
	}
	for i := 0; i <= maxJSONDepth; i++ {
		deep = append(deep, ']')
	}
	assert.Error(t, validateJSONDepth(deep))
}

func TestParseLevel(t *testing.T) {
	for _, level := range []string{"", "debug", "INFO", "warn", "warning", "error"} {
		_, err := ParseLevel(level)
		assert.NoError(t, err, level)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
