package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/c360/graphbatch/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GRAPHBATCH"

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// durationPaths lists fields that accept duration strings.
var durationPaths = [][]string{
	{"loader", "stop_timeout"},
	{"fetch", "timeout"},
	{"dataset", "store", "timeout"},
}

// Loader handles configuration loading with layers and overrides.
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
	lookupEnv  func(string) (string, bool)
}

// NewLoader creates a loader with validation enabled and the GRAPHBATCH
// environment prefix.
func NewLoader() *Loader {
	return &Loader{
		validation: true,
		envPrefix:  EnvPrefix,
		lookupEnv:  os.LookupEnv,
	}
}

// AddLayer adds a JSON or YAML file layer. Later layers override earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables Config.Validate after loading.
// Schema checks on file layers always run.
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// WithEnv replaces the environment lookup, mainly for tests.
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	l.lookupEnv = lookup
	return l
}

// LoadFile loads configuration from a single file.
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load merges defaults, file layers and environment overrides, then validates.
func (l *Loader) Load() (*Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return nil, errors.WrapFatal(err, "Loader", "Load", "encode defaults")
	}

	for _, path := range l.layers {
		raw, err := l.loadRaw(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		merged = deepMergeMaps(merged, raw)
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, errors.WrapFatal(err, "Loader", "Load", "encode merged config")
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err), "Loader", "Load", "decode config")
	}

	if err := l.applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// loadRaw reads one layer, checks it against the schema and normalizes
// duration strings.
func (l *Loader) loadRaw(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrConfigNotFound, err), "Loader", "Load", "read layer")
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), "Loader", "Load", "parse YAML")
		}
	default:
		if err := validateJSONDepth(data); err != nil {
			return nil, errors.WrapInvalid(fmt.Errorf("invalid JSON structure: %w", err), "Loader", "Load", "parse JSON")
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), "Loader", "Load", "parse JSON")
		}
	}
	if raw == nil {
		raw = map[string]any{}
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}
	if err := parseDurations(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func validateSchema(raw map[string]any) error {
	s, err := compiledSchema()
	if err != nil {
		return errors.WrapFatal(err, "Loader", "Load", "compile schema")
	}
	result, err := s.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err), "Loader", "Load", "validate schema")
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return errors.WrapInvalid(fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(msgs, "; ")),
		"Loader", "Load", "validate schema")
}

// parseDurations converts duration strings to nanoseconds for json unmarshaling.
func parseDurations(raw map[string]any) error {
	for _, path := range durationPaths {
		section := raw
		for _, key := range path[:len(path)-1] {
			next, ok := section[key].(map[string]any)
			if !ok {
				section = nil
				break
			}
			section = next
		}
		leaf := path[len(path)-1]
		s, ok := section[leaf].(string)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return errors.Invalidf(errors.ErrInvalidConfig, "Loader", "Load", "%s: %v", strings.Join(path, "."), err)
		}
		section[leaf] = d.Nanoseconds()
	}
	return nil
}

func toMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// deepMergeMaps recursively merges two maps, with override taking precedence.
func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		if v == nil {
			continue
		}
		if baseMap, ok := base[k].(map[string]any); ok {
			if overrideMap, ok := v.(map[string]any); ok {
				result[k] = deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}

// applyEnvOverrides applies GRAPHBATCH_* environment variables.
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"ROOT":           &cfg.Dataset.Root,
		"RAW_DIR":        &cfg.Dataset.RawDir,
		"PROCESSED_DIR":  &cfg.Dataset.ProcessedDir,
		"RAW_FILE":       &cfg.Dataset.RawFile,
		"SPLIT_FILE":     &cfg.Dataset.SplitFile,
		"STORE_BACKEND":  &cfg.Dataset.Store.Backend,
		"STORE_URL":      &cfg.Dataset.Store.URL,
		"STORE_BUCKET":   &cfg.Dataset.Store.Bucket,
		"STORE_USER":     &cfg.Dataset.Store.User,
		"STORE_PASSWORD": &cfg.Dataset.Store.Password,
		"STORE_TOKEN":    &cfg.Dataset.Store.Token,
		"BATCH_POLICY":   &cfg.Batch.Policy,
		"FETCH_URL":      &cfg.Fetch.URL,
		"METRICS_ADDR":   &cfg.Metrics.Addr,
		"LOG_LEVEL":      &cfg.Log.Level,
		"LOG_FORMAT":     &cfg.Log.Format,
	}
	for name, dst := range strs {
		if val, ok := l.env(name); ok {
			if err := validateEnvVar(l.envPrefix+"_"+name, val); err != nil {
				return errors.WrapInvalid(err, "Loader", "Load", "read environment")
			}
			*dst = val
		}
	}

	ints := map[string]*int{
		"BATCH_SIZE": &cfg.Loader.BatchSize,
		"WORKERS":    &cfg.Loader.Workers,
		"PREFETCH":   &cfg.Loader.Prefetch,
	}
	for name, dst := range ints {
		if val, ok := l.env(name); ok {
			n, err := strconv.Atoi(val)
			if err != nil {
				return l.envError(name, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"SHUFFLE":         &cfg.Loader.Shuffle,
		"DROP_LAST":       &cfg.Loader.DropLast,
		"SKIP_REJECTED":   &cfg.Loader.SkipRejected,
		"SKIP_MALFORMED":  &cfg.Dataset.SkipMalformed,
		"METRICS_ENABLED": &cfg.Metrics.Enabled,
	}
	for name, dst := range bools {
		if val, ok := l.env(name); ok {
			b, err := strconv.ParseBool(val)
			if err != nil {
				return l.envError(name, err)
			}
			*dst = b
		}
	}

	if val, ok := l.env("SEED"); ok {
		seed, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return l.envError("SEED", err)
		}
		cfg.Loader.Seed = seed
	}
	if val, ok := l.env("STOP_TIMEOUT"); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			return l.envError("STOP_TIMEOUT", err)
		}
		cfg.Loader.StopTimeout = d
	}
	if val, ok := l.env("STORE_TIMEOUT"); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			return l.envError("STORE_TIMEOUT", err)
		}
		cfg.Dataset.Store.Timeout = d
	}
	return nil
}

func (l *Loader) env(name string) (string, bool) {
	val, ok := l.lookupEnv(l.envPrefix + "_" + name)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func (l *Loader) envError(name string, err error) error {
	return errors.Invalidf(errors.ErrInvalidConfig, "Loader", "Load", "%s_%s: %v", l.envPrefix, name, err)
}

// SaveToFile writes cfg as JSON, or YAML for .yaml and .yml paths.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.WrapFatal(err, "Config", "SaveToFile", "encode config")
	}
	return safeWriteFile(path, data)
}
