// Package config loads graphbatch configuration.
//
// A Loader starts from Default, merges each file layer over it, applies
// GRAPHBATCH_* environment overrides and finally runs Config.Validate.
// Layers are JSON, or YAML when the path ends in .yaml or .yml. Every layer
// is checked against an embedded JSON schema before it is merged, so a
// misspelled key fails loudly instead of being ignored. Durations may be
// written as strings ("30s") or integer nanoseconds.
//
//	loader := config.NewLoader()
//	loader.AddLayer("graphbatch.yaml")
//	loader.AddLayer("graphbatch.local.json") // overrides graphbatch.yaml
//
//	cfg, err := loader.Load()
//	if err != nil {
//		return err
//	}
//	builder, err := cfg.Batch.Builder()
//
// # Environment
//
// Overrides use the GRAPHBATCH_ prefix: ROOT, RAW_DIR, PROCESSED_DIR,
// RAW_FILE, SPLIT_FILE, STORE_BACKEND, STORE_URL, STORE_BUCKET,
// STORE_USER, STORE_PASSWORD, STORE_TOKEN, STORE_TIMEOUT, BATCH_POLICY, BATCH_SIZE, WORKERS, PREFETCH, SEED, SHUFFLE, DROP_LAST,
// SKIP_REJECTED, SKIP_MALFORMED, STOP_TIMEOUT, FETCH_URL, METRICS_ENABLED,
// METRICS_ADDR, LOG_LEVEL and LOG_FORMAT. Empty values are ignored.
package config
