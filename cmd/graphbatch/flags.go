package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	ConfigPaths []string
	LogLevel    string
	LogFormat   string
	MetricsAddr string
	ShowVersion bool
	ShowHelp    bool

	Command string
	Args    []string

	// set records which flags were given explicitly.
	set map[string]bool
}

type layerList []string

func (l *layerList) String() string { return strings.Join(*l, ",") }

func (l *layerList) Set(v string) error {
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			*l = append(*l, p)
		}
	}
	return nil
}

func parseFlags(args []string, stderr io.Writer) (*CLIConfig, error) {
	cfg := &CLIConfig{set: make(map[string]bool)}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var layers layerList
	if env := getEnv("GRAPHBATCH_CONFIG", ""); env != "" {
		_ = layers.Set(env)
	}
	fs.Var(&layers, "config", "Config file layer, JSON or YAML; repeat or comma-separate to stack (env: GRAPHBATCH_CONFIG)")
	fs.Var(&layers, "c", "Shorthand for --config")

	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("GRAPHBATCH_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: GRAPHBATCH_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", getEnv("GRAPHBATCH_LOG_FORMAT", "text"),
		"Log format: json, text (env: GRAPHBATCH_LOG_FORMAT)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", getEnv("GRAPHBATCH_METRICS_ADDR", ""),
		"Serve Prometheus metrics on this address, empty to disable (env: GRAPHBATCH_METRICS_ADDR)")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	fs.Usage = func() { printHelp(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.ShowHelp {
		fs.Usage()
	}
	fs.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })
	for _, name := range []string{"log-level", "log-format", "metrics-addr"} {
		if os.Getenv(envName(name)) != "" {
			cfg.set[name] = true
		}
	}

	cfg.ConfigPaths = layers
	if rest := fs.Args(); len(rest) > 0 {
		cfg.Command, cfg.Args = rest[0], rest[1:]
	}
	return cfg, nil
}

func envName(flagName string) string {
	return "GRAPHBATCH_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}
	if cfg.Command == "" {
		return fmt.Errorf("missing command")
	}
	if _, ok := commands[cfg.Command]; !ok {
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}
	return nil
}

func printHelp(w io.Writer, fs *flag.FlagSet) {
	_, _ = fmt.Fprintf(w, `%s - lazy graph datasets and parallel batch loading

Usage: %s [options] <command> [command options]

Commands:
  fetch      Download the raw source if it is missing
  process    Materialize every sample into the durable store
  iterate    Run loader passes and report batch statistics
  splits     List the configured splits and their sizes
  validate   Load the configuration, print it and exit

Options:
`, appName, appName)
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(w, `
Examples:
  # Materialize a dataset described by a YAML file
  %[1]s --config=graphbatch.yaml process --workers=8

  # Two shuffled passes over the train split with debug logging
  %[1]s -c graphbatch.yaml,local.json --log-level=debug iterate --split=train --passes=2

  # Configure entirely from the environment
  export GRAPHBATCH_ROOT=/data/graphs GRAPHBATCH_RAW_FILE=graphs.csv
  %[1]s splits

Version: %[2]s
`, appName, Version)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
