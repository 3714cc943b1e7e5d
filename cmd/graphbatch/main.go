// Package main implements the graphbatch command: fetch, materialize and
// iterate lazy graph datasets from the command line.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/graphbatch/config"
	"github.com/c360/graphbatch/metric"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "graphbatch"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

// env carries what every command needs.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metric.MetricsRegistry
	stdout  io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if err := validateFlags(cli); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if cli.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s (%s)\n", appName, Version, BuildTime)
		return nil
	}
	if cli.ShowHelp {
		return flag.ErrHelp
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	logger := setupLogger(stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	logger.Info("Starting graphbatch",
		"command", cli.Command, "build_time", BuildTime, "config_layers", cli.ConfigPaths)

	e := &env{cfg: cfg, logger: logger, stdout: stdout}
	if cfg.Metrics.Enabled {
		e.metrics = metric.NewMetricsRegistry()
		server := metric.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path, e.metrics)
		if err := server.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer func() {
			if err := server.Stop(5 * time.Second); err != nil {
				logger.Warn("Metrics server shutdown failed", "error", err)
			}
		}()
		logger.Info("Serving metrics", "addr", cfg.Metrics.Addr, "path", cfg.Metrics.Path)
	}

	start := time.Now()
	if err := commands[cli.Command](ctx, e, cli.Args); err != nil {
		return fmt.Errorf("%s: %w", cli.Command, err)
	}
	logger.Info("Command complete", "command", cli.Command, "took", time.Since(start))
	return nil
}

// loadConfig merges the config layers and applies explicit logging and
// metrics flags over them.
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	for _, path := range cli.ConfigPaths {
		loader.AddLayer(path)
	}
	// Commands validate what they use; validate checks everything itself.
	loader.EnableValidation(false)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cli.set["log-level"] {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.set["log-format"] {
		cfg.Log.Format = cli.LogFormat
	}
	if cli.set["metrics-addr"] && cli.MetricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = cli.MetricsAddr
	}
	if _, err := config.ParseLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}
