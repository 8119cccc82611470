package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ananthvk/respkv"
	"github.com/ananthvk/respkv/cmd/respserver/internal"
	"github.com/ananthvk/respkv/internal/config"
	"github.com/ananthvk/respkv/internal/logger"
	"github.com/ananthvk/respkv/internal/metrics"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

// Set via ldflags
var version = "dev"

func main() {
	app := &cli.App{
		Name:    "respserver",
		Usage:   "in-memory key-value server speaking RESP",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML or TOML configuration file",
				EnvVars: []string{"RESPKV_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "address to listen on (default " + config.DefaultAddr + ")",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "text or json",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve prometheus metrics on this address",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// flagOverrides maps the flags that were given onto config keys
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	if c.IsSet("addr") {
		overrides["server.addr"] = c.String("addr")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	if c.IsSet("log-format") {
		overrides["log.format"] = c.String("log-format")
	}
	if c.IsSet("metrics-addr") {
		overrides["metrics.addr"] = c.String("metrics-addr")
		overrides["metrics.enabled"] = true
	}
	return overrides
}

func run(c *cli.Context) error {
	loader := config.NewLoader(
		config.WithConfigFile(c.String("config")),
		config.WithOverrides(flagOverrides(c)),
	)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Log.Level
	logConfig.Format = cfg.Log.Format
	logConfig.AddSource = cfg.Log.AddSource
	log, err := logger.New(logConfig)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)
	log.Info("starting respserver", "version", version, "config", loader.FilePath())

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if path := loader.FilePath(); path != "" {
		watcher, err := config.NewWatcher(path, config.WithWatcherLogger(log))
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			watcher.OnChange(func(string) { reload(loader, log) })
			watcher.StartAsync()
			defer watcher.Stop()
		}
	}

	table := respkv.NewTable()

	var m *metrics.Metrics
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		m = metrics.New(table.Len)
		metricsServer = startMetrics(cfg.Metrics.Addr, m, log)
	}

	srv := internal.New(cfg.Server, table, m, log)
	served := make(chan error, 1)
	go func() { served <- srv.ListenAndServe(ctx) }()

	select {
	case err := <-served:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("metrics server shutdown failed", "error", err)
		}
	}
	log.Info("server stopped")
	return nil
}

// reload applies the settings that can change without a restart
func reload(loader *config.Loader, log *slog.Logger) {
	cfg, err := loader.Load()
	if err != nil {
		log.Warn("config reload failed, keeping current settings", "error", err)
		return
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		log.Warn("config reload failed", "error", err)
		return
	}
	log.Info("config reloaded", "log_level", logger.Level().String())
}

func startMetrics(addr string, m *metrics.Metrics, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("metrics listening", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	return server
}
