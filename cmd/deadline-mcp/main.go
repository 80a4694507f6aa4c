// ABOUTME: Entry point for the deadline MCP server
// ABOUTME: Loads configuration, wires the dashboard and serves MCP over stdio

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harper/deadline-mcp/pkg/config"
	"github.com/harper/deadline-mcp/pkg/dashboard"
	"github.com/harper/deadline-mcp/pkg/extract"
	"github.com/harper/deadline-mcp/pkg/logging"
	"github.com/harper/deadline-mcp/pkg/metrics"
	"github.com/harper/deadline-mcp/pkg/server"

	flags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

// Options defines CLI flags. Flags override the config file and environment.
type Options struct {
	Config      string `short:"c" long:"config" description:"Path to a YAML config file (default: $XDG_CONFIG_HOME/deadline-mcp/config.yaml)"`
	MetricsAddr string `short:"m" long:"metrics-addr" description:"Serve Prometheus metrics on this address (empty disables)"`
	LogLevel    string `short:"l" long:"log-level" description:"Log level: debug, info, warn or error"`
}

func main() {
	var opts Options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "deadline-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(opts Options) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}
	if opts.MetricsAddr != "" {
		cfg.Metrics.Addr = opts.MetricsAddr
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		metricsSrv := serveMetrics(cfg.Metrics.Addr, m, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	extractor := extract.NewClient(extract.Options{
		URL:         cfg.Extraction.URL,
		Timeout:     cfg.Extraction.Timeout,
		MaxFailures: cfg.Extraction.MaxFailures,
		OpenTimeout: cfg.Extraction.OpenTimeout,
		Logger:      logger.Named("extract"),
	})

	dash := dashboard.New(dashboard.Options{
		Extractor:       extractor,
		DefaultTimezone: cfg.DefaultTimezone,
		Logger:          logger,
		Metrics:         m,
	})

	srv, err := server.NewServer(ctx, server.Options{
		Config:    cfg,
		Dashboard: dash,
		Logger:    logger.Named("server"),
	})
	if err != nil {
		return err
	}

	logger.Info("deadline-mcp starting",
		zap.Bool("ish_mode", cfg.ISHMode),
		zap.String("extraction_url", cfg.Extraction.URL),
		zap.String("metrics_addr", cfg.Metrics.Addr))

	return srv.Serve(ctx)
}

func serveMetrics(addr string, m *metrics.Metrics, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}
