package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"initiative/internal/config"
	"initiative/internal/console"
	"initiative/internal/core"
)

type app struct {
	logger  *slog.Logger
	service *core.Service
	console *console.Console
	closers []func() error
}

func setup(ctx context.Context, opts *options, stderr io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log, stderr)
	a := &app{logger: logger}

	store, closeStore, err := core.OpenDataStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	a.closers = append(a.closers, closeStore)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := core.MultiMetricsRecorder{
		core.NewExpvarMetricsRecorder(""),
		core.NewPrometheusMetricsRecorder(reg),
	}
	svcOpts := []core.Option{
		core.WithLogger(logger),
		core.WithMetricsRecorder(recorder),
	}
	if opts.traceFile != "" {
		f, err := os.OpenFile(opts.traceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		a.closers = append(a.closers, f.Close)
		svcOpts = append(svcOpts, core.WithTracer(core.NewJSONTracer(f)))
	}
	if cfg.Metrics.Addr != "" {
		stop, err := serveMetrics(cfg.Metrics.Addr, reg, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, stop)
	}

	a.service = core.NewService(store, svcOpts...)
	a.service.Init(ctx)
	if !a.service.DataStoreEnabled() {
		logger.Warn("journal disabled for this session", "driver", cfg.Storage.Driver)
	}
	a.console = console.New(a.service)
	return a, nil
}

// close runs closers in reverse order, logging failures.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("shutdown", "error", err)
		}
	}
	a.closers = nil
}

func loadConfig(opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.storageDriver != "" {
		cfg.Storage.Driver = opts.storageDriver
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Log, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// serveMetrics exposes Prometheus metrics on /metrics and expvar on
// /debug/vars. The returned func shuts the listener down.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (func() error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("/debug/vars", expvar.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}
