// cmd/gateway/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tamzrod/modbus-gateway/internal/config"
	"github.com/tamzrod/modbus-gateway/internal/connect"
	"github.com/tamzrod/modbus-gateway/internal/gateway"
	"github.com/tamzrod/modbus-gateway/internal/metrics"
	pmodbus "github.com/tamzrod/modbus-gateway/internal/poller/modbus"
	"github.com/tamzrod/modbus-gateway/internal/writer"
)

// EnvRunOnce set to "1" or "true" runs a single poll cycle and exits.
const EnvRunOnce = "RUN_ONCE"

func main() {
	os.Exit(run())
}

func run() int {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, source, err := config.Resolve(os.Getenv, os.Args[1:])
	if err != nil {
		slog.Error("config load failed", "err", err)
		return 1
	}

	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "source", source, "err", err)
		return 1
	}
	config.Normalize(cfg)

	// --------------------
	// Logging (stdout carries events only)
	// --------------------

	var level slog.Level
	_ = level.UnmarshalText([]byte(cfg.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("config loaded", "source", source, "endpoint", cfg.Endpoint(), "unit_id", *cfg.UnitID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Sink + metrics
	// --------------------

	var sink writer.Writer = writer.NewJSONLines(os.Stdout)

	var m *metrics.Metrics
	if cfg.MetricsListen != "" {
		m = metrics.New()
		sink = m.Wrap(sink)

		go func() {
			logger.Info("metrics listening", "addr", cfg.MetricsListen)
			if err := m.Serve(ctx, cfg.MetricsListen); err != nil {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	// --------------------
	// Connection manager
	// --------------------

	var frameLog *log.Logger
	if level <= slog.LevelDebug {
		frameLog = slog.NewLogLogger(logger.Handler(), slog.LevelDebug)
	}

	mgr := &connect.Manager{
		Endpoint: cfg.Endpoint(),
		Delay:    cfg.RetryDelay(),
		Sink:     sink,
		Logger:   logger,
		Dial: func(ctx context.Context) (connect.Conn, error) {
			c, err := pmodbus.New(pmodbus.Config{
				Endpoint:    cfg.Endpoint(),
				UnitID:      *cfg.UnitID,
				Timeout:     cfg.TransportTimeout(),
				IdleTimeout: cfg.IdleEvery(),
				Logger:      frameLog,
			})
			if err != nil {
				return nil, err
			}
			if err := c.Connect(); err != nil {
				return nil, err
			}
			return c, nil
		},
	}

	// --------------------
	// Polling loop
	// --------------------

	g := &gateway.Gateway{
		Config:    cfg,
		Connector: mgr,
		Sink:      sink,
		Metrics:   m,
		Logger:    logger,
		RunOnce:   runOnce(os.Getenv(EnvRunOnce)),
	}

	if err := g.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("gateway stopped", "err", err)
		return 1
	}

	logger.Info("gateway stopped")
	return 0
}

func runOnce(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
