package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/portstat/gs108e-agent/agent/internal/config"
	"github.com/portstat/gs108e-agent/agent/internal/exporter"
	"github.com/portstat/gs108e-agent/agent/internal/poller"
	"github.com/portstat/gs108e-agent/agent/internal/scraper"
	"github.com/portstat/gs108e-agent/agent/internal/shipper"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file; environment variables override it")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gs108e-agent: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	slog.Info("gs108e-agent starting",
		"config", *configPath,
		"device", cfg.Device.URL,
		"api_endpoint", cfg.APIEndpoint,
		"host_id", cfg.HostID,
		"poll_interval", cfg.PollInterval,
		"debug", cfg.Debug,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var pub poller.Publisher
	if cfg.Exporter.Enabled() {
		exp := exporter.New()
		pub = exp
		go func() {
			if err := exp.ListenAndServe(ctx, cfg.Exporter.ListenAddr); err != nil {
				slog.Error("exporter stopped", "addr", cfg.Exporter.ListenAddr, "err", err)
			}
		}()
	}

	p := poller.New(cfg,
		scraper.New(cfg.Device, cfg.RequestTimeout),
		shipper.New(cfg),
		pub,
	)

	// Hot-reload only touches the poll interval and debug flag; device and API
	// settings need a restart.
	if *configPath != "" {
		go func() {
			if err := config.Watch(ctx, *configPath, p.Reload); err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	p.Run(ctx)
	slog.Info("gs108e-agent shutting down")
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
