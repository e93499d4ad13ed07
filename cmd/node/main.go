package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/internal/agent"
	"github.com/ExoPexodus/crimson-cloud-command/internal/analytics"
	"github.com/ExoPexodus/crimson-cloud-command/internal/heartbeat"
	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
	"github.com/ExoPexodus/crimson-cloud-command/internal/metrics"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/config"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadNode(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	queue := analytics.NewQueue(cfg.Pools.AnalyticsQueueSize)
	ag := agent.New(cfg, queue)

	// Run on the cached pool configuration until the backend hands us a
	// fresh one.
	if err := ag.LoadCached(); err != nil {
		logger.WithError(err).Warn("Cached pool configuration rejected, waiting for backend")
	}

	client := heartbeat.NewClient(cfg.Backend.URL, cfg.Backend.RequestTimeout)
	hb := heartbeat.NewService(client, queue, heartbeat.ServiceConfig{
		Interval:        cfg.Backend.HeartbeatInterval,
		CredentialsFile: cfg.Backend.CredentialsFile,
		Register: models.RegisterRequest{
			Name:   cfg.Backend.NodeName,
			Region: cfg.Backend.Region,
		},
		Status:      ag.Status,
		ConfigHash:  ag.ConfigHash,
		ApplyConfig: ag.ApplyConfig,
	})

	regCtx, regCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer regCancel()
	if err := hb.EnsureRegistered(regCtx); err != nil {
		return fmt.Errorf("node registration failed: %w", err)
	}

	if err := hb.Start(); err != nil {
		return fmt.Errorf("failed to start heartbeat service: %w", err)
	}

	if cfg.Prometheus.Enabled {
		metrics.StartServer(cfg.Prometheus.Port)
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	sig := <-shutdownChan
	logger.Infof("Received signal %v, shutting down", sig)

	// Stop the pool pipelines first so the final heartbeat window does
	// not race in-flight scaling work, then the heartbeat loop.
	ag.Stop()
	hb.Stop()

	logger.Info("Node stopped gracefully")
	return nil
}
