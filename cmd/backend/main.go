package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/api"
	"github.com/ExoPexodus/crimson-cloud-command/internal/events"
	"github.com/ExoPexodus/crimson-cloud-command/internal/lifecycle"
	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
	"github.com/ExoPexodus/crimson-cloud-command/internal/registry"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/config"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	cfg, err := config.LoadBackend(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	db, err := database.New(cfg.Database.ToDBConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("Database connection established")

	if *migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		logger.Info("Running database migrations")
		migrator := database.NewMigrator(db)
		if err := migrator.Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Migrations completed successfully")
		return nil
	}

	bus := events.NewEventBus(cfg.Events.BufferSize)
	defer bus.Close()

	eventLogger := events.NewEventLogger(bus.SubscribeAll())
	eventLogger.Start()
	defer eventLogger.Stop()

	publisher := events.NewPublisher(bus)
	reg := registry.NewService(db, publisher)

	sweeper := lifecycle.NewSweeper(db, publisher, lifecycle.SweeperConfig{
		Timeout:  cfg.Liveness.Timeout,
		Schedule: cfg.Liveness.SweepSchedule,
	})
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("failed to start liveness sweeper: %w", err)
	}
	defer sweeper.Stop()

	server := api.NewServer(cfg, db, reg, bus)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("Backend stopped gracefully")
	return nil
}
