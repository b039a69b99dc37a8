package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/platformlab/jobcore/internal/config"
	"github.com/platformlab/jobcore/internal/worker"
	"github.com/platformlab/jobcore/internal/worker/handlers"
	"github.com/platformlab/jobcore/internal/worker/storage"
	"github.com/platformlab/jobcore/shared/logger"
	"github.com/platformlab/jobcore/shared/postgresql"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	appLogger.Info("Database connection established")

	// Register handlers before the loop starts; an unregistered required
	// type is a boot failure, not a runtime dead-letter surprise
	registry := worker.NewRegistry()
	handlerSet := handlers.NewSet(appLogger.Logger, nil)
	handlerSet.RegisterDefaultHandlers(registry)

	if err := registry.Validate(handlers.TypeSendEmail, handlers.TypeSendWebhook, handlers.TypeGenerateReport); err != nil {
		return fmt.Errorf("handler registry validation failed: %w", err)
	}

	appLogger.Info("Job handlers registered",
		slog.Any("types", registry.Types()),
	)

	store := storage.NewStorage(dbClient.GetDB(), appLogger.Logger)

	workerInstance := worker.NewWorker(&worker.Config{
		Logger:            appLogger.Logger,
		Jobs:              store,
		Heartbeats:        store,
		Registry:          registry,
		Version:           cfg.App.Version,
		PollInterval:      cfg.Worker.PollInterval,
		HeartbeatInterval: cfg.Worker.HeartbeatInterval,
		BatchSize:         cfg.Worker.BatchSize,
		Concurrency:       cfg.Worker.Concurrency,
		JobTimeout:        cfg.Worker.JobTimeout,
		ShutdownTimeout:   cfg.Worker.ShutdownTimeout,
		MaxAttempts:       cfg.Worker.MaxAttempts,
		StaleClaimAfter:   cfg.Worker.StaleClaimAfter,
		Backoff:           worker.ExponentialBackoff(cfg.Worker.Backoff.Base, cfg.Worker.Backoff.Cap),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		if err := workerInstance.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	appLogger.Info("Worker service started successfully",
		slog.String("worker_id", workerInstance.WorkerID()),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-errChan:
		appLogger.Error("Worker error",
			slog.Any("error", err),
		)
		return err
	}

	// Stop accepting new polls; Stop gives in-flight jobs their grace window
	cancel()
	workerInstance.Stop()

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}, logger)
}
