package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/truetone/truetone/internal/blob"
	"github.com/truetone/truetone/internal/config"
	"github.com/truetone/truetone/internal/jobstore"
	"github.com/truetone/truetone/internal/pipeline"
	"github.com/truetone/truetone/internal/queue"
	"github.com/truetone/truetone/internal/worker"
	"github.com/truetone/truetone/shared/logger"
	"github.com/truetone/truetone/shared/objectstore"
	"github.com/truetone/truetone/shared/postgresql"
	"github.com/truetone/truetone/shared/rabbitmq"
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

	// Parse command-line flags
	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorker(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize PostgreSQL client
	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	// Apply schema migrations
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer migrateCancel()
	if err := jobstore.Migrate(migrateCtx, dbClient.GetDB()); err != nil {
		return err
	}

	appLogger.Info("Database connection established")

	// Initialize RabbitMQ client
	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	appLogger.Info("RabbitMQ connection established")

	// Initialize object store client
	storeClient, err := initObjectStore(&cfg.ObjectStore, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}

	// Build the worker from its collaborators
	store := jobstore.NewPostgresStore(dbClient.GetDB(), appLogger.Logger)
	transfer := blob.NewObjectStoreTransfer(storeClient, appLogger.Logger)
	consumer := queue.NewRabbitQueue(rabbitClient, appLogger.Logger)

	pipe := pipeline.New(
		pipeline.NewHTTPSegmenter(cfg.Pipeline.SegmenterURL, cfg.Pipeline.RequestTimeout, appLogger.Logger),
		pipeline.NewHTTPGenerator(cfg.Pipeline.GeneratorURL, cfg.Pipeline.RequestTimeout, appLogger.Logger),
		pipeline.NewBlendPostprocessor(cfg.Pipeline.Sharpen),
		appLogger.Logger,
	)

	processor := worker.NewProcessor(
		store,
		transfer,
		consumer,
		pipe,
		cfg.Worker.StagingDir,
		cfg.Worker.JobTimeout,
		appLogger.Logger,
	)

	workerInstance := worker.New(
		consumer,
		processor,
		cfg.Worker.MaxMessages,
		cfg.Worker.PollWait,
		cfg.Worker.PollBackoff,
		appLogger.Logger,
	)

	// Create context cancelled on interrupt for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Expose metrics and health when a port is configured
	if cfg.Server.Port > 0 {
		go serveMetrics(cfg.Server.Port, appLogger.Logger)
	}

	appLogger.Info("Worker service started successfully")

	if err := workerInstance.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Worker error",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// serveMetrics runs a minimal HTTP listener for Prometheus scrapes and
// liveness checks.
func serveMetrics(port int, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf(":%d", port)
	logger.Info("Metrics endpoint listening", slog.String("address", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Metrics endpoint failed", slog.Any("error", err))
	}
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
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
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		RoutingKey:         cfg.RoutingKey,
		VisibilityTimeout:  cfg.VisibilityTimeout,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initObjectStore initializes the S3-compatible object store client
func initObjectStore(cfg *config.ObjectStoreConfig, logger *slog.Logger) (*objectstore.Client, error) {
	storeConfig := &objectstore.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	}

	return objectstore.NewClient(storeConfig, logger)
}
