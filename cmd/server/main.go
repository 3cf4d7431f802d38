package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	redislib "github.com/redis/go-redis/v9"

	httpAdapter "github.com/iho/gobalance/internal/adapter/http"
	"github.com/iho/gobalance/internal/adapter/http/handler"
	"github.com/iho/gobalance/internal/adapter/http/middleware"
	rabbitAdapter "github.com/iho/gobalance/internal/adapter/rabbitmq"
	postgresRepo "github.com/iho/gobalance/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gobalance/internal/adapter/repository/redis"
	"github.com/iho/gobalance/internal/infrastructure/config"
	"github.com/iho/gobalance/internal/infrastructure/logger"
	"github.com/iho/gobalance/internal/infrastructure/metrics"
	"github.com/iho/gobalance/internal/infrastructure/postgres"
	"github.com/iho/gobalance/internal/infrastructure/rabbitmq"
	"github.com/iho/gobalance/internal/infrastructure/redis"
	"github.com/iho/gobalance/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	// Run migrations when a path is configured
	if cfg.MigrationsPath != "" {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	balanceRepo := postgresRepo.NewBalanceRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	retrier := postgresRepo.NewRetrier(log)

	appMetrics := metrics.New()

	// Connect to Redis when configured
	var idempotencyStore middleware.IdempotencyStore
	var redisClient *redislib.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		log.Info().Msg("connected to redis")
	}

	// Connect to RabbitMQ when configured
	var publisher usecase.EventPublisher
	if cfg.RabbitMQURL != "" {
		broker, err := rabbitmq.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
		}
		defer broker.Close()

		if err := broker.DeclareEventExchange(cfg.EventExchange); err != nil {
			log.Fatal().Err(err).Msg("failed to declare event exchange")
		}

		publisher = rabbitAdapter.NewPublisher(broker.Channel(), cfg.EventExchange, log)
		log.Info().Str("exchange", cfg.EventExchange).Msg("connected to rabbitmq")
	}

	// Initialize use cases
	balanceUC := usecase.NewBalanceUseCase(usecase.BalanceUseCaseConfig{
		TxManager:       txManager,
		BalanceRepo:     balanceRepo,
		TransactionRepo: transactionRepo,
		Publisher:       publisher,
		Retrier:         retrier,
		Metrics:         appMetrics,
		Logger:          log,
		PublishTimeout:  cfg.PublishTimeout,
	})
	transactionUC := usecase.NewTransactionUseCase(transactionRepo)

	// Initialize handlers
	balanceHandler := handler.NewBalanceHandler(balanceUC)
	transactionHandler := handler.NewTransactionHandler(transactionUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		BalanceHandler:     balanceHandler,
		TransactionHandler: transactionHandler,
		HealthHandler:      healthHandler,
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
