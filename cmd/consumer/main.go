package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	rabbitAdapter "github.com/iho/gobalance/internal/adapter/rabbitmq"
	postgresRepo "github.com/iho/gobalance/internal/adapter/repository/postgres"
	"github.com/iho/gobalance/internal/infrastructure/config"
	"github.com/iho/gobalance/internal/infrastructure/logger"
	"github.com/iho/gobalance/internal/infrastructure/metrics"
	"github.com/iho/gobalance/internal/infrastructure/postgres"
	"github.com/iho/gobalance/internal/infrastructure/rabbitmq"
	"github.com/iho/gobalance/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.RabbitMQURL == "" {
		log.Fatal().Msg("RABBITMQ_URL is required for the command consumer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	appMetrics := metrics.New()

	// Reconnect with backoff until the context is cancelled.
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0

	err = backoff.Retry(func() error {
		runErr := run(ctx, cfg, pool, appMetrics, log)
		if runErr == nil || errors.Is(runErr, context.Canceled) {
			return nil
		}

		log.Error().Err(runErr).Msg("consumer stopped, reconnecting")
		return runErr
	}, backoff.WithContext(b, ctx))
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("consumer failed")
	}

	log.Info().Msg("consumer stopped")
}

// run connects to the broker, wires the balance engine and drains the
// command queue until the connection drops or the context is cancelled.
func run(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, appMetrics *metrics.Metrics, log zerolog.Logger) error {
	broker, err := rabbitmq.Dial(cfg.RabbitMQURL)
	if err != nil {
		return err
	}
	defer broker.Close()

	if err := broker.DeclareEventExchange(cfg.EventExchange); err != nil {
		return err
	}
	if err := broker.DeclareCommandQueue(cfg.CommandQueue, cfg.CommandExchange, cfg.CommandRoutingKey); err != nil {
		return err
	}

	balanceUC := usecase.NewBalanceUseCase(usecase.BalanceUseCaseConfig{
		TxManager:       postgresRepo.NewTxManager(pool),
		BalanceRepo:     postgresRepo.NewBalanceRepository(pool),
		TransactionRepo: postgresRepo.NewTransactionRepository(pool),
		Publisher:       rabbitAdapter.NewPublisher(broker.Channel(), cfg.EventExchange, log),
		Retrier:         postgresRepo.NewRetrier(log),
		Metrics:         appMetrics,
		Logger:          log,
		PublishTimeout:  cfg.PublishTimeout,
	})

	consumer := rabbitAdapter.NewConsumer(rabbitAdapter.ConsumerConfig{
		Channel: broker.Channel(),
		Queue:   cfg.CommandQueue,
		Service: balanceUC,
		Logger:  log,
		Metrics: appMetrics,
	})

	return consumer.Start(ctx)
}
