package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobalance/internal/domain"
	"github.com/iho/gobalance/internal/infrastructure/metrics"
	"github.com/iho/gobalance/internal/usecase"
)

// Command names accepted from the command queue.
const (
	CommandCheckBalance = "check_balance"
	CommandWithdraw     = "withdraw"
)

// Command is the wire shape of an asynchronous balance command.
type Command struct {
	Command string          `json:"command"`
	UserID  int64           `json:"user_id"`
	Amount  decimal.Decimal `json:"amount"`
	OrderID string          `json:"order_id"`
}

// BalanceService is the slice of the balance engine the consumer needs.
type BalanceService interface {
	GetBalance(ctx context.Context, userID int64) (*domain.Balance, error)
	Withdraw(ctx context.Context, input usecase.WithdrawInput) (*usecase.WithdrawResult, error)
}

// amqpConsumeChannel is the slice of *amqp.Channel the consumer needs.
type amqpConsumeChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Consumer drains the command queue and applies each command through the
// balance engine. Processing is at-least-once: every delivery is acked, and
// a command that fails is logged and dropped rather than requeued, so one
// malformed message cannot wedge the queue.
type Consumer struct {
	channel amqpConsumeChannel
	queue   string
	service BalanceService
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// ConsumerConfig collects the dependencies of a Consumer.
type ConsumerConfig struct {
	Channel amqpConsumeChannel
	Queue   string
	Service BalanceService
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// NewConsumer creates a new Consumer. The queue must already be declared and
// bound.
func NewConsumer(cfg ConsumerConfig) *Consumer {
	return &Consumer{
		channel: cfg.Channel,
		queue:   cfg.Queue,
		service: cfg.Service,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Start consumes commands until the context is cancelled or the delivery
// channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer on %s: %w", c.queue, err)
	}

	c.logger.Info().Str("queue", c.queue).Msg("command consumer started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("command consumer shutting down")
			return ctx.Err()

		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", c.queue)
			}

			c.handleDelivery(ctx, msg)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, msg amqp.Delivery) {
	// Failed commands are dropped, never requeued.
	defer func() {
		if err := msg.Ack(false); err != nil {
			c.logger.Error().Err(err).Msg("failed to ack delivery")
		}
	}()

	var cmd Command
	if err := json.Unmarshal(msg.Body, &cmd); err != nil {
		c.logger.Error().Err(err).Str("body", string(msg.Body)).Msg("dropping malformed command")
		c.metrics.RecordCommandDropped("unknown", "malformed")
		return
	}

	c.metrics.RecordCommandReceived(cmd.Command)

	if err := c.dispatch(ctx, cmd); err != nil {
		c.logger.Error().
			Err(err).
			Str("command", cmd.Command).
			Int64("user_id", cmd.UserID).
			Str("order_id", cmd.OrderID).
			Msg("dropping failed command")
		c.metrics.RecordCommandDropped(cmd.Command, "failed")
	}
}

func (c *Consumer) dispatch(ctx context.Context, cmd Command) error {
	switch cmd.Command {
	case CommandCheckBalance:
		return c.checkBalance(ctx, cmd)
	case CommandWithdraw:
		return c.withdraw(ctx, cmd)
	default:
		return fmt.Errorf("unknown command %q", cmd.Command)
	}
}

func (c *Consumer) checkBalance(ctx context.Context, cmd Command) error {
	balance, err := c.service.GetBalance(ctx, cmd.UserID)
	if err != nil {
		return fmt.Errorf("check balance for user %d: %w", cmd.UserID, err)
	}

	sufficient := balance.Amount.GreaterThanOrEqual(cmd.Amount)

	c.logger.Info().
		Int64("user_id", cmd.UserID).
		Str("order_id", cmd.OrderID).
		Str("balance", balance.Amount.String()).
		Str("required", cmd.Amount.String()).
		Bool("sufficient", sufficient).
		Msg("balance check")

	return nil
}

func (c *Consumer) withdraw(ctx context.Context, cmd Command) error {
	comment := fmt.Sprintf("payment for order %s", cmd.OrderID)

	result, err := c.service.Withdraw(ctx, usecase.WithdrawInput{
		UserID:  cmd.UserID,
		Amount:  cmd.Amount,
		Comment: &comment,
	})
	if err != nil {
		return fmt.Errorf("withdraw for order %s: %w", cmd.OrderID, err)
	}

	c.logger.Info().
		Int64("user_id", cmd.UserID).
		Str("order_id", cmd.OrderID).
		Int64("transaction_id", result.Transaction.ID).
		Str("new_balance", result.NewBalance.String()).
		Msg("withdrawal command applied")

	return nil
}
