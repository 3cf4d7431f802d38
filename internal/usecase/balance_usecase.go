package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobalance/internal/domain"
	"github.com/iho/gobalance/internal/infrastructure/metrics"
)

const defaultPublishTimeout = 5 * time.Second

// BalanceUseCase is the balance-mutation engine. Each public operation runs
// as one unit of work: acquire row locks, validate, mutate the balance,
// append the ledger record, commit, then notify. The engine itself holds no
// state; it is safe to share across request handlers.
type BalanceUseCase struct {
	txManager      TransactionManager
	balanceRepo    BalanceRepository
	txnRepo        TransactionRepository
	publisher      EventPublisher
	retrier        Retrier
	metrics        *metrics.Metrics
	logger         zerolog.Logger
	publishTimeout time.Duration
}

// BalanceUseCaseConfig holds dependencies for BalanceUseCase. Publisher,
// Retrier and Metrics are optional: a nil Publisher disables notifications, a
// nil Retrier runs each unit of work exactly once.
type BalanceUseCaseConfig struct {
	TxManager       TransactionManager
	BalanceRepo     BalanceRepository
	TransactionRepo TransactionRepository
	Publisher       EventPublisher
	Retrier         Retrier
	Metrics         *metrics.Metrics
	Logger          zerolog.Logger
	PublishTimeout  time.Duration
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(cfg BalanceUseCaseConfig) *BalanceUseCase {
	if cfg.PublishTimeout == 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}

	return &BalanceUseCase{
		txManager:      cfg.TxManager,
		balanceRepo:    cfg.BalanceRepo,
		txnRepo:        cfg.TransactionRepo,
		publisher:      cfg.Publisher,
		retrier:        cfg.Retrier,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		publishTimeout: cfg.PublishTimeout,
	}
}

// DepositInput represents input for a deposit.
type DepositInput struct {
	UserID  int64
	Amount  decimal.Decimal
	Comment *string
}

// DepositResult is the outcome of a completed deposit.
type DepositResult struct {
	Transaction *domain.Transaction
	NewBalance  decimal.Decimal
}

// WithdrawInput represents input for a withdrawal.
type WithdrawInput struct {
	UserID  int64
	Amount  decimal.Decimal
	Comment *string
}

// WithdrawResult is the outcome of a completed withdrawal.
type WithdrawResult struct {
	Transaction *domain.Transaction
	NewBalance  decimal.Decimal
}

// TransferInput represents input for a transfer between two users.
type TransferInput struct {
	FromUserID int64
	ToUserID   int64
	Amount     decimal.Decimal
	Comment    *string
}

// TransferResult is the outcome of a completed transfer: the two linked
// ledger records plus both post-mutation balances.
type TransferResult struct {
	OutTransaction *domain.Transaction
	InTransaction  *domain.Transaction
	FromBalance    decimal.Decimal
	ToBalance      decimal.Decimal
}

// GetBalance returns the current balance for a user. Unknown users fail with
// ErrAccountNotFound; reads never create rows.
func (uc *BalanceUseCase) GetBalance(ctx context.Context, userID int64) (*domain.Balance, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}

	return uc.balanceRepo.Find(ctx, userID)
}

// Deposit credits amount to the user's balance, creating a zero balance first
// if the user has never been seen.
func (uc *BalanceUseCase) Deposit(ctx context.Context, input DepositInput) (*DepositResult, error) {
	if err := validateOperation(input.UserID, input.Amount, input.Comment); err != nil {
		return nil, err
	}

	var result DepositResult

	err := uc.inUnitOfWork(ctx, func(tx Transaction) error {
		balance, err := uc.balanceRepo.FindOrCreateForUpdate(ctx, tx, input.UserID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		newBalance := balance.ApplyCredit(input.Amount)

		if err := uc.balanceRepo.UpdateBalance(ctx, tx, input.UserID, newBalance, now); err != nil {
			return err
		}

		txn := &domain.Transaction{
			ToUserID: &input.UserID,
			Type:     domain.TransactionTypeDeposit,
			Amount:   input.Amount,
			Comment:  input.Comment,
		}

		if err := uc.txnRepo.Append(ctx, tx, txn); err != nil {
			return err
		}

		result = DepositResult{Transaction: txn, NewBalance: newBalance}

		return nil
	})
	if err != nil {
		uc.metrics.RecordOperationError("deposit", errorKind(err))
		return nil, err
	}

	uc.metrics.RecordOperation("deposit", input.Amount.InexactFloat64())
	uc.notify(ctx, domain.Event{
		Type: domain.EventTypeBalanceDeposited,
		Payload: domain.BalanceDepositedEvent{
			UserID:        input.UserID,
			Amount:        input.Amount.StringFixed(2),
			NewBalance:    result.NewBalance.StringFixed(2),
			TransactionID: result.Transaction.ID,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		},
	})

	return &result, nil
}

// Withdraw debits amount from the user's balance. The user must exist and
// hold at least amount; withdrawing the exact balance is allowed.
func (uc *BalanceUseCase) Withdraw(ctx context.Context, input WithdrawInput) (*WithdrawResult, error) {
	if err := validateOperation(input.UserID, input.Amount, input.Comment); err != nil {
		return nil, err
	}

	var result WithdrawResult

	err := uc.inUnitOfWork(ctx, func(tx Transaction) error {
		balance, err := uc.balanceRepo.FindForUpdate(ctx, tx, input.UserID)
		if err != nil {
			return err
		}

		if err := balance.CanWithdraw(input.Amount); err != nil {
			return err
		}

		now := time.Now().UTC()
		newBalance := balance.ApplyDebit(input.Amount)

		if err := uc.balanceRepo.UpdateBalance(ctx, tx, input.UserID, newBalance, now); err != nil {
			return err
		}

		txn := &domain.Transaction{
			ToUserID: &input.UserID,
			Type:     domain.TransactionTypeWithdraw,
			Amount:   input.Amount,
			Comment:  input.Comment,
		}

		if err := uc.txnRepo.Append(ctx, tx, txn); err != nil {
			return err
		}

		result = WithdrawResult{Transaction: txn, NewBalance: newBalance}

		return nil
	})
	if err != nil {
		uc.metrics.RecordOperationError("withdraw", errorKind(err))
		return nil, err
	}

	uc.metrics.RecordOperation("withdraw", input.Amount.InexactFloat64())
	uc.notify(ctx, domain.Event{
		Type: domain.EventTypeBalanceWithdrawn,
		Payload: domain.BalanceWithdrawnEvent{
			UserID:        input.UserID,
			Amount:        input.Amount.StringFixed(2),
			NewBalance:    result.NewBalance.StringFixed(2),
			TransactionID: result.Transaction.ID,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		},
	})

	return &result, nil
}

// Transfer moves amount from one user to another. The source must exist and
// hold at least amount; the destination is created on first reference. Both
// balance updates and both ledger records commit together or not at all.
func (uc *BalanceUseCase) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if err := validateOperation(input.FromUserID, input.Amount, input.Comment); err != nil {
		return nil, err
	}

	if err := domain.ValidateUserID(input.ToUserID); err != nil {
		return nil, err
	}

	if input.FromUserID == input.ToUserID {
		return nil, domain.ErrSameUser
	}

	var result TransferResult

	err := uc.inUnitOfWork(ctx, func(tx Transaction) error {
		fromBalance, toBalance, err := uc.lockTransferPair(ctx, tx, input.FromUserID, input.ToUserID)
		if err != nil {
			return err
		}

		if err := fromBalance.CanWithdraw(input.Amount); err != nil {
			return err
		}

		now := time.Now().UTC()
		newFromBalance := fromBalance.ApplyDebit(input.Amount)
		newToBalance := toBalance.ApplyCredit(input.Amount)

		if err := uc.balanceRepo.UpdateBalance(ctx, tx, input.FromUserID, newFromBalance, now); err != nil {
			return err
		}

		if err := uc.balanceRepo.UpdateBalance(ctx, tx, input.ToUserID, newToBalance, now); err != nil {
			return err
		}

		outTxn := &domain.Transaction{
			FromUserID: &input.FromUserID,
			ToUserID:   &input.ToUserID,
			Type:       domain.TransactionTypeTransferOut,
			Amount:     input.Amount,
			Comment:    input.Comment,
		}

		if err := uc.txnRepo.Append(ctx, tx, outTxn); err != nil {
			return err
		}

		inTxn := &domain.Transaction{
			FromUserID: &input.FromUserID,
			ToUserID:   &input.ToUserID,
			Type:       domain.TransactionTypeTransferIn,
			Amount:     input.Amount,
			Comment:    input.Comment,
		}

		if err := uc.txnRepo.Append(ctx, tx, inTxn); err != nil {
			return err
		}

		result = TransferResult{
			OutTransaction: outTxn,
			InTransaction:  inTxn,
			FromBalance:    newFromBalance,
			ToBalance:      newToBalance,
		}

		return nil
	})
	if err != nil {
		uc.metrics.RecordOperationError("transfer", errorKind(err))
		return nil, err
	}

	uc.metrics.RecordOperation("transfer", input.Amount.InexactFloat64())
	uc.notify(ctx, domain.Event{
		Type: domain.EventTypeBalanceTransferred,
		Payload: domain.BalanceTransferredEvent{
			FromUserID:    input.FromUserID,
			ToUserID:      input.ToUserID,
			Amount:        input.Amount.StringFixed(2),
			FromBalance:   result.FromBalance.StringFixed(2),
			ToBalance:     result.ToBalance.StringFixed(2),
			TransactionID: result.OutTransaction.ID,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		},
	})

	return &result, nil
}

// lockTransferPair locks both balance rows in ascending user-id order so that
// two opposing transfers cannot deadlock. The destination row is created if
// it does not exist yet; the source must already exist.
func (uc *BalanceUseCase) lockTransferPair(ctx context.Context, tx Transaction, fromUserID, toUserID int64) (*domain.Balance, *domain.Balance, error) {
	var (
		fromBalance, toBalance *domain.Balance
		err                    error
	)

	if fromUserID < toUserID {
		fromBalance, err = uc.balanceRepo.FindForUpdate(ctx, tx, fromUserID)
		if err != nil {
			return nil, nil, err
		}

		toBalance, err = uc.balanceRepo.FindOrCreateForUpdate(ctx, tx, toUserID)
		if err != nil {
			return nil, nil, err
		}
	} else {
		toBalance, err = uc.balanceRepo.FindOrCreateForUpdate(ctx, tx, toUserID)
		if err != nil {
			return nil, nil, err
		}

		fromBalance, err = uc.balanceRepo.FindForUpdate(ctx, tx, fromUserID)
		if err != nil {
			return nil, nil, err
		}
	}

	return fromBalance, toBalance, nil
}

// inUnitOfWork runs fn inside a transaction, committing on success and
// rolling back on any error path. The retrier re-runs the whole unit on
// transient storage errors; fn re-reads its rows on each attempt.
func (uc *BalanceUseCase) inUnitOfWork(ctx context.Context, fn func(tx Transaction) error) error {
	operation := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin unit of work: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := fn(tx); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit unit of work: %w", err)
		}

		return nil
	}

	if uc.retrier != nil {
		return uc.retrier.Retry(ctx, operation)
	}

	return operation()
}

// notify announces a committed mutation. Failures never surface to the
// caller and never undo the mutation; the publish is bounded by its own
// timeout and detached from the caller's cancellation.
func (uc *BalanceUseCase) notify(ctx context.Context, event domain.Event) {
	if uc.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.publishTimeout)
	defer cancel()

	if err := uc.publisher.Publish(pubCtx, event); err != nil {
		uc.metrics.RecordEventPublishFailure()
		uc.logger.Warn().
			Err(err).
			Str("event_type", event.Type).
			Msg("failed to publish balance event")

		return
	}

	uc.metrics.RecordEventPublished()
}

func validateOperation(userID int64, amount decimal.Decimal, comment *string) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}

	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}

	return domain.ValidateComment(comment)
}
