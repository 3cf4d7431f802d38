package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobalance/internal/domain"
)

// BalanceRepository defines data access for per-user balances.
type BalanceRepository interface {
	Find(ctx context.Context, userID int64) (*domain.Balance, error)
	// FindForUpdate locks the balance row for the duration of tx.
	FindForUpdate(ctx context.Context, tx Transaction, userID int64) (*domain.Balance, error)
	// FindOrCreateForUpdate returns the locked balance row, creating a zero
	// balance first if the user has never been seen. Concurrent calls for the
	// same unseen user must not create duplicate rows.
	FindOrCreateForUpdate(ctx context.Context, tx Transaction, userID int64) (*domain.Balance, error)
	UpdateBalance(ctx context.Context, tx Transaction, userID int64, amount decimal.Decimal, updatedAt time.Time) error
}

// TransactionRepository defines data access for the append-only ledger.
type TransactionRepository interface {
	// Append persists one immutable record, filling in ID and CreatedAt.
	Append(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	ListByUser(ctx context.Context, userID int64, txnType *domain.TransactionType, limit, offset int) ([]*domain.Transaction, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// EventPublisher announces committed mutations to external consumers.
// Publishing is best-effort: the engine logs and swallows failures.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Retrier re-runs a unit of work on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}
