package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gobalance/internal/domain"
	"github.com/iho/gobalance/internal/usecase"
)

const (
	findBalanceSQL = `SELECT user_id, amount, created_at, updated_at
FROM balances WHERE user_id = $1`

	findBalanceForUpdateSQL = findBalanceSQL + ` FOR UPDATE`

	insertBalanceSQL = `INSERT INTO balances (user_id, amount, created_at, updated_at)
VALUES ($1, 0, $2, $2)
ON CONFLICT (user_id) DO NOTHING`

	updateBalanceSQL = `UPDATE balances SET amount = $2, updated_at = $3 WHERE user_id = $1`
)

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	pool *pgxpool.Pool
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return &BalanceRepository{pool: pool}
}

// Find retrieves a balance outside any transaction.
func (r *BalanceRepository) Find(ctx context.Context, userID int64) (*domain.Balance, error) {
	return scanBalance(r.pool.QueryRow(ctx, findBalanceSQL, userID))
}

// FindForUpdate retrieves a balance with a FOR UPDATE lock.
func (r *BalanceRepository) FindForUpdate(ctx context.Context, tx usecase.Transaction, userID int64) (*domain.Balance, error) {
	pgxTx := tx.(*Tx).PgxTx()

	return scanBalance(pgxTx.QueryRow(ctx, findBalanceForUpdateSQL, userID))
}

// FindOrCreateForUpdate inserts a zero balance if the user has none, then
// locks and returns the row.
func (r *BalanceRepository) FindOrCreateForUpdate(ctx context.Context, tx usecase.Transaction, userID int64) (*domain.Balance, error) {
	pgxTx := tx.(*Tx).PgxTx()

	if _, err := pgxTx.Exec(ctx, insertBalanceSQL, userID, timeToPgTimestamptz(time.Now().UTC())); err != nil {
		return nil, err
	}

	return scanBalance(pgxTx.QueryRow(ctx, findBalanceForUpdateSQL, userID))
}

// UpdateBalance writes a new amount for a locked row.
func (r *BalanceRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, userID int64, amount decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, updateBalanceSQL, userID, decimalToNumeric(amount), timeToPgTimestamptz(updatedAt))

	return err
}

func scanBalance(row pgx.Row) (*domain.Balance, error) {
	var (
		balance   domain.Balance
		amount    pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	if err := row.Scan(&balance.UserID, &amount, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	balance.Amount = numericToDecimal(amount)
	balance.CreatedAt = createdAt.Time
	balance.UpdatedAt = updatedAt.Time

	return &balance, nil
}
