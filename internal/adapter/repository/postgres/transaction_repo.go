package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobalance/internal/domain"
	"github.com/iho/gobalance/internal/usecase"
)

const (
	insertTransactionSQL = `INSERT INTO transactions (from_user_id, to_user_id, type, amount, comment)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`

	getTransactionSQL = `SELECT id, from_user_id, to_user_id, type, amount, comment, created_at
FROM transactions WHERE id = $1`

	listTransactionsSQL = `SELECT id, from_user_id, to_user_id, type, amount, comment, created_at
FROM transactions
WHERE (from_user_id = $1 OR to_user_id = $1) AND ($2::text IS NULL OR type = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4`
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Append writes a ledger record inside the unit of work and fills in its
// store-assigned id and timestamp.
func (r *TransactionRepository) Append(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	var createdAt pgtype.Timestamptz
	err := pgxTx.QueryRow(ctx, insertTransactionSQL,
		txn.FromUserID,
		txn.ToUserID,
		string(txn.Type),
		decimalToNumeric(txn.Amount),
		txn.Comment,
	).Scan(&txn.ID, &createdAt)
	if err != nil {
		return err
	}

	txn.CreatedAt = createdAt.Time

	return nil
}

// GetByID retrieves a single ledger record.
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	txn, err := scanTransaction(r.pool.QueryRow(ctx, getTransactionSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return txn, nil
}

// ListByUser retrieves the records that touch a user, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64, txnType *domain.TransactionType, limit, offset int) ([]*domain.Transaction, error) {
	var typeFilter *string
	if txnType != nil {
		s := string(*txnType)
		typeFilter = &s
	}

	rows, err := r.pool.Query(ctx, listTransactionsSQL, userID, typeFilter, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn       domain.Transaction
		txnType   string
		amount    pgtype.Numeric
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(&txn.ID, &txn.FromUserID, &txn.ToUserID, &txnType, &amount, &txn.Comment, &createdAt)
	if err != nil {
		return nil, err
	}

	txn.Type = domain.TransactionType(txnType)
	txn.Amount = numericToDecimal(amount)
	txn.CreatedAt = createdAt.Time

	return &txn, nil
}
