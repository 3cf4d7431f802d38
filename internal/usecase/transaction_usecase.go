package usecase

import (
	"context"
	"fmt"

	"github.com/iho/gobalance/internal/domain"
)

// TransactionUseCase handles read access to the ledger.
type TransactionUseCase struct {
	txnRepo TransactionRepository
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(txnRepo TransactionRepository) *TransactionUseCase {
	return &TransactionUseCase{txnRepo: txnRepo}
}

// GetTransaction retrieves a ledger record by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	return uc.txnRepo.GetByID(ctx, id)
}

// ListTransactionsInput represents input for listing a user's ledger records.
type ListTransactionsInput struct {
	UserID int64
	Type   *domain.TransactionType
	Limit  int
	Offset int
}

// ListTransactions lists ledger records affecting a user, newest first,
// optionally filtered by record type.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.Transaction, error) {
	if err := domain.ValidateUserID(input.UserID); err != nil {
		return nil, err
	}

	if input.Type != nil && !input.Type.Valid() {
		return nil, fmt.Errorf("unknown transaction type %q", *input.Type)
	}

	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	if input.Offset < 0 {
		input.Offset = 0
	}

	return uc.txnRepo.ListByUser(ctx, input.UserID, input.Type, input.Limit, input.Offset)
}
