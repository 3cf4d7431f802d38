package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gobalance/internal/domain"
	"github.com/iho/gobalance/internal/usecase"
	"github.com/iho/gobalance/internal/usecase/mocks"
)

func seedLedger(t *testing.T, repo *mocks.MockTransactionRepository) []*domain.Transaction {
	t.Helper()

	user1, user2 := int64(1), int64(2)
	records := []*domain.Transaction{
		{ToUserID: &user1, Type: domain.TransactionTypeDeposit, Amount: decimal.NewFromInt(100)},
		{ToUserID: &user1, Type: domain.TransactionTypeWithdraw, Amount: decimal.NewFromInt(30)},
		{FromUserID: &user1, ToUserID: &user2, Type: domain.TransactionTypeTransferOut, Amount: decimal.NewFromInt(20)},
		{FromUserID: &user1, ToUserID: &user2, Type: domain.TransactionTypeTransferIn, Amount: decimal.NewFromInt(20)},
	}
	for _, txn := range records {
		if err := repo.Append(context.Background(), nil, txn); err != nil {
			t.Fatalf("seeding ledger: %v", err)
		}
	}
	return records
}

func TestTransactionUseCase_GetTransaction(t *testing.T) {
	repo := mocks.NewMockTransactionRepository()
	records := seedLedger(t, repo)
	uc := usecase.NewTransactionUseCase(repo)

	t.Run("existing record", func(t *testing.T) {
		txn, err := uc.GetTransaction(context.Background(), records[0].ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if txn.Type != domain.TransactionTypeDeposit {
			t.Errorf("expected deposit record, got %s", txn.Type)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := uc.GetTransaction(context.Background(), 9999)
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			t.Errorf("expected ErrTransactionNotFound, got %v", err)
		}
	})
}

func TestTransactionUseCase_ListTransactions(t *testing.T) {
	repo := mocks.NewMockTransactionRepository()
	seedLedger(t, repo)
	uc := usecase.NewTransactionUseCase(repo)

	t.Run("all records for a user", func(t *testing.T) {
		txns, err := uc.ListTransactions(context.Background(), usecase.ListTransactionsInput{UserID: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(txns) != 4 {
			t.Errorf("expected 4 records for user 1, got %d", len(txns))
		}
	})

	t.Run("filter by kind", func(t *testing.T) {
		kind := domain.TransactionTypeDeposit
		txns, err := uc.ListTransactions(context.Background(), usecase.ListTransactionsInput{
			UserID: 1,
			Type:   &kind,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(txns) != 1 || txns[0].Type != domain.TransactionTypeDeposit {
			t.Errorf("expected a single deposit record, got %+v", txns)
		}
	})

	t.Run("limit and offset", func(t *testing.T) {
		page, err := uc.ListTransactions(context.Background(), usecase.ListTransactionsInput{
			UserID: 1,
			Limit:  2,
			Offset: 2,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page) != 2 {
			t.Errorf("expected 2 records on the second page, got %d", len(page))
		}
	})

	t.Run("invalid user id", func(t *testing.T) {
		_, err := uc.ListTransactions(context.Background(), usecase.ListTransactionsInput{UserID: -1})
		if !errors.Is(err, domain.ErrInvalidUserID) {
			t.Errorf("expected ErrInvalidUserID, got %v", err)
		}
	})
}
