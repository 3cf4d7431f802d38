package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobalance/internal/domain"
	"github.com/iho/gobalance/internal/usecase"
	"github.com/iho/gobalance/internal/usecase/mocks"
)

// With N concurrent withdrawals of amount A against a balance of (N-1)*A,
// exactly one must fail with insufficient funds and the rest must succeed.
func TestBalanceUseCase_ConcurrentWithdrawals(t *testing.T) {
	const (
		workers = 8
		amount  = 100
	)

	balanceRepo := mocks.NewMockBalanceRepository()
	txnRepo := mocks.NewMockTransactionRepository()
	txManager := mocks.NewMockTransactionManager()
	txManager.Serialize = true

	uc := usecase.NewBalanceUseCase(usecase.BalanceUseCaseConfig{
		TxManager:       txManager,
		BalanceRepo:     balanceRepo,
		TransactionRepo: txnRepo,
		Logger:          zerolog.Nop(),
	})

	balanceRepo.Seed(1, decimal.NewFromInt((workers-1)*amount))

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := uc.Withdraw(context.Background(), usecase.WithdrawInput{
				UserID: 1,
				Amount: decimal.NewFromInt(amount),
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientFunds):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != workers-1 {
		t.Errorf("expected %d successful withdrawals, got %d", workers-1, succeeded)
	}
	if insufficient != 1 {
		t.Errorf("expected exactly one insufficient-funds failure, got %d", insufficient)
	}
	if got := balanceRepo.Stored(1); !got.IsZero() {
		t.Errorf("expected final balance zero, got %s", got)
	}
	if n := len(txnRepo.All()); n != workers-1 {
		t.Errorf("expected %d ledger records, got %d", workers-1, n)
	}
}

// Concurrent opposing transfers must not deadlock and must conserve the
// total amount across the pair.
func TestBalanceUseCase_ConcurrentOpposingTransfers(t *testing.T) {
	balanceRepo := mocks.NewMockBalanceRepository()
	txnRepo := mocks.NewMockTransactionRepository()
	txManager := mocks.NewMockTransactionManager()
	txManager.Serialize = true

	uc := usecase.NewBalanceUseCase(usecase.BalanceUseCaseConfig{
		TxManager:       txManager,
		BalanceRepo:     balanceRepo,
		TransactionRepo: txnRepo,
		Logger:          zerolog.Nop(),
	})

	balanceRepo.Seed(1, decimal.NewFromInt(1000))
	balanceRepo.Seed(2, decimal.NewFromInt(1000))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		from, to := int64(1), int64(2)
		if i%2 == 1 {
			from, to = to, from
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Transfer(context.Background(), usecase.TransferInput{
				FromUserID: from,
				ToUserID:   to,
				Amount:     decimal.NewFromInt(50),
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	total := balanceRepo.Stored(1).Add(balanceRepo.Stored(2))
	if !total.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected total 2000 across the pair, got %s", total)
	}
}
