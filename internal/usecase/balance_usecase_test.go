package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobalance/internal/domain"
	"github.com/iho/gobalance/internal/usecase"
	"github.com/iho/gobalance/internal/usecase/mocks"
)

type engineFixture struct {
	balanceRepo *mocks.MockBalanceRepository
	txnRepo     *mocks.MockTransactionRepository
	txManager   *mocks.MockTransactionManager
	publisher   *mocks.MockEventPublisher
	uc          *usecase.BalanceUseCase
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		balanceRepo: mocks.NewMockBalanceRepository(),
		txnRepo:     mocks.NewMockTransactionRepository(),
		txManager:   mocks.NewMockTransactionManager(),
		publisher:   mocks.NewMockEventPublisher(),
	}

	f.uc = usecase.NewBalanceUseCase(usecase.BalanceUseCaseConfig{
		TxManager:       f.txManager,
		BalanceRepo:     f.balanceRepo,
		TransactionRepo: f.txnRepo,
		Publisher:       f.publisher,
		Logger:          zerolog.Nop(),
	})

	return f
}

func TestBalanceUseCase_GetBalance(t *testing.T) {
	f := newEngineFixture()
	f.balanceRepo.Seed(1, decimal.RequireFromString("350.00"))

	t.Run("existing user", func(t *testing.T) {
		balance, err := f.uc.GetBalance(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !balance.Amount.Equal(decimal.RequireFromString("350.00")) {
			t.Errorf("expected balance 350.00, got %s", balance.Amount)
		}
	})

	t.Run("repeated reads return the same value", func(t *testing.T) {
		first, err := f.uc.GetBalance(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := f.uc.GetBalance(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !first.Amount.Equal(second.Amount) {
			t.Errorf("expected identical reads, got %s and %s", first.Amount, second.Amount)
		}
	})

	t.Run("unknown user fails with not found", func(t *testing.T) {
		_, err := f.uc.GetBalance(context.Background(), 99)
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("reads never create rows", func(t *testing.T) {
		_, _ = f.uc.GetBalance(context.Background(), 99)
		if _, err := f.uc.GetBalance(context.Background(), 99); !errors.Is(err, domain.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound on second read, got %v", err)
		}
	})

	t.Run("invalid user id", func(t *testing.T) {
		_, err := f.uc.GetBalance(context.Background(), 0)
		if !errors.Is(err, domain.ErrInvalidUserID) {
			t.Errorf("expected ErrInvalidUserID, got %v", err)
		}
	})
}

func TestBalanceUseCase_Deposit(t *testing.T) {
	t.Run("deposit to unseen user creates the balance", func(t *testing.T) {
		f := newEngineFixture()
		comment := "card top-up"

		result, err := f.uc.Deposit(context.Background(), usecase.DepositInput{
			UserID:  1,
			Amount:  decimal.RequireFromString("500.00"),
			Comment: &comment,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !result.NewBalance.Equal(decimal.RequireFromString("500.00")) {
			t.Errorf("expected new balance 500.00, got %s", result.NewBalance)
		}

		txn := result.Transaction
		if txn.ID == 0 {
			t.Error("expected store-assigned transaction id")
		}
		if txn.Type != domain.TransactionTypeDeposit {
			t.Errorf("expected deposit record, got %s", txn.Type)
		}
		if txn.FromUserID != nil {
			t.Error("deposit record must not carry a source user")
		}
		if txn.ToUserID == nil || *txn.ToUserID != 1 {
			t.Error("deposit record must carry the destination user")
		}

		if got := f.balanceRepo.Stored(1); !got.Equal(decimal.RequireFromString("500.00")) {
			t.Errorf("expected stored balance 500.00, got %s", got)
		}

		if n := len(f.txnRepo.All()); n != 1 {
			t.Errorf("expected exactly one ledger record, got %d", n)
		}
	})

	t.Run("deposit adds to an existing balance", func(t *testing.T) {
		f := newEngineFixture()
		f.balanceRepo.Seed(1, decimal.RequireFromString("100.50"))

		result, err := f.uc.Deposit(context.Background(), usecase.DepositInput{
			UserID: 1,
			Amount: decimal.RequireFromString("0.50"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !result.NewBalance.Equal(decimal.NewFromInt(101)) {
			t.Errorf("expected new balance 101, got %s", result.NewBalance)
		}
	})

	t.Run("non-positive amount is rejected before the unit of work", func(t *testing.T) {
		f := newEngineFixture()
		f.txManager.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
			t.Fatal("Begin should not be called for invalid input")
			return nil, nil
		}

		_, err := f.uc.Deposit(context.Background(), usecase.DepositInput{
			UserID: 1,
			Amount: decimal.Zero,
		})
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("expected ErrInvalidAmount, got %v", err)
		}

		if len(f.publisher.Events()) != 0 {
			t.Error("no event may be published for a failed deposit")
		}
	})

	t.Run("deposit publishes a balance_deposited event", func(t *testing.T) {
		f := newEngineFixture()

		result, err := f.uc.Deposit(context.Background(), usecase.DepositInput{
			UserID: 7,
			Amount: decimal.RequireFromString("42.00"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		events := f.publisher.Events()
		if len(events) != 1 {
			t.Fatalf("expected one event, got %d", len(events))
		}
		if events[0].Type != domain.EventTypeBalanceDeposited {
			t.Errorf("expected balance_deposited, got %s", events[0].Type)
		}

		payload, ok := events[0].Payload.(domain.BalanceDepositedEvent)
		if !ok {
			t.Fatalf("unexpected payload type %T", events[0].Payload)
		}
		if payload.UserID != 7 || payload.TransactionID != result.Transaction.ID {
			t.Errorf("payload does not match the committed mutation: %+v", payload)
		}
		if payload.Amount != "42.00" || payload.NewBalance != "42.00" {
			t.Errorf("unexpected amounts in payload: %+v", payload)
		}
	})

	t.Run("publish failure does not fail the deposit", func(t *testing.T) {
		f := newEngineFixture()
		f.publisher.PublishFunc = func(ctx context.Context, event domain.Event) error {
			return errors.New("broker unavailable")
		}

		result, err := f.uc.Deposit(context.Background(), usecase.DepositInput{
			UserID: 1,
			Amount: decimal.NewFromInt(10),
		})
		if err != nil {
			t.Fatalf("deposit must succeed despite publish failure, got %v", err)
		}
		if !result.NewBalance.Equal(decimal.NewFromInt(10)) {
			t.Errorf("expected balance 10, got %s", result.NewBalance)
		}
	})

	t.Run("nil publisher is a valid configuration", func(t *testing.T) {
		f := newEngineFixture()
		uc := usecase.NewBalanceUseCase(usecase.BalanceUseCaseConfig{
			TxManager:       f.txManager,
			BalanceRepo:     f.balanceRepo,
			TransactionRepo: f.txnRepo,
			Logger:          zerolog.Nop(),
		})

		if _, err := uc.Deposit(context.Background(), usecase.DepositInput{
			UserID: 1,
			Amount: decimal.NewFromInt(5),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestBalanceUseCase_Withdraw(t *testing.T) {
	t.Run("successful withdrawal", func(t *testing.T) {
		f := newEngineFixture()
		f.balanceRepo.Seed(1, decimal.RequireFromString("500.00"))

		result, err := f.uc.Withdraw(context.Background(), usecase.WithdrawInput{
			UserID: 1,
			Amount: decimal.RequireFromString("200.00"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !result.NewBalance.Equal(decimal.RequireFromString("300.00")) {
			t.Errorf("expected new balance 300.00, got %s", result.NewBalance)
		}
		if result.Transaction.Type != domain.TransactionTypeWithdraw {
			t.Errorf("expected withdraw record, got %s", result.Transaction.Type)
		}

		events := f.publisher.Events()
		if len(events) != 1 || events[0].Type != domain.EventTypeBalanceWithdrawn {
			t.Errorf("expected one balance_withdrawn event, got %+v", events)
		}
	})

	t.Run("withdrawing the exact balance leaves zero", func(t *testing.T) {
		f := newEngineFixture()
		f.balanceRepo.Seed(1, decimal.RequireFromString("100.00"))

		result, err := f.uc.Withdraw(context.Background(), usecase.WithdrawInput{
			UserID: 1,
			Amount: decimal.RequireFromString("100.00"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.NewBalance.IsZero() {
			t.Errorf("expected zero balance, got %s", result.NewBalance)
		}
	})

	t.Run("insufficient funds leaves balance and ledger unchanged", func(t *testing.T) {
		f := newEngineFixture()
		f.balanceRepo.Seed(1, decimal.RequireFromString("100.00"))

		_, err := f.uc.Withdraw(context.Background(), usecase.WithdrawInput{
			UserID: 1,
			Amount: decimal.RequireFromString("200.00"),
		})
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}

		if got := f.balanceRepo.Stored(1); !got.Equal(decimal.RequireFromString("100.00")) {
			t.Errorf("balance must be unchanged, got %s", got)
		}
		if len(f.txnRepo.All()) != 0 {
			t.Error("no ledger record may survive a failed withdrawal")
		}
		if len(f.publisher.Events()) != 0 {
			t.Error("no event may be published for a failed withdrawal")
		}
	})

	t.Run("unknown user fails with not found", func(t *testing.T) {
		f := newEngineFixture()

		_, err := f.uc.Withdraw(context.Background(), usecase.WithdrawInput{
			UserID: 42,
			Amount: decimal.NewFromInt(10),
		})
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("storage failure aborts the unit of work", func(t *testing.T) {
		f := newEngineFixture()
		f.balanceRepo.Seed(1, decimal.NewFromInt(100))

		storageErr := errors.New("disk full")
		f.txnRepo.AppendFunc = func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
			return storageErr
		}

		var committed, rolledBack bool
		f.txManager.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
			return &mocks.MockTransaction{
				CommitFunc:   func(ctx context.Context) error { committed = true; return nil },
				RollbackFunc: func(ctx context.Context) error { rolledBack = true; return nil },
			}, nil
		}

		_, err := f.uc.Withdraw(context.Background(), usecase.WithdrawInput{
			UserID: 1,
			Amount: decimal.NewFromInt(50),
		})
		if !errors.Is(err, storageErr) {
			t.Fatalf("expected storage error to propagate, got %v", err)
		}
		if committed {
			t.Error("a failed unit of work must not commit")
		}
		if !rolledBack {
			t.Error("a failed unit of work must roll back")
		}
		if len(f.publisher.Events()) != 0 {
			t.Error("no event may be published for an aborted unit of work")
		}
	})
}

func TestBalanceUseCase_Transfer(t *testing.T) {
	t.Run("successful transfer", func(t *testing.T) {
		f := newEngineFixture()
		f.balanceRepo.Seed(1, decimal.RequireFromString("1000.00"))
		f.balanceRepo.Seed(2, decimal.RequireFromString("500.00"))
		comment := "rent"

		result, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
			FromUserID: 1,
			ToUserID:   2,
			Amount:     decimal.RequireFromString("150.00"),
			Comment:    &comment,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !result.FromBalance.Equal(decimal.RequireFromString("850.00")) {
			t.Errorf("expected source balance 850.00, got %s", result.FromBalance)
		}
		if !result.ToBalance.Equal(decimal.RequireFromString("650.00")) {
			t.Errorf("expected destination balance 650.00, got %s", result.ToBalance)
		}

		out, in := result.OutTransaction, result.InTransaction
		if out.Type != domain.TransactionTypeTransferOut || in.Type != domain.TransactionTypeTransferIn {
			t.Errorf("expected linked transfer_out/transfer_in pair, got %s/%s", out.Type, in.Type)
		}
		if !out.Amount.Equal(in.Amount) {
			t.Error("linked records must share the amount")
		}
		if *out.FromUserID != *in.FromUserID || *out.ToUserID != *in.ToUserID {
			t.Error("linked records must share the user pair")
		}
		if out.Comment == nil || in.Comment == nil || *out.Comment != *in.Comment {
			t.Error("linked records must share the comment")
		}

		if n := len(f.txnRepo.All()); n != 2 {
			t.Errorf("expected exactly two ledger records, got %d", n)
		}

		events := f.publisher.Events()
		if len(events) != 1 || events[0].Type != domain.EventTypeBalanceTransferred {
			t.Fatalf("expected one balance_transferred event, got %+v", events)
		}
		payload := events[0].Payload.(domain.BalanceTransferredEvent)
		if payload.TransactionID != out.ID {
			t.Error("event must reference the transfer_out record")
		}
	})

	t.Run("destination is created on first reference", func(t *testing.T) {
		f := newEngineFixture()
		f.balanceRepo.Seed(1, decimal.NewFromInt(100))

		result, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
			FromUserID: 1,
			ToUserID:   9,
			Amount:     decimal.NewFromInt(40),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.ToBalance.Equal(decimal.NewFromInt(40)) {
			t.Errorf("expected destination balance 40, got %s", result.ToBalance)
		}
	})

	t.Run("self transfer is rejected", func(t *testing.T) {
		f := newEngineFixture()
		f.balanceRepo.Seed(1, decimal.NewFromInt(100))

		_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
			FromUserID: 1,
			ToUserID:   1,
			Amount:     decimal.NewFromInt(10),
		})
		if !errors.Is(err, domain.ErrSameUser) {
			t.Errorf("expected ErrSameUser, got %v", err)
		}
	})

	t.Run("unknown source fails with not found", func(t *testing.T) {
		f := newEngineFixture()

		_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
			FromUserID: 1,
			ToUserID:   2,
			Amount:     decimal.NewFromInt(10),
		})
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
		if got := f.balanceRepo.Stored(2); !got.IsZero() {
			t.Errorf("destination must not be funded by a failed transfer, got %s", got)
		}
	})

	t.Run("insufficient funds leaves both balances unchanged", func(t *testing.T) {
		f := newEngineFixture()
		f.balanceRepo.Seed(1, decimal.NewFromInt(30))
		f.balanceRepo.Seed(2, decimal.NewFromInt(5))

		_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
			FromUserID: 1,
			ToUserID:   2,
			Amount:     decimal.NewFromInt(31),
		})
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}
		if !f.balanceRepo.Stored(1).Equal(decimal.NewFromInt(30)) {
			t.Error("source balance must be unchanged")
		}
		if !f.balanceRepo.Stored(2).Equal(decimal.NewFromInt(5)) {
			t.Error("destination balance must be unchanged")
		}
		if len(f.txnRepo.All()) != 0 {
			t.Error("no ledger record may survive a failed transfer")
		}
	})

	t.Run("rows are locked in ascending user-id order", func(t *testing.T) {
		f := newEngineFixture()
		f.balanceRepo.Seed(2, decimal.NewFromInt(100))
		f.balanceRepo.Seed(1, decimal.NewFromInt(100))

		var lockOrder []int64
		f.balanceRepo.FindForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, userID int64) (*domain.Balance, error) {
			lockOrder = append(lockOrder, userID)
			return f.balanceRepo.Find(ctx, userID)
		}
		f.balanceRepo.FindOrCreateForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, userID int64) (*domain.Balance, error) {
			lockOrder = append(lockOrder, userID)
			return f.balanceRepo.Find(ctx, userID)
		}

		if _, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
			FromUserID: 2,
			ToUserID:   1,
			Amount:     decimal.NewFromInt(10),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(lockOrder) != 2 || lockOrder[0] != 1 || lockOrder[1] != 2 {
			t.Errorf("expected lock order [1 2], got %v", lockOrder)
		}
	})
}

// Summing every ledger record per user by kind sign from zero must reproduce
// the stored balance.
func TestBalanceUseCase_LedgerRoundTrip(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	ops := []func() error{
		func() error {
			_, err := f.uc.Deposit(ctx, usecase.DepositInput{UserID: 1, Amount: decimal.RequireFromString("1000.00")})
			return err
		},
		func() error {
			_, err := f.uc.Deposit(ctx, usecase.DepositInput{UserID: 2, Amount: decimal.RequireFromString("500.00")})
			return err
		},
		func() error {
			_, err := f.uc.Withdraw(ctx, usecase.WithdrawInput{UserID: 1, Amount: decimal.RequireFromString("120.55")})
			return err
		},
		func() error {
			_, err := f.uc.Transfer(ctx, usecase.TransferInput{FromUserID: 1, ToUserID: 2, Amount: decimal.RequireFromString("150.00")})
			return err
		},
		func() error {
			_, err := f.uc.Transfer(ctx, usecase.TransferInput{FromUserID: 2, ToUserID: 3, Amount: decimal.RequireFromString("25.45")})
			return err
		},
	}

	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("operation %d failed: %v", i, err)
		}
	}

	derived := make(map[int64]decimal.Decimal)
	for _, txn := range f.txnRepo.All() {
		signed := txn.Amount.Mul(decimal.NewFromInt(int64(txn.Type.Sign())))

		switch txn.Type {
		case domain.TransactionTypeDeposit, domain.TransactionTypeWithdraw, domain.TransactionTypeTransferIn:
			derived[*txn.ToUserID] = derived[*txn.ToUserID].Add(signed)
		case domain.TransactionTypeTransferOut:
			derived[*txn.FromUserID] = derived[*txn.FromUserID].Add(signed)
		}
	}

	for userID, want := range derived {
		if got := f.balanceRepo.Stored(userID); !got.Equal(want) {
			t.Errorf("user %d: stored balance %s does not match ledger-derived %s", userID, got, want)
		}
	}
}
