// Package mocks provides hand-written fakes for the usecase interfaces.
// Each method can be overridden through its Func field; without an override
// the fakes behave as a small in-memory store.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobalance/internal/domain"
	"github.com/iho/gobalance/internal/usecase"
)

// MockBalanceRepository is a mock implementation of BalanceRepository.
type MockBalanceRepository struct {
	mu       sync.RWMutex
	balances map[int64]*domain.Balance

	FindFunc                  func(ctx context.Context, userID int64) (*domain.Balance, error)
	FindForUpdateFunc         func(ctx context.Context, tx usecase.Transaction, userID int64) (*domain.Balance, error)
	FindOrCreateForUpdateFunc func(ctx context.Context, tx usecase.Transaction, userID int64) (*domain.Balance, error)
	UpdateBalanceFunc         func(ctx context.Context, tx usecase.Transaction, userID int64, amount decimal.Decimal, updatedAt time.Time) error
}

func NewMockBalanceRepository() *MockBalanceRepository {
	return &MockBalanceRepository{
		balances: make(map[int64]*domain.Balance),
	}
}

// Seed stores a balance directly, bypassing any override.
func (m *MockBalanceRepository) Seed(userID int64, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = &domain.Balance{UserID: userID, Amount: amount}
}

// Stored returns the stored amount for a user, or zero if absent.
func (m *MockBalanceRepository) Stored(userID int64) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.balances[userID]; ok {
		return b.Amount
	}
	return decimal.Zero
}

func (m *MockBalanceRepository) Find(ctx context.Context, userID int64) (*domain.Balance, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.balances[userID]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockBalanceRepository) FindForUpdate(ctx context.Context, tx usecase.Transaction, userID int64) (*domain.Balance, error) {
	if m.FindForUpdateFunc != nil {
		return m.FindForUpdateFunc(ctx, tx, userID)
	}
	return m.Find(ctx, userID)
}

func (m *MockBalanceRepository) FindOrCreateForUpdate(ctx context.Context, tx usecase.Transaction, userID int64) (*domain.Balance, error) {
	if m.FindOrCreateForUpdateFunc != nil {
		return m.FindOrCreateForUpdateFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	if _, ok := m.balances[userID]; !ok {
		m.balances[userID] = &domain.Balance{UserID: userID, Amount: decimal.Zero}
	}
	m.mu.Unlock()
	return m.Find(ctx, userID)
}

func (m *MockBalanceRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, userID int64, amount decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, userID, amount, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.balances[userID]; ok {
		b.Amount = amount
		b.UpdatedAt = updatedAt
	}
	return nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu     sync.RWMutex
	nextID int64
	txns   []*domain.Transaction

	AppendFunc     func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	GetByIDFunc    func(ctx context.Context, id int64) (*domain.Transaction, error)
	ListByUserFunc func(ctx context.Context, userID int64, txnType *domain.TransactionType, limit, offset int) ([]*domain.Transaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{}
}

func (m *MockTransactionRepository) Append(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	txn.ID = m.nextID
	txn.CreatedAt = time.Now().UTC()
	stored := *txn
	m.txns = append(m.txns, &stored)
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, txn := range m.txns {
		if txn.ID == id {
			copied := *txn
			return &copied, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID int64, txnType *domain.TransactionType, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, txnType, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Transaction
	for i := len(m.txns) - 1; i >= 0; i-- {
		txn := m.txns[i]
		affects := (txn.ToUserID != nil && *txn.ToUserID == userID) ||
			(txn.FromUserID != nil && *txn.FromUserID == userID)
		if !affects {
			continue
		}
		if txnType != nil && txn.Type != *txnType {
			continue
		}
		copied := *txn
		result = append(result, &copied)
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// All returns every stored record in append order.
func (m *MockTransactionRepository) All() []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Transaction, len(m.txns))
	copy(result, m.txns)
	return result
}

// MockTransactionManager is a mock implementation of TransactionManager.
// With Serialize set, Begin blocks until the previous unit of work commits
// or rolls back, emulating row-level locking for concurrency tests.
type MockTransactionManager struct {
	mu        sync.Mutex
	Serialize bool

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	if m.Serialize {
		m.mu.Lock()
		return &MockTransaction{release: m.mu.Unlock}, nil
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	once    sync.Once
	release func()

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	t.finish()
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	t.finish()
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	return nil
}

func (t *MockTransaction) finish() {
	if t.release != nil {
		t.once.Do(t.release)
	}
}

// MockEventPublisher is a mock implementation of EventPublisher.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []domain.Event

	PublishFunc func(ctx context.Context, event domain.Event) error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.Event) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns every published event in publish order.
func (m *MockEventPublisher) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]domain.Event, len(m.events))
	copy(result, m.events)
	return result
}
