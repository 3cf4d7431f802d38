package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobalance/internal/domain"
	"github.com/iho/gobalance/internal/usecase"
)

// BalanceResponse represents a user balance in API responses.
type BalanceResponse struct {
	UserID    int64           `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BalanceFromDomain converts a domain balance to a response.
func BalanceFromDomain(b *domain.Balance) *BalanceResponse {
	return &BalanceResponse{
		UserID:    b.UserID,
		Balance:   b.Amount,
		UpdatedAt: b.UpdatedAt,
	}
}

// TransactionResponse represents a ledger record in API responses.
type TransactionResponse struct {
	ID         int64           `json:"id"`
	FromUserID *int64          `json:"from_user_id,omitempty"`
	ToUserID   *int64          `json:"to_user_id,omitempty"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Comment    *string         `json:"comment,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:         t.ID,
		FromUserID: t.FromUserID,
		ToUserID:   t.ToUserID,
		Type:       string(t.Type),
		Amount:     t.Amount,
		Comment:    t.Comment,
		CreatedAt:  t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// DepositResponse represents the result of a deposit.
type DepositResponse struct {
	Success     bool                 `json:"success"`
	Transaction *TransactionResponse `json:"transaction"`
	NewBalance  decimal.Decimal      `json:"new_balance"`
}

// DepositFromResult converts a use case result to a response.
func DepositFromResult(r *usecase.DepositResult) *DepositResponse {
	return &DepositResponse{
		Success:     true,
		Transaction: TransactionFromDomain(r.Transaction),
		NewBalance:  r.NewBalance,
	}
}

// WithdrawResponse represents the result of a withdrawal.
type WithdrawResponse struct {
	Success     bool                 `json:"success"`
	Transaction *TransactionResponse `json:"transaction"`
	NewBalance  decimal.Decimal      `json:"new_balance"`
}

// WithdrawFromResult converts a use case result to a response.
func WithdrawFromResult(r *usecase.WithdrawResult) *WithdrawResponse {
	return &WithdrawResponse{
		Success:     true,
		Transaction: TransactionFromDomain(r.Transaction),
		NewBalance:  r.NewBalance,
	}
}

// TransferResponse represents the result of a transfer.
type TransferResponse struct {
	Success         bool                 `json:"success"`
	OutTransaction  *TransactionResponse `json:"out_transaction"`
	InTransaction   *TransactionResponse `json:"in_transaction"`
	FromUserBalance decimal.Decimal      `json:"from_user_balance"`
	ToUserBalance   decimal.Decimal      `json:"to_user_balance"`
}

// TransferFromResult converts a use case result to a response.
func TransferFromResult(r *usecase.TransferResult) *TransferResponse {
	return &TransferResponse{
		Success:         true,
		OutTransaction:  TransactionFromDomain(r.OutTransaction),
		InTransaction:   TransactionFromDomain(r.InTransaction),
		FromUserBalance: r.FromBalance,
		ToUserBalance:   r.ToBalance,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
