package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/gobalance/internal/usecase"
)

// DepositRequest represents a request to credit a user balance.
type DepositRequest struct {
	UserID  int64           `json:"user_id"`
	Amount  decimal.Decimal `json:"amount"`
	Comment *string         `json:"comment,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *DepositRequest) ToUseCaseInput() usecase.DepositInput {
	return usecase.DepositInput{
		UserID:  r.UserID,
		Amount:  r.Amount,
		Comment: r.Comment,
	}
}

// WithdrawRequest represents a request to debit a user balance.
type WithdrawRequest struct {
	UserID  int64           `json:"user_id"`
	Amount  decimal.Decimal `json:"amount"`
	Comment *string         `json:"comment,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *WithdrawRequest) ToUseCaseInput() usecase.WithdrawInput {
	return usecase.WithdrawInput{
		UserID:  r.UserID,
		Amount:  r.Amount,
		Comment: r.Comment,
	}
}

// TransferRequest represents a request to move funds between two users.
type TransferRequest struct {
	FromUserID int64           `json:"from_user_id"`
	ToUserID   int64           `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Comment    *string         `json:"comment,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferRequest) ToUseCaseInput() usecase.TransferInput {
	return usecase.TransferInput{
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
		Amount:     r.Amount,
		Comment:    r.Comment,
	}
}
