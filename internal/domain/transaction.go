package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger record.
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeWithdraw    TransactionType = "withdraw"
	TransactionTypeTransferIn  TransactionType = "transfer_in"
	TransactionTypeTransferOut TransactionType = "transfer_out"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw,
		TransactionTypeTransferIn, TransactionTypeTransferOut:
		return true
	}
	return false
}

// Transaction is one immutable ledger record. ID and CreatedAt are assigned
// by the store on append; a record is never updated or deleted afterwards.
//
// Field conventions: deposits and withdrawals carry only ToUserID. A transfer
// produces two records (transfer_out, transfer_in) sharing the same
// FromUserID/ToUserID pair, amount and comment.
type Transaction struct {
	ID         int64
	FromUserID *int64
	ToUserID   *int64
	Type       TransactionType
	Amount     decimal.Decimal
	Comment    *string
	CreatedAt  time.Time
}

// Sign returns +1 for record types that increase the balance of the affected
// user and -1 for types that decrease it. Summing amount*sign per user from
// zero reproduces the stored balance.
func (t TransactionType) Sign() int {
	switch t {
	case TransactionTypeDeposit, TransactionTypeTransferIn:
		return 1
	default:
		return -1
	}
}
