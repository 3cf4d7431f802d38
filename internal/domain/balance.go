package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the current amount of money held for a user. There is at most
// one row per user; it is created lazily on the first deposit or incoming
// transfer and never deleted.
type Balance struct {
	UserID    int64
	Amount    decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanWithdraw checks if amount can be taken from the balance.
// Withdrawing the exact available amount is allowed.
func (b *Balance) CanWithdraw(amount decimal.Decimal) error {
	if b.Amount.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyCredit returns the balance after adding amount.
func (b *Balance) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return b.Amount.Add(amount)
}

// ApplyDebit returns the balance after subtracting amount.
func (b *Balance) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return b.Amount.Sub(amount)
}
