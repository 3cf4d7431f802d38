package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxCommentLength = 255
	MaxAmount        = "1000000000000" // 1 trillion
	MaxAmountScale   = 2               // cents
)

// ValidateUserID validates a user identifier.
func ValidateUserID(userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidUserID, userID)
	}

	return nil
}

// ValidateAmount validates an operation amount. Amounts must be strictly
// positive, bounded, and carry no more precision than the ledger stores.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, MaxAmount)
	}

	if amount.Exponent() < -MaxAmountScale {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, MaxAmountScale)
	}

	return nil
}

// ValidateComment validates an optional operation comment.
func ValidateComment(comment *string) error {
	if comment == nil {
		return nil
	}

	if len(*comment) > MaxCommentLength {
		return fmt.Errorf("%w: maximum is %d characters", ErrCommentTooLong, MaxCommentLength)
	}

	return nil
}
