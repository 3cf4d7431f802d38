package usecase

import (
	"errors"

	"github.com/iho/gobalance/internal/domain"
)

// errorKind maps an operation error to a stable, low-cardinality label.
func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidUserID),
		errors.Is(err, domain.ErrSameUser),
		errors.Is(err, domain.ErrCommentTooLong):
		return "invalid_input"
	default:
		return "storage_failure"
	}
}
