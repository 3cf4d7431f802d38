package domain

import "errors"

var (
	// Balance errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Validation errors
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrInvalidUserID  = errors.New("user id must be positive")
	ErrSameUser       = errors.New("cannot transfer to the same user")
	ErrCommentTooLong = errors.New("comment exceeds maximum length")

	// Ledger errors
	ErrTransactionNotFound = errors.New("transaction not found")
)
