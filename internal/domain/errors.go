package domain

import "github.com/pkg/errors"

var (
	// ErrInvalidQuantity quantity is zero or negative.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrInvalidPrice price is zero or negative.
	ErrInvalidPrice = errors.New("price must be greater than zero")
	// ErrInvalidAmount cash amount is negative.
	ErrInvalidAmount = errors.New("amount must not be negative")
	// ErrMissingSymbol symbol is empty.
	ErrMissingSymbol = errors.New("symbol is required")
	// ErrInsufficientFunds cash balance does not cover a debit.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNotFound referenced holding or instrument does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateHolding holding id is already present in the portfolio.
	ErrDuplicateHolding = errors.New("holding already exists")
)
