package ledgererr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned for non-positive, malformed or unrepresentable amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidDirection is returned when a trade direction is neither buy nor sell.
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrInsufficientFunds matches any *InsufficientFundsError through errors.Is.
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrAccountNotFound    = errors.New("account not found")

	// ErrConcurrencyConflict means the unit of work could not obtain its locks or the
	// store reported a write conflict. The whole unit of work is safe to retry.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrStoreFailure wraps durable-write failures reported by the store.
	ErrStoreFailure = errors.New("store failure")

	// ErrLockOrder is returned when a position lock is requested before its account lock.
	ErrLockOrder = errors.New("position locked before account")
)

// InsufficientFundsError reports a withdrawal or trade debit the account cannot cover.
type InsufficientFundsError struct {
	AccountID uint
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on account %d: required %s, available %s, shortfall %s",
		e.AccountID, e.Required.String(), e.Available.String(), e.Shortfall().String())
}

// Shortfall is the amount missing to complete the operation.
func (e *InsufficientFundsError) Shortfall() decimal.Decimal {
	return e.Required.Sub(e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// InvalidAmount wraps ErrInvalidAmount with a reason.
func InvalidAmount(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAmount, fmt.Sprintf(format, args...))
}

// StoreFailure wraps a store error so that errors.Is(err, ErrStoreFailure) holds while
// the underlying cause stays reachable through errors.Unwrap chains.
func StoreFailure(op string, cause error) error {
	return &storeError{op: op, sentinel: ErrStoreFailure, cause: cause}
}

// ConcurrencyConflict wraps a lock or write-conflict cause.
func ConcurrencyConflict(op string, cause error) error {
	return &storeError{op: op, sentinel: ErrConcurrencyConflict, cause: cause}
}

type storeError struct {
	op       string
	sentinel error
	cause    error
}

func (e *storeError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.op, e.sentinel)
	}
	return fmt.Sprintf("%s: %s: %v", e.op, e.sentinel, e.cause)
}

func (e *storeError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.sentinel}
	}
	return []error{e.sentinel, e.cause}
}

// Retryable reports whether the failed unit of work may be retried from scratch.
func Retryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsCallerError reports whether err was caused by the caller's input rather than by the
// system failing to complete the operation.
func IsCallerError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidDirection),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInstrumentNotFound),
		errors.Is(err, ErrAccountNotFound):
		return true
	default:
		return false
	}
}
