package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engines wraps exactly one of
// these so callers can classify with errors.Is without string matching.
var (
	// ErrValidation covers malformed input: non-positive amounts, same-currency
	// exchanges, too-short cancellation reasons. No side effects were applied.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientBalance guarantees zero partial mutation.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBusinessRule signals an invariant would break (reserved > balance,
	// duplicate singleton constraint).
	ErrBusinessRule = errors.New("business rule violation")

	// ErrNotFound covers missing entities, rates and transactions.
	ErrNotFound = errors.New("resource not found")

	// ErrDatabase wraps storage failures. The postgres retrier decides which
	// of these are transient.
	ErrDatabase = errors.New("database operation failed")
)

// Named leaves. Each wraps its kind so both the specific error and the
// kind match with errors.Is.
var (
	ErrInvalidAmount           = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrSameCurrency            = fmt.Errorf("%w: cannot exchange between the same currency", ErrValidation)
	ErrSameOwner               = fmt.Errorf("%w: source and destination must differ", ErrValidation)
	ErrReasonTooShort          = fmt.Errorf("%w: reason must be at least %d characters", ErrValidation, MinCancellationReasonLength)
	ErrDuplicateReference      = fmt.Errorf("%w: reference number already used", ErrValidation)
	ErrReleaseExceedsReserved  = fmt.Errorf("%w: release amount exceeds reserved balance", ErrValidation)
	ErrInvalidStatusTransition = fmt.Errorf("%w: operation not allowed in current status", ErrValidation)
	ErrTransactionLimit        = fmt.Errorf("%w: transaction amount exceeds limit", ErrBusinessRule)
	ErrReservedExceedsBalance  = fmt.Errorf("%w: reserved balance would exceed total balance", ErrBusinessRule)
	ErrTransactionNotFound     = fmt.Errorf("%w: transaction", ErrNotFound)
	ErrVaultTransferNotFound   = fmt.Errorf("%w: vault transfer", ErrNotFound)
	ErrRateNotFound            = fmt.Errorf("%w: exchange rate", ErrNotFound)
	ErrOwnerNotFound           = fmt.Errorf("%w: owner missing or inactive", ErrNotFound)
	ErrCurrencyNotFound        = fmt.Errorf("%w: currency missing or inactive", ErrNotFound)
	ErrCustomerNotFound        = fmt.Errorf("%w: customer missing or inactive", ErrNotFound)
)

// WrapDatabase tags a storage failure with the ErrDatabase kind while
// preserving the driver error for errors.As inspection.
func WrapDatabase(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrDatabase, op, err)
}
