package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Business constants.
const (
	// MoneyScale is the fixed-point scale of monetary amounts.
	MoneyScale = 2
	// RateScale is the precision kept for exchange rates and derived inverses.
	RateScale = 6
	// MinCancellationReasonLength guards against empty-audit cancellations.
	MinCancellationReasonLength = 10

	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Per-transaction amount bounds.
var (
	MinTransactionAmount = decimal.RequireFromString("0.01")
	MaxTransactionAmount = decimal.RequireFromString("1000000.00")
)

// ValidateAmount rejects non-positive and out-of-bounds amounts.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if amount.LessThan(MinTransactionAmount) {
		return fmt.Errorf("%w: amount below minimum %s", ErrValidation, MinTransactionAmount)
	}
	return nil
}

// ValidateTransactionLimit enforces the per-operation ceiling.
func ValidateTransactionLimit(amount decimal.Decimal) error {
	if amount.GreaterThan(MaxTransactionAmount) {
		return fmt.Errorf("%w: %s exceeds maximum %s", ErrTransactionLimit, amount, MaxTransactionAmount)
	}
	return nil
}

// ValidateReason checks a cancellation/rejection reason.
func ValidateReason(reason string) error {
	if len(strings.TrimSpace(reason)) < MinCancellationReasonLength {
		return ErrReasonTooShort
	}
	return nil
}

// ValidateCurrencyCode checks the ISO 4217 shape: three ASCII letters.
func ValidateCurrencyCode(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("%w: currency code must be 3 letters", ErrValidation)
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return fmt.Errorf("%w: currency code must be uppercase letters", ErrValidation)
		}
	}
	return nil
}

// RoundMoney rounds to the fixed monetary scale, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// RoundToExponent rounds half-up to a currency's minor-unit exponent.
func RoundToExponent(d decimal.Decimal, exponent int32) decimal.Decimal {
	return d.Round(exponent)
}

// ValidatePagination clamps limit/offset to sane bounds.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Reference numbers: transaction numbers are system generated per day.
const (
	transactionNumberPrefix   = "TRX"
	vaultTransferNumberPrefix = "VTR"
)

// FormatTransactionNumber renders TRX-YYYYMMDD-NNNNN.
func FormatTransactionNumber(date time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%05d", transactionNumberPrefix, date.UTC().Format("20060102"), seq)
}

// FormatVaultTransferNumber renders VTR-YYYYMMDD-NNNNN.
func FormatVaultTransferNumber(date time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%05d", vaultTransferNumberPrefix, date.UTC().Format("20060102"), seq)
}
