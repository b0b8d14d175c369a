package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OwnerType identifies which kind of organizational unit holds a balance.
type OwnerType string

const (
	OwnerBranch OwnerType = "branch"
	OwnerVault  OwnerType = "vault"
)

// Owner is a (type, id) reference to a branch or vault.
type Owner struct {
	Type OwnerType
	ID   string
}

// LockKey is the canonical sort key for row locking. Balances touched in one
// transaction are always locked in ascending LockKey order.
func (o Owner) LockKey(currency string) string {
	return string(o.Type) + "/" + o.ID + "/" + currency
}

// Balance is the per-(owner, currency) ledger row. Rows are created lazily
// zeroed on first reference and never deleted.
type Balance struct {
	OwnerType        OwnerType
	OwnerID          string
	Currency         string
	Balance          decimal.Decimal
	Reserved         decimal.Decimal
	MinThreshold     *decimal.Decimal
	MaxThreshold     *decimal.Decimal
	LastUpdated      time.Time
	LastReconciledAt *time.Time
	LastReconciledBy *string
}

// Owner returns the owner reference of this row.
func (b *Balance) Owner() Owner {
	return Owner{Type: b.OwnerType, ID: b.OwnerID}
}

// Available is the portion usable for new reservations and debits.
func (b *Balance) Available() decimal.Decimal {
	return b.Balance.Sub(b.Reserved)
}

// ValidateChange checks the row invariants against a signed delta:
// balance >= 0 and reserved <= balance must hold after the change.
func (b *Balance) ValidateChange(amount decimal.Decimal) error {
	next := b.Balance.Add(amount)
	if next.IsNegative() {
		return ErrInsufficientBalance
	}
	if b.Reserved.GreaterThan(next) {
		return ErrReservedExceedsBalance
	}
	return nil
}

// ValidateReserve checks that amount fits in the available balance.
func (b *Balance) ValidateReserve(amount decimal.Decimal) error {
	if amount.GreaterThan(b.Available()) {
		return ErrInsufficientBalance
	}
	return nil
}

// ValidateRelease checks that amount does not exceed the current reservation.
func (b *Balance) ValidateRelease(amount decimal.Decimal) error {
	if amount.GreaterThan(b.Reserved) {
		return ErrReleaseExceedsReserved
	}
	return nil
}

// IsBelowMinimum reports whether the balance dropped under its configured floor.
func (b *Balance) IsBelowMinimum() bool {
	return b.MinThreshold != nil && b.Balance.LessThan(*b.MinThreshold)
}

// IsAboveMaximum reports whether the balance exceeds its configured ceiling.
func (b *Balance) IsAboveMaximum() bool {
	return b.MaxThreshold != nil && b.Balance.GreaterThan(*b.MaxThreshold)
}

// ChangeType classifies a balance mutation in the history trail.
type ChangeType string

const (
	ChangeTransaction    ChangeType = "transaction"
	ChangeAdjustment     ChangeType = "adjustment"
	ChangeTransferIn     ChangeType = "transfer_in"
	ChangeTransferOut    ChangeType = "transfer_out"
	ChangeReconciliation ChangeType = "reconciliation"
	ChangeInitialBalance ChangeType = "initial_balance"
)

// BalanceEntry is one immutable history row. Exactly one entry exists per
// balance mutation; the ledger is reconstructable from entries alone.
type BalanceEntry struct {
	ID            string
	OwnerType     OwnerType
	OwnerID       string
	Currency      string
	ChangeType    ChangeType
	Amount        decimal.Decimal // signed
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	ReferenceID   string
	ReferenceType string
	PerformedBy   string
	PerformedAt   time.Time
	Notes         string
}

// EntryFilter narrows balance history queries.
type EntryFilter struct {
	Owner      *Owner
	Currency   string
	ChangeType ChangeType
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
