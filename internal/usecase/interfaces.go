package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/domain"
)

// BalanceRepository defines data access for balance rows.
type BalanceRepository interface {
	// Get returns the row, creating a zeroed one if missing.
	Get(ctx context.Context, owner domain.Owner, currency string) (*domain.Balance, error)
	// GetForUpdate locks the row FOR UPDATE inside tx, creating a zeroed row
	// first when missing. Callers touching several rows must lock them in
	// ascending Owner.LockKey order.
	GetForUpdate(ctx context.Context, tx Transaction, owner domain.Owner, currency string) (*domain.Balance, error)
	// UpdateAmounts persists new balance and reserved values for the row.
	UpdateAmounts(ctx context.Context, tx Transaction, owner domain.Owner, currency string, balance, reserved decimal.Decimal, updatedAt time.Time) error
	// SetReconciled stamps the reconciliation audit fields.
	SetReconciled(ctx context.Context, tx Transaction, owner domain.Owner, currency string, at time.Time, by string) error
	// ListByOwner returns all currency rows held by one owner.
	ListByOwner(ctx context.Context, owner domain.Owner) ([]*domain.Balance, error)
}

// EntryRepository defines data access for the append-only balance history.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.BalanceEntry) error
	List(ctx context.Context, filter domain.EntryFilter) ([]*domain.BalanceEntry, error)
	// Sum returns the signed total of all entries for one row; it must equal
	// the current balance at any time.
	Sum(ctx context.Context, owner domain.Owner, currency string) (decimal.Decimal, error)
}

// TransactionRepository defines data access for transaction records.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	Update(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	GetByNumber(ctx context.Context, number string) (*domain.Transaction, error)
	// ReferenceExists checks the global reference-number uniqueness inside tx
	// so the duplicate check and the insert share one atomic unit.
	ReferenceExists(ctx context.Context, tx Transaction, reference string) (bool, error)
	List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, int, error)
	Stats(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionStats, error)
}

// VaultTransferRepository defines data access for the vault transfer workflow.
type VaultTransferRepository interface {
	Create(ctx context.Context, tx Transaction, vt *domain.VaultTransfer) error
	Update(ctx context.Context, tx Transaction, vt *domain.VaultTransfer) error
	GetByID(ctx context.Context, id string) (*domain.VaultTransfer, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.VaultTransfer, error)
	List(ctx context.Context, filter domain.VaultTransferFilter) ([]*domain.VaultTransfer, int, error)
	Stats(ctx context.Context, filter domain.VaultTransferFilter) (*domain.VaultTransferStats, error)
}

// RateRepository defines data access for effective-dated exchange rates.
type RateRepository interface {
	// GetCurrent returns the open-ended row for the pair.
	GetCurrent(ctx context.Context, from, to string) (*domain.ExchangeRate, error)
	// GetCurrentForUpdate locks the pair's current row inside tx; returns
	// domain.ErrRateNotFound when the pair has no current rate.
	GetCurrentForUpdate(ctx context.Context, tx Transaction, from, to string) (*domain.ExchangeRate, error)
	// Create inserts a new rate row.
	Create(ctx context.Context, tx Transaction, rate *domain.ExchangeRate) error
	// CloseCurrent sets effective_to on the pair's open row.
	CloseCurrent(ctx context.Context, tx Transaction, rateID string, at time.Time) error
	CreateChange(ctx context.Context, tx Transaction, change *domain.RateChange) error
	History(ctx context.Context, from, to string, since, until *time.Time, limit, offset int) ([]*domain.ExchangeRate, error)
}

// Directory is the collaborator port for existence and active-status checks.
// The core never stores branches, vaults, currencies or customers itself.
type Directory interface {
	BranchActive(ctx context.Context, id string) (bool, error)
	VaultActive(ctx context.Context, id string) (bool, error)
	CurrencyActive(ctx context.Context, code string) (bool, error)
	// CurrencyExponent returns the minor-unit exponent used for rounding.
	CurrencyExponent(ctx context.Context, code string) (int32, error)
	CustomerActive(ctx context.Context, id string) (bool, error)
}

// NumberSequence hands out per-day sequence values for document numbers.
// Next must be called inside the same transaction as the insert it numbers.
type NumberSequence interface {
	Next(ctx context.Context, tx Transaction, scope string, day time.Time) (int64, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient storage failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
