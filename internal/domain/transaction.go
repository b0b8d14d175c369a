package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind discriminates the tagged union.
type TransactionKind string

const (
	KindIncome   TransactionKind = "income"
	KindExpense  TransactionKind = "expense"
	KindExchange TransactionKind = "exchange"
	KindTransfer TransactionKind = "transfer"
)

// TransactionStatus is the lifecycle state.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusInTransit TransactionStatus = "in_transit"
	StatusCompleted TransactionStatus = "completed"
	StatusCancelled TransactionStatus = "cancelled"
	StatusFailed    TransactionStatus = "failed"
)

// IncomeDetails is the income-kind payload.
type IncomeDetails struct {
	Category string
	Source   string
}

// ExpenseDetails is the expense-kind payload with its approval sub-path.
type ExpenseDetails struct {
	Category         string
	Payee            string
	ApprovalRequired bool
	ApprovedBy       *string
	ApprovedAt       *time.Time
}

// ExchangeDetails is the exchange-kind payload.
type ExchangeDetails struct {
	FromCurrency         string
	ToCurrency           string
	FromAmount           decimal.Decimal
	ToAmount             decimal.Decimal
	RateUsed             decimal.Decimal
	CommissionAmount     decimal.Decimal
	CommissionPercentage decimal.Decimal
}

// TransferKind classifies a transfer's endpoints.
type TransferKind string

const (
	TransferBranchToBranch TransferKind = "branch_to_branch"
	TransferVaultToBranch  TransferKind = "vault_to_branch"
	TransferBranchToVault  TransferKind = "branch_to_vault"
)

// TransferDetails is the transfer-kind payload. The reservation against the
// source balance lives from creation until completion or cancellation.
type TransferDetails struct {
	From       Owner
	To         Owner
	Kind       TransferKind
	ReceivedBy *string
	ReceivedAt *time.Time
}

// Transaction is the base record shared by all kinds. Exactly one of the
// kind payloads is non-nil, matching Kind.
type Transaction struct {
	ID                 string
	Number             string // system generated, unique
	Kind               TransactionKind
	Status             TransactionStatus
	Amount             decimal.Decimal
	Currency           string
	BranchID           string
	UserID             string
	CustomerID         *string
	ReferenceNumber    *string // caller supplied, globally unique
	Description        string
	CancellationReason *string
	CancelledBy        *string
	CancelledAt        *time.Time
	CreatedAt          time.Time
	CompletedAt        *time.Time

	Income   *IncomeDetails
	Expense  *ExpenseDetails
	Exchange *ExchangeDetails
	Transfer *TransferDetails
}

// CanCancel reports whether the cancellation path is open. Only pending
// records reverse cleanly; everything else has already settled.
func (t *Transaction) CanCancel() bool {
	return t.Status == StatusPending
}

// CanCompleteTransfer reports whether phase two of a transfer may run.
func (t *Transaction) CanCompleteTransfer() bool {
	if t.Kind != KindTransfer {
		return false
	}
	return t.Status == StatusPending || t.Status == StatusInTransit
}

// Validate checks the shared fields and the kind payload shape.
func (t *Transaction) Validate() error {
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	switch t.Kind {
	case KindIncome:
		if t.Income == nil {
			return ErrValidation
		}
	case KindExpense:
		if t.Expense == nil {
			return ErrValidation
		}
	case KindExchange:
		if t.Exchange == nil {
			return ErrValidation
		}
		if t.Exchange.FromCurrency == t.Exchange.ToCurrency {
			return ErrSameCurrency
		}
	case KindTransfer:
		if t.Transfer == nil {
			return ErrValidation
		}
		if t.Transfer.From == t.Transfer.To {
			return ErrSameOwner
		}
	default:
		return ErrValidation
	}
	return nil
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Kind       TransactionKind
	Status     TransactionStatus
	BranchID   string
	CustomerID string
	Currency   string
	From       *time.Time
	To         *time.Time
	AmountMin  *decimal.Decimal
	AmountMax  *decimal.Decimal
	Limit      int
	Offset     int
}

// TransactionStats aggregates a filtered transaction set.
type TransactionStats struct {
	TotalCount       int
	ByKind           map[TransactionKind]int
	ByStatus         map[TransactionStatus]int
	TotalByCurrency  map[string]decimal.Decimal
	EarliestRecorded *time.Time
	LatestRecorded   *time.Time
}
