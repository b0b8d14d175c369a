package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VaultTransferStatus is the approval-workflow state.
type VaultTransferStatus string

const (
	VaultTransferPending   VaultTransferStatus = "pending"
	VaultTransferApproved  VaultTransferStatus = "approved"
	VaultTransferInTransit VaultTransferStatus = "in_transit"
	VaultTransferCompleted VaultTransferStatus = "completed"
	VaultTransferRejected  VaultTransferStatus = "rejected"
	VaultTransferCancelled VaultTransferStatus = "cancelled"
)

// VaultTransferKind classifies the endpoints of a vault movement.
type VaultTransferKind string

const (
	VaultToVault  VaultTransferKind = "vault_to_vault"
	VaultToBranch VaultTransferKind = "vault_to_branch"
	BranchToVault VaultTransferKind = "branch_to_vault"
)

// VaultTransfer is an inter-vault or vault/branch cash movement with a
// threshold-gated approval workflow. Balance effects are applied when the
// transfer enters IN_TRANSIT and reversed at most once on cancellation.
type VaultTransfer struct {
	ID              string
	Number          string
	Kind            VaultTransferKind
	From            Owner
	To              Owner
	Currency        string
	Amount          decimal.Decimal
	Status          VaultTransferStatus
	Notes           string
	RejectionReason *string
	InitiatedBy     string
	InitiatedAt     time.Time
	ApprovedBy      *string
	ApprovedAt      *time.Time
	ReceivedBy      *string
	CompletedAt     *time.Time
	CancelledAt     *time.Time
}

// Validate checks the endpoints and amount.
func (vt *VaultTransfer) Validate() error {
	if vt.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if vt.From == vt.To {
		return ErrSameOwner
	}
	return nil
}

// BalancesMoved reports whether the debit/credit pair has been applied and
// not yet reversed. Only transfers in this state reverse on cancellation.
func (vt *VaultTransfer) BalancesMoved() bool {
	return vt.Status == VaultTransferInTransit || vt.Status == VaultTransferCompleted
}

// VaultTransferFilter narrows workflow history queries.
type VaultTransferFilter struct {
	VaultID  string // matches either endpoint
	BranchID string
	Status   VaultTransferStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// VaultTransferStats summarizes a period of workflow activity.
type VaultTransferStats struct {
	TotalCount     int
	ByStatus       map[VaultTransferStatus]int
	CompletedTotal decimal.Decimal
	AverageAmount  decimal.Decimal
	PendingIn      int
	PendingOut     int
}
