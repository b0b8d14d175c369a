package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/infrastructure/metrics"
)

// DefaultApprovalThreshold gates vault transfers into the manual approval
// path; movements under it go straight to in-transit.
var DefaultApprovalThreshold = decimal.RequireFromString("10000.00")

// VaultTransferUseCase handles the vault movement workflow: creation with the
// threshold gate, approval or rejection, completion and cancellation.
type VaultTransferUseCase struct {
	txManager TransactionManager
	ledger    *LedgerUseCase
	vtRepo    VaultTransferRepository
	directory Directory
	sequence  NumberSequence
	idGen     IDGenerator
	retrier   Retrier
	threshold decimal.Decimal
	metrics   *metrics.Metrics
}

// NewVaultTransferUseCase creates a new VaultTransferUseCase. A non-positive
// threshold falls back to the default.
func NewVaultTransferUseCase(
	txManager TransactionManager,
	ledger *LedgerUseCase,
	vtRepo VaultTransferRepository,
	directory Directory,
	sequence NumberSequence,
	idGen IDGenerator,
	retrier Retrier,
	threshold decimal.Decimal,
	metrics *metrics.Metrics,
) *VaultTransferUseCase {
	if threshold.LessThanOrEqual(decimal.Zero) {
		threshold = DefaultApprovalThreshold
	}

	return &VaultTransferUseCase{
		txManager: txManager,
		ledger:    ledger,
		vtRepo:    vtRepo,
		directory: directory,
		sequence:  sequence,
		idGen:     idGen,
		retrier:   retrier,
		threshold: threshold,
		metrics:   metrics,
	}
}

// CreateVaultTransferInput represents input for initiating a vault movement.
type CreateVaultTransferInput struct {
	Kind        domain.VaultTransferKind
	From        domain.Owner
	To          domain.Owner
	Currency    string
	Amount      decimal.Decimal
	Notes       string
	InitiatedBy string
}

// CreateVaultTransfer initiates a vault movement. Amounts under the approval
// threshold move balances immediately and enter in-transit with the initiator
// recorded as approver; amounts at or over it wait in pending with no balance
// effect until Approve.
func (uc *VaultTransferUseCase) CreateVaultTransfer(ctx context.Context, input CreateVaultTransferInput) (*domain.VaultTransfer, error) {
	if err := uc.validateEndpoints(input.Kind, input.From, input.To); err != nil {
		return nil, err
	}

	if err := domain.ValidateCurrencyCode(input.Currency); err != nil {
		return nil, err
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if err := domain.ValidateTransactionLimit(input.Amount); err != nil {
		return nil, err
	}

	if err := uc.checkActive(ctx, input.From); err != nil {
		return nil, err
	}

	if err := uc.checkActive(ctx, input.To); err != nil {
		return nil, err
	}

	active, err := uc.directory.CurrencyActive(ctx, input.Currency)
	if err != nil {
		return nil, err
	}

	if !active {
		return nil, domain.ErrCurrencyNotFound
	}

	autoApprove := input.Amount.LessThan(uc.threshold)

	var vt *domain.VaultTransfer

	err = uc.retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		source, err := uc.ledger.GetBalanceForUpdateTx(ctx, tx, input.From, input.Currency)
		if err != nil {
			return err
		}

		if source.Available().LessThan(input.Amount) {
			return fmt.Errorf("%w: available %s, requested %s",
				domain.ErrInsufficientBalance, source.Available(), input.Amount)
		}

		now := time.Now().UTC()

		seq, err := uc.sequence.Next(ctx, tx, SequenceVaultTransfers, now)
		if err != nil {
			return err
		}

		vt = &domain.VaultTransfer{
			ID:          uc.idGen.Generate(),
			Number:      domain.FormatVaultTransferNumber(now, seq),
			Kind:        input.Kind,
			From:        input.From,
			To:          input.To,
			Currency:    input.Currency,
			Amount:      input.Amount,
			Status:      domain.VaultTransferPending,
			Notes:       input.Notes,
			InitiatedBy: input.InitiatedBy,
			InitiatedAt: now,
		}

		if err := vt.Validate(); err != nil {
			return err
		}

		if autoApprove {
			if err := uc.moveBalancesTx(ctx, tx, vt, input.InitiatedBy); err != nil {
				return err
			}

			vt.Status = domain.VaultTransferInTransit
			vt.ApprovedBy = &input.InitiatedBy
			vt.ApprovedAt = &now
		}

		if err := uc.vtRepo.Create(ctx, tx, vt); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.VaultTransfersCreated.Inc()
		if autoApprove {
			uc.metrics.VaultTransfersAuto.Inc()
		}
	}

	return vt, nil
}

// ApproveVaultTransferInput represents an approval decision.
type ApproveVaultTransferInput struct {
	ID         string
	Approved   bool
	Reason     string // required when rejecting
	ApproverID string
}

// ApproveVaultTransfer decides a pending transfer. Approval moves the
// balances and enters in-transit; rejection records the reason and leaves
// balances untouched.
func (uc *VaultTransferUseCase) ApproveVaultTransfer(ctx context.Context, input ApproveVaultTransferInput) (*domain.VaultTransfer, error) {
	if !input.Approved {
		if err := domain.ValidateReason(input.Reason); err != nil {
			return nil, err
		}
	}

	var vt *domain.VaultTransfer

	err := uc.retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		vt, err = uc.vtRepo.GetByIDForUpdate(ctx, tx, input.ID)
		if err != nil {
			return err
		}

		if vt.Status != domain.VaultTransferPending {
			return fmt.Errorf("%w: vault transfer %s is %s", domain.ErrInvalidStatusTransition, vt.Number, vt.Status)
		}

		now := time.Now().UTC()

		if !input.Approved {
			vt.Status = domain.VaultTransferRejected
			vt.RejectionReason = &input.Reason
			vt.CancelledAt = &now

			if err := uc.vtRepo.Update(ctx, tx, vt); err != nil {
				return err
			}

			return tx.Commit(ctx)
		}

		source, err := uc.ledger.GetBalanceForUpdateTx(ctx, tx, vt.From, vt.Currency)
		if err != nil {
			return err
		}

		if source.Available().LessThan(vt.Amount) {
			return fmt.Errorf("%w: available %s, requested %s",
				domain.ErrInsufficientBalance, source.Available(), vt.Amount)
		}

		if err := uc.moveBalancesTx(ctx, tx, vt, input.ApproverID); err != nil {
			return err
		}

		vt.Status = domain.VaultTransferInTransit
		vt.ApprovedBy = &input.ApproverID
		vt.ApprovedAt = &now

		if err := uc.vtRepo.Update(ctx, tx, vt); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		if input.Approved {
			uc.metrics.VaultTransfersApproved.Inc()
		} else {
			uc.metrics.VaultTransfersRejected.Inc()
		}
	}

	return vt, nil
}

// CompleteVaultTransfer confirms physical receipt of an in-transit movement.
// Balances moved when the transfer entered in-transit, so completion only
// closes the record.
func (uc *VaultTransferUseCase) CompleteVaultTransfer(ctx context.Context, id, receiverID string) (*domain.VaultTransfer, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	vt, err := uc.vtRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if vt.Status != domain.VaultTransferInTransit {
		return nil, fmt.Errorf("%w: vault transfer %s is %s", domain.ErrInvalidStatusTransition, vt.Number, vt.Status)
	}

	now := time.Now().UTC()
	vt.Status = domain.VaultTransferCompleted
	vt.ReceivedBy = &receiverID
	vt.CompletedAt = &now

	if err := uc.vtRepo.Update(ctx, tx, vt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return vt, nil
}

// CancelVaultTransferInput represents input for cancelling a vault transfer.
type CancelVaultTransferInput struct {
	ID          string
	Reason      string
	CancelledBy string
}

// CancelVaultTransfer cancels a pending or in-transit transfer. A pending
// transfer never moved balances so cancellation is pure bookkeeping; an
// in-transit transfer reverses its debit/credit pair exactly once, guarded by
// the status transition.
func (uc *VaultTransferUseCase) CancelVaultTransfer(ctx context.Context, input CancelVaultTransferInput) (*domain.VaultTransfer, error) {
	if err := domain.ValidateReason(input.Reason); err != nil {
		return nil, err
	}

	var vt *domain.VaultTransfer

	err := uc.retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		vt, err = uc.vtRepo.GetByIDForUpdate(ctx, tx, input.ID)
		if err != nil {
			return err
		}

		switch vt.Status {
		case domain.VaultTransferPending:
			// no balance effect to undo
		case domain.VaultTransferInTransit:
			if err := uc.reverseBalancesTx(ctx, tx, vt, input.CancelledBy, input.Reason); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: vault transfer %s is %s", domain.ErrInvalidStatusTransition, vt.Number, vt.Status)
		}

		now := time.Now().UTC()
		vt.Status = domain.VaultTransferCancelled
		vt.RejectionReason = &input.Reason
		vt.CancelledAt = &now

		if err := uc.vtRepo.Update(ctx, tx, vt); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	return vt, nil
}

// GetVaultTransfer retrieves a vault transfer by ID.
func (uc *VaultTransferUseCase) GetVaultTransfer(ctx context.Context, id string) (*domain.VaultTransfer, error) {
	return uc.vtRepo.GetByID(ctx, id)
}

// ListVaultTransfers lists transfers matching the filter.
func (uc *VaultTransferUseCase) ListVaultTransfers(ctx context.Context, filter domain.VaultTransferFilter) ([]*domain.VaultTransfer, int, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.vtRepo.List(ctx, filter)
}

// GetStatistics aggregates vault transfers matching the filter.
func (uc *VaultTransferUseCase) GetStatistics(ctx context.Context, filter domain.VaultTransferFilter) (*domain.VaultTransferStats, error) {
	return uc.vtRepo.Stats(ctx, filter)
}

// ReconcileVault delegates a physical vault count to the ledger.
func (uc *VaultTransferUseCase) ReconcileVault(ctx context.Context, vaultID, currency string, counted decimal.Decimal, performedBy, notes string) (*ReconciliationResult, error) {
	return uc.ledger.Reconcile(ctx, ReconcileInput{
		Owner:         domain.Owner{Type: domain.OwnerVault, ID: vaultID},
		Currency:      currency,
		ActualBalance: counted,
		PerformedBy:   performedBy,
		Notes:         notes,
	})
}

// moveBalancesTx applies the debit/credit pair for a transfer entering
// in-transit. Rows are locked in sorted order before mutation.
func (uc *VaultTransferUseCase) moveBalancesTx(ctx context.Context, tx Transaction, vt *domain.VaultTransfer, performedBy string) error {
	_, err := uc.ledger.LockBalancesTx(ctx, tx,
		BalanceRef{Owner: vt.From, Currency: vt.Currency},
		BalanceRef{Owner: vt.To, Currency: vt.Currency},
	)
	if err != nil {
		return err
	}

	_, err = uc.ledger.UpdateBalanceTx(ctx, tx, BalanceChangeInput{
		Owner:         vt.From,
		Currency:      vt.Currency,
		Amount:        vt.Amount.Neg(),
		ChangeType:    domain.ChangeTransferOut,
		ReferenceID:   vt.ID,
		ReferenceType: "vault_transfer",
		PerformedBy:   performedBy,
		Notes:         fmt.Sprintf("vault transfer %s dispatched", vt.Number),
	})
	if err != nil {
		return err
	}

	_, err = uc.ledger.UpdateBalanceTx(ctx, tx, BalanceChangeInput{
		Owner:         vt.To,
		Currency:      vt.Currency,
		Amount:        vt.Amount,
		ChangeType:    domain.ChangeTransferIn,
		ReferenceID:   vt.ID,
		ReferenceType: "vault_transfer",
		PerformedBy:   performedBy,
		Notes:         fmt.Sprintf("vault transfer %s incoming", vt.Number),
	})

	return err
}

// reverseBalancesTx undoes the debit/credit pair of an in-transit transfer.
// Fails when the destination already spent the funds.
func (uc *VaultTransferUseCase) reverseBalancesTx(ctx context.Context, tx Transaction, vt *domain.VaultTransfer, performedBy, reason string) error {
	_, err := uc.ledger.LockBalancesTx(ctx, tx,
		BalanceRef{Owner: vt.From, Currency: vt.Currency},
		BalanceRef{Owner: vt.To, Currency: vt.Currency},
	)
	if err != nil {
		return err
	}

	notes := fmt.Sprintf("vault transfer %s cancelled: %s", vt.Number, reason)

	_, err = uc.ledger.UpdateBalanceTx(ctx, tx, BalanceChangeInput{
		Owner:         vt.To,
		Currency:      vt.Currency,
		Amount:        vt.Amount.Neg(),
		ChangeType:    domain.ChangeAdjustment,
		ReferenceID:   vt.ID,
		ReferenceType: "vault_transfer_cancellation",
		PerformedBy:   performedBy,
		Notes:         notes,
	})
	if err != nil {
		return err
	}

	_, err = uc.ledger.UpdateBalanceTx(ctx, tx, BalanceChangeInput{
		Owner:         vt.From,
		Currency:      vt.Currency,
		Amount:        vt.Amount,
		ChangeType:    domain.ChangeAdjustment,
		ReferenceID:   vt.ID,
		ReferenceType: "vault_transfer_cancellation",
		PerformedBy:   performedBy,
		Notes:         notes,
	})

	return err
}

func (uc *VaultTransferUseCase) validateEndpoints(kind domain.VaultTransferKind, from, to domain.Owner) error {
	if from == to {
		return domain.ErrSameOwner
	}

	var want [2]domain.OwnerType

	switch kind {
	case domain.VaultToVault:
		want = [2]domain.OwnerType{domain.OwnerVault, domain.OwnerVault}
	case domain.VaultToBranch:
		want = [2]domain.OwnerType{domain.OwnerVault, domain.OwnerBranch}
	case domain.BranchToVault:
		want = [2]domain.OwnerType{domain.OwnerBranch, domain.OwnerVault}
	default:
		return fmt.Errorf("%w: unknown vault transfer kind %q", domain.ErrValidation, kind)
	}

	if from.Type != want[0] || to.Type != want[1] {
		return fmt.Errorf("%w: endpoints do not match kind %s", domain.ErrValidation, kind)
	}

	return nil
}

func (uc *VaultTransferUseCase) checkActive(ctx context.Context, owner domain.Owner) error {
	var (
		active bool
		err    error
	)

	switch owner.Type {
	case domain.OwnerBranch:
		active, err = uc.directory.BranchActive(ctx, owner.ID)
	case domain.OwnerVault:
		active, err = uc.directory.VaultActive(ctx, owner.ID)
	default:
		return fmt.Errorf("%w: unknown owner type %q", domain.ErrValidation, owner.Type)
	}

	if err != nil {
		return err
	}

	if !active {
		return domain.ErrOwnerNotFound
	}

	return nil
}

func (uc *VaultTransferUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}

	return uc.retrier.Retry(ctx, op)
}
