package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/usecase"
	"github.com/oyal/treasury/internal/usecase/mocks"
)

type vtFixture struct {
	uc        *usecase.VaultTransferUseCase
	balRepo   *mocks.MockBalanceRepository
	entryRepo *mocks.MockEntryRepository
	vtRepo    *mocks.MockVaultTransferRepository
	directory *mocks.MockDirectory
}

func newVTFixture() *vtFixture {
	f := &vtFixture{
		balRepo:   mocks.NewMockBalanceRepository(),
		entryRepo: mocks.NewMockEntryRepository(),
		vtRepo:    mocks.NewMockVaultTransferRepository(),
		directory: mocks.NewMockDirectory(),
	}

	txMgr := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()
	ledger := usecase.NewLedgerUseCase(txMgr, f.balRepo, f.entryRepo, idGen)
	f.uc = usecase.NewVaultTransferUseCase(
		txMgr, ledger, f.vtRepo, f.directory,
		mocks.NewMockNumberSequence(), idGen, mocks.NewMockRetrier(),
		decimal.Zero, nil,
	)

	return f
}

func vaultOwner(id string) domain.Owner {
	return domain.Owner{Type: domain.OwnerVault, ID: id}
}

func (f *vtFixture) seedBalance(owner domain.Owner, balance int64) {
	f.balRepo.Seed(&domain.Balance{
		OwnerType: owner.Type, OwnerID: owner.ID, Currency: "USD",
		Balance: decimal.NewFromInt(balance),
	})
}

func (f *vtFixture) balance(t *testing.T, owner domain.Owner) *domain.Balance {
	t.Helper()
	bal, err := f.balRepo.Get(context.Background(), owner, "USD")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	return bal
}

func TestVaultTransferUseCase_ThresholdGate(t *testing.T) {
	from := vaultOwner("vault-1")
	to := vaultOwner("vault-2")
	ctx := context.Background()

	t.Run("under threshold moves immediately", func(t *testing.T) {
		f := newVTFixture()
		f.seedBalance(from, 50000)

		vt, err := f.uc.CreateVaultTransfer(ctx, usecase.CreateVaultTransferInput{
			Kind: domain.VaultToVault, From: from, To: to,
			Currency: "USD", Amount: decimal.RequireFromString("9999.99"),
			InitiatedBy: "teller-1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if vt.Status != domain.VaultTransferInTransit {
			t.Fatalf("status = %s, want in_transit", vt.Status)
		}

		// the initiator is recorded as approver on the fast path
		if vt.ApprovedBy == nil || *vt.ApprovedBy != "teller-1" {
			t.Fatalf("ApprovedBy = %v, want teller-1", vt.ApprovedBy)
		}

		if !strings.HasPrefix(vt.Number, "VTR-") {
			t.Fatalf("unexpected number %s", vt.Number)
		}

		if f.balance(t, from).Balance.String() != "40000.01" {
			t.Fatalf("source = %s, want 40000.01", f.balance(t, from).Balance)
		}

		if f.balance(t, to).Balance.String() != "9999.99" {
			t.Fatalf("destination = %s, want 9999.99", f.balance(t, to).Balance)
		}
	})

	t.Run("at threshold waits for approval with no balance effect", func(t *testing.T) {
		f := newVTFixture()
		f.seedBalance(from, 50000)

		vt, err := f.uc.CreateVaultTransfer(ctx, usecase.CreateVaultTransferInput{
			Kind: domain.VaultToVault, From: from, To: to,
			Currency: "USD", Amount: decimal.NewFromInt(10000),
			InitiatedBy: "teller-1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if vt.Status != domain.VaultTransferPending || vt.ApprovedBy != nil {
			t.Fatalf("gated transfer must wait: %+v", vt)
		}

		if f.balance(t, from).Balance.String() != "50000" {
			t.Fatalf("pending transfer must not move funds")
		}

		if len(f.entryRepo.Entries()) != 0 {
			t.Fatalf("pending transfer must not write history")
		}
	})

	t.Run("insufficient funds abort creation", func(t *testing.T) {
		f := newVTFixture()
		f.seedBalance(from, 100)

		_, err := f.uc.CreateVaultTransfer(ctx, usecase.CreateVaultTransferInput{
			Kind: domain.VaultToVault, From: from, To: to,
			Currency: "USD", Amount: decimal.NewFromInt(500),
			InitiatedBy: "teller-1",
		})
		if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}
	})

	t.Run("endpoint types must match kind", func(t *testing.T) {
		f := newVTFixture()

		_, err := f.uc.CreateVaultTransfer(ctx, usecase.CreateVaultTransferInput{
			Kind: domain.VaultToVault, From: vaultOwner("vault-1"), To: branchOwner("branch-1"),
			Currency: "USD", Amount: decimal.NewFromInt(100),
			InitiatedBy: "teller-1",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}

func TestVaultTransferUseCase_ApproveVaultTransfer(t *testing.T) {
	from := vaultOwner("vault-1")
	to := vaultOwner("vault-2")
	ctx := context.Background()

	create := func(f *vtFixture) *domain.VaultTransfer {
		f.seedBalance(from, 50000)
		vt, err := f.uc.CreateVaultTransfer(ctx, usecase.CreateVaultTransferInput{
			Kind: domain.VaultToVault, From: from, To: to,
			Currency: "USD", Amount: decimal.NewFromInt(20000),
			InitiatedBy: "teller-1",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return vt
	}

	t.Run("approval moves balances into transit", func(t *testing.T) {
		f := newVTFixture()
		vt := create(f)

		approved, err := f.uc.ApproveVaultTransfer(ctx, usecase.ApproveVaultTransferInput{
			ID: vt.ID, Approved: true, ApproverID: "manager-1",
		})
		if err != nil {
			t.Fatalf("approve: %v", err)
		}

		if approved.Status != domain.VaultTransferInTransit || *approved.ApprovedBy != "manager-1" {
			t.Fatalf("approval state wrong: %+v", approved)
		}

		if f.balance(t, from).Balance.String() != "30000" || f.balance(t, to).Balance.String() != "20000" {
			t.Fatalf("approval did not move balances")
		}
	})

	t.Run("rejection needs a reason and leaves balances alone", func(t *testing.T) {
		f := newVTFixture()
		vt := create(f)

		_, err := f.uc.ApproveVaultTransfer(ctx, usecase.ApproveVaultTransferInput{
			ID: vt.ID, Approved: false, Reason: "no", ApproverID: "manager-1",
		})
		if !errors.Is(err, domain.ErrReasonTooShort) {
			t.Fatalf("expected ErrReasonTooShort, got %v", err)
		}

		rejected, err := f.uc.ApproveVaultTransfer(ctx, usecase.ApproveVaultTransferInput{
			ID: vt.ID, Approved: false,
			Reason: "destination vault over capacity", ApproverID: "manager-1",
		})
		if err != nil {
			t.Fatalf("reject: %v", err)
		}

		if rejected.Status != domain.VaultTransferRejected || rejected.RejectionReason == nil {
			t.Fatalf("rejection state wrong: %+v", rejected)
		}

		if f.balance(t, from).Balance.String() != "50000" {
			t.Fatalf("rejection must not move funds")
		}

		// a decided transfer cannot be decided again
		_, err = f.uc.ApproveVaultTransfer(ctx, usecase.ApproveVaultTransferInput{
			ID: vt.ID, Approved: true, ApproverID: "manager-2",
		})
		if !errors.Is(err, domain.ErrInvalidStatusTransition) {
			t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
		}
	})
}

func TestVaultTransferUseCase_CompleteAndCancel(t *testing.T) {
	from := vaultOwner("vault-1")
	to := vaultOwner("vault-2")
	ctx := context.Background()

	inTransit := func(f *vtFixture) *domain.VaultTransfer {
		f.seedBalance(from, 50000)
		vt, err := f.uc.CreateVaultTransfer(ctx, usecase.CreateVaultTransferInput{
			Kind: domain.VaultToVault, From: from, To: to,
			Currency: "USD", Amount: decimal.NewFromInt(5000),
			InitiatedBy: "teller-1",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if vt.Status != domain.VaultTransferInTransit {
			t.Fatalf("fixture expects auto-approval, got %s", vt.Status)
		}
		return vt
	}

	t.Run("completion closes the record only", func(t *testing.T) {
		f := newVTFixture()
		vt := inTransit(f)

		done, err := f.uc.CompleteVaultTransfer(ctx, vt.ID, "receiver-1")
		if err != nil {
			t.Fatalf("complete: %v", err)
		}

		if done.Status != domain.VaultTransferCompleted || done.ReceivedBy == nil || done.CompletedAt == nil {
			t.Fatalf("completion state wrong: %+v", done)
		}

		if f.balance(t, from).Balance.String() != "45000" || f.balance(t, to).Balance.String() != "5000" {
			t.Fatalf("completion must not move funds again")
		}

		// completed transfers cannot cancel
		_, err = f.uc.CancelVaultTransfer(ctx, usecase.CancelVaultTransferInput{
			ID: vt.ID, Reason: "attempting a late reversal", CancelledBy: "teller-1",
		})
		if !errors.Is(err, domain.ErrInvalidStatusTransition) {
			t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
		}
	})

	t.Run("cancelling in transit reverses exactly once", func(t *testing.T) {
		f := newVTFixture()
		vt := inTransit(f)

		cancelled, err := f.uc.CancelVaultTransfer(ctx, usecase.CancelVaultTransferInput{
			ID: vt.ID, Reason: "courier turned back mid-route", CancelledBy: "teller-1",
		})
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}

		if cancelled.Status != domain.VaultTransferCancelled {
			t.Fatalf("status = %s, want cancelled", cancelled.Status)
		}

		if f.balance(t, from).Balance.String() != "50000" || !f.balance(t, to).Balance.IsZero() {
			t.Fatalf("reversal incomplete: from=%s to=%s",
				f.balance(t, from).Balance, f.balance(t, to).Balance)
		}

		// a second cancel must not reverse again
		_, err = f.uc.CancelVaultTransfer(ctx, usecase.CancelVaultTransferInput{
			ID: vt.ID, Reason: "cancelling one more time", CancelledBy: "teller-1",
		})
		if !errors.Is(err, domain.ErrInvalidStatusTransition) {
			t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
		}

		if f.balance(t, from).Balance.String() != "50000" {
			t.Fatalf("double cancel moved funds")
		}
	})

	t.Run("cancelling pending is pure bookkeeping", func(t *testing.T) {
		f := newVTFixture()
		f.seedBalance(from, 50000)

		vt, err := f.uc.CreateVaultTransfer(ctx, usecase.CreateVaultTransferInput{
			Kind: domain.VaultToVault, From: from, To: to,
			Currency: "USD", Amount: decimal.NewFromInt(20000),
			InitiatedBy: "teller-1",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		if _, err := f.uc.CancelVaultTransfer(ctx, usecase.CancelVaultTransferInput{
			ID: vt.ID, Reason: "requested by branch manager", CancelledBy: "teller-1",
		}); err != nil {
			t.Fatalf("cancel: %v", err)
		}

		if len(f.entryRepo.Entries()) != 0 {
			t.Fatalf("cancelling a pending transfer must not write history")
		}
	})
}

func TestVaultTransferUseCase_ReconcileVault(t *testing.T) {
	f := newVTFixture()
	owner := vaultOwner("vault-1")
	f.seedBalance(owner, 10000)

	result, err := f.uc.ReconcileVault(context.Background(), "vault-1", "USD",
		decimal.NewFromInt(9950), "auditor-1", "quarterly count")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if !result.AdjustmentPosted || result.Difference.String() != "-50" {
		t.Fatalf("result = %+v", result)
	}

	if f.balance(t, owner).Balance.String() != "9950" {
		t.Fatalf("balance = %s, want 9950", f.balance(t, owner).Balance)
	}
}
