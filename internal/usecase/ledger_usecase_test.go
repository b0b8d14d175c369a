package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/usecase"
	"github.com/oyal/treasury/internal/usecase/mocks"
)

func newLedger() (*usecase.LedgerUseCase, *mocks.MockBalanceRepository, *mocks.MockEntryRepository) {
	balRepo := mocks.NewMockBalanceRepository()
	entryRepo := mocks.NewMockEntryRepository()
	uc := usecase.NewLedgerUseCase(mocks.NewMockTransactionManager(), balRepo, entryRepo, mocks.NewMockIDGenerator())
	return uc, balRepo, entryRepo
}

func branchOwner(id string) domain.Owner {
	return domain.Owner{Type: domain.OwnerBranch, ID: id}
}

func TestLedgerUseCase_UpdateBalance(t *testing.T) {
	owner := branchOwner("branch-1")

	tests := []struct {
		name        string
		seed        *domain.Balance
		amount      decimal.Decimal
		expectError error
		wantBalance string
	}{
		{
			name:        "credit creates zeroed row lazily",
			amount:      decimal.NewFromInt(100),
			wantBalance: "100",
		},
		{
			name: "debit within balance",
			seed: &domain.Balance{
				OwnerType: owner.Type, OwnerID: owner.ID, Currency: "USD",
				Balance: decimal.NewFromInt(500),
			},
			amount:      decimal.NewFromInt(-200),
			wantBalance: "300",
		},
		{
			name:        "debit below zero rejected",
			amount:      decimal.NewFromInt(-1),
			expectError: domain.ErrInsufficientBalance,
		},
		{
			name: "debit under reservation rejected",
			seed: &domain.Balance{
				OwnerType: owner.Type, OwnerID: owner.ID, Currency: "USD",
				Balance: decimal.NewFromInt(100), Reserved: decimal.NewFromInt(80),
			},
			amount:      decimal.NewFromInt(-50),
			expectError: domain.ErrReservedExceedsBalance,
		},
		{
			name:        "zero change rejected",
			amount:      decimal.Zero,
			expectError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, balRepo, entryRepo := newLedger()
			if tt.seed != nil {
				balRepo.Seed(tt.seed)
			}

			got, err := uc.UpdateBalance(context.Background(), usecase.BalanceChangeInput{
				Owner:       owner,
				Currency:    "USD",
				Amount:      tt.amount,
				ChangeType:  domain.ChangeTransaction,
				PerformedBy: "user-1",
			})

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
				if len(entryRepo.Entries()) != 0 {
					t.Fatalf("failed change must not write history")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got.Balance.String() != tt.wantBalance {
				t.Fatalf("balance = %s, want %s", got.Balance, tt.wantBalance)
			}

			entries := entryRepo.Entries()
			if len(entries) != 1 {
				t.Fatalf("expected exactly one history row, got %d", len(entries))
			}

			if !entries[0].Amount.Equal(tt.amount) {
				t.Fatalf("history amount = %s, want %s", entries[0].Amount, tt.amount)
			}

			if !entries[0].BalanceAfter.Sub(entries[0].BalanceBefore).Equal(tt.amount) {
				t.Fatalf("history before/after do not bracket the delta")
			}
		})
	}
}

func TestLedgerUseCase_ReservationLifecycle(t *testing.T) {
	owner := branchOwner("branch-1")
	ctx := context.Background()

	uc, balRepo, entryRepo := newLedger()
	balRepo.Seed(&domain.Balance{
		OwnerType: owner.Type, OwnerID: owner.ID, Currency: "USD",
		Balance: decimal.NewFromInt(1000),
	})

	tx, _ := mocks.NewMockTransactionManager().Begin(ctx)

	// reserve holds available funds without history
	bal, err := uc.ReserveBalanceTx(ctx, tx, owner, "USD", decimal.NewFromInt(600))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if bal.Available().String() != "400" {
		t.Fatalf("available = %s, want 400", bal.Available())
	}

	if len(entryRepo.Entries()) != 0 {
		t.Fatalf("reservations must not write history")
	}

	// reserving past available fails
	if _, err := uc.ReserveBalanceTx(ctx, tx, owner, "USD", decimal.NewFromInt(500)); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// releasing more than reserved fails
	if _, err := uc.ReleaseReservedBalanceTx(ctx, tx, owner, "USD", decimal.NewFromInt(700)); !errors.Is(err, domain.ErrReleaseExceedsReserved) {
		t.Fatalf("expected ErrReleaseExceedsReserved, got %v", err)
	}

	// partial release
	bal, err = uc.ReleaseReservedBalanceTx(ctx, tx, owner, "USD", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("release: %v", err)
	}

	if bal.Reserved.String() != "500" {
		t.Fatalf("reserved = %s, want 500", bal.Reserved)
	}

	// commit settles balance and reservation together with one negative row
	bal, err = uc.CommitReservedBalanceTx(ctx, tx, usecase.CommitReservedInput{
		Owner:       owner,
		Currency:    "USD",
		Amount:      decimal.NewFromInt(500),
		ChangeType:  domain.ChangeTransferOut,
		PerformedBy: "user-1",
	})
	if err != nil {
		t.Fatalf("commit reserved: %v", err)
	}

	if bal.Balance.String() != "500" || !bal.Reserved.IsZero() {
		t.Fatalf("after commit balance=%s reserved=%s", bal.Balance, bal.Reserved)
	}

	entries := entryRepo.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one history row, got %d", len(entries))
	}

	if entries[0].Amount.String() != "-500" {
		t.Fatalf("commit history amount = %s, want -500", entries[0].Amount)
	}
}

func TestLedgerUseCase_Reconcile(t *testing.T) {
	owner := domain.Owner{Type: domain.OwnerVault, ID: "vault-1"}

	tests := []struct {
		name           string
		recorded       decimal.Decimal
		counted        decimal.Decimal
		wantAdjustment bool
		wantDifference string
	}{
		{
			name:           "surplus posts positive adjustment",
			recorded:       decimal.NewFromInt(900),
			counted:        decimal.NewFromInt(1000),
			wantAdjustment: true,
			wantDifference: "100",
		},
		{
			name:           "shortage posts negative adjustment",
			recorded:       decimal.NewFromInt(1000),
			counted:        decimal.NewFromInt(950),
			wantAdjustment: true,
			wantDifference: "-50",
		},
		{
			name:           "exact count posts nothing",
			recorded:       decimal.NewFromInt(1000),
			counted:        decimal.NewFromInt(1000),
			wantAdjustment: false,
			wantDifference: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, balRepo, entryRepo := newLedger()
			balRepo.Seed(&domain.Balance{
				OwnerType: owner.Type, OwnerID: owner.ID, Currency: "USD",
				Balance: tt.recorded,
			})

			result, err := uc.Reconcile(context.Background(), usecase.ReconcileInput{
				Owner:         owner,
				Currency:      "USD",
				ActualBalance: tt.counted,
				PerformedBy:   "auditor-1",
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.AdjustmentPosted != tt.wantAdjustment {
				t.Fatalf("AdjustmentPosted = %v, want %v", result.AdjustmentPosted, tt.wantAdjustment)
			}

			if result.Difference.String() != tt.wantDifference {
				t.Fatalf("difference = %s, want %s", result.Difference, tt.wantDifference)
			}

			if !result.Balance.Balance.Equal(tt.counted) {
				t.Fatalf("post-reconcile balance = %s, want %s", result.Balance.Balance, tt.counted)
			}

			// the stamp is written even when nothing was adjusted
			if result.Balance.LastReconciledAt == nil || result.Balance.LastReconciledBy == nil {
				t.Fatalf("reconciliation stamp missing")
			}

			entries := entryRepo.Entries()
			if tt.wantAdjustment {
				if len(entries) != 1 || entries[0].ChangeType != domain.ChangeReconciliation {
					t.Fatalf("expected one reconciliation entry, got %+v", entries)
				}
			} else if len(entries) != 0 {
				t.Fatalf("exact count must not write history")
			}
		})
	}
}

func TestLedgerUseCase_VerifyBalanceHistory(t *testing.T) {
	owner := branchOwner("branch-1")
	ctx := context.Background()

	uc, _, _ := newLedger()

	for _, amount := range []int64{100, 250, -50} {
		_, err := uc.UpdateBalance(ctx, usecase.BalanceChangeInput{
			Owner:       owner,
			Currency:    "USD",
			Amount:      decimal.NewFromInt(amount),
			ChangeType:  domain.ChangeTransaction,
			PerformedBy: "user-1",
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	ok, drift, err := uc.VerifyBalanceHistory(ctx, owner, "USD")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if !ok || !drift.IsZero() {
		t.Fatalf("expected history to match balance, drift=%s", drift)
	}
}

func TestLedgerUseCase_GetBalanceSummary(t *testing.T) {
	owner := branchOwner("branch-1")
	min := decimal.NewFromInt(100)
	max := decimal.NewFromInt(1000)

	uc, balRepo, _ := newLedger()
	balRepo.Seed(&domain.Balance{
		OwnerType: owner.Type, OwnerID: owner.ID, Currency: "USD",
		Balance: decimal.NewFromInt(50), MinThreshold: &min,
	})
	balRepo.Seed(&domain.Balance{
		OwnerType: owner.Type, OwnerID: owner.ID, Currency: "EUR",
		Balance: decimal.NewFromInt(5000), MaxThreshold: &max,
	})

	summary, err := uc.GetBalanceSummary(context.Background(), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.Balances) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(summary.Balances))
	}

	if len(summary.BelowMin) != 1 || summary.BelowMin[0] != "USD" {
		t.Fatalf("BelowMin = %v, want [USD]", summary.BelowMin)
	}

	if len(summary.AboveMax) != 1 || summary.AboveMax[0] != "EUR" {
		t.Fatalf("AboveMax = %v, want [EUR]", summary.AboveMax)
	}
}
