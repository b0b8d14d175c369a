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

type stubRates struct {
	rate decimal.Decimal
	err  error
}

func (s *stubRates) GetLatestRate(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ExchangeRate{FromCurrency: from, ToCurrency: to, Rate: s.rate}, nil
}

type txnFixture struct {
	uc        *usecase.TransactionUseCase
	ledger    *usecase.LedgerUseCase
	balRepo   *mocks.MockBalanceRepository
	entryRepo *mocks.MockEntryRepository
	txnRepo   *mocks.MockTransactionRepository
	directory *mocks.MockDirectory
	rates     *stubRates
}

func newTxnFixture() *txnFixture {
	f := &txnFixture{
		balRepo:   mocks.NewMockBalanceRepository(),
		entryRepo: mocks.NewMockEntryRepository(),
		txnRepo:   mocks.NewMockTransactionRepository(),
		directory: mocks.NewMockDirectory(),
		rates:     &stubRates{rate: decimal.RequireFromString("0.92")},
	}

	txMgr := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()
	f.ledger = usecase.NewLedgerUseCase(txMgr, f.balRepo, f.entryRepo, idGen)
	f.uc = usecase.NewTransactionUseCase(
		txMgr, f.ledger, f.txnRepo, f.rates, f.directory,
		mocks.NewMockNumberSequence(), idGen, mocks.NewMockRetrier(), nil,
	)

	return f
}

func (f *txnFixture) seedBalance(owner domain.Owner, currency string, balance, reserved int64) {
	f.balRepo.Seed(&domain.Balance{
		OwnerType: owner.Type, OwnerID: owner.ID, Currency: currency,
		Balance: decimal.NewFromInt(balance), Reserved: decimal.NewFromInt(reserved),
	})
}

func (f *txnFixture) balance(t *testing.T, owner domain.Owner, currency string) *domain.Balance {
	t.Helper()
	bal, err := f.balRepo.Get(context.Background(), owner, currency)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	return bal
}

func TestTransactionUseCase_CreateIncome(t *testing.T) {
	ref := "INV-2024-001"

	tests := []struct {
		name        string
		input       usecase.CreateIncomeInput
		setup       func(*txnFixture)
		expectError error
	}{
		{
			name: "successful income",
			input: usecase.CreateIncomeInput{
				BranchID: "branch-1", Currency: "USD",
				Amount:   decimal.NewFromInt(500),
				Category: "deposit", UserID: "user-1",
			},
		},
		{
			name: "inactive branch rejected",
			input: usecase.CreateIncomeInput{
				BranchID: "branch-closed", Currency: "USD",
				Amount:   decimal.NewFromInt(500),
				Category: "deposit", UserID: "user-1",
			},
			setup:       func(f *txnFixture) { f.directory.Deactivate("branch-closed") },
			expectError: domain.ErrOwnerNotFound,
		},
		{
			name: "inactive currency rejected",
			input: usecase.CreateIncomeInput{
				BranchID: "branch-1", Currency: "XXX",
				Amount:   decimal.NewFromInt(500),
				Category: "deposit", UserID: "user-1",
			},
			setup:       func(f *txnFixture) { f.directory.Deactivate("XXX") },
			expectError: domain.ErrCurrencyNotFound,
		},
		{
			name: "missing category rejected",
			input: usecase.CreateIncomeInput{
				BranchID: "branch-1", Currency: "USD",
				Amount: decimal.NewFromInt(500), UserID: "user-1",
			},
			expectError: domain.ErrValidation,
		},
		{
			name: "amount over limit rejected",
			input: usecase.CreateIncomeInput{
				BranchID: "branch-1", Currency: "USD",
				Amount:   decimal.RequireFromString("1000000.01"),
				Category: "deposit", UserID: "user-1",
			},
			expectError: domain.ErrTransactionLimit,
		},
		{
			name: "duplicate reference rejected",
			input: usecase.CreateIncomeInput{
				BranchID: "branch-1", Currency: "USD",
				Amount:   decimal.NewFromInt(500),
				Category: "deposit", UserID: "user-1",
				ReferenceNumber: &ref,
			},
			setup: func(f *txnFixture) {
				f.txnRepo.Create(context.Background(), nil, &domain.Transaction{
					ID: "existing", ReferenceNumber: &ref,
				})
			},
			expectError: domain.ErrDuplicateReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTxnFixture()
			if tt.setup != nil {
				tt.setup(f)
			}

			txn, err := f.uc.CreateIncome(context.Background(), tt.input)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if txn.Status != domain.StatusCompleted || txn.CompletedAt == nil {
				t.Fatalf("income must complete immediately, got %s", txn.Status)
			}

			if !strings.HasPrefix(txn.Number, "TRX-") || !strings.HasSuffix(txn.Number, "-00001") {
				t.Fatalf("unexpected number %s", txn.Number)
			}

			bal := f.balance(t, branchOwner(tt.input.BranchID), tt.input.Currency)
			if !bal.Balance.Equal(tt.input.Amount) {
				t.Fatalf("balance = %s, want %s", bal.Balance, tt.input.Amount)
			}
		})
	}
}

func TestTransactionUseCase_CreateExpense(t *testing.T) {
	owner := branchOwner("branch-1")

	t.Run("insufficient available funds", func(t *testing.T) {
		f := newTxnFixture()
		f.seedBalance(owner, "USD", 100, 80)

		_, err := f.uc.CreateExpense(context.Background(), usecase.CreateExpenseInput{
			BranchID: "branch-1", Currency: "USD",
			Amount:   decimal.NewFromInt(50),
			Category: "rent", Payee: "Landlord Ltd", UserID: "user-1",
		})
		if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}
	})

	t.Run("approval-gated expense debits immediately", func(t *testing.T) {
		f := newTxnFixture()
		f.seedBalance(owner, "USD", 1000, 0)

		txn, err := f.uc.CreateExpense(context.Background(), usecase.CreateExpenseInput{
			BranchID: "branch-1", Currency: "USD",
			Amount:   decimal.NewFromInt(300),
			Category: "equipment", Payee: "Vendor Inc",
			ApprovalRequired: true, UserID: "user-1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if txn.Status != domain.StatusPending {
			t.Fatalf("gated expense must stay pending, got %s", txn.Status)
		}

		bal := f.balance(t, owner, "USD")
		if bal.Balance.String() != "700" {
			t.Fatalf("funds must move at creation, balance = %s", bal.Balance)
		}

		// approval flips the record without touching funds again
		approved, err := f.uc.ApproveExpense(context.Background(), txn.ID, "manager-1")
		if err != nil {
			t.Fatalf("approve: %v", err)
		}

		if approved.Status != domain.StatusCompleted || approved.Expense.ApprovedBy == nil {
			t.Fatalf("approval did not complete the expense: %+v", approved)
		}

		bal = f.balance(t, owner, "USD")
		if bal.Balance.String() != "700" {
			t.Fatalf("approval must not move funds, balance = %s", bal.Balance)
		}

		// second approval hits the status gate
		if _, err := f.uc.ApproveExpense(context.Background(), txn.ID, "manager-1"); !errors.Is(err, domain.ErrInvalidStatusTransition) {
			t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
		}
	})

	t.Run("short payee rejected", func(t *testing.T) {
		f := newTxnFixture()
		f.seedBalance(owner, "USD", 1000, 0)

		_, err := f.uc.CreateExpense(context.Background(), usecase.CreateExpenseInput{
			BranchID: "branch-1", Currency: "USD",
			Amount:   decimal.NewFromInt(50),
			Category: "misc", Payee: "x", UserID: "user-1",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}

func TestTransactionUseCase_CreateExchange(t *testing.T) {
	owner := branchOwner("branch-1")

	t.Run("amounts and commission computed from the resolved rate", func(t *testing.T) {
		f := newTxnFixture()
		f.rates.rate = decimal.RequireFromString("0.92")
		f.seedBalance(owner, "USD", 2000, 0)

		txn, err := f.uc.CreateExchange(context.Background(), usecase.CreateExchangeInput{
			BranchID: "branch-1", FromCurrency: "USD", ToCurrency: "EUR",
			FromAmount:           decimal.NewFromInt(1000),
			CommissionPercentage: decimal.RequireFromString("1.5"),
			UserID:               "user-1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if txn.Status != domain.StatusCompleted {
			t.Fatalf("exchange must settle at creation, got %s", txn.Status)
		}

		if txn.Exchange.ToAmount.String() != "920" {
			t.Fatalf("to amount = %s, want 920", txn.Exchange.ToAmount)
		}

		if txn.Exchange.CommissionAmount.String() != "15" {
			t.Fatalf("commission = %s, want 15", txn.Exchange.CommissionAmount)
		}

		// source loses amount plus commission, target gains the converted amount
		usd := f.balance(t, owner, "USD")
		if usd.Balance.String() != "985" {
			t.Fatalf("USD balance = %s, want 985", usd.Balance)
		}

		eur := f.balance(t, owner, "EUR")
		if eur.Balance.String() != "920" {
			t.Fatalf("EUR balance = %s, want 920", eur.Balance)
		}
	})

	t.Run("same currency rejected", func(t *testing.T) {
		f := newTxnFixture()

		_, err := f.uc.CreateExchange(context.Background(), usecase.CreateExchangeInput{
			BranchID: "branch-1", FromCurrency: "USD", ToCurrency: "USD",
			FromAmount: decimal.NewFromInt(100), UserID: "user-1",
		})
		if !errors.Is(err, domain.ErrSameCurrency) {
			t.Fatalf("expected ErrSameCurrency, got %v", err)
		}
	})

	t.Run("insufficient funds for amount plus commission", func(t *testing.T) {
		f := newTxnFixture()
		f.rates.rate = decimal.NewFromInt(1)
		f.seedBalance(owner, "USD", 1000, 0)

		_, err := f.uc.CreateExchange(context.Background(), usecase.CreateExchangeInput{
			BranchID: "branch-1", FromCurrency: "USD", ToCurrency: "EUR",
			FromAmount:           decimal.NewFromInt(1000),
			CommissionPercentage: decimal.NewFromInt(2),
			UserID:               "user-1",
		})
		if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}
	})

	t.Run("missing rate aborts before any write", func(t *testing.T) {
		f := newTxnFixture()
		f.rates.err = domain.ErrRateNotFound
		f.seedBalance(owner, "USD", 1000, 0)

		_, err := f.uc.CreateExchange(context.Background(), usecase.CreateExchangeInput{
			BranchID: "branch-1", FromCurrency: "USD", ToCurrency: "EUR",
			FromAmount: decimal.NewFromInt(100), UserID: "user-1",
		})
		if !errors.Is(err, domain.ErrRateNotFound) {
			t.Fatalf("expected ErrRateNotFound, got %v", err)
		}

		if len(f.entryRepo.Entries()) != 0 {
			t.Fatalf("failed exchange must not write history")
		}
	})
}

func TestTransactionUseCase_TransferLifecycle(t *testing.T) {
	from := branchOwner("branch-1")
	to := branchOwner("branch-2")
	ctx := context.Background()

	f := newTxnFixture()
	f.seedBalance(from, "USD", 1000, 0)

	txn, err := f.uc.CreateTransfer(ctx, usecase.CreateTransferInput{
		From: from, To: to,
		Kind: domain.TransferBranchToBranch, Currency: "USD",
		Amount: decimal.NewFromInt(400), BranchID: "branch-1", UserID: "user-1",
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	if txn.Status != domain.StatusPending {
		t.Fatalf("phase one must leave the transfer pending, got %s", txn.Status)
	}

	// funds are reserved, not moved
	src := f.balance(t, from, "USD")
	if src.Balance.String() != "1000" || src.Reserved.String() != "400" {
		t.Fatalf("after phase one balance=%s reserved=%s", src.Balance, src.Reserved)
	}

	completed, err := f.uc.CompleteTransfer(ctx, txn.ID, "receiver-1")
	if err != nil {
		t.Fatalf("complete transfer: %v", err)
	}

	if completed.Status != domain.StatusCompleted || completed.Transfer.ReceivedBy == nil {
		t.Fatalf("phase two did not complete: %+v", completed)
	}

	src = f.balance(t, from, "USD")
	if src.Balance.String() != "600" || !src.Reserved.IsZero() {
		t.Fatalf("after phase two balance=%s reserved=%s", src.Balance, src.Reserved)
	}

	dst := f.balance(t, to, "USD")
	if dst.Balance.String() != "400" {
		t.Fatalf("destination balance = %s, want 400", dst.Balance)
	}

	// settling twice is blocked by the status gate
	if _, err := f.uc.CompleteTransfer(ctx, txn.ID, "receiver-1"); !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
	}

	dst = f.balance(t, to, "USD")
	if dst.Balance.String() != "400" {
		t.Fatalf("double completion moved funds again: %s", dst.Balance)
	}
}

func TestTransactionUseCase_CancelTransaction(t *testing.T) {
	owner := branchOwner("branch-1")
	ctx := context.Background()

	t.Run("short reason rejected", func(t *testing.T) {
		f := newTxnFixture()

		_, err := f.uc.CancelTransaction(ctx, usecase.CancelTransactionInput{
			ID: "any", Reason: "oops", CancelledBy: "user-1",
		})
		if !errors.Is(err, domain.ErrReasonTooShort) {
			t.Fatalf("expected ErrReasonTooShort, got %v", err)
		}
	})

	t.Run("pending expense credits funds back", func(t *testing.T) {
		f := newTxnFixture()
		f.seedBalance(owner, "USD", 1000, 0)

		txn, err := f.uc.CreateExpense(ctx, usecase.CreateExpenseInput{
			BranchID: "branch-1", Currency: "USD",
			Amount:   decimal.NewFromInt(300),
			Category: "equipment", Payee: "Vendor Inc",
			ApprovalRequired: true, UserID: "user-1",
		})
		if err != nil {
			t.Fatalf("create expense: %v", err)
		}

		cancelled, err := f.uc.CancelTransaction(ctx, usecase.CancelTransactionInput{
			ID: txn.ID, Reason: "entered against wrong branch", CancelledBy: "user-2",
		})
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}

		if cancelled.Status != domain.StatusCancelled || cancelled.CancellationReason == nil {
			t.Fatalf("cancellation not recorded: %+v", cancelled)
		}

		bal := f.balance(t, owner, "USD")
		if bal.Balance.String() != "1000" {
			t.Fatalf("expense reversal balance = %s, want 1000", bal.Balance)
		}
	})

	t.Run("pending transfer releases its reservation", func(t *testing.T) {
		f := newTxnFixture()
		f.seedBalance(owner, "USD", 1000, 0)

		txn, err := f.uc.CreateTransfer(ctx, usecase.CreateTransferInput{
			From: owner, To: branchOwner("branch-2"),
			Kind: domain.TransferBranchToBranch, Currency: "USD",
			Amount: decimal.NewFromInt(400), BranchID: "branch-1", UserID: "user-1",
		})
		if err != nil {
			t.Fatalf("create transfer: %v", err)
		}

		if _, err := f.uc.CancelTransaction(ctx, usecase.CancelTransactionInput{
			ID: txn.ID, Reason: "recipient branch closed today", CancelledBy: "user-1",
		}); err != nil {
			t.Fatalf("cancel: %v", err)
		}

		bal := f.balance(t, owner, "USD")
		if bal.Balance.String() != "1000" || !bal.Reserved.IsZero() {
			t.Fatalf("after cancel balance=%s reserved=%s", bal.Balance, bal.Reserved)
		}
	})

	t.Run("completed transaction cannot cancel", func(t *testing.T) {
		f := newTxnFixture()

		txn, err := f.uc.CreateIncome(ctx, usecase.CreateIncomeInput{
			BranchID: "branch-1", Currency: "USD",
			Amount:   decimal.NewFromInt(100),
			Category: "deposit", UserID: "user-1",
		})
		if err != nil {
			t.Fatalf("create income: %v", err)
		}

		_, err = f.uc.CancelTransaction(ctx, usecase.CancelTransactionInput{
			ID: txn.ID, Reason: "changed my mind about it", CancelledBy: "user-1",
		})
		if !errors.Is(err, domain.ErrInvalidStatusTransition) {
			t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
		}
	})
}

func TestTransactionUseCase_NumbersIncrementPerDay(t *testing.T) {
	f := newTxnFixture()
	ctx := context.Background()

	var numbers []string
	for i := 0; i < 3; i++ {
		txn, err := f.uc.CreateIncome(ctx, usecase.CreateIncomeInput{
			BranchID: "branch-1", Currency: "USD",
			Amount:   decimal.NewFromInt(10),
			Category: "deposit", UserID: "user-1",
		})
		if err != nil {
			t.Fatalf("create income: %v", err)
		}
		numbers = append(numbers, txn.Number)
	}

	for i, number := range numbers {
		want := []string{"-00001", "-00002", "-00003"}[i]
		if !strings.HasSuffix(number, want) {
			t.Fatalf("number %d = %s, want suffix %s", i, number, want)
		}
	}
}
