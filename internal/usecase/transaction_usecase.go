package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/infrastructure/metrics"
)

// RateResolver is the slice of the rate engine the transaction engine needs.
type RateResolver interface {
	GetLatestRate(ctx context.Context, from, to string) (*domain.ExchangeRate, error)
}

// TransactionUseCase handles transaction business logic: income, expense,
// exchange and branch transfer, plus the cancellation path.
type TransactionUseCase struct {
	txManager TransactionManager
	ledger    *LedgerUseCase
	txnRepo   TransactionRepository
	rates     RateResolver
	directory Directory
	sequence  NumberSequence
	idGen     IDGenerator
	retrier   Retrier
	metrics   *metrics.Metrics
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	ledger *LedgerUseCase,
	txnRepo TransactionRepository,
	rates RateResolver,
	directory Directory,
	sequence NumberSequence,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager: txManager,
		ledger:    ledger,
		txnRepo:   txnRepo,
		rates:     rates,
		directory: directory,
		sequence:  sequence,
		idGen:     idGen,
		retrier:   retrier,
		metrics:   metrics,
	}
}

// CreateIncomeInput represents input for recording an income transaction.
type CreateIncomeInput struct {
	BranchID        string
	Currency        string
	Amount          decimal.Decimal
	Category        string
	Source          string
	CustomerID      *string
	ReferenceNumber *string
	Description     string
	UserID          string
}

// CreateIncome records an income: the branch balance is credited and the
// transaction completes in the same atomic unit.
func (uc *TransactionUseCase) CreateIncome(ctx context.Context, input CreateIncomeInput) (*domain.Transaction, error) {
	start := time.Now()

	if err := uc.validateCommon(ctx, input.BranchID, input.Currency, input.Amount, input.CustomerID); err != nil {
		return nil, err
	}

	if input.Category == "" {
		return nil, fmt.Errorf("%w: income category is required", domain.ErrValidation)
	}

	var txn *domain.Transaction

	err := uc.retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := uc.checkReference(ctx, tx, input.ReferenceNumber); err != nil {
			return err
		}

		now := time.Now().UTC()

		number, err := uc.nextTransactionNumber(ctx, tx, now)
		if err != nil {
			return err
		}

		txn = &domain.Transaction{
			ID:              uc.idGen.Generate(),
			Number:          number,
			Kind:            domain.KindIncome,
			Status:          domain.StatusPending,
			Amount:          input.Amount,
			Currency:        input.Currency,
			BranchID:        input.BranchID,
			UserID:          input.UserID,
			CustomerID:      input.CustomerID,
			ReferenceNumber: input.ReferenceNumber,
			Description:     input.Description,
			CreatedAt:       now,
			Income: &domain.IncomeDetails{
				Category: input.Category,
				Source:   input.Source,
			},
		}

		if err := txn.Validate(); err != nil {
			return err
		}

		if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
			return err
		}

		_, err = uc.ledger.UpdateBalanceTx(ctx, tx, BalanceChangeInput{
			Owner:         domain.Owner{Type: domain.OwnerBranch, ID: input.BranchID},
			Currency:      input.Currency,
			Amount:        input.Amount,
			ChangeType:    domain.ChangeTransaction,
			ReferenceID:   txn.ID,
			ReferenceType: "transaction",
			PerformedBy:   input.UserID,
			Notes:         fmt.Sprintf("income: %s", input.Category),
		})
		if err != nil {
			return err
		}

		uc.markCompleted(txn, now)

		if err := uc.txnRepo.Update(ctx, tx, txn); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	uc.observeCreated(txn, start)

	return txn, nil
}

// CreateExpenseInput represents input for recording an expense transaction.
type CreateExpenseInput struct {
	BranchID         string
	Currency         string
	Amount           decimal.Decimal
	Category         string
	Payee            string
	ApprovalRequired bool
	CustomerID       *string
	ReferenceNumber  *string
	Description      string
	UserID           string
}

// CreateExpense records an expense. The branch balance is debited immediately
// even when approval is pending; approval is an administrative gate, not a
// funds gate.
func (uc *TransactionUseCase) CreateExpense(ctx context.Context, input CreateExpenseInput) (*domain.Transaction, error) {
	start := time.Now()

	if err := uc.validateCommon(ctx, input.BranchID, input.Currency, input.Amount, input.CustomerID); err != nil {
		return nil, err
	}

	if input.Category == "" {
		return nil, fmt.Errorf("%w: expense category is required", domain.ErrValidation)
	}

	if len(input.Payee) < 2 {
		return nil, fmt.Errorf("%w: payee name too short", domain.ErrValidation)
	}

	owner := domain.Owner{Type: domain.OwnerBranch, ID: input.BranchID}

	var txn *domain.Transaction

	err := uc.retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := uc.checkReference(ctx, tx, input.ReferenceNumber); err != nil {
			return err
		}

		balance, err := uc.ledger.GetBalanceForUpdateTx(ctx, tx, owner, input.Currency)
		if err != nil {
			return err
		}

		if balance.Available().LessThan(input.Amount) {
			return fmt.Errorf("%w: available %s, requested %s",
				domain.ErrInsufficientBalance, balance.Available(), input.Amount)
		}

		now := time.Now().UTC()

		number, err := uc.nextTransactionNumber(ctx, tx, now)
		if err != nil {
			return err
		}

		txn = &domain.Transaction{
			ID:              uc.idGen.Generate(),
			Number:          number,
			Kind:            domain.KindExpense,
			Status:          domain.StatusPending,
			Amount:          input.Amount,
			Currency:        input.Currency,
			BranchID:        input.BranchID,
			UserID:          input.UserID,
			CustomerID:      input.CustomerID,
			ReferenceNumber: input.ReferenceNumber,
			Description:     input.Description,
			CreatedAt:       now,
			Expense: &domain.ExpenseDetails{
				Category:         input.Category,
				Payee:            input.Payee,
				ApprovalRequired: input.ApprovalRequired,
			},
		}

		if err := txn.Validate(); err != nil {
			return err
		}

		if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
			return err
		}

		_, err = uc.ledger.UpdateBalanceTx(ctx, tx, BalanceChangeInput{
			Owner:         owner,
			Currency:      input.Currency,
			Amount:        input.Amount.Neg(),
			ChangeType:    domain.ChangeTransaction,
			ReferenceID:   txn.ID,
			ReferenceType: "transaction",
			PerformedBy:   input.UserID,
			Notes:         fmt.Sprintf("expense: %s to %s", input.Category, input.Payee),
		})
		if err != nil {
			return err
		}

		if !input.ApprovalRequired {
			uc.markCompleted(txn, now)

			if err := uc.txnRepo.Update(ctx, tx, txn); err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	uc.observeCreated(txn, start)

	return txn, nil
}

// ApproveExpense closes the approval gate on a pending expense. Funds moved
// at creation time, so approval only flips the record state.
func (uc *TransactionUseCase) ApproveExpense(ctx context.Context, id, approverID string) (*domain.Transaction, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	txn, err := uc.txnRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if txn.Kind != domain.KindExpense || txn.Expense == nil {
		return nil, fmt.Errorf("%w: transaction %s is not an expense", domain.ErrValidation, txn.Number)
	}

	if !txn.Expense.ApprovalRequired || txn.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: expense %s is not awaiting approval", domain.ErrInvalidStatusTransition, txn.Number)
	}

	now := time.Now().UTC()
	txn.Expense.ApprovedBy = &approverID
	txn.Expense.ApprovedAt = &now
	uc.markCompleted(txn, now)

	if err := uc.txnRepo.Update(ctx, tx, txn); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ExpensesApproved.Inc()
	}

	return txn, nil
}

// CreateExchangeInput represents input for a currency exchange.
type CreateExchangeInput struct {
	BranchID             string
	FromCurrency         string
	ToCurrency           string
	FromAmount           decimal.Decimal
	CommissionPercentage decimal.Decimal
	CustomerID           *string
	ReferenceNumber      *string
	Description          string
	UserID               string
}

// CreateExchange converts between two currencies of one branch. The debit of
// the source currency (amount plus commission) and the credit of the target
// currency land in the same atomic unit; an exchange is never left pending.
func (uc *TransactionUseCase) CreateExchange(ctx context.Context, input CreateExchangeInput) (*domain.Transaction, error) {
	start := time.Now()

	if input.FromCurrency == input.ToCurrency {
		return nil, domain.ErrSameCurrency
	}

	if err := uc.validateCommon(ctx, input.BranchID, input.FromCurrency, input.FromAmount, input.CustomerID); err != nil {
		return nil, err
	}

	if err := uc.checkCurrency(ctx, input.ToCurrency); err != nil {
		return nil, err
	}

	if input.CommissionPercentage.IsNegative() {
		return nil, fmt.Errorf("%w: commission percentage cannot be negative", domain.ErrValidation)
	}

	rate, err := uc.rates.GetLatestRate(ctx, input.FromCurrency, input.ToCurrency)
	if err != nil {
		return nil, err
	}

	toAmount := domain.RoundMoney(input.FromAmount.Mul(rate.Rate))
	commission := domain.RoundMoney(input.FromAmount.Mul(input.CommissionPercentage).Div(decimal.NewFromInt(100)))
	totalCost := input.FromAmount.Add(commission)

	owner := domain.Owner{Type: domain.OwnerBranch, ID: input.BranchID}

	var txn *domain.Transaction

	err = uc.retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := uc.checkReference(ctx, tx, input.ReferenceNumber); err != nil {
			return err
		}

		locked, err := uc.ledger.LockBalancesTx(ctx, tx,
			BalanceRef{Owner: owner, Currency: input.FromCurrency},
			BalanceRef{Owner: owner, Currency: input.ToCurrency},
		)
		if err != nil {
			return err
		}

		source := locked[owner.LockKey(input.FromCurrency)]
		if source.Available().LessThan(totalCost) {
			return fmt.Errorf("%w: available %s, exchange requires %s",
				domain.ErrInsufficientBalance, source.Available(), totalCost)
		}

		now := time.Now().UTC()

		number, err := uc.nextTransactionNumber(ctx, tx, now)
		if err != nil {
			return err
		}

		txn = &domain.Transaction{
			ID:              uc.idGen.Generate(),
			Number:          number,
			Kind:            domain.KindExchange,
			Status:          domain.StatusPending,
			Amount:          input.FromAmount,
			Currency:        input.FromCurrency,
			BranchID:        input.BranchID,
			UserID:          input.UserID,
			CustomerID:      input.CustomerID,
			ReferenceNumber: input.ReferenceNumber,
			Description:     input.Description,
			CreatedAt:       now,
			Exchange: &domain.ExchangeDetails{
				FromCurrency:         input.FromCurrency,
				ToCurrency:           input.ToCurrency,
				FromAmount:           input.FromAmount,
				ToAmount:             toAmount,
				RateUsed:             rate.Rate,
				CommissionAmount:     commission,
				CommissionPercentage: input.CommissionPercentage,
			},
		}

		if err := txn.Validate(); err != nil {
			return err
		}

		if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
			return err
		}

		_, err = uc.ledger.UpdateBalanceTx(ctx, tx, BalanceChangeInput{
			Owner:         owner,
			Currency:      input.FromCurrency,
			Amount:        totalCost.Neg(),
			ChangeType:    domain.ChangeTransaction,
			ReferenceID:   txn.ID,
			ReferenceType: "transaction",
			PerformedBy:   input.UserID,
			Notes:         fmt.Sprintf("exchange to %s at %s", input.ToCurrency, rate.Rate),
		})
		if err != nil {
			return err
		}

		_, err = uc.ledger.UpdateBalanceTx(ctx, tx, BalanceChangeInput{
			Owner:         owner,
			Currency:      input.ToCurrency,
			Amount:        toAmount,
			ChangeType:    domain.ChangeTransaction,
			ReferenceID:   txn.ID,
			ReferenceType: "transaction",
			PerformedBy:   input.UserID,
			Notes:         fmt.Sprintf("exchange from %s at %s", input.FromCurrency, rate.Rate),
		})
		if err != nil {
			return err
		}

		uc.markCompleted(txn, now)

		if err := uc.txnRepo.Update(ctx, tx, txn); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	uc.observeCreated(txn, start)

	return txn, nil
}

// CreateTransferInput represents input for phase one of a branch transfer.
type CreateTransferInput struct {
	From            domain.Owner
	To              domain.Owner
	Kind            domain.TransferKind
	Currency        string
	Amount          decimal.Decimal
	BranchID        string // initiating branch, for scoping and audit
	ReferenceNumber *string
	Description     string
	UserID          string
}

// CreateTransfer runs phase one: the amount is reserved against the source
// and the record stays pending until CompleteTransfer.
func (uc *TransactionUseCase) CreateTransfer(ctx context.Context, input CreateTransferInput) (*domain.Transaction, error) {
	start := time.Now()

	if input.From == input.To {
		return nil, domain.ErrSameOwner
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

	if err := uc.checkCurrency(ctx, input.Currency); err != nil {
		return nil, err
	}

	for _, owner := range []domain.Owner{input.From, input.To} {
		if err := uc.checkOwner(ctx, owner); err != nil {
			return nil, err
		}
	}

	var txn *domain.Transaction

	err := uc.retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := uc.checkReference(ctx, tx, input.ReferenceNumber); err != nil {
			return err
		}

		now := time.Now().UTC()

		number, err := uc.nextTransactionNumber(ctx, tx, now)
		if err != nil {
			return err
		}

		txn = &domain.Transaction{
			ID:              uc.idGen.Generate(),
			Number:          number,
			Kind:            domain.KindTransfer,
			Status:          domain.StatusPending,
			Amount:          input.Amount,
			Currency:        input.Currency,
			BranchID:        input.BranchID,
			UserID:          input.UserID,
			ReferenceNumber: input.ReferenceNumber,
			Description:     input.Description,
			CreatedAt:       now,
			Transfer: &domain.TransferDetails{
				From: input.From,
				To:   input.To,
				Kind: input.Kind,
			},
		}

		if err := txn.Validate(); err != nil {
			return err
		}

		if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
			return err
		}

		_, err = uc.ledger.ReserveBalanceTx(ctx, tx, input.From, input.Currency, input.Amount)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	uc.observeCreated(txn, start)

	return txn, nil
}

// CompleteTransfer runs phase two: the reserved amount settles out of the
// source and into the destination, and the record completes. A transfer
// settles at most once; re-running on a completed record fails the status
// check.
func (uc *TransactionUseCase) CompleteTransfer(ctx context.Context, id, receiverID string) (*domain.Transaction, error) {
	var txn *domain.Transaction

	err := uc.retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		txn, err = uc.txnRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if !txn.CanCompleteTransfer() {
			return fmt.Errorf("%w: transfer %s is %s", domain.ErrInvalidStatusTransition, txn.Number, txn.Status)
		}

		_, err = uc.ledger.LockBalancesTx(ctx, tx,
			BalanceRef{Owner: txn.Transfer.From, Currency: txn.Currency},
			BalanceRef{Owner: txn.Transfer.To, Currency: txn.Currency},
		)
		if err != nil {
			return err
		}

		// Settle the source side through the reservation so the debit and
		// the release cannot be split.
		_, err = uc.ledger.CommitReservedBalanceTx(ctx, tx, CommitReservedInput{
			Owner:         txn.Transfer.From,
			Currency:      txn.Currency,
			Amount:        txn.Amount,
			ChangeType:    domain.ChangeTransferOut,
			ReferenceID:   txn.ID,
			ReferenceType: "transaction",
			PerformedBy:   receiverID,
			Notes:         fmt.Sprintf("transfer %s settled", txn.Number),
		})
		if err != nil {
			return err
		}

		_, err = uc.ledger.UpdateBalanceTx(ctx, tx, BalanceChangeInput{
			Owner:         txn.Transfer.To,
			Currency:      txn.Currency,
			Amount:        txn.Amount,
			ChangeType:    domain.ChangeTransferIn,
			ReferenceID:   txn.ID,
			ReferenceType: "transaction",
			PerformedBy:   receiverID,
			Notes:         fmt.Sprintf("transfer %s received", txn.Number),
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		txn.Transfer.ReceivedBy = &receiverID
		txn.Transfer.ReceivedAt = &now
		uc.markCompleted(txn, now)

		if err := uc.txnRepo.Update(ctx, tx, txn); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransfersCompleted.Inc()
	}

	return txn, nil
}

// CancelTransactionInput represents input for cancelling a pending transaction.
type CancelTransactionInput struct {
	ID          string
	Reason      string
	CancelledBy string
}

// CancelTransaction reverses a pending transaction. Each kind undoes exactly
// what its creation did: income debits back, expense credits back, transfer
// releases its reservation. Exchanges settle atomically at creation and are
// never pending, so no reversal branch exists for them.
func (uc *TransactionUseCase) CancelTransaction(ctx context.Context, input CancelTransactionInput) (*domain.Transaction, error) {
	if err := domain.ValidateReason(input.Reason); err != nil {
		return nil, err
	}

	var txn *domain.Transaction

	err := uc.retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		txn, err = uc.txnRepo.GetByIDForUpdate(ctx, tx, input.ID)
		if err != nil {
			return err
		}

		if !txn.CanCancel() {
			return fmt.Errorf("%w: transaction %s is %s", domain.ErrInvalidStatusTransition, txn.Number, txn.Status)
		}

		owner := domain.Owner{Type: domain.OwnerBranch, ID: txn.BranchID}
		notes := fmt.Sprintf("cancellation of %s: %s", txn.Number, input.Reason)

		switch txn.Kind {
		case domain.KindIncome:
			_, err = uc.ledger.UpdateBalanceTx(ctx, tx, BalanceChangeInput{
				Owner:         owner,
				Currency:      txn.Currency,
				Amount:        txn.Amount.Neg(),
				ChangeType:    domain.ChangeAdjustment,
				ReferenceID:   txn.ID,
				ReferenceType: "cancellation",
				PerformedBy:   input.CancelledBy,
				Notes:         notes,
			})
		case domain.KindExpense:
			_, err = uc.ledger.UpdateBalanceTx(ctx, tx, BalanceChangeInput{
				Owner:         owner,
				Currency:      txn.Currency,
				Amount:        txn.Amount,
				ChangeType:    domain.ChangeAdjustment,
				ReferenceID:   txn.ID,
				ReferenceType: "cancellation",
				PerformedBy:   input.CancelledBy,
				Notes:         notes,
			})
		case domain.KindTransfer:
			_, err = uc.ledger.ReleaseReservedBalanceTx(ctx, tx, txn.Transfer.From, txn.Currency, txn.Amount)
		case domain.KindExchange:
			// settled at creation, nothing to reverse
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		txn.Status = domain.StatusCancelled
		txn.CancellationReason = &input.Reason
		txn.CancelledBy = &input.CancelledBy
		txn.CancelledAt = &now

		if err := uc.txnRepo.Update(ctx, tx, txn); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsCancelled.Inc()
	}

	return txn, nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txnRepo.GetByID(ctx, id)
}

// GetTransactionByNumber retrieves a transaction by its document number.
func (uc *TransactionUseCase) GetTransactionByNumber(ctx context.Context, number string) (*domain.Transaction, error) {
	return uc.txnRepo.GetByNumber(ctx, number)
}

// ListTransactions lists transactions matching the filter.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, int, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.txnRepo.List(ctx, filter)
}

// GetStatistics aggregates transactions matching the filter.
func (uc *TransactionUseCase) GetStatistics(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionStats, error) {
	return uc.txnRepo.Stats(ctx, filter)
}

func (uc *TransactionUseCase) validateCommon(ctx context.Context, branchID, currency string, amount decimal.Decimal, customerID *string) error {
	if branchID == "" {
		return fmt.Errorf("%w: branch id is required", domain.ErrValidation)
	}

	if err := domain.ValidateCurrencyCode(currency); err != nil {
		return err
	}

	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}

	if err := domain.ValidateTransactionLimit(amount); err != nil {
		return err
	}

	active, err := uc.directory.BranchActive(ctx, branchID)
	if err != nil {
		return err
	}

	if !active {
		return domain.ErrOwnerNotFound
	}

	if err := uc.checkCurrency(ctx, currency); err != nil {
		return err
	}

	if customerID != nil {
		active, err := uc.directory.CustomerActive(ctx, *customerID)
		if err != nil {
			return err
		}

		if !active {
			return domain.ErrCustomerNotFound
		}
	}

	return nil
}

func (uc *TransactionUseCase) checkCurrency(ctx context.Context, currency string) error {
	active, err := uc.directory.CurrencyActive(ctx, currency)
	if err != nil {
		return err
	}

	if !active {
		return domain.ErrCurrencyNotFound
	}

	return nil
}

func (uc *TransactionUseCase) checkOwner(ctx context.Context, owner domain.Owner) error {
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

// checkReference enforces global reference-number uniqueness inside the same
// transaction as the insert.
func (uc *TransactionUseCase) checkReference(ctx context.Context, tx Transaction, reference *string) error {
	if reference == nil || *reference == "" {
		return nil
	}

	exists, err := uc.txnRepo.ReferenceExists(ctx, tx, *reference)
	if err != nil {
		return err
	}

	if exists {
		return domain.ErrDuplicateReference
	}

	return nil
}

func (uc *TransactionUseCase) nextTransactionNumber(ctx context.Context, tx Transaction, now time.Time) (string, error) {
	seq, err := uc.sequence.Next(ctx, tx, SequenceTransactions, now)
	if err != nil {
		return "", err
	}

	return domain.FormatTransactionNumber(now, seq), nil
}

func (uc *TransactionUseCase) markCompleted(txn *domain.Transaction, now time.Time) {
	txn.Status = domain.StatusCompleted
	txn.CompletedAt = &now
}

func (uc *TransactionUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}

	return uc.retrier.Retry(ctx, op)
}

func (uc *TransactionUseCase) observeCreated(txn *domain.Transaction, start time.Time) {
	if uc.metrics == nil || txn == nil {
		return
	}

	uc.metrics.TransactionsCreated.WithLabelValues(string(txn.Kind)).Inc()
	amount, _ := txn.Amount.Float64()
	uc.metrics.TransactionAmount.WithLabelValues(string(txn.Kind)).Observe(amount)
	uc.metrics.TransactionDuration.Observe(time.Since(start).Seconds())
}
