package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/domain"
)

// LedgerUseCase owns all balance mutations. Every other engine funnels its
// debits, credits and reservations through the Tx-suffixed methods so that
// each mutation lands in exactly one place with its paired history row.
type LedgerUseCase struct {
	txManager   TransactionManager
	balanceRepo BalanceRepository
	entryRepo   EntryRepository
	idGen       IDGenerator
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	balanceRepo BalanceRepository,
	entryRepo EntryRepository,
	idGen IDGenerator,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:   txManager,
		balanceRepo: balanceRepo,
		entryRepo:   entryRepo,
		idGen:       idGen,
	}
}

// BalanceChangeInput describes one signed balance mutation.
type BalanceChangeInput struct {
	Owner         domain.Owner
	Currency      string
	Amount        decimal.Decimal // signed: positive credits, negative debits
	ChangeType    domain.ChangeType
	ReferenceID   string
	ReferenceType string
	PerformedBy   string
	Notes         string
}

// GetBalance returns the balance row, materializing a zeroed row for pairs
// never touched before.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, owner domain.Owner, currency string) (*domain.Balance, error) {
	if err := domain.ValidateCurrencyCode(currency); err != nil {
		return nil, err
	}

	return uc.balanceRepo.Get(ctx, owner, currency)
}

// UpdateBalance applies one signed mutation in its own transaction.
func (uc *LedgerUseCase) UpdateBalance(ctx context.Context, input BalanceChangeInput) (*domain.Balance, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	balance, err := uc.UpdateBalanceTx(ctx, tx, input)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return balance, nil
}

// UpdateBalanceTx applies one signed mutation inside a caller-owned
// transaction: lock the row, validate the change, persist the new amounts and
// append the history row. The history amount always equals the applied delta,
// so summing history reproduces the balance.
func (uc *LedgerUseCase) UpdateBalanceTx(ctx context.Context, tx Transaction, input BalanceChangeInput) (*domain.Balance, error) {
	if input.Amount.IsZero() {
		return nil, fmt.Errorf("%w: zero balance change", domain.ErrValidation)
	}

	balance, err := uc.balanceRepo.GetForUpdate(ctx, tx, input.Owner, input.Currency)
	if err != nil {
		return nil, err
	}

	if err := balance.ValidateChange(input.Amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	before := balance.Balance
	balance.Balance = before.Add(input.Amount)
	balance.LastUpdated = now

	err = uc.balanceRepo.UpdateAmounts(ctx, tx, input.Owner, input.Currency, balance.Balance, balance.Reserved, now)
	if err != nil {
		return nil, err
	}

	entry := &domain.BalanceEntry{
		ID:            uc.idGen.Generate(),
		OwnerType:     input.Owner.Type,
		OwnerID:       input.Owner.ID,
		Currency:      input.Currency,
		Amount:        input.Amount,
		BalanceBefore: before,
		BalanceAfter:  balance.Balance,
		ChangeType:    input.ChangeType,
		ReferenceID:   input.ReferenceID,
		ReferenceType: input.ReferenceType,
		PerformedBy:   input.PerformedBy,
		PerformedAt:   now,
		Notes:         input.Notes,
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	return balance, nil
}

// GetBalanceForUpdateTx locks a balance row for the remainder of tx. Engines
// use it to pre-check available funds before applying mutations.
func (uc *LedgerUseCase) GetBalanceForUpdateTx(ctx context.Context, tx Transaction, owner domain.Owner, currency string) (*domain.Balance, error) {
	return uc.balanceRepo.GetForUpdate(ctx, tx, owner, currency)
}

// BalanceRef names one lockable balance row.
type BalanceRef struct {
	Owner    domain.Owner
	Currency string
}

// LockBalancesTx locks the given rows in ascending lock-key order
// (DEADLOCK PREVENTION). Re-locking a row already held by tx is a no-op, so
// engines call this once up front and then mutate in any order.
func (uc *LedgerUseCase) LockBalancesTx(ctx context.Context, tx Transaction, refs ...BalanceRef) (map[string]*domain.Balance, error) {
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Owner.LockKey(refs[i].Currency) < refs[j].Owner.LockKey(refs[j].Currency)
	})

	locked := make(map[string]*domain.Balance, len(refs))
	for _, ref := range refs {
		key := ref.Owner.LockKey(ref.Currency)
		if _, ok := locked[key]; ok {
			continue
		}

		balance, err := uc.balanceRepo.GetForUpdate(ctx, tx, ref.Owner, ref.Currency)
		if err != nil {
			return nil, err
		}

		locked[key] = balance
	}

	return locked, nil
}

// ReserveBalanceTx earmarks part of a balance without moving it. Reservations
// never write history; history mirrors balance changes only.
func (uc *LedgerUseCase) ReserveBalanceTx(ctx context.Context, tx Transaction, owner domain.Owner, currency string, amount decimal.Decimal) (*domain.Balance, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	balance, err := uc.balanceRepo.GetForUpdate(ctx, tx, owner, currency)
	if err != nil {
		return nil, err
	}

	if err := balance.ValidateReserve(amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	balance.Reserved = balance.Reserved.Add(amount)
	balance.LastUpdated = now

	err = uc.balanceRepo.UpdateAmounts(ctx, tx, owner, currency, balance.Balance, balance.Reserved, now)
	if err != nil {
		return nil, err
	}

	return balance, nil
}

// ReleaseReservedBalanceTx returns an earmarked amount to available funds.
func (uc *LedgerUseCase) ReleaseReservedBalanceTx(ctx context.Context, tx Transaction, owner domain.Owner, currency string, amount decimal.Decimal) (*domain.Balance, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	balance, err := uc.balanceRepo.GetForUpdate(ctx, tx, owner, currency)
	if err != nil {
		return nil, err
	}

	if err := balance.ValidateRelease(amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	balance.Reserved = balance.Reserved.Sub(amount)
	balance.LastUpdated = now

	err = uc.balanceRepo.UpdateAmounts(ctx, tx, owner, currency, balance.Balance, balance.Reserved, now)
	if err != nil {
		return nil, err
	}

	return balance, nil
}

// CommitReservedInput finalizes a previously reserved amount.
type CommitReservedInput struct {
	Owner         domain.Owner
	Currency      string
	Amount        decimal.Decimal // positive; debited and un-reserved together
	ChangeType    domain.ChangeType
	ReferenceID   string
	ReferenceType string
	PerformedBy   string
	Notes         string
}

// CommitReservedBalanceTx atomically decrements both balance and reserved by
// the same amount and appends the negative-signed history row. This is the
// settlement step for amounts reserved earlier.
func (uc *LedgerUseCase) CommitReservedBalanceTx(ctx context.Context, tx Transaction, input CommitReservedInput) (*domain.Balance, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	balance, err := uc.balanceRepo.GetForUpdate(ctx, tx, input.Owner, input.Currency)
	if err != nil {
		return nil, err
	}

	if balance.Reserved.LessThan(input.Amount) {
		return nil, domain.ErrReleaseExceedsReserved
	}

	if balance.Balance.LessThan(input.Amount) {
		return nil, fmt.Errorf("%w: balance %s below committed amount %s",
			domain.ErrInsufficientBalance, balance.Balance, input.Amount)
	}

	now := time.Now().UTC()
	before := balance.Balance
	balance.Balance = before.Sub(input.Amount)
	balance.Reserved = balance.Reserved.Sub(input.Amount)
	balance.LastUpdated = now

	err = uc.balanceRepo.UpdateAmounts(ctx, tx, input.Owner, input.Currency, balance.Balance, balance.Reserved, now)
	if err != nil {
		return nil, err
	}

	entry := &domain.BalanceEntry{
		ID:            uc.idGen.Generate(),
		OwnerType:     input.Owner.Type,
		OwnerID:       input.Owner.ID,
		Currency:      input.Currency,
		Amount:        input.Amount.Neg(),
		BalanceBefore: before,
		BalanceAfter:  balance.Balance,
		ChangeType:    input.ChangeType,
		ReferenceID:   input.ReferenceID,
		ReferenceType: input.ReferenceType,
		PerformedBy:   input.PerformedBy,
		PerformedAt:   now,
		Notes:         input.Notes,
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	return balance, nil
}

// ReconcileInput declares the physically counted amount for one balance row.
type ReconcileInput struct {
	Owner         domain.Owner
	Currency      string
	ActualBalance decimal.Decimal
	PerformedBy   string
	Notes         string
}

// ReconciliationResult reports what a reconciliation found and did.
type ReconciliationResult struct {
	Balance          *domain.Balance
	RecordedBalance  decimal.Decimal
	ActualBalance    decimal.Decimal
	Difference       decimal.Decimal
	AdjustmentPosted bool
}

// Reconcile declares an externally counted balance. A nonzero difference
// posts a reconciliation adjustment; a zero difference posts nothing. The
// reconciliation stamp is written either way.
func (uc *LedgerUseCase) Reconcile(ctx context.Context, input ReconcileInput) (*ReconciliationResult, error) {
	if err := domain.ValidateCurrencyCode(input.Currency); err != nil {
		return nil, err
	}

	if input.ActualBalance.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: counted balance cannot be negative", domain.ErrValidation)
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	balance, err := uc.balanceRepo.GetForUpdate(ctx, tx, input.Owner, input.Currency)
	if err != nil {
		return nil, err
	}

	recorded := balance.Balance
	difference := input.ActualBalance.Sub(recorded)

	result := &ReconciliationResult{
		RecordedBalance: recorded,
		ActualBalance:   input.ActualBalance,
		Difference:      difference,
	}

	if !difference.IsZero() {
		notes := input.Notes
		if notes == "" {
			notes = fmt.Sprintf("reconciliation adjustment: recorded %s, counted %s", recorded, input.ActualBalance)
		}

		balance, err = uc.UpdateBalanceTx(ctx, tx, BalanceChangeInput{
			Owner:       input.Owner,
			Currency:    input.Currency,
			Amount:      difference,
			ChangeType:  domain.ChangeReconciliation,
			PerformedBy: input.PerformedBy,
			Notes:       notes,
		})
		if err != nil {
			return nil, err
		}

		result.AdjustmentPosted = true
	}

	now := time.Now().UTC()
	err = uc.balanceRepo.SetReconciled(ctx, tx, input.Owner, input.Currency, now, input.PerformedBy)
	if err != nil {
		return nil, err
	}

	balance.LastReconciledAt = &now
	balance.LastReconciledBy = &input.PerformedBy
	result.Balance = balance

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

// GetBalanceHistory lists history rows matching the filter.
func (uc *LedgerUseCase) GetBalanceHistory(ctx context.Context, filter domain.EntryFilter) ([]*domain.BalanceEntry, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.entryRepo.List(ctx, filter)
}

// BalanceSummary is one owner's position across all held currencies.
type BalanceSummary struct {
	Owner    domain.Owner
	Balances []*domain.Balance
	BelowMin []string // currencies under their configured floor
	AboveMax []string // currencies over their configured ceiling
	AsOf     time.Time
}

// GetBalanceSummary returns every currency row an owner holds plus threshold
// breaches.
func (uc *LedgerUseCase) GetBalanceSummary(ctx context.Context, owner domain.Owner) (*BalanceSummary, error) {
	balances, err := uc.balanceRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	summary := &BalanceSummary{
		Owner:    owner,
		Balances: balances,
		AsOf:     time.Now().UTC(),
	}

	for _, b := range balances {
		if b.IsBelowMinimum() {
			summary.BelowMin = append(summary.BelowMin, b.Currency)
		}

		if b.IsAboveMaximum() {
			summary.AboveMax = append(summary.AboveMax, b.Currency)
		}
	}

	return summary, nil
}

// VerifyBalanceHistory cross-checks one row against its history sum. A
// mismatch means an invariant was broken and needs manual investigation.
func (uc *LedgerUseCase) VerifyBalanceHistory(ctx context.Context, owner domain.Owner, currency string) (bool, decimal.Decimal, error) {
	balance, err := uc.balanceRepo.Get(ctx, owner, currency)
	if err != nil {
		return false, decimal.Zero, err
	}

	sum, err := uc.entryRepo.Sum(ctx, owner, currency)
	if err != nil {
		return false, decimal.Zero, err
	}

	drift := balance.Balance.Sub(sum)

	return drift.IsZero(), drift, nil
}
