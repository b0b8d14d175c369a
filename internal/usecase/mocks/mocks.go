package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/usecase"
)

// MockBalanceRepository is a mock implementation of BalanceRepository.
type MockBalanceRepository struct {
	mu       sync.RWMutex
	balances map[string]*domain.Balance

	GetFunc           func(ctx context.Context, owner domain.Owner, currency string) (*domain.Balance, error)
	GetForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, owner domain.Owner, currency string) (*domain.Balance, error)
	UpdateAmountsFunc func(ctx context.Context, tx usecase.Transaction, owner domain.Owner, currency string, balance, reserved decimal.Decimal, updatedAt time.Time) error
	SetReconciledFunc func(ctx context.Context, tx usecase.Transaction, owner domain.Owner, currency string, at time.Time, by string) error
	ListByOwnerFunc   func(ctx context.Context, owner domain.Owner) ([]*domain.Balance, error)
}

func NewMockBalanceRepository() *MockBalanceRepository {
	return &MockBalanceRepository{
		balances: make(map[string]*domain.Balance),
	}
}

// Seed installs a balance row directly, bypassing lazy creation.
func (m *MockBalanceRepository) Seed(b *domain.Balance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[b.Owner().LockKey(b.Currency)] = b
}

func (m *MockBalanceRepository) Get(ctx context.Context, owner domain.Owner, currency string) (*domain.Balance, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, owner, currency)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreate(owner, currency), nil
}

func (m *MockBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, owner domain.Owner, currency string) (*domain.Balance, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, tx, owner, currency)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreate(owner, currency), nil
}

func (m *MockBalanceRepository) UpdateAmounts(ctx context.Context, tx usecase.Transaction, owner domain.Owner, currency string, balance, reserved decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateAmountsFunc != nil {
		return m.UpdateAmountsFunc(ctx, tx, owner, currency, balance, reserved, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.getOrCreate(owner, currency)
	row.Balance = balance
	row.Reserved = reserved
	row.LastUpdated = updatedAt
	return nil
}

func (m *MockBalanceRepository) SetReconciled(ctx context.Context, tx usecase.Transaction, owner domain.Owner, currency string, at time.Time, by string) error {
	if m.SetReconciledFunc != nil {
		return m.SetReconciledFunc(ctx, tx, owner, currency, at, by)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.getOrCreate(owner, currency)
	row.LastReconciledAt = &at
	row.LastReconciledBy = &by
	return nil
}

func (m *MockBalanceRepository) ListByOwner(ctx context.Context, owner domain.Owner) ([]*domain.Balance, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, owner)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []*domain.Balance
	for _, b := range m.balances {
		if b.Owner() == owner {
			rows = append(rows, b)
		}
	}
	return rows, nil
}

func (m *MockBalanceRepository) getOrCreate(owner domain.Owner, currency string) *domain.Balance {
	key := owner.LockKey(currency)
	if b, ok := m.balances[key]; ok {
		return b
	}
	b := &domain.Balance{
		OwnerType: owner.Type,
		OwnerID:   owner.ID,
		Currency:  currency,
		Balance:   decimal.Zero,
		Reserved:  decimal.Zero,
	}
	m.balances[key] = b
	return b
}

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries []*domain.BalanceEntry

	CreateFunc func(ctx context.Context, tx usecase.Transaction, entry *domain.BalanceEntry) error
	ListFunc   func(ctx context.Context, filter domain.EntryFilter) ([]*domain.BalanceEntry, error)
	SumFunc    func(ctx context.Context, owner domain.Owner, currency string) (decimal.Decimal, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{}
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.BalanceEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockEntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.BalanceEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.BalanceEntry
	for _, e := range m.entries {
		if filter.Owner != nil && (e.OwnerType != filter.Owner.Type || e.OwnerID != filter.Owner.ID) {
			continue
		}
		if filter.Currency != "" && e.Currency != filter.Currency {
			continue
		}
		if filter.ChangeType != "" && e.ChangeType != filter.ChangeType {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *MockEntryRepository) Sum(ctx context.Context, owner domain.Owner, currency string) (decimal.Decimal, error) {
	if m.SumFunc != nil {
		return m.SumFunc(ctx, owner, currency)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.OwnerType == owner.Type && e.OwnerID == owner.ID && e.Currency == currency {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

// Entries returns a snapshot of everything recorded.
func (m *MockEntryRepository) Entries() []*domain.BalanceEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.BalanceEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error)
	GetByNumberFunc      func(ctx context.Context, number string) (*domain.Transaction, error)
	ReferenceExistsFunc  func(ctx context.Context, tx usecase.Transaction, reference string) (bool, error)
	ListFunc             func(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, int, error)
	StatsFunc            func(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionStats, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[txn.ID] = txn
	return nil
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[txn.ID] = txn
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if txn, ok := m.transactions[id]; ok {
		return txn, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) GetByNumber(ctx context.Context, number string) (*domain.Transaction, error) {
	if m.GetByNumberFunc != nil {
		return m.GetByNumberFunc(ctx, number)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, txn := range m.transactions {
		if txn.Number == number {
			return txn, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) ReferenceExists(ctx context.Context, tx usecase.Transaction, reference string) (bool, error) {
	if m.ReferenceExistsFunc != nil {
		return m.ReferenceExistsFunc(ctx, tx, reference)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, txn := range m.transactions {
		if txn.ReferenceNumber != nil && *txn.ReferenceNumber == reference {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockTransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, txn := range m.transactions {
		if filter.Kind != "" && txn.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && txn.Status != filter.Status {
			continue
		}
		if filter.BranchID != "" && txn.BranchID != filter.BranchID {
			continue
		}
		out = append(out, txn)
	}
	return out, len(out), nil
}

func (m *MockTransactionRepository) Stats(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, filter)
	}
	txns, total, _ := m.List(ctx, filter)
	stats := &domain.TransactionStats{
		TotalCount:      total,
		ByKind:          make(map[domain.TransactionKind]int),
		ByStatus:        make(map[domain.TransactionStatus]int),
		TotalByCurrency: make(map[string]decimal.Decimal),
	}
	for _, txn := range txns {
		stats.ByKind[txn.Kind]++
		stats.ByStatus[txn.Status]++
		stats.TotalByCurrency[txn.Currency] = stats.TotalByCurrency[txn.Currency].Add(txn.Amount)
	}
	return stats, nil
}

// MockVaultTransferRepository is a mock implementation of VaultTransferRepository.
type MockVaultTransferRepository struct {
	mu        sync.RWMutex
	transfers map[string]*domain.VaultTransfer

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, vt *domain.VaultTransfer) error
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, vt *domain.VaultTransfer) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.VaultTransfer, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.VaultTransfer, error)
	ListFunc             func(ctx context.Context, filter domain.VaultTransferFilter) ([]*domain.VaultTransfer, int, error)
	StatsFunc            func(ctx context.Context, filter domain.VaultTransferFilter) (*domain.VaultTransferStats, error)
}

func NewMockVaultTransferRepository() *MockVaultTransferRepository {
	return &MockVaultTransferRepository{
		transfers: make(map[string]*domain.VaultTransfer),
	}
}

func (m *MockVaultTransferRepository) Create(ctx context.Context, tx usecase.Transaction, vt *domain.VaultTransfer) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, vt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers[vt.ID] = vt
	return nil
}

func (m *MockVaultTransferRepository) Update(ctx context.Context, tx usecase.Transaction, vt *domain.VaultTransfer) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, vt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers[vt.ID] = vt
	return nil
}

func (m *MockVaultTransferRepository) GetByID(ctx context.Context, id string) (*domain.VaultTransfer, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if vt, ok := m.transfers[id]; ok {
		return vt, nil
	}
	return nil, domain.ErrVaultTransferNotFound
}

func (m *MockVaultTransferRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.VaultTransfer, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockVaultTransferRepository) List(ctx context.Context, filter domain.VaultTransferFilter) ([]*domain.VaultTransfer, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.VaultTransfer
	for _, vt := range m.transfers {
		if filter.Status != "" && vt.Status != filter.Status {
			continue
		}
		if filter.VaultID != "" && vt.From.ID != filter.VaultID && vt.To.ID != filter.VaultID {
			continue
		}
		out = append(out, vt)
	}
	return out, len(out), nil
}

func (m *MockVaultTransferRepository) Stats(ctx context.Context, filter domain.VaultTransferFilter) (*domain.VaultTransferStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, filter)
	}
	vts, total, _ := m.List(ctx, filter)
	stats := &domain.VaultTransferStats{
		TotalCount:     total,
		ByStatus:       make(map[domain.VaultTransferStatus]int),
		CompletedTotal: decimal.Zero,
		AverageAmount:  decimal.Zero,
	}
	for _, vt := range vts {
		stats.ByStatus[vt.Status]++
		if vt.Status == domain.VaultTransferCompleted {
			stats.CompletedTotal = stats.CompletedTotal.Add(vt.Amount)
		}
	}
	return stats, nil
}

// MockRateRepository is a mock implementation of RateRepository.
type MockRateRepository struct {
	mu      sync.RWMutex
	current map[string]*domain.ExchangeRate
	closed  []*domain.ExchangeRate
	changes []*domain.RateChange

	GetCurrentFunc          func(ctx context.Context, from, to string) (*domain.ExchangeRate, error)
	GetCurrentForUpdateFunc func(ctx context.Context, tx usecase.Transaction, from, to string) (*domain.ExchangeRate, error)
	CreateFunc              func(ctx context.Context, tx usecase.Transaction, rate *domain.ExchangeRate) error
	CloseCurrentFunc        func(ctx context.Context, tx usecase.Transaction, rateID string, at time.Time) error
	CreateChangeFunc        func(ctx context.Context, tx usecase.Transaction, change *domain.RateChange) error
	HistoryFunc             func(ctx context.Context, from, to string, since, until *time.Time, limit, offset int) ([]*domain.ExchangeRate, error)
}

func NewMockRateRepository() *MockRateRepository {
	return &MockRateRepository{
		current: make(map[string]*domain.ExchangeRate),
	}
}

func pairKey(from, to string) string {
	return from + "/" + to
}

// Seed installs a current rate directly.
func (m *MockRateRepository) Seed(rate *domain.ExchangeRate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current[pairKey(rate.FromCurrency, rate.ToCurrency)] = rate
}

func (m *MockRateRepository) GetCurrent(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
	if m.GetCurrentFunc != nil {
		return m.GetCurrentFunc(ctx, from, to)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rate, ok := m.current[pairKey(from, to)]; ok {
		return rate, nil
	}
	return nil, domain.ErrRateNotFound
}

func (m *MockRateRepository) GetCurrentForUpdate(ctx context.Context, tx usecase.Transaction, from, to string) (*domain.ExchangeRate, error) {
	if m.GetCurrentForUpdateFunc != nil {
		return m.GetCurrentForUpdateFunc(ctx, tx, from, to)
	}
	return m.GetCurrent(ctx, from, to)
}

func (m *MockRateRepository) Create(ctx context.Context, tx usecase.Transaction, rate *domain.ExchangeRate) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, rate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current[pairKey(rate.FromCurrency, rate.ToCurrency)] = rate
	return nil
}

func (m *MockRateRepository) CloseCurrent(ctx context.Context, tx usecase.Transaction, rateID string, at time.Time) error {
	if m.CloseCurrentFunc != nil {
		return m.CloseCurrentFunc(ctx, tx, rateID, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, rate := range m.current {
		if rate.ID == rateID {
			rate.EffectiveTo = &at
			m.closed = append(m.closed, rate)
			delete(m.current, key)
			return nil
		}
	}
	return domain.ErrRateNotFound
}

func (m *MockRateRepository) CreateChange(ctx context.Context, tx usecase.Transaction, change *domain.RateChange) error {
	if m.CreateChangeFunc != nil {
		return m.CreateChangeFunc(ctx, tx, change)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, change)
	return nil
}

func (m *MockRateRepository) History(ctx context.Context, from, to string, since, until *time.Time, limit, offset int) ([]*domain.ExchangeRate, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, from, to, since, until, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ExchangeRate
	if rate, ok := m.current[pairKey(from, to)]; ok {
		out = append(out, rate)
	}
	for _, rate := range m.closed {
		if rate.FromCurrency == from && rate.ToCurrency == to {
			out = append(out, rate)
		}
	}
	return out, nil
}

// Changes returns a snapshot of recorded audit rows.
func (m *MockRateRepository) Changes() []*domain.RateChange {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.RateChange, len(m.changes))
	copy(out, m.changes)
	return out
}

// MockDirectory is a mock implementation of Directory. Everything is active
// unless explicitly listed as inactive.
type MockDirectory struct {
	mu        sync.RWMutex
	inactive  map[string]bool
	exponents map[string]int32

	BranchActiveFunc     func(ctx context.Context, id string) (bool, error)
	VaultActiveFunc      func(ctx context.Context, id string) (bool, error)
	CurrencyActiveFunc   func(ctx context.Context, code string) (bool, error)
	CurrencyExponentFunc func(ctx context.Context, code string) (int32, error)
	CustomerActiveFunc   func(ctx context.Context, id string) (bool, error)
}

func NewMockDirectory() *MockDirectory {
	return &MockDirectory{
		inactive:  make(map[string]bool),
		exponents: make(map[string]int32),
	}
}

// Deactivate marks an id or currency code inactive.
func (m *MockDirectory) Deactivate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inactive[id] = true
}

// SetExponent overrides the minor-unit exponent for a currency.
func (m *MockDirectory) SetExponent(code string, exponent int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exponents[code] = exponent
}

func (m *MockDirectory) active(id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.inactive[id], nil
}

func (m *MockDirectory) BranchActive(ctx context.Context, id string) (bool, error) {
	if m.BranchActiveFunc != nil {
		return m.BranchActiveFunc(ctx, id)
	}
	return m.active(id)
}

func (m *MockDirectory) VaultActive(ctx context.Context, id string) (bool, error) {
	if m.VaultActiveFunc != nil {
		return m.VaultActiveFunc(ctx, id)
	}
	return m.active(id)
}

func (m *MockDirectory) CurrencyActive(ctx context.Context, code string) (bool, error) {
	if m.CurrencyActiveFunc != nil {
		return m.CurrencyActiveFunc(ctx, code)
	}
	return m.active(code)
}

func (m *MockDirectory) CurrencyExponent(ctx context.Context, code string) (int32, error) {
	if m.CurrencyExponentFunc != nil {
		return m.CurrencyExponentFunc(ctx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if exp, ok := m.exponents[code]; ok {
		return exp, nil
	}
	return domain.MoneyScale, nil
}

func (m *MockDirectory) CustomerActive(ctx context.Context, id string) (bool, error) {
	if m.CustomerActiveFunc != nil {
		return m.CustomerActiveFunc(ctx, id)
	}
	return m.active(id)
}

// MockNumberSequence is a mock implementation of NumberSequence.
type MockNumberSequence struct {
	mu       sync.Mutex
	counters map[string]int64

	NextFunc func(ctx context.Context, tx usecase.Transaction, scope string, day time.Time) (int64, error)
}

func NewMockNumberSequence() *MockNumberSequence {
	return &MockNumberSequence{
		counters: make(map[string]int64),
	}
}

func (m *MockNumberSequence) Next(ctx context.Context, tx usecase.Transaction, scope string, day time.Time) (int64, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, tx, scope, day)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := scope + "/" + day.UTC().Format("20060102")
	m.counters[key]++
	return m.counters[key], nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockRetrier is a pass-through Retrier.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockCache is an in-memory Cache.
type MockCache struct {
	mu   sync.RWMutex
	data map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string][]byte),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
