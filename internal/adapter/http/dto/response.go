package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/usecase"
)

// BalanceResponse represents a balance row in API responses.
type BalanceResponse struct {
	OwnerType        string           `json:"owner_type"`
	OwnerID          string           `json:"owner_id"`
	Currency         string           `json:"currency"`
	Balance          decimal.Decimal  `json:"balance"`
	Reserved         decimal.Decimal  `json:"reserved"`
	Available        decimal.Decimal  `json:"available"`
	MinThreshold     *decimal.Decimal `json:"min_threshold,omitempty"`
	MaxThreshold     *decimal.Decimal `json:"max_threshold,omitempty"`
	LastUpdated      time.Time        `json:"last_updated"`
	LastReconciledAt *time.Time       `json:"last_reconciled_at,omitempty"`
	LastReconciledBy *string          `json:"last_reconciled_by,omitempty"`
}

// BalanceFromDomain converts a domain balance to a response.
func BalanceFromDomain(b *domain.Balance) *BalanceResponse {
	return &BalanceResponse{
		OwnerType:        string(b.OwnerType),
		OwnerID:          b.OwnerID,
		Currency:         b.Currency,
		Balance:          b.Balance,
		Reserved:         b.Reserved,
		Available:        b.Available(),
		MinThreshold:     b.MinThreshold,
		MaxThreshold:     b.MaxThreshold,
		LastUpdated:      b.LastUpdated,
		LastReconciledAt: b.LastReconciledAt,
		LastReconciledBy: b.LastReconciledBy,
	}
}

// BalancesFromDomain converts domain balances to responses.
func BalancesFromDomain(balances []*domain.Balance) []*BalanceResponse {
	result := make([]*BalanceResponse, len(balances))
	for i, b := range balances {
		result[i] = BalanceFromDomain(b)
	}
	return result
}

// BalanceSummaryResponse is one owner's position across all currencies.
type BalanceSummaryResponse struct {
	OwnerType string             `json:"owner_type"`
	OwnerID   string             `json:"owner_id"`
	Balances  []*BalanceResponse `json:"balances"`
	BelowMin  []string           `json:"below_min,omitempty"`
	AboveMax  []string           `json:"above_max,omitempty"`
	AsOf      time.Time          `json:"as_of"`
}

// SummaryFromUseCase converts a balance summary to a response.
func SummaryFromUseCase(s *usecase.BalanceSummary) *BalanceSummaryResponse {
	return &BalanceSummaryResponse{
		OwnerType: string(s.Owner.Type),
		OwnerID:   s.Owner.ID,
		Balances:  BalancesFromDomain(s.Balances),
		BelowMin:  s.BelowMin,
		AboveMax:  s.AboveMax,
		AsOf:      s.AsOf,
	}
}

// EntryResponse represents a balance history row in API responses.
type EntryResponse struct {
	ID            string          `json:"id"`
	OwnerType     string          `json:"owner_type"`
	OwnerID       string          `json:"owner_id"`
	Currency      string          `json:"currency"`
	ChangeType    string          `json:"change_type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	PerformedBy   string          `json:"performed_by"`
	PerformedAt   time.Time       `json:"performed_at"`
	Notes         string          `json:"notes,omitempty"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.BalanceEntry) *EntryResponse {
	return &EntryResponse{
		ID:            e.ID,
		OwnerType:     string(e.OwnerType),
		OwnerID:       e.OwnerID,
		Currency:      e.Currency,
		ChangeType:    string(e.ChangeType),
		Amount:        e.Amount,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		ReferenceID:   e.ReferenceID,
		ReferenceType: e.ReferenceType,
		PerformedBy:   e.PerformedBy,
		PerformedAt:   e.PerformedAt,
		Notes:         e.Notes,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.BalanceEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ReconciliationResponse reports what a reconciliation found and did.
type ReconciliationResponse struct {
	Balance          *BalanceResponse `json:"balance"`
	RecordedBalance  decimal.Decimal  `json:"recorded_balance"`
	ActualBalance    decimal.Decimal  `json:"actual_balance"`
	Difference       decimal.Decimal  `json:"difference"`
	AdjustmentPosted bool             `json:"adjustment_posted"`
}

// ReconciliationFromUseCase converts a reconciliation result to a response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		Balance:          BalanceFromDomain(r.Balance),
		RecordedBalance:  r.RecordedBalance,
		ActualBalance:    r.ActualBalance,
		Difference:       r.Difference,
		AdjustmentPosted: r.AdjustmentPosted,
	}
}

// IncomeDetailsResponse is the income payload of a transaction.
type IncomeDetailsResponse struct {
	Category string `json:"category"`
	Source   string `json:"source,omitempty"`
}

// ExpenseDetailsResponse is the expense payload of a transaction.
type ExpenseDetailsResponse struct {
	Category         string     `json:"category"`
	Payee            string     `json:"payee"`
	ApprovalRequired bool       `json:"approval_required"`
	ApprovedBy       *string    `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
}

// ExchangeDetailsResponse is the exchange payload of a transaction.
type ExchangeDetailsResponse struct {
	FromCurrency         string          `json:"from_currency"`
	ToCurrency           string          `json:"to_currency"`
	FromAmount           decimal.Decimal `json:"from_amount"`
	ToAmount             decimal.Decimal `json:"to_amount"`
	RateUsed             decimal.Decimal `json:"rate_used"`
	CommissionAmount     decimal.Decimal `json:"commission_amount"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
}

// TransferDetailsResponse is the transfer payload of a transaction.
type TransferDetailsResponse struct {
	From       OwnerRef   `json:"from"`
	To         OwnerRef   `json:"to"`
	Kind       string     `json:"kind"`
	ReceivedBy *string    `json:"received_by,omitempty"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
}

// TransactionResponse represents a transaction in API responses. Exactly one
// of the kind payloads is set, matching Kind.
type TransactionResponse struct {
	ID                 string          `json:"id"`
	Number             string          `json:"number"`
	Kind               string          `json:"kind"`
	Status             string          `json:"status"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	BranchID           string          `json:"branch_id"`
	UserID             string          `json:"user_id"`
	CustomerID         *string         `json:"customer_id,omitempty"`
	ReferenceNumber    *string         `json:"reference_number,omitempty"`
	Description        string          `json:"description,omitempty"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	CancelledBy        *string         `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`

	Income   *IncomeDetailsResponse   `json:"income,omitempty"`
	Expense  *ExpenseDetailsResponse  `json:"expense,omitempty"`
	Exchange *ExchangeDetailsResponse `json:"exchange,omitempty"`
	Transfer *TransferDetailsResponse `json:"transfer,omitempty"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:                 t.ID,
		Number:             t.Number,
		Kind:               string(t.Kind),
		Status:             string(t.Status),
		Amount:             t.Amount,
		Currency:           t.Currency,
		BranchID:           t.BranchID,
		UserID:             t.UserID,
		CustomerID:         t.CustomerID,
		ReferenceNumber:    t.ReferenceNumber,
		Description:        t.Description,
		CancellationReason: t.CancellationReason,
		CancelledBy:        t.CancelledBy,
		CancelledAt:        t.CancelledAt,
		CreatedAt:          t.CreatedAt,
		CompletedAt:        t.CompletedAt,
	}

	switch {
	case t.Income != nil:
		resp.Income = &IncomeDetailsResponse{
			Category: t.Income.Category,
			Source:   t.Income.Source,
		}
	case t.Expense != nil:
		resp.Expense = &ExpenseDetailsResponse{
			Category:         t.Expense.Category,
			Payee:            t.Expense.Payee,
			ApprovalRequired: t.Expense.ApprovalRequired,
			ApprovedBy:       t.Expense.ApprovedBy,
			ApprovedAt:       t.Expense.ApprovedAt,
		}
	case t.Exchange != nil:
		resp.Exchange = &ExchangeDetailsResponse{
			FromCurrency:         t.Exchange.FromCurrency,
			ToCurrency:           t.Exchange.ToCurrency,
			FromAmount:           t.Exchange.FromAmount,
			ToAmount:             t.Exchange.ToAmount,
			RateUsed:             t.Exchange.RateUsed,
			CommissionAmount:     t.Exchange.CommissionAmount,
			CommissionPercentage: t.Exchange.CommissionPercentage,
		}
	case t.Transfer != nil:
		resp.Transfer = &TransferDetailsResponse{
			From:       OwnerRef{Type: string(t.Transfer.From.Type), ID: t.Transfer.From.ID},
			To:         OwnerRef{Type: string(t.Transfer.To.Type), ID: t.Transfer.To.ID},
			Kind:       string(t.Transfer.Kind),
			ReceivedBy: t.Transfer.ReceivedBy,
			ReceivedAt: t.Transfer.ReceivedAt,
		}
	}

	return resp
}

// TransactionListResponse is a paged transaction listing.
type TransactionListResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int                    `json:"total"`
}

// TransactionsFromDomain converts domain transactions to a paged response.
func TransactionsFromDomain(transactions []*domain.Transaction, total int) *TransactionListResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return &TransactionListResponse{Transactions: result, Total: total}
}

// VaultTransferResponse represents a vault transfer in API responses.
type VaultTransferResponse struct {
	ID              string          `json:"id"`
	Number          string          `json:"number"`
	Kind            string          `json:"kind"`
	From            OwnerRef        `json:"from"`
	To              OwnerRef        `json:"to"`
	Currency        string          `json:"currency"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	InitiatedBy     string          `json:"initiated_by"`
	InitiatedAt     time.Time       `json:"initiated_at"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	ReceivedBy      *string         `json:"received_by,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
}

// VaultTransferFromDomain converts a domain vault transfer to a response.
func VaultTransferFromDomain(vt *domain.VaultTransfer) *VaultTransferResponse {
	return &VaultTransferResponse{
		ID:              vt.ID,
		Number:          vt.Number,
		Kind:            string(vt.Kind),
		From:            OwnerRef{Type: string(vt.From.Type), ID: vt.From.ID},
		To:              OwnerRef{Type: string(vt.To.Type), ID: vt.To.ID},
		Currency:        vt.Currency,
		Amount:          vt.Amount,
		Status:          string(vt.Status),
		Notes:           vt.Notes,
		RejectionReason: vt.RejectionReason,
		InitiatedBy:     vt.InitiatedBy,
		InitiatedAt:     vt.InitiatedAt,
		ApprovedBy:      vt.ApprovedBy,
		ApprovedAt:      vt.ApprovedAt,
		ReceivedBy:      vt.ReceivedBy,
		CompletedAt:     vt.CompletedAt,
		CancelledAt:     vt.CancelledAt,
	}
}

// VaultTransferListResponse is a paged vault transfer listing.
type VaultTransferListResponse struct {
	Transfers []*VaultTransferResponse `json:"transfers"`
	Total     int                      `json:"total"`
}

// VaultTransfersFromDomain converts domain vault transfers to a paged response.
func VaultTransfersFromDomain(transfers []*domain.VaultTransfer, total int) *VaultTransferListResponse {
	result := make([]*VaultTransferResponse, len(transfers))
	for i, vt := range transfers {
		result[i] = VaultTransferFromDomain(vt)
	}
	return &VaultTransferListResponse{Transfers: result, Total: total}
}

// RateResponse represents an exchange rate in API responses.
type RateResponse struct {
	ID            string           `json:"id"`
	FromCurrency  string           `json:"from_currency"`
	ToCurrency    string           `json:"to_currency"`
	Rate          decimal.Decimal  `json:"rate"`
	BuyRate       *decimal.Decimal `json:"buy_rate,omitempty"`
	SellRate      *decimal.Decimal `json:"sell_rate,omitempty"`
	EffectiveFrom time.Time        `json:"effective_from"`
	EffectiveTo   *time.Time       `json:"effective_to,omitempty"`
	SetBy         string           `json:"set_by"`
	Notes         string           `json:"notes,omitempty"`
}

// RateFromDomain converts a domain rate to a response.
func RateFromDomain(r *domain.ExchangeRate) *RateResponse {
	return &RateResponse{
		ID:            r.ID,
		FromCurrency:  r.FromCurrency,
		ToCurrency:    r.ToCurrency,
		Rate:          r.Rate,
		BuyRate:       r.BuyRate,
		SellRate:      r.SellRate,
		EffectiveFrom: r.EffectiveFrom,
		EffectiveTo:   r.EffectiveTo,
		SetBy:         r.SetBy,
		Notes:         r.Notes,
	}
}

// RatesFromDomain converts domain rates to responses.
func RatesFromDomain(rates []*domain.ExchangeRate) []*RateResponse {
	result := make([]*RateResponse, len(rates))
	for i, r := range rates {
		result[i] = RateFromDomain(r)
	}
	return result
}

// ConversionResponse is a priced conversion quote.
type ConversionResponse struct {
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	FromAmount   decimal.Decimal `json:"from_amount"`
	ToAmount     decimal.Decimal `json:"to_amount"`
	RateUsed     decimal.Decimal `json:"rate_used"`
	RateKind     string          `json:"rate_kind"`
}

// ConversionFromUseCase converts a conversion quote to a response.
func ConversionFromUseCase(c *usecase.Conversion) *ConversionResponse {
	return &ConversionResponse{
		FromCurrency: c.FromCurrency,
		ToCurrency:   c.ToCurrency,
		FromAmount:   c.FromAmount,
		ToAmount:     c.ToAmount,
		RateUsed:     c.RateUsed,
		RateKind:     string(c.RateKind),
	}
}

// AggregateResponse is a multi-currency total in one currency.
type AggregateResponse struct {
	TargetCurrency string          `json:"target_currency"`
	Total          decimal.Decimal `json:"total"`
}

// TransactionStatsResponse aggregates a filtered transaction set.
type TransactionStatsResponse struct {
	TotalCount       int                        `json:"total_count"`
	ByKind           map[string]int             `json:"by_kind"`
	ByStatus         map[string]int             `json:"by_status"`
	TotalByCurrency  map[string]decimal.Decimal `json:"total_by_currency"`
	EarliestRecorded *time.Time                 `json:"earliest_recorded,omitempty"`
	LatestRecorded   *time.Time                 `json:"latest_recorded,omitempty"`
}

// TransactionStatsFromDomain converts domain transaction stats to a response.
func TransactionStatsFromDomain(s *domain.TransactionStats) *TransactionStatsResponse {
	byKind := make(map[string]int, len(s.ByKind))
	for k, v := range s.ByKind {
		byKind[string(k)] = v
	}

	byStatus := make(map[string]int, len(s.ByStatus))
	for k, v := range s.ByStatus {
		byStatus[string(k)] = v
	}

	return &TransactionStatsResponse{
		TotalCount:       s.TotalCount,
		ByKind:           byKind,
		ByStatus:         byStatus,
		TotalByCurrency:  s.TotalByCurrency,
		EarliestRecorded: s.EarliestRecorded,
		LatestRecorded:   s.LatestRecorded,
	}
}

// VaultTransferStatsResponse summarizes a period of workflow activity.
type VaultTransferStatsResponse struct {
	TotalCount     int             `json:"total_count"`
	ByStatus       map[string]int  `json:"by_status"`
	CompletedTotal decimal.Decimal `json:"completed_total"`
	AverageAmount  decimal.Decimal `json:"average_amount"`
	PendingIn      int             `json:"pending_in"`
	PendingOut     int             `json:"pending_out"`
}

// VaultTransferStatsFromDomain converts domain vault transfer stats to a response.
func VaultTransferStatsFromDomain(s *domain.VaultTransferStats) *VaultTransferStatsResponse {
	byStatus := make(map[string]int, len(s.ByStatus))
	for k, v := range s.ByStatus {
		byStatus[string(k)] = v
	}

	return &VaultTransferStatsResponse{
		TotalCount:     s.TotalCount,
		ByStatus:       byStatus,
		CompletedTotal: s.CompletedTotal,
		AverageAmount:  s.AverageAmount,
		PendingIn:      s.PendingIn,
		PendingOut:     s.PendingOut,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
