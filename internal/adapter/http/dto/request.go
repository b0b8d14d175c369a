package dto

import (
	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/usecase"
)

// OwnerRef identifies a branch or vault in API payloads.
type OwnerRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ToDomain converts to a domain owner reference.
func (o OwnerRef) ToDomain() domain.Owner {
	return domain.Owner{Type: domain.OwnerType(o.Type), ID: o.ID}
}

// RecordIncomeRequest represents a request to record an income transaction.
type RecordIncomeRequest struct {
	BranchID        string          `json:"branch_id"`
	Currency        string          `json:"currency"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	Source          string          `json:"source,omitempty"`
	CustomerID      *string         `json:"customer_id,omitempty"`
	ReferenceNumber *string         `json:"reference_number,omitempty"`
	Description     string          `json:"description,omitempty"`
	UserID          string          `json:"user_id"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordIncomeRequest) ToUseCaseInput() usecase.CreateIncomeInput {
	return usecase.CreateIncomeInput{
		BranchID:        r.BranchID,
		Currency:        r.Currency,
		Amount:          r.Amount,
		Category:        r.Category,
		Source:          r.Source,
		CustomerID:      r.CustomerID,
		ReferenceNumber: r.ReferenceNumber,
		Description:     r.Description,
		UserID:          r.UserID,
	}
}

// RecordExpenseRequest represents a request to record an expense transaction.
type RecordExpenseRequest struct {
	BranchID         string          `json:"branch_id"`
	Currency         string          `json:"currency"`
	Amount           decimal.Decimal `json:"amount"`
	Category         string          `json:"category"`
	Payee            string          `json:"payee"`
	ApprovalRequired bool            `json:"approval_required"`
	CustomerID       *string         `json:"customer_id,omitempty"`
	ReferenceNumber  *string         `json:"reference_number,omitempty"`
	Description      string          `json:"description,omitempty"`
	UserID           string          `json:"user_id"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordExpenseRequest) ToUseCaseInput() usecase.CreateExpenseInput {
	return usecase.CreateExpenseInput{
		BranchID:         r.BranchID,
		Currency:         r.Currency,
		Amount:           r.Amount,
		Category:         r.Category,
		Payee:            r.Payee,
		ApprovalRequired: r.ApprovalRequired,
		CustomerID:       r.CustomerID,
		ReferenceNumber:  r.ReferenceNumber,
		Description:      r.Description,
		UserID:           r.UserID,
	}
}

// ApproveExpenseRequest represents an expense approval.
type ApproveExpenseRequest struct {
	ApproverID string `json:"approver_id"`
}

// CreateExchangeRequest represents a request for a currency exchange.
type CreateExchangeRequest struct {
	BranchID             string          `json:"branch_id"`
	FromCurrency         string          `json:"from_currency"`
	ToCurrency           string          `json:"to_currency"`
	FromAmount           decimal.Decimal `json:"from_amount"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	CustomerID           *string         `json:"customer_id,omitempty"`
	ReferenceNumber      *string         `json:"reference_number,omitempty"`
	Description          string          `json:"description,omitempty"`
	UserID               string          `json:"user_id"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateExchangeRequest) ToUseCaseInput() usecase.CreateExchangeInput {
	return usecase.CreateExchangeInput{
		BranchID:             r.BranchID,
		FromCurrency:         r.FromCurrency,
		ToCurrency:           r.ToCurrency,
		FromAmount:           r.FromAmount,
		CommissionPercentage: r.CommissionPercentage,
		CustomerID:           r.CustomerID,
		ReferenceNumber:      r.ReferenceNumber,
		Description:          r.Description,
		UserID:               r.UserID,
	}
}

// CreateTransferRequest represents phase one of a two-phase transfer.
type CreateTransferRequest struct {
	From            OwnerRef        `json:"from"`
	To              OwnerRef        `json:"to"`
	Kind            string          `json:"kind"`
	Currency        string          `json:"currency"`
	Amount          decimal.Decimal `json:"amount"`
	BranchID        string          `json:"branch_id"`
	ReferenceNumber *string         `json:"reference_number,omitempty"`
	Description     string          `json:"description,omitempty"`
	UserID          string          `json:"user_id"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() usecase.CreateTransferInput {
	return usecase.CreateTransferInput{
		From:            r.From.ToDomain(),
		To:              r.To.ToDomain(),
		Kind:            domain.TransferKind(r.Kind),
		Currency:        r.Currency,
		Amount:          r.Amount,
		BranchID:        r.BranchID,
		ReferenceNumber: r.ReferenceNumber,
		Description:     r.Description,
		UserID:          r.UserID,
	}
}

// CompleteTransferRequest represents phase two of a transfer.
type CompleteTransferRequest struct {
	ReceivedBy string `json:"received_by"`
}

// CancelTransactionRequest represents a cancellation of a pending transaction.
type CancelTransactionRequest struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
}

// ToUseCaseInput converts to use case input.
func (r *CancelTransactionRequest) ToUseCaseInput(id string) usecase.CancelTransactionInput {
	return usecase.CancelTransactionInput{
		ID:          id,
		Reason:      r.Reason,
		CancelledBy: r.CancelledBy,
	}
}

// CreateVaultTransferRequest represents a request to initiate a vault movement.
type CreateVaultTransferRequest struct {
	Kind        string          `json:"kind"`
	From        OwnerRef        `json:"from"`
	To          OwnerRef        `json:"to"`
	Currency    string          `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	Notes       string          `json:"notes,omitempty"`
	InitiatedBy string          `json:"initiated_by"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateVaultTransferRequest) ToUseCaseInput() usecase.CreateVaultTransferInput {
	return usecase.CreateVaultTransferInput{
		Kind:        domain.VaultTransferKind(r.Kind),
		From:        r.From.ToDomain(),
		To:          r.To.ToDomain(),
		Currency:    r.Currency,
		Amount:      r.Amount,
		Notes:       r.Notes,
		InitiatedBy: r.InitiatedBy,
	}
}

// ApproveVaultTransferRequest represents an approval decision.
type ApproveVaultTransferRequest struct {
	Approved   bool   `json:"approved"`
	Reason     string `json:"reason,omitempty"`
	ApproverID string `json:"approver_id"`
}

// ToUseCaseInput converts to use case input.
func (r *ApproveVaultTransferRequest) ToUseCaseInput(id string) usecase.ApproveVaultTransferInput {
	return usecase.ApproveVaultTransferInput{
		ID:         id,
		Approved:   r.Approved,
		Reason:     r.Reason,
		ApproverID: r.ApproverID,
	}
}

// CompleteVaultTransferRequest confirms receipt of an in-transit transfer.
type CompleteVaultTransferRequest struct {
	ReceivedBy string `json:"received_by"`
}

// CancelVaultTransferRequest represents a cancellation of a vault transfer.
type CancelVaultTransferRequest struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
}

// ToUseCaseInput converts to use case input.
func (r *CancelVaultTransferRequest) ToUseCaseInput(id string) usecase.CancelVaultTransferInput {
	return usecase.CancelVaultTransferInput{
		ID:          id,
		Reason:      r.Reason,
		CancelledBy: r.CancelledBy,
	}
}

// SetRateRequest represents a request to set a currency pair rate.
type SetRateRequest struct {
	FromCurrency string           `json:"from_currency"`
	ToCurrency   string           `json:"to_currency"`
	Rate         decimal.Decimal  `json:"rate"`
	BuyRate      *decimal.Decimal `json:"buy_rate,omitempty"`
	SellRate     *decimal.Decimal `json:"sell_rate,omitempty"`
	SetBy        string           `json:"set_by"`
	Notes        string           `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *SetRateRequest) ToUseCaseInput() usecase.SetExchangeRateInput {
	return usecase.SetExchangeRateInput{
		FromCurrency: r.FromCurrency,
		ToCurrency:   r.ToCurrency,
		Rate:         r.Rate,
		BuyRate:      r.BuyRate,
		SellRate:     r.SellRate,
		SetBy:        r.SetBy,
		Notes:        r.Notes,
	}
}

// AggregateRequest sums a set of currency amounts in one target currency.
type AggregateRequest struct {
	TargetCurrency string `json:"target_currency"`
	Items          []struct {
		Currency string          `json:"currency"`
		Amount   decimal.Decimal `json:"amount"`
	} `json:"items"`
}

// ToUseCaseInput converts to use case input.
func (r *AggregateRequest) ToUseCaseInput() []usecase.CurrencyAmount {
	items := make([]usecase.CurrencyAmount, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, usecase.CurrencyAmount{
			Currency: item.Currency,
			Amount:   item.Amount,
		})
	}
	return items
}

// ConvertRequest represents a conversion quote request.
type ConvertRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	RateKind     string          `json:"rate_kind,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ConvertRequest) ToUseCaseInput() usecase.ConversionInput {
	kind := domain.RateKind(r.RateKind)
	if kind == "" {
		kind = domain.RateStandard
	}

	return usecase.ConversionInput{
		Amount:       r.Amount,
		FromCurrency: r.FromCurrency,
		ToCurrency:   r.ToCurrency,
		Kind:         kind,
	}
}

// ReconcileRequest declares a physically counted balance.
type ReconcileRequest struct {
	Currency      string          `json:"currency"`
	ActualBalance decimal.Decimal `json:"actual_balance"`
	PerformedBy   string          `json:"performed_by"`
	Notes         string          `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ReconcileRequest) ToUseCaseInput(owner domain.Owner) usecase.ReconcileInput {
	return usecase.ReconcileInput{
		Owner:         owner,
		Currency:      r.Currency,
		ActualBalance: r.ActualBalance,
		PerformedBy:   r.PerformedBy,
		Notes:         r.Notes,
	}
}
