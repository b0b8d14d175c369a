package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oyal/treasury/internal/adapter/http/dto"
	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	CreateIncome(ctx context.Context, input usecase.CreateIncomeInput) (*domain.Transaction, error)
	CreateExpense(ctx context.Context, input usecase.CreateExpenseInput) (*domain.Transaction, error)
	ApproveExpense(ctx context.Context, id, approverID string) (*domain.Transaction, error)
	CreateExchange(ctx context.Context, input usecase.CreateExchangeInput) (*domain.Transaction, error)
	CreateTransfer(ctx context.Context, input usecase.CreateTransferInput) (*domain.Transaction, error)
	CompleteTransfer(ctx context.Context, id, receiverID string) (*domain.Transaction, error)
	CancelTransaction(ctx context.Context, input usecase.CancelTransactionInput) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	GetTransactionByNumber(ctx context.Context, number string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, int, error)
	GetStatistics(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionStats, error)
}

// TransactionHandler handles transaction HTTP requests.
type TransactionHandler struct {
	txnUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(txnUC TransactionService) *TransactionHandler {
	return &TransactionHandler{txnUC: txnUC}
}

// CreateIncome records an income transaction.
func (h *TransactionHandler) CreateIncome(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordIncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.txnUC.CreateIncome(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record income", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// CreateExpense records an expense transaction.
func (h *TransactionHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.txnUC.CreateExpense(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record expense", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// ApproveExpense closes the approval gate on a pending expense.
func (h *TransactionHandler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.ApproveExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.txnUC.ApproveExpense(r.Context(), id, req.ApproverID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to approve expense", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// CreateExchange converts between two currencies of one branch.
func (h *TransactionHandler) CreateExchange(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.txnUC.CreateExchange(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create exchange", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// CreateTransfer runs phase one of a two-phase transfer.
func (h *TransactionHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.txnUC.CreateTransfer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// CompleteTransfer runs phase two of a transfer.
func (h *TransactionHandler) CompleteTransfer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.CompleteTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.txnUC.CompleteTransfer(r.Context(), id, req.ReceivedBy)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to complete transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// Cancel reverses a pending transaction.
func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.CancelTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.txnUC.CancelTransaction(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to cancel transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.txnUC.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// GetByNumber retrieves a transaction by its document number.
func (h *TransactionHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		writeError(w, http.StatusBadRequest, "missing transaction number", "")
		return
	}

	txn, err := h.txnUC.GetTransactionByNumber(r.Context(), number)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// List lists transactions matching the query filter.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := transactionFilterFromQuery(r)

	transactions, total, err := h.txnUC.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(transactions, total))
}

// Stats aggregates transactions matching the query filter.
func (h *TransactionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	filter := transactionFilterFromQuery(r)

	stats, err := h.txnUC.GetStatistics(r.Context(), filter)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to aggregate transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionStatsFromDomain(stats))
}

func transactionFilterFromQuery(r *http.Request) domain.TransactionFilter {
	q := r.URL.Query()

	return domain.TransactionFilter{
		Kind:       domain.TransactionKind(q.Get("kind")),
		Status:     domain.TransactionStatus(q.Get("status")),
		BranchID:   q.Get("branch_id"),
		CustomerID: q.Get("customer_id"),
		Currency:   q.Get("currency"),
		From:       parseTimeQuery(r, "from"),
		To:         parseTimeQuery(r, "to"),
		AmountMin:  parseDecimalQuery(r, "amount_min"),
		AmountMax:  parseDecimalQuery(r, "amount_max"),
		Limit:      parseIntQuery(r, "limit", 20),
		Offset:     parseIntQuery(r, "offset", 0),
	}
}
