package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oyal/treasury/internal/adapter/http/dto"
	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/usecase"
)

// BalanceHandler handles balance and history HTTP requests.
type BalanceHandler struct {
	ledgerUC *usecase.LedgerUseCase
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(ledgerUC *usecase.LedgerUseCase) *BalanceHandler {
	return &BalanceHandler{ledgerUC: ledgerUC}
}

// Get retrieves one balance row.
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromPath(chi.URLParam(r, "ownerType"), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid owner type", "")
		return
	}

	currency := chi.URLParam(r, "currency")

	balance, err := h.ledgerUC.GetBalance(r.Context(), owner, currency)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// Summary returns every currency row an owner holds plus threshold breaches.
func (h *BalanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromPath(chi.URLParam(r, "ownerType"), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid owner type", "")
		return
	}

	summary, err := h.ledgerUC.GetBalanceSummary(r.Context(), owner)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance summary", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromUseCase(summary))
}

// History lists balance history rows, newest first.
func (h *BalanceHandler) History(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromPath(chi.URLParam(r, "ownerType"), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid owner type", "")
		return
	}

	filter := domain.EntryFilter{
		Owner:      &owner,
		Currency:   r.URL.Query().Get("currency"),
		ChangeType: domain.ChangeType(r.URL.Query().Get("change_type")),
		From:       parseTimeQuery(r, "from"),
		To:         parseTimeQuery(r, "to"),
		Limit:      parseIntQuery(r, "limit", 20),
		Offset:     parseIntQuery(r, "offset", 0),
	}

	entries, err := h.ledgerUC.GetBalanceHistory(r.Context(), filter)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list balance history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// Reconcile declares an externally counted balance for one row.
func (h *BalanceHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromPath(chi.URLParam(r, "ownerType"), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid owner type", "")
		return
	}

	var req dto.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.ledgerUC.Reconcile(r.Context(), req.ToUseCaseInput(owner))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}

// Verify recomputes one balance from its history trail.
func (h *BalanceHandler) Verify(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromPath(chi.URLParam(r, "ownerType"), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid owner type", "")
		return
	}

	currency := chi.URLParam(r, "currency")

	ok, drift, err := h.ledgerUC.VerifyBalanceHistory(r.Context(), owner, currency)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to verify balance history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"consistent": ok,
		"drift":      drift,
	})
}
