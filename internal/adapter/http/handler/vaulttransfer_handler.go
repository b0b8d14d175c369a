package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oyal/treasury/internal/adapter/http/dto"
	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/usecase"
)

// VaultTransferHandler handles vault transfer workflow HTTP requests.
type VaultTransferHandler struct {
	vtUC *usecase.VaultTransferUseCase
}

// NewVaultTransferHandler creates a new VaultTransferHandler.
func NewVaultTransferHandler(vtUC *usecase.VaultTransferUseCase) *VaultTransferHandler {
	return &VaultTransferHandler{vtUC: vtUC}
}

// Create initiates a vault movement.
func (h *VaultTransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateVaultTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	vt, err := h.vtUC.CreateVaultTransfer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create vault transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.VaultTransferFromDomain(vt))
}

// Approve decides a pending transfer.
func (h *VaultTransferHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.ApproveVaultTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	vt, err := h.vtUC.ApproveVaultTransfer(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to decide vault transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.VaultTransferFromDomain(vt))
}

// Complete confirms receipt of an in-transit transfer.
func (h *VaultTransferHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.CompleteVaultTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	vt, err := h.vtUC.CompleteVaultTransfer(r.Context(), id, req.ReceivedBy)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to complete vault transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.VaultTransferFromDomain(vt))
}

// Cancel cancels a pending or in-transit transfer.
func (h *VaultTransferHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.CancelVaultTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	vt, err := h.vtUC.CancelVaultTransfer(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to cancel vault transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.VaultTransferFromDomain(vt))
}

// Get retrieves a vault transfer by ID.
func (h *VaultTransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing vault transfer ID", "")
		return
	}

	vt, err := h.vtUC.GetVaultTransfer(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get vault transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.VaultTransferFromDomain(vt))
}

// List lists vault transfers matching the query filter.
func (h *VaultTransferHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := vaultTransferFilterFromQuery(r)

	transfers, total, err := h.vtUC.ListVaultTransfers(r.Context(), filter)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list vault transfers", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.VaultTransfersFromDomain(transfers, total))
}

// Stats aggregates vault transfers matching the query filter.
func (h *VaultTransferHandler) Stats(w http.ResponseWriter, r *http.Request) {
	filter := vaultTransferFilterFromQuery(r)

	stats, err := h.vtUC.GetStatistics(r.Context(), filter)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to aggregate vault transfers", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.VaultTransferStatsFromDomain(stats))
}

// Reconcile declares a physically counted vault balance.
func (h *VaultTransferHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	vaultID := chi.URLParam(r, "id")

	var req dto.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.vtUC.ReconcileVault(r.Context(), vaultID, req.Currency, req.ActualBalance, req.PerformedBy, req.Notes)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile vault", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}

func vaultTransferFilterFromQuery(r *http.Request) domain.VaultTransferFilter {
	q := r.URL.Query()

	return domain.VaultTransferFilter{
		VaultID:  q.Get("vault_id"),
		BranchID: q.Get("branch_id"),
		Status:   domain.VaultTransferStatus(q.Get("status")),
		From:     parseTimeQuery(r, "from"),
		To:       parseTimeQuery(r, "to"),
		Limit:    parseIntQuery(r, "limit", 20),
		Offset:   parseIntQuery(r, "offset", 0),
	}
}
