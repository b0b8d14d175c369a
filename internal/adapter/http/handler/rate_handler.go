package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oyal/treasury/internal/adapter/http/dto"
	"github.com/oyal/treasury/internal/usecase"
)

// RateHandler handles exchange rate HTTP requests.
type RateHandler struct {
	rateUC *usecase.RateUseCase
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateUC *usecase.RateUseCase) *RateHandler {
	return &RateHandler{rateUC: rateUC}
}

// Set makes a new rate current for a currency pair.
func (h *RateHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req dto.SetRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	rate, err := h.rateUC.SetExchangeRate(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to set exchange rate", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.RateFromDomain(rate))
}

// Get resolves the current rate for a pair, deriving inverse or cross rates
// when no direct rate exists.
func (h *RateHandler) Get(w http.ResponseWriter, r *http.Request) {
	from := chi.URLParam(r, "from")
	to := chi.URLParam(r, "to")

	rate, err := h.rateUC.GetLatestRate(r.Context(), from, to)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to resolve rate", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RateFromDomain(rate))
}

// History lists a pair's rate rows, current first.
func (h *RateHandler) History(w http.ResponseWriter, r *http.Request) {
	from := chi.URLParam(r, "from")
	to := chi.URLParam(r, "to")

	rates, err := h.rateUC.GetRateHistory(r.Context(), from, to,
		parseTimeQuery(r, "since"), parseTimeQuery(r, "until"),
		parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list rate history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RatesFromDomain(rates))
}

// Aggregate sums multi-currency amounts in one target currency.
func (h *RateHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	var req dto.AggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	total, err := h.rateUC.AggregateBalances(r.Context(), req.ToUseCaseInput(), req.TargetCurrency)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to aggregate amounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AggregateResponse{
		TargetCurrency: req.TargetCurrency,
		Total:          total,
	})
}

// Convert quotes a conversion at the current rate.
func (h *RateHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req dto.ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	conv, err := h.rateUC.CalculateExchange(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to calculate conversion", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConversionFromUseCase(conv))
}
