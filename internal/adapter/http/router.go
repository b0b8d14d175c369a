package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/oyal/treasury/internal/adapter/http/handler"
	"github.com/oyal/treasury/internal/adapter/http/middleware"
	"github.com/oyal/treasury/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	BalanceHandler       *handler.BalanceHandler
	TransactionHandler   *handler.TransactionHandler
	VaultTransferHandler *handler.VaultTransferHandler
	RateHandler          *handler.RateHandler
	HealthHandler        *handler.HealthHandler
	Logger               zerolog.Logger
	Metrics              *metrics.Metrics
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)

	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Balances
		r.Route("/balances/{ownerType}/{ownerID}", func(r chi.Router) {
			r.Get("/", cfg.BalanceHandler.Summary)
			r.Get("/history", cfg.BalanceHandler.History)
			r.Post("/reconcile", cfg.BalanceHandler.Reconcile)
			r.Get("/{currency}", cfg.BalanceHandler.Get)
			r.Get("/{currency}/verify", cfg.BalanceHandler.Verify)
		})

		// Transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/income", cfg.TransactionHandler.CreateIncome)
			r.Post("/expense", cfg.TransactionHandler.CreateExpense)
			r.Post("/exchange", cfg.TransactionHandler.CreateExchange)
			r.Post("/transfer", cfg.TransactionHandler.CreateTransfer)
			r.Get("/", cfg.TransactionHandler.List)
			r.Get("/stats", cfg.TransactionHandler.Stats)
			r.Get("/number/{number}", cfg.TransactionHandler.GetByNumber)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Post("/{id}/approve", cfg.TransactionHandler.ApproveExpense)
			r.Post("/{id}/complete", cfg.TransactionHandler.CompleteTransfer)
			r.Post("/{id}/cancel", cfg.TransactionHandler.Cancel)
		})

		// Vault transfers
		r.Route("/vault-transfers", func(r chi.Router) {
			r.Post("/", cfg.VaultTransferHandler.Create)
			r.Get("/", cfg.VaultTransferHandler.List)
			r.Get("/stats", cfg.VaultTransferHandler.Stats)
			r.Get("/{id}", cfg.VaultTransferHandler.Get)
			r.Post("/{id}/approve", cfg.VaultTransferHandler.Approve)
			r.Post("/{id}/complete", cfg.VaultTransferHandler.Complete)
			r.Post("/{id}/cancel", cfg.VaultTransferHandler.Cancel)
		})

		// Vault reconciliation
		r.Post("/vaults/{id}/reconcile", cfg.VaultTransferHandler.Reconcile)

		// Exchange rates
		r.Route("/rates", func(r chi.Router) {
			r.Post("/", cfg.RateHandler.Set)
			r.Post("/convert", cfg.RateHandler.Convert)
			r.Post("/aggregate", cfg.RateHandler.Aggregate)
			r.Get("/{from}/{to}", cfg.RateHandler.Get)
			r.Get("/{from}/{to}/history", cfg.RateHandler.History)
		})
	})

	return r
}
