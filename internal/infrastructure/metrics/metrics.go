package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsCreated   *prometheus.CounterVec
	TransactionsCancelled prometheus.Counter
	TransactionAmount     *prometheus.HistogramVec
	TransactionDuration   prometheus.Histogram
	TransactionErrors     *prometheus.CounterVec
	ExpensesApproved      prometheus.Counter
	TransfersCompleted    prometheus.Counter

	// Vault transfer metrics
	VaultTransfersCreated  prometheus.Counter
	VaultTransfersApproved prometheus.Counter
	VaultTransfersRejected prometheus.Counter
	VaultTransfersAuto     prometheus.Counter

	// Balance metrics
	BalanceMutations *prometheus.CounterVec
	Reconciliations  *prometheus.CounterVec

	// Rate metrics
	RateLookups   *prometheus.CounterVec
	RateCacheHits prometheus.Counter
	RatesSet      prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		TransactionsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_transactions_created_total",
				Help: "Total number of transactions created by kind",
			},
			[]string{"kind"},
		),
		TransactionsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_transactions_cancelled_total",
			Help: "Total number of transactions cancelled",
		}),
		TransactionAmount: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "treasury_transaction_amount",
				Help:    "Transaction amounts by kind",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"kind"},
		),
		TransactionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "treasury_transaction_duration_seconds",
			Help:    "Duration of transaction operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransactionErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_transaction_errors_total",
				Help: "Total number of transaction errors by type",
			},
			[]string{"error_type"},
		),
		ExpensesApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_expenses_approved_total",
			Help: "Total number of expenses approved",
		}),
		TransfersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_transfers_completed_total",
			Help: "Total number of branch transfers completed",
		}),

		VaultTransfersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_vault_transfers_created_total",
			Help: "Total number of vault transfers created",
		}),
		VaultTransfersApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_vault_transfers_approved_total",
			Help: "Total number of vault transfers approved",
		}),
		VaultTransfersRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_vault_transfers_rejected_total",
			Help: "Total number of vault transfers rejected",
		}),
		VaultTransfersAuto: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_vault_transfers_auto_approved_total",
			Help: "Total number of vault transfers auto-approved under threshold",
		}),

		BalanceMutations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_balance_mutations_total",
				Help: "Total number of balance mutations by change type",
			},
			[]string{"change_type"},
		),
		Reconciliations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_reconciliations_total",
				Help: "Total number of reconciliations by outcome",
			},
			[]string{"outcome"},
		),

		RateLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_rate_lookups_total",
				Help: "Total number of rate resolutions by strategy",
			},
			[]string{"strategy"},
		),
		RateCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_rate_cache_hits_total",
			Help: "Total number of rate lookups served from cache",
		}),
		RatesSet: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_rates_set_total",
			Help: "Total number of exchange rates set",
		}),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "treasury_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_db_queries_total",
				Help: "Total number of database queries",
			},
			[]string{"operation"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "treasury_db_query_duration_seconds",
				Help:    "Duration of database queries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "treasury_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_db_errors_total",
				Help: "Total number of database errors",
			},
			[]string{"operation"},
		),

		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_redis_operations_total",
				Help: "Total number of Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_redis_errors_total",
				Help: "Total number of Redis errors",
			},
			[]string{"operation"},
		),
	}
}
