package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a single money-moving unit of work.
	DefaultTransactionTimeout = 30 * time.Second

	// Sequence scopes for per-day document numbering.
	SequenceTransactions   = "transactions"
	SequenceVaultTransfers = "vault_transfers"
)
