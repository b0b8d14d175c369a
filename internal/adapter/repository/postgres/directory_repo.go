package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oyal/treasury/internal/domain"
)

// DirectoryRepository implements usecase.Directory over the reference tables
// for branches, vaults, currencies and customers.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository creates a new DirectoryRepository.
func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

// BranchActive reports whether the branch exists and is active.
func (r *DirectoryRepository) BranchActive(ctx context.Context, id string) (bool, error) {
	return r.active(ctx, `SELECT is_active FROM branches WHERE id = $1`, id)
}

// VaultActive reports whether the vault exists and is active.
func (r *DirectoryRepository) VaultActive(ctx context.Context, id string) (bool, error) {
	return r.active(ctx, `SELECT is_active FROM vaults WHERE id = $1`, id)
}

// CurrencyActive reports whether the currency exists and is active.
func (r *DirectoryRepository) CurrencyActive(ctx context.Context, code string) (bool, error) {
	return r.active(ctx, `SELECT is_active FROM currencies WHERE code = $1`, code)
}

// CustomerActive reports whether the customer exists and is active.
func (r *DirectoryRepository) CustomerActive(ctx context.Context, id string) (bool, error) {
	return r.active(ctx, `SELECT is_active FROM customers WHERE id = $1`, id)
}

// CurrencyExponent returns the minor-unit exponent used for rounding.
func (r *DirectoryRepository) CurrencyExponent(ctx context.Context, code string) (int32, error) {
	var exponent int32

	err := r.pool.QueryRow(ctx, `SELECT exponent FROM currencies WHERE code = $1`, code).Scan(&exponent)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrCurrencyNotFound
	}
	if err != nil {
		return 0, domain.WrapDatabase("get currency exponent", err)
	}

	return exponent, nil
}

func (r *DirectoryRepository) active(ctx context.Context, query, key string) (bool, error) {
	var isActive bool

	err := r.pool.QueryRow(ctx, query, key).Scan(&isActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, domain.WrapDatabase("check active", err)
	}

	return isActive, nil
}
