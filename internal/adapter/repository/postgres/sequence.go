package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/usecase"
)

// SequenceRepository implements usecase.NumberSequence with one counter row
// per (scope, day). The upsert takes a row lock, so concurrent callers in
// the same scope serialize and values are gapless within a day unless a
// caller's transaction rolls back.
type SequenceRepository struct {
	pool *pgxpool.Pool
}

// NewSequenceRepository creates a new SequenceRepository.
func NewSequenceRepository(pool *pgxpool.Pool) *SequenceRepository {
	return &SequenceRepository{pool: pool}
}

// Next returns the next value for the scope's counter on the given day,
// starting at 1. It must run inside the caller's transaction so the value
// is not burned when the surrounding work fails.
func (r *SequenceRepository) Next(ctx context.Context, tx usecase.Transaction, scope string, day time.Time) (int64, error) {
	db := pick(r.pool, tx)

	query := `
		INSERT INTO daily_sequences (scope, day, value)
		VALUES ($1, $2, 1)
		ON CONFLICT (scope, day) DO UPDATE SET value = daily_sequences.value + 1
		RETURNING value`

	var value int64
	if err := db.QueryRow(ctx, query, scope, day.UTC().Truncate(24*time.Hour)).Scan(&value); err != nil {
		return 0, domain.WrapDatabase("next sequence value", err)
	}

	return value, nil
}
