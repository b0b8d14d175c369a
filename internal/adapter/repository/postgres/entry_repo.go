package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository over the append-only
// balance_entries table.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create inserts one history row. Rows are never updated or deleted.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.BalanceEntry) error {
	db := pick(r.pool, tx)

	query := `
		INSERT INTO balance_entries (
			id, owner_type, owner_id, currency, change_type, amount,
			balance_before, balance_after, reference_id, reference_type,
			performed_by, performed_at, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := db.Exec(ctx, query,
		entry.ID, entry.OwnerType, entry.OwnerID, entry.Currency,
		entry.ChangeType, decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.BalanceBefore), decimalToNumeric(entry.BalanceAfter),
		entry.ReferenceID, entry.ReferenceType,
		entry.PerformedBy, entry.PerformedAt, entry.Notes,
	)
	if err != nil {
		return domain.WrapDatabase("create balance entry", err)
	}

	return nil
}

// List retrieves history rows with filtering, newest first.
func (r *EntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.BalanceEntry, error) {
	query := `
		SELECT id, owner_type, owner_id, currency, change_type, amount,
		       balance_before, balance_after, reference_id, reference_type,
		       performed_by, performed_at, notes
		FROM balance_entries
		WHERE 1=1`

	args := []any{}
	argPos := 1

	addArg := func(clause string, value any) {
		query += fmt.Sprintf(clause, argPos)
		args = append(args, value)
		argPos++
	}

	if filter.Owner != nil {
		addArg(` AND owner_type = $%d`, filter.Owner.Type)
		addArg(` AND owner_id = $%d`, filter.Owner.ID)
	}

	if filter.Currency != "" {
		addArg(` AND currency = $%d`, filter.Currency)
	}

	if filter.ChangeType != "" {
		addArg(` AND change_type = $%d`, filter.ChangeType)
	}

	if filter.From != nil {
		addArg(` AND performed_at >= $%d`, *filter.From)
	}

	if filter.To != nil {
		addArg(` AND performed_at <= $%d`, *filter.To)
	}

	query += ` ORDER BY performed_at DESC, id DESC`

	if filter.Limit > 0 {
		addArg(` LIMIT $%d`, filter.Limit)
	}

	if filter.Offset > 0 {
		addArg(` OFFSET $%d`, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapDatabase("list balance entries", err)
	}
	defer rows.Close()

	var entries []*domain.BalanceEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, domain.WrapDatabase("scan balance entry", err)
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Sum returns the signed total of all entries for one balance row.
func (r *EntryRepository) Sum(ctx context.Context, owner domain.Owner, currency string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM balance_entries
		WHERE owner_type = $1 AND owner_id = $2 AND currency = $3`

	var sum pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, owner.Type, owner.ID, currency).Scan(&sum); err != nil {
		return decimal.Zero, domain.WrapDatabase("sum balance entries", err)
	}

	return numericToDecimal(sum), nil
}

func scanEntry(row pgx.Row) (*domain.BalanceEntry, error) {
	var (
		e      domain.BalanceEntry
		amount pgtype.Numeric
		before pgtype.Numeric
		after  pgtype.Numeric
	)

	err := row.Scan(
		&e.ID, &e.OwnerType, &e.OwnerID, &e.Currency, &e.ChangeType, &amount,
		&before, &after, &e.ReferenceID, &e.ReferenceType,
		&e.PerformedBy, &e.PerformedAt, &e.Notes,
	)
	if err != nil {
		return nil, err
	}

	e.Amount = numericToDecimal(amount)
	e.BalanceBefore = numericToDecimal(before)
	e.BalanceAfter = numericToDecimal(after)

	return &e, nil
}
