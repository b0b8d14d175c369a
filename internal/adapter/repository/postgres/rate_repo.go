package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/usecase"
)

// RateRepository implements usecase.RateRepository over the effective-dated
// exchange_rates table plus the append-only rate_changes audit table.
type RateRepository struct {
	pool *pgxpool.Pool
}

// NewRateRepository creates a new RateRepository.
func NewRateRepository(pool *pgxpool.Pool) *RateRepository {
	return &RateRepository{pool: pool}
}

const rateColumns = `
	id, from_currency, to_currency, rate, buy_rate, sell_rate,
	effective_from, effective_to, set_by, notes
`

// GetCurrent returns the open-ended row for the pair.
func (r *RateRepository) GetCurrent(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
	query := `SELECT ` + rateColumns + `
		FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND effective_to IS NULL`

	rate, err := scanRate(r.pool.QueryRow(ctx, query, from, to))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRateNotFound
	}
	if err != nil {
		return nil, domain.WrapDatabase("get current rate", err)
	}

	return rate, nil
}

// GetCurrentForUpdate locks the pair's current row inside tx.
func (r *RateRepository) GetCurrentForUpdate(ctx context.Context, tx usecase.Transaction, from, to string) (*domain.ExchangeRate, error) {
	db := pick(r.pool, tx)

	query := `SELECT ` + rateColumns + `
		FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND effective_to IS NULL
		FOR UPDATE`

	rate, err := scanRate(db.QueryRow(ctx, query, from, to))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRateNotFound
	}
	if err != nil {
		return nil, domain.WrapDatabase("lock current rate", err)
	}

	return rate, nil
}

// Create inserts a new rate row.
func (r *RateRepository) Create(ctx context.Context, tx usecase.Transaction, rate *domain.ExchangeRate) error {
	db := pick(r.pool, tx)

	query := `
		INSERT INTO exchange_rates (` + rateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := db.Exec(ctx, query,
		rate.ID, rate.FromCurrency, rate.ToCurrency,
		decimalToNumeric(rate.Rate),
		decimalPtrToNumeric(rate.BuyRate), decimalPtrToNumeric(rate.SellRate),
		rate.EffectiveFrom, timePtrToPgTimestamptz(rate.EffectiveTo),
		rate.SetBy, rate.Notes,
	)
	if err != nil {
		return domain.WrapDatabase("create rate", err)
	}

	return nil
}

// CloseCurrent sets effective_to on an open row, ending its validity.
func (r *RateRepository) CloseCurrent(ctx context.Context, tx usecase.Transaction, rateID string, at time.Time) error {
	db := pick(r.pool, tx)

	query := `
		UPDATE exchange_rates
		SET effective_to = $2
		WHERE id = $1 AND effective_to IS NULL`

	tag, err := db.Exec(ctx, query, rateID, at)
	if err != nil {
		return domain.WrapDatabase("close rate", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRateNotFound
	}

	return nil
}

// CreateChange appends one audit record. Records are never modified.
func (r *RateRepository) CreateChange(ctx context.Context, tx usecase.Transaction, change *domain.RateChange) error {
	db := pick(r.pool, tx)

	query := `
		INSERT INTO rate_changes (
			id, rate_id, from_currency, to_currency,
			old_rate, old_buy_rate, old_sell_rate,
			new_rate, new_buy_rate, new_sell_rate,
			change_type, changed_by, changed_at, reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := db.Exec(ctx, query,
		change.ID, change.RateID, change.FromCurrency, change.ToCurrency,
		decimalPtrToNumeric(change.OldRate),
		decimalPtrToNumeric(change.OldBuyRate), decimalPtrToNumeric(change.OldSellRate),
		decimalToNumeric(change.NewRate),
		decimalPtrToNumeric(change.NewBuyRate), decimalPtrToNumeric(change.NewSellRate),
		change.ChangeType, change.ChangedBy, change.ChangedAt, change.Reason,
	)
	if err != nil {
		return domain.WrapDatabase("create rate change", err)
	}

	return nil
}

// History returns the pair's rate rows, current first.
func (r *RateRepository) History(ctx context.Context, from, to string, since, until *time.Time, limit, offset int) ([]*domain.ExchangeRate, error) {
	query := `SELECT ` + rateColumns + `
		FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2`

	args := []any{from, to}
	argPos := 3

	addArg := func(clause string, value any) {
		query += fmt.Sprintf(clause, argPos)
		args = append(args, value)
		argPos++
	}

	if since != nil {
		addArg(` AND effective_from >= $%d`, *since)
	}

	if until != nil {
		addArg(` AND effective_from <= $%d`, *until)
	}

	query += ` ORDER BY effective_from DESC`

	if limit > 0 {
		addArg(` LIMIT $%d`, limit)
	}

	if offset > 0 {
		addArg(` OFFSET $%d`, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapDatabase("list rate history", err)
	}
	defer rows.Close()

	var rates []*domain.ExchangeRate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, domain.WrapDatabase("scan rate", err)
		}

		rates = append(rates, rate)
	}

	return rates, rows.Err()
}

func scanRate(row pgx.Row) (*domain.ExchangeRate, error) {
	var (
		rate        domain.ExchangeRate
		value       pgtype.Numeric
		buyRate     pgtype.Numeric
		sellRate    pgtype.Numeric
		effectiveTo pgtype.Timestamptz
	)

	err := row.Scan(
		&rate.ID, &rate.FromCurrency, &rate.ToCurrency,
		&value, &buyRate, &sellRate,
		&rate.EffectiveFrom, &effectiveTo, &rate.SetBy, &rate.Notes,
	)
	if err != nil {
		return nil, err
	}

	rate.Rate = numericToDecimal(value)
	rate.BuyRate = numericPtrToDecimalPtr(buyRate)
	rate.SellRate = numericPtrToDecimalPtr(sellRate)
	rate.EffectiveTo = pgTimestamptzToTimePtr(effectiveTo)

	return &rate, nil
}
