package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/usecase"
)

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	pool *pgxpool.Pool
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return &BalanceRepository{pool: pool}
}

const balanceColumns = `
	owner_type, owner_id, currency, balance, reserved,
	min_threshold, max_threshold, last_updated,
	last_reconciled_at, last_reconciled_by
`

// Get returns the row, or a zeroed snapshot when the pair was never touched.
// The persistent row is only materialized by GetForUpdate.
func (r *BalanceRepository) Get(ctx context.Context, owner domain.Owner, currency string) (*domain.Balance, error) {
	query := `SELECT ` + balanceColumns + `
		FROM balances
		WHERE owner_type = $1 AND owner_id = $2 AND currency = $3`

	balance, err := scanBalance(r.pool.QueryRow(ctx, query, owner.Type, owner.ID, currency))
	if errors.Is(err, pgx.ErrNoRows) {
		return zeroBalance(owner, currency), nil
	}
	if err != nil {
		return nil, domain.WrapDatabase("get balance", err)
	}

	return balance, nil
}

// GetForUpdate locks the row FOR UPDATE, inserting a zeroed row first when
// the pair is new so there is always something to lock.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, owner domain.Owner, currency string) (*domain.Balance, error) {
	db := pick(r.pool, tx)

	insert := `
		INSERT INTO balances (owner_type, owner_id, currency, balance, reserved, last_updated)
		VALUES ($1, $2, $3, 0, 0, $4)
		ON CONFLICT (owner_type, owner_id, currency) DO NOTHING`

	if _, err := db.Exec(ctx, insert, owner.Type, owner.ID, currency, time.Now().UTC()); err != nil {
		return nil, domain.WrapDatabase("materialize balance", err)
	}

	query := `SELECT ` + balanceColumns + `
		FROM balances
		WHERE owner_type = $1 AND owner_id = $2 AND currency = $3
		FOR UPDATE`

	balance, err := scanBalance(db.QueryRow(ctx, query, owner.Type, owner.ID, currency))
	if err != nil {
		return nil, domain.WrapDatabase("lock balance", err)
	}

	return balance, nil
}

// UpdateAmounts persists new balance and reserved values.
func (r *BalanceRepository) UpdateAmounts(ctx context.Context, tx usecase.Transaction, owner domain.Owner, currency string, balance, reserved decimal.Decimal, updatedAt time.Time) error {
	db := pick(r.pool, tx)

	query := `
		UPDATE balances
		SET balance = $4, reserved = $5, last_updated = $6
		WHERE owner_type = $1 AND owner_id = $2 AND currency = $3`

	tag, err := db.Exec(ctx, query,
		owner.Type, owner.ID, currency,
		decimalToNumeric(balance), decimalToNumeric(reserved), updatedAt,
	)
	if err != nil {
		return domain.WrapDatabase("update balance", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrOwnerNotFound
	}

	return nil
}

// SetReconciled stamps the reconciliation audit fields.
func (r *BalanceRepository) SetReconciled(ctx context.Context, tx usecase.Transaction, owner domain.Owner, currency string, at time.Time, by string) error {
	db := pick(r.pool, tx)

	query := `
		UPDATE balances
		SET last_reconciled_at = $4, last_reconciled_by = $5
		WHERE owner_type = $1 AND owner_id = $2 AND currency = $3`

	if _, err := db.Exec(ctx, query, owner.Type, owner.ID, currency, at, by); err != nil {
		return domain.WrapDatabase("stamp reconciliation", err)
	}

	return nil
}

// ListByOwner returns all currency rows held by one owner.
func (r *BalanceRepository) ListByOwner(ctx context.Context, owner domain.Owner) ([]*domain.Balance, error) {
	query := `SELECT ` + balanceColumns + `
		FROM balances
		WHERE owner_type = $1 AND owner_id = $2
		ORDER BY currency`

	rows, err := r.pool.Query(ctx, query, owner.Type, owner.ID)
	if err != nil {
		return nil, domain.WrapDatabase("list balances", err)
	}
	defer rows.Close()

	var balances []*domain.Balance
	for rows.Next() {
		balance, err := scanBalance(rows)
		if err != nil {
			return nil, domain.WrapDatabase("scan balance", err)
		}

		balances = append(balances, balance)
	}

	return balances, rows.Err()
}

func zeroBalance(owner domain.Owner, currency string) *domain.Balance {
	return &domain.Balance{
		OwnerType: owner.Type,
		OwnerID:   owner.ID,
		Currency:  currency,
		Balance:   decimal.Zero,
		Reserved:  decimal.Zero,
	}
}

func scanBalance(row pgx.Row) (*domain.Balance, error) {
	var (
		b            domain.Balance
		balance      pgtype.Numeric
		reserved     pgtype.Numeric
		minThreshold pgtype.Numeric
		maxThreshold pgtype.Numeric
		reconciledAt pgtype.Timestamptz
		reconciledBy pgtype.Text
	)

	err := row.Scan(
		&b.OwnerType, &b.OwnerID, &b.Currency,
		&balance, &reserved, &minThreshold, &maxThreshold,
		&b.LastUpdated, &reconciledAt, &reconciledBy,
	)
	if err != nil {
		return nil, err
	}

	b.Balance = numericToDecimal(balance)
	b.Reserved = numericToDecimal(reserved)
	b.MinThreshold = numericPtrToDecimalPtr(minThreshold)
	b.MaxThreshold = numericPtrToDecimalPtr(maxThreshold)
	b.LastReconciledAt = pgTimestamptzToTimePtr(reconciledAt)
	b.LastReconciledBy = textToStringPtr(reconciledBy)

	return &b, nil
}
