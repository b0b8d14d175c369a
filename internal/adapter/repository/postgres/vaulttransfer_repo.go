package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/oyal/treasury/internal/domain"
	"github.com/oyal/treasury/internal/usecase"
)

// VaultTransferRepository implements usecase.VaultTransferRepository.
type VaultTransferRepository struct {
	pool *pgxpool.Pool
}

// NewVaultTransferRepository creates a new VaultTransferRepository.
func NewVaultTransferRepository(pool *pgxpool.Pool) *VaultTransferRepository {
	return &VaultTransferRepository{pool: pool}
}

const vaultTransferColumns = `
	id, number, kind, from_type, from_id, to_type, to_id,
	currency, amount, status, notes, rejection_reason,
	initiated_by, initiated_at, approved_by, approved_at,
	received_by, completed_at, cancelled_at
`

// Create inserts a new vault transfer.
func (r *VaultTransferRepository) Create(ctx context.Context, tx usecase.Transaction, vt *domain.VaultTransfer) error {
	db := pick(r.pool, tx)

	query := `
		INSERT INTO vault_transfers (` + vaultTransferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19)`

	_, err := db.Exec(ctx, query,
		vt.ID, vt.Number, vt.Kind,
		vt.From.Type, vt.From.ID, vt.To.Type, vt.To.ID,
		vt.Currency, decimalToNumeric(vt.Amount), vt.Status, vt.Notes,
		stringPtrToText(vt.RejectionReason),
		vt.InitiatedBy, vt.InitiatedAt,
		stringPtrToText(vt.ApprovedBy), timePtrToPgTimestamptz(vt.ApprovedAt),
		stringPtrToText(vt.ReceivedBy), timePtrToPgTimestamptz(vt.CompletedAt),
		timePtrToPgTimestamptz(vt.CancelledAt),
	)
	if err != nil {
		return domain.WrapDatabase("create vault transfer", err)
	}

	return nil
}

// Update rewrites the workflow fields of an existing transfer.
func (r *VaultTransferRepository) Update(ctx context.Context, tx usecase.Transaction, vt *domain.VaultTransfer) error {
	db := pick(r.pool, tx)

	query := `
		UPDATE vault_transfers
		SET status = $2, rejection_reason = $3,
		    approved_by = $4, approved_at = $5,
		    received_by = $6, completed_at = $7, cancelled_at = $8
		WHERE id = $1`

	tag, err := db.Exec(ctx, query,
		vt.ID, vt.Status, stringPtrToText(vt.RejectionReason),
		stringPtrToText(vt.ApprovedBy), timePtrToPgTimestamptz(vt.ApprovedAt),
		stringPtrToText(vt.ReceivedBy), timePtrToPgTimestamptz(vt.CompletedAt),
		timePtrToPgTimestamptz(vt.CancelledAt),
	)
	if err != nil {
		return domain.WrapDatabase("update vault transfer", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrVaultTransferNotFound
	}

	return nil
}

// GetByID retrieves a vault transfer by ID.
func (r *VaultTransferRepository) GetByID(ctx context.Context, id string) (*domain.VaultTransfer, error) {
	query := `SELECT ` + vaultTransferColumns + ` FROM vault_transfers WHERE id = $1`

	vt, err := scanVaultTransfer(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrVaultTransferNotFound
	}
	if err != nil {
		return nil, domain.WrapDatabase("get vault transfer", err)
	}

	return vt, nil
}

// GetByIDForUpdate retrieves a vault transfer with a FOR UPDATE lock.
func (r *VaultTransferRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.VaultTransfer, error) {
	db := pick(r.pool, tx)

	query := `SELECT ` + vaultTransferColumns + ` FROM vault_transfers WHERE id = $1 FOR UPDATE`

	vt, err := scanVaultTransfer(db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrVaultTransferNotFound
	}
	if err != nil {
		return nil, domain.WrapDatabase("lock vault transfer", err)
	}

	return vt, nil
}

// List retrieves vault transfers with filtering, newest first, plus the
// total count for the filter.
func (r *VaultTransferRepository) List(ctx context.Context, filter domain.VaultTransferFilter) ([]*domain.VaultTransfer, int, error) {
	where, args := vaultTransferWhere(filter)

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM vault_transfers`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, domain.WrapDatabase("count vault transfers", err)
	}

	query := `SELECT ` + vaultTransferColumns + ` FROM vault_transfers` + where +
		` ORDER BY initiated_at DESC, id DESC`

	argPos := len(args) + 1
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argPos)
		args = append(args, filter.Limit)
		argPos++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argPos)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, domain.WrapDatabase("list vault transfers", err)
	}
	defer rows.Close()

	var transfers []*domain.VaultTransfer
	for rows.Next() {
		vt, err := scanVaultTransfer(rows)
		if err != nil {
			return nil, 0, domain.WrapDatabase("scan vault transfer", err)
		}

		transfers = append(transfers, vt)
	}

	return transfers, total, rows.Err()
}

// Stats aggregates vault transfers matching the filter, including directional
// pending counts when the filter names a vault.
func (r *VaultTransferRepository) Stats(ctx context.Context, filter domain.VaultTransferFilter) (*domain.VaultTransferStats, error) {
	where, args := vaultTransferWhere(filter)

	stats := &domain.VaultTransferStats{
		ByStatus:       make(map[domain.VaultTransferStatus]int),
		CompletedTotal: decimal.Zero,
		AverageAmount:  decimal.Zero,
	}

	query := `
		SELECT status, COUNT(*), COALESCE(SUM(amount), 0), COALESCE(AVG(amount), 0)
		FROM vault_transfers` + where + `
		GROUP BY status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapDatabase("aggregate vault transfers", err)
	}
	defer rows.Close()

	totalAmount := decimal.Zero

	for rows.Next() {
		var (
			status domain.VaultTransferStatus
			count  int
			sum    pgtype.Numeric
			avg    pgtype.Numeric
		)

		if err := rows.Scan(&status, &count, &sum, &avg); err != nil {
			return nil, domain.WrapDatabase("scan vault transfer stats", err)
		}

		stats.TotalCount += count
		stats.ByStatus[status] = count
		totalAmount = totalAmount.Add(numericToDecimal(sum))

		if status == domain.VaultTransferCompleted {
			stats.CompletedTotal = numericToDecimal(sum)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, domain.WrapDatabase("aggregate vault transfers", err)
	}

	if stats.TotalCount > 0 {
		stats.AverageAmount = totalAmount.DivRound(decimal.NewFromInt(int64(stats.TotalCount)), domain.MoneyScale)
	}

	if filter.VaultID != "" {
		if err := r.pendingCounts(ctx, filter.VaultID, stats); err != nil {
			return nil, err
		}
	}

	return stats, nil
}

func (r *VaultTransferRepository) pendingCounts(ctx context.Context, vaultID string, stats *domain.VaultTransferStats) error {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE to_id = $1),
			COUNT(*) FILTER (WHERE from_id = $1)
		FROM vault_transfers
		WHERE status = $2 AND (from_id = $1 OR to_id = $1)`

	err := r.pool.QueryRow(ctx, query, vaultID, domain.VaultTransferPending).
		Scan(&stats.PendingIn, &stats.PendingOut)
	if err != nil {
		return domain.WrapDatabase("count pending vault transfers", err)
	}

	return nil
}

func vaultTransferWhere(filter domain.VaultTransferFilter) (string, []any) {
	where := ` WHERE 1=1`
	args := []any{}
	argPos := 1

	add := func(clause string, value any) {
		where += fmt.Sprintf(clause, argPos)
		args = append(args, value)
		argPos++
	}

	if filter.VaultID != "" {
		add(` AND (from_id = $%d OR to_id = $%[1]d)`, filter.VaultID)
	}

	if filter.BranchID != "" {
		add(` AND ((from_type = 'branch' AND from_id = $%d) OR (to_type = 'branch' AND to_id = $%[1]d))`, filter.BranchID)
	}

	if filter.Status != "" {
		add(` AND status = $%d`, filter.Status)
	}

	if filter.From != nil {
		add(` AND initiated_at >= $%d`, *filter.From)
	}

	if filter.To != nil {
		add(` AND initiated_at <= $%d`, *filter.To)
	}

	return where, args
}

func scanVaultTransfer(row pgx.Row) (*domain.VaultTransfer, error) {
	var (
		vt              domain.VaultTransfer
		amount          pgtype.Numeric
		rejectionReason pgtype.Text
		approvedBy      pgtype.Text
		approvedAt      pgtype.Timestamptz
		receivedBy      pgtype.Text
		completedAt     pgtype.Timestamptz
		cancelledAt     pgtype.Timestamptz
	)

	err := row.Scan(
		&vt.ID, &vt.Number, &vt.Kind,
		&vt.From.Type, &vt.From.ID, &vt.To.Type, &vt.To.ID,
		&vt.Currency, &amount, &vt.Status, &vt.Notes, &rejectionReason,
		&vt.InitiatedBy, &vt.InitiatedAt, &approvedBy, &approvedAt,
		&receivedBy, &completedAt, &cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	vt.Amount = numericToDecimal(amount)
	vt.RejectionReason = textToStringPtr(rejectionReason)
	vt.ApprovedBy = textToStringPtr(approvedBy)
	vt.ApprovedAt = pgTimestamptzToTimePtr(approvedAt)
	vt.ReceivedBy = textToStringPtr(receivedBy)
	vt.CompletedAt = pgTimestamptzToTimePtr(completedAt)
	vt.CancelledAt = pgTimestamptzToTimePtr(cancelledAt)

	return &vt, nil
}
