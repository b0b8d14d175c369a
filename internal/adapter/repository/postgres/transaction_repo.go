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

// TransactionRepository implements usecase.TransactionRepository. The four
// transaction kinds share one table; each kind's payload lives in its own
// nullable column group.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `
	id, number, kind, status, amount, currency, branch_id, user_id,
	customer_id, reference_number, description,
	cancellation_reason, cancelled_by, cancelled_at, created_at, completed_at,
	income_category, income_source,
	expense_category, expense_payee, expense_approval_required,
	expense_approved_by, expense_approved_at,
	exchange_from_currency, exchange_to_currency, exchange_from_amount,
	exchange_to_amount, exchange_rate_used, exchange_commission_amount,
	exchange_commission_percentage,
	transfer_from_type, transfer_from_id, transfer_to_type, transfer_to_id,
	transfer_kind, transfer_received_by, transfer_received_at
`

// Create inserts a new transaction record.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	db := pick(r.pool, tx)

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
		        $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37)`

	_, err := db.Exec(ctx, query, transactionArgs(txn)...)
	if err != nil {
		return domain.WrapDatabase("create transaction", err)
	}

	return nil
}

// Update rewrites the mutable fields of an existing record.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	db := pick(r.pool, tx)

	query := `
		UPDATE transactions
		SET status = $2,
		    cancellation_reason = $3, cancelled_by = $4, cancelled_at = $5,
		    completed_at = $6,
		    expense_approved_by = $7, expense_approved_at = $8,
		    transfer_received_by = $9, transfer_received_at = $10
		WHERE id = $1`

	var (
		approvedBy pgtype.Text
		approvedAt pgtype.Timestamptz
		receivedBy pgtype.Text
		receivedAt pgtype.Timestamptz
	)

	if txn.Expense != nil {
		approvedBy = stringPtrToText(txn.Expense.ApprovedBy)
		approvedAt = timePtrToPgTimestamptz(txn.Expense.ApprovedAt)
	}

	if txn.Transfer != nil {
		receivedBy = stringPtrToText(txn.Transfer.ReceivedBy)
		receivedAt = timePtrToPgTimestamptz(txn.Transfer.ReceivedAt)
	}

	tag, err := db.Exec(ctx, query,
		txn.ID, txn.Status,
		stringPtrToText(txn.CancellationReason), stringPtrToText(txn.CancelledBy),
		timePtrToPgTimestamptz(txn.CancelledAt), timePtrToPgTimestamptz(txn.CompletedAt),
		approvedBy, approvedAt, receivedBy, receivedAt,
	)
	if err != nil {
		return domain.WrapDatabase("update transaction", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	return r.getOne(ctx, r.pool, query, id)
}

// GetByIDForUpdate retrieves a transaction by ID with a FOR UPDATE lock.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

	return r.getOne(ctx, pick(r.pool, tx), query, id)
}

// GetByNumber retrieves a transaction by its document number.
func (r *TransactionRepository) GetByNumber(ctx context.Context, number string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE number = $1`

	return r.getOne(ctx, r.pool, query, number)
}

// ReferenceExists checks reference-number uniqueness inside tx.
func (r *TransactionRepository) ReferenceExists(ctx context.Context, tx usecase.Transaction, reference string) (bool, error) {
	db := pick(r.pool, tx)

	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE reference_number = $1)`,
		reference,
	).Scan(&exists)
	if err != nil {
		return false, domain.WrapDatabase("check reference", err)
	}

	return exists, nil
}

// List retrieves transactions with filtering, newest first, plus the total
// count for the filter.
func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, int, error) {
	where, args := transactionWhere(filter)

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, domain.WrapDatabase("count transactions", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions` + where +
		` ORDER BY created_at DESC, id DESC`

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
		return nil, 0, domain.WrapDatabase("list transactions", err)
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, domain.WrapDatabase("scan transaction", err)
		}

		txns = append(txns, txn)
	}

	return txns, total, rows.Err()
}

// Stats aggregates transactions matching the filter in the database.
func (r *TransactionRepository) Stats(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionStats, error) {
	where, args := transactionWhere(filter)

	stats := &domain.TransactionStats{
		ByKind:          make(map[domain.TransactionKind]int),
		ByStatus:        make(map[domain.TransactionStatus]int),
		TotalByCurrency: make(map[string]decimal.Decimal),
	}

	query := `
		SELECT kind, status, currency, COUNT(*), COALESCE(SUM(amount), 0),
		       MIN(created_at), MAX(created_at)
		FROM transactions` + where + `
		GROUP BY kind, status, currency`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapDatabase("aggregate transactions", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind     domain.TransactionKind
			status   domain.TransactionStatus
			currency string
			count    int
			sum      pgtype.Numeric
			earliest pgtype.Timestamptz
			latest   pgtype.Timestamptz
		)

		if err := rows.Scan(&kind, &status, &currency, &count, &sum, &earliest, &latest); err != nil {
			return nil, domain.WrapDatabase("scan transaction stats", err)
		}

		stats.TotalCount += count
		stats.ByKind[kind] += count
		stats.ByStatus[status] += count
		stats.TotalByCurrency[currency] = stats.TotalByCurrency[currency].Add(numericToDecimal(sum))

		if t := pgTimestamptzToTimePtr(earliest); t != nil {
			if stats.EarliestRecorded == nil || t.Before(*stats.EarliestRecorded) {
				stats.EarliestRecorded = t
			}
		}

		if t := pgTimestamptzToTimePtr(latest); t != nil {
			if stats.LatestRecorded == nil || t.After(*stats.LatestRecorded) {
				stats.LatestRecorded = t
			}
		}
	}

	return stats, rows.Err()
}

func (r *TransactionRepository) getOne(ctx context.Context, db dbtx, query string, arg any) (*domain.Transaction, error) {
	txn, err := scanTransaction(db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, domain.WrapDatabase("get transaction", err)
	}

	return txn, nil
}

func transactionWhere(filter domain.TransactionFilter) (string, []any) {
	where := ` WHERE 1=1`
	args := []any{}
	argPos := 1

	add := func(clause string, value any) {
		where += fmt.Sprintf(clause, argPos)
		args = append(args, value)
		argPos++
	}

	if filter.Kind != "" {
		add(` AND kind = $%d`, filter.Kind)
	}

	if filter.Status != "" {
		add(` AND status = $%d`, filter.Status)
	}

	if filter.BranchID != "" {
		add(` AND branch_id = $%d`, filter.BranchID)
	}

	if filter.CustomerID != "" {
		add(` AND customer_id = $%d`, filter.CustomerID)
	}

	if filter.Currency != "" {
		add(` AND currency = $%d`, filter.Currency)
	}

	if filter.From != nil {
		add(` AND created_at >= $%d`, *filter.From)
	}

	if filter.To != nil {
		add(` AND created_at <= $%d`, *filter.To)
	}

	if filter.AmountMin != nil {
		add(` AND amount >= $%d`, decimalToNumeric(*filter.AmountMin))
	}

	if filter.AmountMax != nil {
		add(` AND amount <= $%d`, decimalToNumeric(*filter.AmountMax))
	}

	return where, args
}

func transactionArgs(txn *domain.Transaction) []any {
	args := []any{
		txn.ID, txn.Number, txn.Kind, txn.Status,
		decimalToNumeric(txn.Amount), txn.Currency, txn.BranchID, txn.UserID,
		stringPtrToText(txn.CustomerID), stringPtrToText(txn.ReferenceNumber), txn.Description,
		stringPtrToText(txn.CancellationReason), stringPtrToText(txn.CancelledBy),
		timePtrToPgTimestamptz(txn.CancelledAt), txn.CreatedAt,
		timePtrToPgTimestamptz(txn.CompletedAt),
	}

	var (
		incomeCategory, incomeSource         pgtype.Text
		expenseCategory, expensePayee        pgtype.Text
		expenseApprovalRequired              pgtype.Bool
		expenseApprovedBy                    pgtype.Text
		expenseApprovedAt                    pgtype.Timestamptz
		exchangeFrom, exchangeTo             pgtype.Text
		exchangeFromAmount, exchangeToAmount pgtype.Numeric
		exchangeRate, exchangeCommission     pgtype.Numeric
		exchangeCommissionPct                pgtype.Numeric
		transferFromType, transferFromID     pgtype.Text
		transferToType, transferToID         pgtype.Text
		transferKind, transferReceivedBy     pgtype.Text
		transferReceivedAt                   pgtype.Timestamptz
	)

	switch {
	case txn.Income != nil:
		incomeCategory = pgtype.Text{String: txn.Income.Category, Valid: true}
		incomeSource = pgtype.Text{String: txn.Income.Source, Valid: true}
	case txn.Expense != nil:
		expenseCategory = pgtype.Text{String: txn.Expense.Category, Valid: true}
		expensePayee = pgtype.Text{String: txn.Expense.Payee, Valid: true}
		expenseApprovalRequired = pgtype.Bool{Bool: txn.Expense.ApprovalRequired, Valid: true}
		expenseApprovedBy = stringPtrToText(txn.Expense.ApprovedBy)
		expenseApprovedAt = timePtrToPgTimestamptz(txn.Expense.ApprovedAt)
	case txn.Exchange != nil:
		exchangeFrom = pgtype.Text{String: txn.Exchange.FromCurrency, Valid: true}
		exchangeTo = pgtype.Text{String: txn.Exchange.ToCurrency, Valid: true}
		exchangeFromAmount = decimalToNumeric(txn.Exchange.FromAmount)
		exchangeToAmount = decimalToNumeric(txn.Exchange.ToAmount)
		exchangeRate = decimalToNumeric(txn.Exchange.RateUsed)
		exchangeCommission = decimalToNumeric(txn.Exchange.CommissionAmount)
		exchangeCommissionPct = decimalToNumeric(txn.Exchange.CommissionPercentage)
	case txn.Transfer != nil:
		transferFromType = pgtype.Text{String: string(txn.Transfer.From.Type), Valid: true}
		transferFromID = pgtype.Text{String: txn.Transfer.From.ID, Valid: true}
		transferToType = pgtype.Text{String: string(txn.Transfer.To.Type), Valid: true}
		transferToID = pgtype.Text{String: txn.Transfer.To.ID, Valid: true}
		transferKind = pgtype.Text{String: string(txn.Transfer.Kind), Valid: true}
		transferReceivedBy = stringPtrToText(txn.Transfer.ReceivedBy)
		transferReceivedAt = timePtrToPgTimestamptz(txn.Transfer.ReceivedAt)
	}

	return append(args,
		incomeCategory, incomeSource,
		expenseCategory, expensePayee, expenseApprovalRequired,
		expenseApprovedBy, expenseApprovedAt,
		exchangeFrom, exchangeTo, exchangeFromAmount,
		exchangeToAmount, exchangeRate, exchangeCommission,
		exchangeCommissionPct,
		transferFromType, transferFromID, transferToType, transferToID,
		transferKind, transferReceivedBy, transferReceivedAt,
	)
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t                         domain.Transaction
		amount                    pgtype.Numeric
		customerID                pgtype.Text
		reference                 pgtype.Text
		cancelReason, cancelledBy pgtype.Text
		cancelledAt, completedAt  pgtype.Timestamptz

		incomeCategory, incomeSource         pgtype.Text
		expenseCategory, expensePayee        pgtype.Text
		expenseApprovalRequired              pgtype.Bool
		expenseApprovedBy                    pgtype.Text
		expenseApprovedAt                    pgtype.Timestamptz
		exchangeFrom, exchangeTo             pgtype.Text
		exchangeFromAmount, exchangeToAmount pgtype.Numeric
		exchangeRate, exchangeCommission     pgtype.Numeric
		exchangeCommissionPct                pgtype.Numeric
		transferFromType, transferFromID     pgtype.Text
		transferToType, transferToID         pgtype.Text
		transferKind, transferReceivedBy     pgtype.Text
		transferReceivedAt                   pgtype.Timestamptz
	)

	err := row.Scan(
		&t.ID, &t.Number, &t.Kind, &t.Status, &amount, &t.Currency,
		&t.BranchID, &t.UserID, &customerID, &reference, &t.Description,
		&cancelReason, &cancelledBy, &cancelledAt, &t.CreatedAt, &completedAt,
		&incomeCategory, &incomeSource,
		&expenseCategory, &expensePayee, &expenseApprovalRequired,
		&expenseApprovedBy, &expenseApprovedAt,
		&exchangeFrom, &exchangeTo, &exchangeFromAmount,
		&exchangeToAmount, &exchangeRate, &exchangeCommission,
		&exchangeCommissionPct,
		&transferFromType, &transferFromID, &transferToType, &transferToID,
		&transferKind, &transferReceivedBy, &transferReceivedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Amount = numericToDecimal(amount)
	t.CustomerID = textToStringPtr(customerID)
	t.ReferenceNumber = textToStringPtr(reference)
	t.CancellationReason = textToStringPtr(cancelReason)
	t.CancelledBy = textToStringPtr(cancelledBy)
	t.CancelledAt = pgTimestamptzToTimePtr(cancelledAt)
	t.CompletedAt = pgTimestamptzToTimePtr(completedAt)

	switch t.Kind {
	case domain.KindIncome:
		t.Income = &domain.IncomeDetails{
			Category: incomeCategory.String,
			Source:   incomeSource.String,
		}
	case domain.KindExpense:
		t.Expense = &domain.ExpenseDetails{
			Category:         expenseCategory.String,
			Payee:            expensePayee.String,
			ApprovalRequired: expenseApprovalRequired.Bool,
			ApprovedBy:       textToStringPtr(expenseApprovedBy),
			ApprovedAt:       pgTimestamptzToTimePtr(expenseApprovedAt),
		}
	case domain.KindExchange:
		t.Exchange = &domain.ExchangeDetails{
			FromCurrency:         exchangeFrom.String,
			ToCurrency:           exchangeTo.String,
			FromAmount:           numericToDecimal(exchangeFromAmount),
			ToAmount:             numericToDecimal(exchangeToAmount),
			RateUsed:             numericToDecimal(exchangeRate),
			CommissionAmount:     numericToDecimal(exchangeCommission),
			CommissionPercentage: numericToDecimal(exchangeCommissionPct),
		}
	case domain.KindTransfer:
		t.Transfer = &domain.TransferDetails{
			From:       domain.Owner{Type: domain.OwnerType(transferFromType.String), ID: transferFromID.String},
			To:         domain.Owner{Type: domain.OwnerType(transferToType.String), ID: transferToID.String},
			Kind:       domain.TransferKind(transferKind.String),
			ReceivedBy: textToStringPtr(transferReceivedBy),
			ReceivedAt: pgTimestamptzToTimePtr(transferReceivedAt),
		}
	}

	return &t, nil
}
