package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corventa/finance-ledger/internal/domain/transaction"
	"github.com/corventa/finance-ledger/internal/platform/persistence"
)

const transactionColumns = `id, code, type, status, account_id, destination_account_id,
		amount, currency, exchange_rate, base_amount, destination_amount, direction,
		transaction_date, category, description, reference, counterparty,
		counterparty_document, payment_method, notes, reconciled_by, reconciled_at,
		created_by, created_at, updated_at`

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new transaction record. The record is immutable except for
// its status and reconciliation fields; the column set is written once here.
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`

	_, err := r.querier.Exec(ctx, query,
		txn.ID,
		txn.Code,
		txn.Type,
		txn.Status,
		txn.AccountID,
		txn.DestinationAccountID,
		txn.Amount,
		txn.Currency,
		txn.ExchangeRate,
		txn.BaseAmount,
		txn.DestinationAmount,
		txn.Direction,
		txn.TransactionDate,
		txn.Category,
		txn.Description,
		txn.Reference,
		txn.Counterparty,
		txn.CounterpartyDocument,
		txn.PaymentMethod,
		txn.Notes,
		txn.ReconciledBy,
		txn.ReconciledAt,
		txn.CreatedBy,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create transaction", "code", txn.Code, "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *TransactionRepository) scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var txn transaction.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.Code,
		&txn.Type,
		&txn.Status,
		&txn.AccountID,
		&txn.DestinationAccountID,
		&txn.Amount,
		&txn.Currency,
		&txn.ExchangeRate,
		&txn.BaseAmount,
		&txn.DestinationAmount,
		&txn.Direction,
		&txn.TransactionDate,
		&txn.Category,
		&txn.Description,
		&txn.Reference,
		&txn.Counterparty,
		&txn.CounterpartyDocument,
		&txn.PaymentMethod,
		&txn.Notes,
		&txn.ReconciledBy,
		&txn.ReconciledAt,
		&txn.CreatedBy,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
	`

	txn, err := r.scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// LockForUpdate obtains a pessimistic lock on the transaction row and returns
// its current state. Must be called within a transaction; it keeps lifecycle
// operations from racing each other.
func (r *TransactionRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`

	txn, err := r.scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to lock transaction for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock transaction for update: %w", err)
	}

	return txn, nil
}

// UpdateStatus performs a conditional status change guarded by the expected
// current status. Zero rows affected means the row moved underneath and the
// caller gets ErrConcurrencyConflict.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to transaction.Status) error {
	query := `
		UPDATE transactions
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.querier.Exec(ctx, query, to, id, from)
	if err != nil {
		r.logger.Error("Failed to update transaction status",
			"id", id.String(),
			"from", string(from),
			"to", string(to),
			"error", err,
		)
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrConcurrencyConflict{TransactionID: id}
	}

	return nil
}

// MarkReconciled sets the RECONCILED status together with the reconciler
// identity and timestamp, conditional on the expected current status.
func (r *TransactionRepository) MarkReconciled(ctx context.Context, id uuid.UUID, actor string, at time.Time, from transaction.Status) error {
	query := `
		UPDATE transactions
		SET status = $1, reconciled_by = $2, reconciled_at = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
	`

	result, err := r.querier.Exec(ctx, query, transaction.StatusReconciled, actor, at, id, from)
	if err != nil {
		r.logger.Error("Failed to mark transaction reconciled", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark transaction reconciled: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrConcurrencyConflict{TransactionID: id}
	}

	return nil
}

// ListByAccount retrieves transactions touching the account as source or
// destination, newest first, with limit/offset pagination.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 OR destination_account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list transactions", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		txn, err := r.scanTransaction(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction", "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transactions", "error", err)
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}

	return transactions, nil
}

// CountByAccount returns the total number of transactions touching the
// account, for pagination metadata.
func (r *TransactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE account_id = $1 OR destination_account_id = $1
	`

	var count int64
	err := r.querier.QueryRow(ctx, query, accountID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count transactions", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}
