// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the ledger.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/corventa/finance-ledger/internal/domain/account"
	"github.com/corventa/finance-ledger/internal/platform/persistence"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new account. The partial unique index on (currency) for
// default accounts surfaces a constraint error when a second default is
// inserted for the same currency.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (id, name, account_type, currency, balance, active, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.Name,
		acc.Type,
		acc.Currency,
		acc.Balance,
		acc.Active,
		acc.IsDefault,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create account", "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `
		SELECT id, name, account_type, currency, balance, active, is_default, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&acc.ID,
		&acc.Name,
		&acc.Type,
		&acc.Currency,
		&acc.Balance,
		&acc.Active,
		&acc.IsDefault,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// ListByCurrency retrieves every account denominated in the given currency,
// default account first.
func (r *AccountRepository) ListByCurrency(ctx context.Context, currency string) ([]*account.Account, error) {
	query := `
		SELECT id, name, account_type, currency, balance, active, is_default, created_at, updated_at
		FROM accounts
		WHERE currency = $1
		ORDER BY is_default DESC, created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, currency)
	if err != nil {
		r.logger.Error("Failed to list accounts", "currency", currency, "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		var acc account.Account
		err := rows.Scan(
			&acc.ID,
			&acc.Name,
			&acc.Type,
			&acc.Currency,
			&acc.Balance,
			&acc.Active,
			&acc.IsDefault,
			&acc.CreatedAt,
			&acc.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan account", "error", err)
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &acc)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over accounts", "error", err)
		return nil, fmt.Errorf("error iterating over accounts: %w", err)
	}

	return accounts, nil
}

// LockForUpdate obtains a pessimistic lock on the account and returns its
// current state. Must be called within a transaction.
func (r *AccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `
		SELECT id, name, account_type, currency, balance, active, is_default, created_at, updated_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&acc.ID,
		&acc.Name,
		&acc.Type,
		&acc.Currency,
		&acc.Balance,
		&acc.Active,
		&acc.IsDefault,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to lock account for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock account for update: %w", err)
	}

	return &acc, nil
}

// AdjustBalance atomically adds delta to the account balance server-side and
// returns the resulting balance. The increment happens inside the UPDATE so
// application memory never holds a read-modify-write window.
func (r *AccountRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING balance
	`

	var balance decimal.Decimal
	err := r.querier.QueryRow(ctx, query, delta, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to adjust account balance", "id", id.String(), "error", err)
		return decimal.Zero, fmt.Errorf("failed to adjust account balance: %w", err)
	}

	return balance, nil
}

// SetDefault marks the account as its currency's default, clearing the flag
// from any previous holder. Must be called within a transaction so both
// updates land atomically.
func (r *AccountRepository) SetDefault(ctx context.Context, id uuid.UUID, currency string) error {
	clearQuery := `
		UPDATE accounts
		SET is_default = FALSE, updated_at = NOW()
		WHERE currency = $1 AND is_default AND id <> $2
	`
	if _, err := r.querier.Exec(ctx, clearQuery, currency, id); err != nil {
		r.logger.Error("Failed to clear previous default account", "currency", currency, "error", err)
		return fmt.Errorf("failed to clear previous default account: %w", err)
	}

	setQuery := `
		UPDATE accounts
		SET is_default = TRUE, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.querier.Exec(ctx, setQuery, id)
	if err != nil {
		r.logger.Error("Failed to set default account", "id", id.String(), "error", err)
		return fmt.Errorf("failed to set default account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: id}
	}

	return nil
}
