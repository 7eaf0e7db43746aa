package ledger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corventa/finance-ledger/internal/domain/account"
	"github.com/corventa/finance-ledger/internal/domain/audit"
	"github.com/corventa/finance-ledger/internal/domain/transaction"
	"github.com/corventa/finance-ledger/internal/platform/persistence"
)

// Accounts provisions accounts and serves account reads.
type Accounts struct {
	runner       persistence.TxRunner
	accounts     account.Repository
	transactions transaction.Repository
	audits       audit.Repository
	logger       *slog.Logger
}

// NewAccounts creates the account service
func NewAccounts(
	runner persistence.TxRunner,
	accounts account.Repository,
	transactions transaction.Repository,
	audits audit.Repository,
	logger *slog.Logger,
) *Accounts {
	return &Accounts{
		runner:       runner,
		accounts:     accounts,
		transactions: transactions,
		audits:       audits,
		logger:       logger,
	}
}

var _ AccountService = (*Accounts)(nil)

// CreateAccount provisions a new account with a zero balance. Marking it the
// default clears the flag from the currency's previous default in the same
// transaction. The row is always inserted without the flag and promoted by
// SetDefault afterwards, so the one-default-per-currency index never sees
// two defaults at once.
func (s *Accounts) CreateAccount(ctx context.Context, req CreateAccountRequest) (*account.Account, error) {
	acc, err := account.NewAccount(req.Name, req.Type, req.Currency, false)
	if err != nil {
		return nil, err
	}

	err = s.runner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accounts := s.accounts.WithTx(tx)
		if err := accounts.Create(ctx, acc); err != nil {
			return err
		}
		if req.IsDefault {
			if err := accounts.SetDefault(ctx, acc.ID, acc.Currency); err != nil {
				return err
			}
			acc.IsDefault = true
		}

		event, err := audit.NewEvent(req.Actor, audit.ActionAccountCreated, "account", acc.ID.String(), acc)
		if err != nil {
			return err
		}
		return s.audits.WithTx(tx).Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Created account",
		"account_id", acc.ID.String(),
		"currency", acc.Currency,
		"type", string(acc.Type),
	)
	return acc, nil
}

// GetAccount reads an account. Reads are allowed regardless of the active flag.
func (s *Accounts) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// ListTransactions returns a page of the account's history, newest first,
// with the total count for pagination.
func (s *Accounts) ListTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, int64, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, 0, err
	}

	items, err := s.transactions.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transactions.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
