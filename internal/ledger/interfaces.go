// Package ledger contains the posting, transfer, and lifecycle engines.
// Every balance mutation in the system goes through this package and commits
// inside a single database transaction.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corventa/finance-ledger/internal/domain/account"
	"github.com/corventa/finance-ledger/internal/domain/transaction"
)

// PostRequest describes an INCOME, EXPENSE, or ADJUSTMENT posting. The
// amount is denominated in the target account's currency; the exchange rate
// converts it to the configured base currency (zero means 1).
type PostRequest struct {
	Type      transaction.TxType
	AccountID uuid.UUID
	Amount    decimal.Decimal
	// Currency is optional; when set it must match the account's currency,
	// otherwise the posting is rejected.
	Currency     string
	ExchangeRate decimal.Decimal
	Direction    transaction.Direction // ADJUSTMENT only
	Date         time.Time
	Meta         transaction.Metadata
	Actor        string
}

// TransferRequest describes a TRANSFER posting. The amount is denominated in
// the source account's currency; the exchange rate converts it to the
// destination account's currency and is always explicit, never inferred.
type TransferRequest struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	// Currency is optional; when set it must match the source account's
	// currency.
	Currency     string
	ExchangeRate decimal.Decimal
	Date         time.Time
	Meta         transaction.Metadata
	Actor        string
}

// CreateAccountRequest describes account provisioning input.
type CreateAccountRequest struct {
	Name      string
	Type      account.Type
	Currency  string
	IsDefault bool
	Actor     string
}

// Poster posts new transactions.
type Poster interface {
	PostSimple(ctx context.Context, req PostRequest) (*transaction.Transaction, error)
	PostTransfer(ctx context.Context, req TransferRequest) (*transaction.Transaction, error)
}

// LifecycleManager drives the confirm, cancel, reconcile state machine.
type LifecycleManager interface {
	Cancel(ctx context.Context, id uuid.UUID, actor string) (*transaction.Transaction, error)
	Reconcile(ctx context.Context, id uuid.UUID, actor string) (*transaction.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
}

// AccountService provisions and reads accounts.
type AccountService interface {
	CreateAccount(ctx context.Context, req CreateAccountRequest) (*account.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, int64, error)
}
