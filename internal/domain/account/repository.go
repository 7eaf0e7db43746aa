package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines account persistence operations. It is the only
// component permitted to read-modify-write an account's balance.
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	ListByCurrency(ctx context.Context, currency string) ([]*Account, error)

	// LockForUpdate acquires a row lock on the account for the duration of
	// the surrounding transaction and returns its current state.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)

	// AdjustBalance atomically adds delta (positive or negative) to the
	// account's balance server-side and returns the resulting value. The
	// read-modify-write never happens in application memory.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)

	// SetDefault marks the account as its currency's default, clearing the
	// flag from any previous holder in the same transaction.
	SetDefault(ctx context.Context, id uuid.UUID, currency string) error

	WithTx(tx pgx.Tx) Repository
}
