package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines transaction persistence operations
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// LockForUpdate acquires a row lock on the transaction record so the
	// lifecycle check-and-set cannot race a concurrent cancel/reconcile.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// UpdateStatus performs a conditional status change (WHERE status = from).
	// Returns ErrConcurrencyConflict when the row moved underneath.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error

	// MarkReconciled sets RECONCILED plus the reconciler identity and
	// timestamp, conditional on the current status.
	MarkReconciled(ctx context.Context, id uuid.UUID, actor string, at time.Time, from Status) error

	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Transaction, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	WithTx(tx pgx.Tx) Repository
}

// CodeGenerator produces unique, sortable, human-readable transaction
// codes from a monotonic sequence.
type CodeGenerator interface {
	Next(ctx context.Context) (string, error)
	WithTx(tx pgx.Tx) CodeGenerator
}
