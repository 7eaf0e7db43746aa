package audit

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository defines audit event persistence operations
type Repository interface {
	// Create stores a new pending event; it must be called with the same
	// transaction as the business mutation it records.
	Create(ctx context.Context, event *Event) error

	// GetPending retrieves a batch of unpublished events in FIFO order.
	GetPending(ctx context.Context, limit int) ([]*Event, error)

	UpdateStatus(ctx context.Context, id int64, status PublishStatus) error
	IncrementAttempts(ctx context.Context, id int64) error

	WithTx(tx pgx.Tx) Repository
}
