package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corventa/finance-ledger/internal/domain/audit"
)

func TestAuditRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AuditRepository{querier: mock, logger: logger}

	event, err := audit.NewEvent("alice", audit.ActionTransactionPosted, "transaction", "TRX-00000001", map[string]string{"code": "TRX-00000001"})
	require.NoError(t, err)

	query := `
		INSERT INTO audit_events \(actor, action, entity_type, entity_id, payload, status, attempts, created_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8\)
		RETURNING id
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(event.Actor, event.Action, event.EntityType, event.EntityID, event.Payload, event.Status, event.Attempts, event.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

		err := repo.Create(ctx, event)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), event.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("insert db error")
		mock.ExpectQuery(query).
			WithArgs(event.Actor, event.Action, event.EntityType, event.EntityID, event.Payload, event.Status, event.Attempts, event.CreatedAt).
			WillReturnError(dbErr)

		err := repo.Create(ctx, event)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create audit event")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuditRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AuditRepository{querier: mock, logger: logger}
	now := time.Now()

	query := `
		SELECT id, actor, action, entity_type, entity_id, payload, status, attempts, created_at, last_attempt_at
		FROM audit_events
		WHERE status = \$1
		ORDER BY created_at ASC
		LIMIT \$2
	`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "actor", "action", "entity_type", "entity_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}).
			AddRow(int64(1), "alice", audit.ActionTransactionPosted, "transaction", "TRX-00000001", []byte(`{}`), audit.PublishStatusPending, 0, now, (*time.Time)(nil)).
			AddRow(int64(2), "bob", audit.ActionTransactionCancelled, "transaction", "TRX-00000002", []byte(`{}`), audit.PublishStatusPending, 1, now, &now)

		mock.ExpectQuery(query).
			WithArgs(audit.PublishStatusPending, 10).
			WillReturnRows(rows)

		events, err := repo.GetPending(ctx, 10)
		assert.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, int64(1), events[0].ID)
		assert.Equal(t, audit.ActionTransactionCancelled, events[1].Action)
		assert.Equal(t, 1, events[1].Attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("query db error")
		mock.ExpectQuery(query).
			WithArgs(audit.PublishStatusPending, 10).
			WillReturnError(dbErr)

		events, err := repo.GetPending(ctx, 10)
		assert.Error(t, err)
		assert.Nil(t, events)
		assert.Contains(t, err.Error(), "failed to get pending audit events")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuditRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AuditRepository{querier: mock, logger: logger}

	query := `
		UPDATE audit_events
		SET status = \$1, last_attempt_at = \$2
		WHERE id = \$3
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(audit.PublishStatusProcessed, pgxmock.AnyArg(), int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(ctx, 1, audit.PublishStatusProcessed)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(audit.PublishStatusProcessed, pgxmock.AnyArg(), int64(99)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(ctx, 99, audit.PublishStatusProcessed)
		assert.Error(t, err)
		var notFoundErr audit.ErrEventNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuditRepository_IncrementAttempts(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AuditRepository{querier: mock, logger: logger}

	query := `
		UPDATE audit_events
		SET attempts = attempts \+ 1, last_attempt_at = \$1
		WHERE id = \$2
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.IncrementAttempts(ctx, 1)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), int64(99)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.IncrementAttempts(ctx, 99)
		assert.Error(t, err)
		var notFoundErr audit.ErrEventNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
