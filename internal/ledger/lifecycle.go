package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corventa/finance-ledger/internal/domain/account"
	"github.com/corventa/finance-ledger/internal/domain/audit"
	"github.com/corventa/finance-ledger/internal/domain/transaction"
	"github.com/corventa/finance-ledger/internal/platform/metrics"
	"github.com/corventa/finance-ledger/internal/platform/persistence"
)

// Lifecycle drives the cancel and reconcile operations. Both lock the
// transaction row first, then perform a conditional status update, so two
// concurrent lifecycle calls on the same record cannot both win.
type Lifecycle struct {
	runner       persistence.TxRunner
	accounts     account.Repository
	transactions transaction.Repository
	audits       audit.Repository
	collector    *metrics.Collector
	logger       *slog.Logger
}

// NewLifecycle creates the lifecycle manager
func NewLifecycle(
	runner persistence.TxRunner,
	accounts account.Repository,
	transactions transaction.Repository,
	audits audit.Repository,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Lifecycle {
	return &Lifecycle{
		runner:       runner,
		accounts:     accounts,
		transactions: transactions,
		audits:       audits,
		collector:    collector,
		logger:       logger,
	}
}

var _ LifecycleManager = (*Lifecycle)(nil)

// Cancel reverses the transaction's balance effect (both legs for a
// TRANSFER) and moves it to CANCELLED, all in one database transaction. A
// RECONCILED record is immutable and fails with ErrAlreadyReconciled.
func (l *Lifecycle) Cancel(ctx context.Context, id uuid.UUID, actor string) (*transaction.Transaction, error) {
	var cancelled *transaction.Transaction
	err := l.runner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		transactions := l.transactions.WithTx(tx)

		txn, err := transactions.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if txn.Status == transaction.StatusReconciled {
			return transaction.ErrAlreadyReconciled{TransactionID: txn.ID.String()}
		}
		if !txn.Status.CanTransitionTo(transaction.StatusCancelled) {
			return transaction.ErrInvalidStateTransition{From: txn.Status, To: transaction.StatusCancelled}
		}

		// Only CONFIRMED postings have applied a balance effect.
		if txn.Status == transaction.StatusConfirmed {
			accounts := l.accounts.WithTx(tx)
			if txn.Type == transaction.TypeTransfer && txn.DestinationAccountID != nil {
				src, dst, err := lockPair(ctx, accounts, txn.AccountID, *txn.DestinationAccountID)
				if err != nil {
					return err
				}
				if _, err := accounts.AdjustBalance(ctx, src.ID, txn.SourceDelta().Neg()); err != nil {
					return err
				}
				if _, err := accounts.AdjustBalance(ctx, dst.ID, txn.DestinationDelta().Neg()); err != nil {
					return err
				}
			} else {
				if _, err := accounts.LockForUpdate(ctx, txn.AccountID); err != nil {
					return err
				}
				if _, err := accounts.AdjustBalance(ctx, txn.AccountID, txn.SourceDelta().Neg()); err != nil {
					return err
				}
			}
		}

		if err := transactions.UpdateStatus(ctx, txn.ID, txn.Status, transaction.StatusCancelled); err != nil {
			return err
		}
		txn.Status = transaction.StatusCancelled
		cancelled = txn

		event, err := audit.NewEvent(actor, audit.ActionTransactionCancelled, "transaction", txn.Code, txn)
		if err != nil {
			return err
		}
		return l.audits.WithTx(tx).Create(ctx, event)
	})
	if err != nil {
		l.recordConflict(err)
		return nil, err
	}

	l.collector.RecordCancellation()
	l.logger.Info("Cancelled transaction", "code", cancelled.Code, "actor", actor)
	return cancelled, nil
}

// Reconcile marks a CONFIRMED transaction as externally verified, recording
// who reconciled it and when. No balance effect.
func (l *Lifecycle) Reconcile(ctx context.Context, id uuid.UUID, actor string) (*transaction.Transaction, error) {
	var reconciled *transaction.Transaction
	err := l.runner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		transactions := l.transactions.WithTx(tx)

		txn, err := transactions.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !txn.Status.CanTransitionTo(transaction.StatusReconciled) {
			return transaction.ErrInvalidStateTransition{From: txn.Status, To: transaction.StatusReconciled}
		}

		now := time.Now()
		if err := transactions.MarkReconciled(ctx, txn.ID, actor, now, txn.Status); err != nil {
			return err
		}
		txn.Status = transaction.StatusReconciled
		txn.ReconciledBy = actor
		txn.ReconciledAt = &now
		reconciled = txn

		event, err := audit.NewEvent(actor, audit.ActionTransactionReconciled, "transaction", txn.Code, txn)
		if err != nil {
			return err
		}
		return l.audits.WithTx(tx).Create(ctx, event)
	})
	if err != nil {
		l.recordConflict(err)
		return nil, err
	}

	l.collector.RecordReconciliation()
	l.logger.Info("Reconciled transaction", "code", reconciled.Code, "actor", actor)
	return reconciled, nil
}

// GetTransaction reads a transaction without locking.
func (l *Lifecycle) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return l.transactions.GetByID(ctx, id)
}

func (l *Lifecycle) recordConflict(err error) {
	var conflict transaction.ErrConcurrencyConflict
	if errors.As(err, &conflict) {
		l.collector.RecordConflict()
	}
}
