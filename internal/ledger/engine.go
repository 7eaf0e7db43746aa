package ledger

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/corventa/finance-ledger/internal/config"
	"github.com/corventa/finance-ledger/internal/domain/account"
	"github.com/corventa/finance-ledger/internal/domain/audit"
	"github.com/corventa/finance-ledger/internal/domain/transaction"
	"github.com/corventa/finance-ledger/internal/money"
	"github.com/corventa/finance-ledger/internal/platform/metrics"
	"github.com/corventa/finance-ledger/internal/platform/persistence"
)

// Engine posts transactions and transfers. Each posting runs as one database
// transaction covering the row locks, the balance increments, the transaction
// record, and the audit event.
type Engine struct {
	runner       persistence.TxRunner
	accounts     account.Repository
	transactions transaction.Repository
	audits       audit.Repository
	codes        transaction.CodeGenerator
	collector    *metrics.Collector
	cfg          config.LedgerConfig
	logger       *slog.Logger
}

// NewEngine creates the posting engine
func NewEngine(
	runner persistence.TxRunner,
	accounts account.Repository,
	transactions transaction.Repository,
	audits audit.Repository,
	codes transaction.CodeGenerator,
	collector *metrics.Collector,
	cfg config.LedgerConfig,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		runner:       runner,
		accounts:     accounts,
		transactions: transactions,
		audits:       audits,
		codes:        codes,
		collector:    collector,
		cfg:          cfg,
		logger:       logger,
	}
}

var _ Poster = (*Engine)(nil)

// PostSimple validates and posts an INCOME, EXPENSE, or ADJUSTMENT
// transaction. The new record is born CONFIRMED and its balance effect is
// applied atomically with it.
func (e *Engine) PostSimple(ctx context.Context, req PostRequest) (*transaction.Transaction, error) {
	start := time.Now()

	if err := money.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	rate := req.ExchangeRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	if err := money.ValidateRate(rate); err != nil {
		return nil, err
	}

	var txn *transaction.Transaction
	err := e.runner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accounts := e.accounts.WithTx(tx)

		acc, err := accounts.LockForUpdate(ctx, req.AccountID)
		if err != nil {
			return err
		}
		if !acc.CanPost() {
			return account.ErrAccountInactive{AccountID: acc.ID}
		}
		if req.Currency != "" && req.Currency != acc.Currency {
			return account.ErrCurrencyMismatch{AccountID: acc.ID, Requested: req.Currency, Actual: acc.Currency}
		}

		amount := money.Round(req.Amount, acc.Currency)
		baseAmount := money.Convert(amount, rate, e.cfg.BaseCurrency)

		code, err := e.codes.WithTx(tx).Next(ctx)
		if err != nil {
			return err
		}

		txn, err = transaction.NewSimple(code, req.Type, acc.ID, amount, rate, baseAmount, acc.Currency, req.Direction, req.Date, req.Meta, req.Actor)
		if err != nil {
			return err
		}

		delta := txn.SourceDelta()
		if err := e.guardOverdraft(acc, delta); err != nil {
			return err
		}
		if _, err := accounts.AdjustBalance(ctx, acc.ID, delta); err != nil {
			return err
		}

		if err := e.transactions.WithTx(tx).Create(ctx, txn); err != nil {
			return err
		}

		return e.writeAudit(ctx, tx, req.Actor, audit.ActionTransactionPosted, txn)
	})
	if err != nil {
		return nil, err
	}

	e.collector.RecordPosting(string(txn.Type), time.Since(start))
	e.logger.Info("Posted transaction",
		"code", txn.Code,
		"type", string(txn.Type),
		"account_id", txn.AccountID.String(),
		"amount", txn.Amount.String(),
	)
	return txn, nil
}

// PostTransfer atomically debits the source account and credits the
// destination account with the converted amount, recording one TRANSFER row.
// Account locks are taken in ascending UUID order so two opposing transfers
// cannot deadlock.
func (e *Engine) PostTransfer(ctx context.Context, req TransferRequest) (*transaction.Transaction, error) {
	start := time.Now()

	if req.FromAccountID == req.ToAccountID {
		return nil, transaction.ErrSameAccount
	}
	if err := money.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if err := money.ValidateRate(req.ExchangeRate); err != nil {
		return nil, err
	}

	var txn *transaction.Transaction
	err := e.runner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accounts := e.accounts.WithTx(tx)

		src, dst, err := lockPair(ctx, accounts, req.FromAccountID, req.ToAccountID)
		if err != nil {
			return err
		}
		if !src.CanPost() {
			return account.ErrAccountInactive{AccountID: src.ID}
		}
		if !dst.CanPost() {
			return account.ErrAccountInactive{AccountID: dst.ID}
		}
		if req.Currency != "" && req.Currency != src.Currency {
			return account.ErrCurrencyMismatch{AccountID: src.ID, Requested: req.Currency, Actual: src.Currency}
		}

		amount := money.Round(req.Amount, src.Currency)
		destinationAmount := money.Convert(amount, req.ExchangeRate, dst.Currency)

		code, err := e.codes.WithTx(tx).Next(ctx)
		if err != nil {
			return err
		}

		txn, err = transaction.NewTransfer(code, src.ID, dst.ID, amount, req.ExchangeRate, amount, destinationAmount, src.Currency, req.Date, req.Meta, req.Actor)
		if err != nil {
			return err
		}

		if err := e.guardOverdraft(src, txn.SourceDelta()); err != nil {
			return err
		}
		if _, err := accounts.AdjustBalance(ctx, src.ID, txn.SourceDelta()); err != nil {
			return err
		}
		if _, err := accounts.AdjustBalance(ctx, dst.ID, txn.DestinationDelta()); err != nil {
			return err
		}

		if err := e.transactions.WithTx(tx).Create(ctx, txn); err != nil {
			return err
		}

		return e.writeAudit(ctx, tx, req.Actor, audit.ActionTransferPosted, txn)
	})
	if err != nil {
		return nil, err
	}

	e.collector.RecordPosting(string(transaction.TypeTransfer), time.Since(start))
	e.logger.Info("Posted transfer",
		"code", txn.Code,
		"from", txn.AccountID.String(),
		"to", txn.DestinationAccountID.String(),
		"amount", txn.Amount.String(),
		"destination_amount", txn.DestinationAmount.String(),
	)
	return txn, nil
}

// guardOverdraft applies the optional insufficient-funds check. The ledger
// is permissive unless LEDGER_ALLOW_NEGATIVE_BALANCES is switched off.
func (e *Engine) guardOverdraft(acc *account.Account, delta decimal.Decimal) error {
	if e.cfg.AllowNegativeBalances {
		return nil
	}
	if delta.Sign() >= 0 {
		return nil
	}
	if acc.Balance.Add(delta).Sign() < 0 {
		return account.ErrInsufficientFunds{
			AccountID: acc.ID,
			Balance:   acc.Balance,
			Requested: delta.Neg(),
		}
	}
	return nil
}

func (e *Engine) writeAudit(ctx context.Context, tx pgx.Tx, actor string, action audit.Action, txn *transaction.Transaction) error {
	event, err := audit.NewEvent(actor, action, "transaction", txn.Code, txn)
	if err != nil {
		return err
	}
	return e.audits.WithTx(tx).Create(ctx, event)
}

// lockPair locks two accounts in ascending UUID order and returns them in
// request order.
func lockPair(ctx context.Context, repo account.Repository, firstID, secondID uuid.UUID) (*account.Account, *account.Account, error) {
	lockFirst := bytes.Compare(firstID[:], secondID[:]) < 0

	a, b := firstID, secondID
	if !lockFirst {
		a, b = secondID, firstID
	}

	accA, err := repo.LockForUpdate(ctx, a)
	if err != nil {
		return nil, nil, err
	}
	accB, err := repo.LockForUpdate(ctx, b)
	if err != nil {
		return nil, nil, err
	}

	if lockFirst {
		return accA, accB, nil
	}
	return accB, accA, nil
}
