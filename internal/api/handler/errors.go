package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/corventa/finance-ledger/internal/domain/account"
	"github.com/corventa/finance-ledger/internal/domain/transaction"
	"github.com/corventa/finance-ledger/internal/money"
)

// respondDomainError maps a ledger service error to an HTTP status. Missing
// entities map to 404, state machine and concurrency violations to 409,
// validation and policy rejections to 400, everything else to 500.
func respondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		accountNotFound     account.ErrAccountNotFound
		accountInactive     account.ErrAccountInactive
		insufficientFunds   account.ErrInsufficientFunds
		currencyMismatch    account.ErrCurrencyMismatch
		transactionNotFound transaction.ErrTransactionNotFound
		invalidTransition   transaction.ErrInvalidStateTransition
		alreadyReconciled   transaction.ErrAlreadyReconciled
		concurrencyConflict transaction.ErrConcurrencyConflict
	)

	switch {
	case errors.As(err, &accountNotFound):
		RespondNotFound(c, "Account not found")
	case errors.As(err, &transactionNotFound):
		RespondNotFound(c, "Transaction not found")
	case errors.As(err, &alreadyReconciled),
		errors.As(err, &invalidTransition),
		errors.As(err, &concurrencyConflict):
		RespondConflict(c, err.Error())
	case errors.As(err, &accountInactive),
		errors.As(err, &insufficientFunds),
		errors.As(err, &currencyMismatch),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrInvalidRate),
		errors.Is(err, transaction.ErrSameAccount),
		errors.Is(err, transaction.ErrMissingDirection),
		errors.Is(err, transaction.ErrInvalidType),
		errors.Is(err, account.ErrEmptyName),
		errors.Is(err, account.ErrInvalidCurrency),
		errors.Is(err, account.ErrInvalidType):
		RespondBadRequest(c, err.Error())
	default:
		logger.Error("Unhandled ledger error", "error", err)
		RespondInternalError(c)
	}
}
