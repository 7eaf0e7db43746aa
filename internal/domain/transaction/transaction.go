package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrSameAccount      = errors.New("transfer source and destination must differ")
	ErrMissingDirection = errors.New("adjustment requires an explicit direction")
)

// TxType defines possible transaction operations
type TxType string

const (
	TypeIncome     TxType = "INCOME"
	TypeExpense    TxType = "EXPENSE"
	TypeTransfer   TxType = "TRANSFER"
	TypeAdjustment TxType = "ADJUSTMENT"
)

// Direction gives an ADJUSTMENT its sign. INCOME and EXPENSE imply their
// direction; TRANSFER carries both.
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// Metadata carries the free-form descriptive fields of a posting.
type Metadata struct {
	Category             string `json:"category,omitempty"`
	Description          string `json:"description,omitempty"`
	Reference            string `json:"reference,omitempty"`
	Counterparty         string `json:"counterparty,omitempty"`
	CounterpartyDocument string `json:"counterparty_document,omitempty"`
	PaymentMethod        string `json:"payment_method,omitempty"`
	Notes                string `json:"notes,omitempty"`
}

// Transaction is a single recorded monetary event against one account
// (INCOME/EXPENSE/ADJUSTMENT) or two accounts (TRANSFER). Rows are never
// deleted; cancellation is a status change that preserves the audit trail.
type Transaction struct {
	ID                   uuid.UUID       `json:"id"`
	Code                 string          `json:"code"`
	Type                 TxType          `json:"type"`
	Status               Status          `json:"status"`
	AccountID            uuid.UUID       `json:"account_id"`
	DestinationAccountID *uuid.UUID      `json:"destination_account_id,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	ExchangeRate         decimal.Decimal `json:"exchange_rate"`
	BaseAmount           decimal.Decimal `json:"base_amount"`
	// DestinationAmount is the converted amount credited to the destination
	// account; set only for TRANSFER.
	DestinationAmount    *decimal.Decimal `json:"destination_amount,omitempty"`
	Direction            Direction        `json:"direction"`
	TransactionDate      time.Time        `json:"transaction_date"`
	Category             string           `json:"category,omitempty"`
	Description          string           `json:"description,omitempty"`
	Reference            string           `json:"reference,omitempty"`
	Counterparty         string           `json:"counterparty,omitempty"`
	CounterpartyDocument string           `json:"counterparty_document,omitempty"`
	PaymentMethod        string           `json:"payment_method,omitempty"`
	Notes                string           `json:"notes,omitempty"`
	ReconciledBy         string           `json:"reconciled_by,omitempty"`
	ReconciledAt         *time.Time       `json:"reconciled_at,omitempty"`
	CreatedBy            string           `json:"created_by"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// directionFor returns the implied direction for a simple posting type.
func directionFor(txType TxType, direction Direction) (Direction, error) {
	switch txType {
	case TypeIncome:
		return DirectionCredit, nil
	case TypeExpense:
		return DirectionDebit, nil
	case TypeAdjustment:
		if direction != DirectionCredit && direction != DirectionDebit {
			return "", ErrMissingDirection
		}
		return direction, nil
	default:
		return "", ErrInvalidType
	}
}

// NewSimple builds an INCOME, EXPENSE, or ADJUSTMENT transaction in
// CONFIRMED state. Amounts are validated by the engine before reaching
// this constructor; the direction rules live here.
func NewSimple(
	code string,
	txType TxType,
	accountID uuid.UUID,
	amount, exchangeRate, baseAmount decimal.Decimal,
	currency string,
	direction Direction,
	date time.Time,
	meta Metadata,
	createdBy string,
) (*Transaction, error) {
	dir, err := directionFor(txType, direction)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Transaction{
		ID:                   uuid.New(),
		Code:                 code,
		Type:                 txType,
		Status:               StatusConfirmed,
		AccountID:            accountID,
		Amount:               amount,
		Currency:             currency,
		ExchangeRate:         exchangeRate,
		BaseAmount:           baseAmount,
		Direction:            dir,
		TransactionDate:      date,
		Category:             meta.Category,
		Description:          meta.Description,
		Reference:            meta.Reference,
		Counterparty:         meta.Counterparty,
		CounterpartyDocument: meta.CounterpartyDocument,
		PaymentMethod:        meta.PaymentMethod,
		Notes:                meta.Notes,
		CreatedBy:            createdBy,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// NewTransfer builds a TRANSFER transaction in CONFIRMED state carrying
// both account references and the converted destination amount.
func NewTransfer(
	code string,
	fromAccountID, toAccountID uuid.UUID,
	amount, exchangeRate, baseAmount, destinationAmount decimal.Decimal,
	currency string,
	date time.Time,
	meta Metadata,
	createdBy string,
) (*Transaction, error) {
	if fromAccountID == toAccountID {
		return nil, ErrSameAccount
	}

	now := time.Now()
	toID := toAccountID
	destAmount := destinationAmount
	return &Transaction{
		ID:                   uuid.New(),
		Code:                 code,
		Type:                 TypeTransfer,
		Status:               StatusConfirmed,
		AccountID:            fromAccountID,
		DestinationAccountID: &toID,
		Amount:               amount,
		Currency:             currency,
		ExchangeRate:         exchangeRate,
		BaseAmount:           baseAmount,
		DestinationAmount:    &destAmount,
		Direction:            DirectionDebit,
		TransactionDate:      date,
		Category:             meta.Category,
		Description:          meta.Description,
		Reference:            meta.Reference,
		Counterparty:         meta.Counterparty,
		CounterpartyDocument: meta.CounterpartyDocument,
		PaymentMethod:        meta.PaymentMethod,
		Notes:                meta.Notes,
		CreatedBy:            createdBy,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// Modifiable reports whether lifecycle operations (cancel, reconcile) are
// still offered for this transaction. Re-checked server-side at call time.
func (t *Transaction) Modifiable() bool {
	return t.Status == StatusConfirmed
}

// SourceDelta is the signed balance effect the posting applied to the
// source account. Cancellation applies its negation.
func (t *Transaction) SourceDelta() decimal.Decimal {
	switch t.Type {
	case TypeIncome:
		return t.Amount
	case TypeExpense, TypeTransfer:
		return t.Amount.Neg()
	case TypeAdjustment:
		if t.Direction == DirectionDebit {
			return t.Amount.Neg()
		}
		return t.Amount
	default:
		return decimal.Zero
	}
}

// DestinationDelta is the signed balance effect on the destination account;
// zero for anything but TRANSFER.
func (t *Transaction) DestinationDelta() decimal.Decimal {
	if t.Type != TypeTransfer || t.DestinationAmount == nil {
		return decimal.Zero
	}
	return *t.DestinationAmount
}

// ErrTransactionNotFound indicates a missing transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

// ErrConcurrencyConflict indicates the transaction row changed between the
// status check and the conditional update; the caller may retry from scratch.
type ErrConcurrencyConflict struct {
	TransactionID uuid.UUID
}

func (e ErrConcurrencyConflict) Error() string {
	return "concurrent modification detected for transaction: " + e.TransactionID.String()
}
