package handler

import (
	"time"

	"github.com/shopspring/decimal"
)

// MetadataPayload carries the free-form descriptive fields of a posting
type MetadataPayload struct {
	Category             string `json:"category,omitempty"`
	Description          string `json:"description,omitempty"`
	Reference            string `json:"reference,omitempty"`
	Counterparty         string `json:"counterparty,omitempty"`
	CounterpartyDocument string `json:"counterparty_document,omitempty"`
	PaymentMethod        string `json:"payment_method,omitempty"`
	Notes                string `json:"notes,omitempty"`
}

// CreateAccountRequest represents a request to create a new account
type CreateAccountRequest struct {
	Name      string `json:"name" binding:"required"`
	Type      string `json:"type" binding:"required,oneof=CHECKING SAVINGS CASH CRYPTO_WALLET MOBILE_PAYMENT DIGITAL_WALLET"`
	Currency  string `json:"currency" binding:"required,min=3,max=5"`
	IsDefault bool   `json:"is_default"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Active    bool   `json:"active"`
	IsDefault bool   `json:"is_default"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CreateTransactionRequest represents a request to post an income, expense,
// or adjustment against a single account. The amount is denominated in the
// account's currency; the optional exchange rate converts it to the base
// currency and defaults to 1.
type CreateTransactionRequest struct {
	AccountID    string          `json:"account_id" binding:"required,uuid"`
	Type         string          `json:"type" binding:"required,oneof=INCOME EXPENSE ADJUSTMENT"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency" binding:"omitempty,min=3,max=5"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	Direction    string          `json:"direction" binding:"omitempty,oneof=CREDIT DEBIT"`
	Date         *time.Time      `json:"date"`
	Metadata     MetadataPayload `json:"metadata"`
}

// CreateTransferRequest represents a request to move value between two
// accounts. The exchange rate converts the source amount into the
// destination account's currency and is never inferred.
type CreateTransferRequest struct {
	FromAccountID string          `json:"from_account_id" binding:"required,uuid"`
	ToAccountID   string          `json:"to_account_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency" binding:"omitempty,min=3,max=5"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
	Date          *time.Time      `json:"date"`
	Metadata      MetadataPayload `json:"metadata"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID                   string           `json:"id"`
	Code                 string           `json:"code"`
	Type                 string           `json:"type"`
	Status               string           `json:"status"`
	AccountID            string           `json:"account_id"`
	DestinationAccountID string           `json:"destination_account_id,omitempty"`
	Amount               string           `json:"amount"`
	Currency             string           `json:"currency"`
	ExchangeRate         string           `json:"exchange_rate"`
	BaseAmount           string           `json:"base_amount"`
	DestinationAmount    string           `json:"destination_amount,omitempty"`
	Direction            string           `json:"direction"`
	TransactionDate      string           `json:"transaction_date"`
	Metadata             *MetadataPayload `json:"metadata,omitempty"`
	ReconciledBy         string           `json:"reconciled_by,omitempty"`
	ReconciledAt         string           `json:"reconciled_at,omitempty"`
	CreatedBy            string           `json:"created_by"`
	CreatedAt            string           `json:"created_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}
