package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrEmptyName       = errors.New("account name cannot be empty")
	ErrInvalidCurrency = errors.New("currency must be a 3-5 letter uppercase code")
	ErrInvalidType     = errors.New("unknown account type")
)

// Type classifies the store of value an account represents.
type Type string

const (
	TypeChecking      Type = "CHECKING"
	TypeSavings       Type = "SAVINGS"
	TypeCash          Type = "CASH"
	TypeCryptoWallet  Type = "CRYPTO_WALLET"
	TypeMobilePayment Type = "MOBILE_PAYMENT"
	TypeDigitalWallet Type = "DIGITAL_WALLET"
)

// ValidTypes lists every accepted account type.
var ValidTypes = []Type{
	TypeChecking,
	TypeSavings,
	TypeCash,
	TypeCryptoWallet,
	TypeMobilePayment,
	TypeDigitalWallet,
}

// IsValid reports whether t is one of the closed set of account types.
func (t Type) IsValid() bool {
	for _, valid := range ValidTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// Account is a named store of value in a single currency with one tracked
// balance. The balance is mutated exclusively by the ledger's posting and
// cancellation operations, never written directly by callers.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Type      Type            `json:"type"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Active    bool            `json:"active"`
	IsDefault bool            `json:"is_default"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewAccount creates an account with a zero balance.
func NewAccount(name string, accType Type, currency string, isDefault bool) (*Account, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if !accType.IsValid() {
		return nil, ErrInvalidType
	}
	if !validCurrencyCode(currency) {
		return nil, ErrInvalidCurrency
	}

	now := time.Now()
	return &Account{
		ID:        uuid.New(),
		Name:      name,
		Type:      accType,
		Currency:  currency,
		Balance:   decimal.Zero,
		Active:    true,
		IsDefault: isDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanPost reports whether the account accepts new postings. Reads are
// always allowed; posting requires the active flag.
func (a *Account) CanPost() bool {
	return a.Active
}

// validCurrencyCode accepts ISO-4217 style codes plus crypto tickers such
// as USDT (3 to 5 uppercase letters).
func validCurrencyCode(code string) bool {
	if len(code) < 3 || len(code) > 5 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// ErrAccountNotFound indicates a missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// ErrAccountInactive indicates a posting attempt against a deactivated account
type ErrAccountInactive struct {
	AccountID uuid.UUID
}

func (e ErrAccountInactive) Error() string {
	return "account is inactive: " + e.AccountID.String()
}

// ErrCurrencyMismatch indicates a posting denominated in a currency other
// than the account's. The ledger never converts implicitly; the caller's
// stated unit has to match the row.
type ErrCurrencyMismatch struct {
	AccountID uuid.UUID
	Requested string
	Actual    string
}

func (e ErrCurrencyMismatch) Error() string {
	return fmt.Sprintf("currency mismatch on account %s: posting in %s, account holds %s",
		e.AccountID.String(), e.Requested, e.Actual)
}

// ErrInsufficientFunds is returned only when the optional overdraft guard
// is enabled; the ledger is permissive by default.
type ErrInsufficientFunds struct {
	AccountID uuid.UUID
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds on account %s: balance %s, requested %s",
		e.AccountID.String(), e.Balance.String(), e.Requested.String())
}
