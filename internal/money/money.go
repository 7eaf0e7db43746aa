// Package money holds the ledger's amount arithmetic. All amounts are
// fixed-point decimals; binary floating point never touches a balance.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrInvalidRate   = errors.New("exchange rate must be greater than zero")
)

// cryptoExponents lists currencies carried at higher precision than the
// two fiat decimal places. Stablecoins stay at 2.
var cryptoExponents = map[string]int32{
	"BTC": 8,
	"ETH": 8,
}

// Exponent returns the number of decimal places amounts in the given
// currency are rounded to.
func Exponent(currency string) int32 {
	if exp, ok := cryptoExponents[currency]; ok {
		return exp
	}
	return 2
}

// IsPositive reports whether d is strictly greater than zero.
func IsPositive(d decimal.Decimal) bool {
	return d.Sign() > 0
}

// ValidateAmount rejects zero and negative amounts. Signs are expressed
// through transaction types and directions, never through the amount itself.
func ValidateAmount(amount decimal.Decimal) error {
	if !IsPositive(amount) {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateRate rejects zero and negative exchange rates.
func ValidateRate(rate decimal.Decimal) error {
	if !IsPositive(rate) {
		return ErrInvalidRate
	}
	return nil
}

// Convert multiplies amount by rate and rounds to the target currency's
// exponent using round-half-to-even, so repeated conversions do not drift.
func Convert(amount, rate decimal.Decimal, targetCurrency string) decimal.Decimal {
	return amount.Mul(rate).RoundBank(Exponent(targetCurrency))
}

// Round normalizes an amount to its currency's exponent.
func Round(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.RoundBank(Exponent(currency))
}
