package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Money is an amount in a single currency.
// Matches the Storefront API MoneyV2 shape: {"amount": "12.50", "currencyCode": "USD"}.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// NewMoney builds Money from a decimal string amount.
// Invalid amounts parse as zero, same as ParseAmount.
func NewMoney(amount, currencyCode string) Money {
	return Money{Amount: ParseAmount(amount), CurrencyCode: currencyCode}
}

// ParseAmount converts a decimal string amount (major units, e.g. "99.00") to a decimal.
// Shared by all transforms so money handling is consistent.
// Examples: "99.00" → 99, "1234.56" → 1234.56, "" → 0, "abc" → 0
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Mul returns the amount multiplied by a quantity, in the same currency.
func (m Money) Mul(quantity int) Money {
	return Money{
		Amount:       m.Amount.Mul(decimal.NewFromInt(int64(quantity))),
		CurrencyCode: m.CurrencyCode,
	}
}

// Add sums two amounts. Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.CurrencyCode != "" && other.CurrencyCode != "" && m.CurrencyCode != other.CurrencyCode {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.CurrencyCode, other.CurrencyCode)
	}
	code := m.CurrencyCode
	if code == "" {
		code = other.CurrencyCode
	}
	return Money{Amount: m.Amount.Add(other.Amount), CurrencyCode: code}, nil
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Validate checks the amount is non-negative and the currency is ISO-4217.
func (m Money) Validate() error {
	if m.Amount.IsNegative() {
		return NewValidationError("amount", "must not be negative")
	}
	if _, err := currency.ParseISO(m.CurrencyCode); err != nil {
		return NewValidationError("currencyCode", fmt.Sprintf("%q is not an ISO-4217 code", m.CurrencyCode))
	}
	return nil
}

// validatePrice checks a price and its optional compare-at price.
func validatePrice(price Money, compareAt *Money) error {
	if err := price.Validate(); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	if compareAt != nil {
		if err := compareAt.Validate(); err != nil {
			return fmt.Errorf("compareAtPrice: %w", err)
		}
	}
	return nil
}

// Format renders the amount for display.
// USD uses a dollar prefix ("$12.50"); every other currency uses a code suffix ("12.50 EUR").
func (m Money) Format() string {
	amount := m.Amount.StringFixed(2)
	if m.CurrencyCode == "USD" {
		return "$" + amount
	}
	return amount + " " + m.CurrencyCode
}

func (m Money) String() string {
	return m.Format()
}
