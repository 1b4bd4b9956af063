// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents; conversions to and from decimal
// values go through shopspring/decimal so rounding is explicit.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a form value to Money with half-up rounding to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Signs, exponents and any other characters are rejected, as are zero amounts
// and amounts above MaxAmountCents.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234
//	ParseAmount("12,345") -> 1235
//	ParseAmount(".5")     -> 50
func ParseAmount(s string) (Money, error) {
	m, err := ParseNonNegativeAmount(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseNonNegativeAmount is ParseAmount allowing zero, used for budgets.
func ParseNonNegativeAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	dots := 0
	for _, r := range s {
		switch {
		case r == '.':
			dots++
		case r >= '0' && r <= '9':
		default:
			return Money{}, ErrInvalidAmount
		}
	}
	if dots > 1 || s == "." {
		return Money{}, ErrInvalidAmount
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m := MoneyFromDecimal(d)
	if m.Cents > MaxAmountCents {
		return Money{}, ErrAmountTooLarge
	}
	return m, nil
}

// ParseCurrencyAmount is the lenient parser for free-form amount text.
//
// Everything except digits and '.' is stripped, the longest numeric prefix
// is parsed, and the absolute value is returned. Input without digits yields 0.
//
//	ParseCurrencyAmount("CA$ 1,234.50") -> 1234.5
//	ParseCurrencyAmount("-12")          -> 12
//	ParseCurrencyAmount("abc")          -> 0
func ParseCurrencyAmount(text string) float64 {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	// Longest prefix of the form digits[.digits]
	end, seenDot, digits := 0, false, 0
	for i, r := range cleaned {
		if r == '.' {
			if seenDot {
				break
			}
			seenDot = true
			end = i + 1
			continue
		}
		digits++
		end = i + 1
	}
	if digits == 0 {
		return 0
	}
	prefix := strings.TrimSuffix(cleaned[:end], ".")
	if strings.HasPrefix(prefix, ".") {
		prefix = "0" + prefix
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return 0
	}
	return d.Abs().InexactFloat64()
}

// MoneyFromDecimal rounds a decimal amount to whole cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// MoneyFromFloat is MoneyFromDecimal for float inputs.
func MoneyFromFloat(f float64) Money {
	return MoneyFromDecimal(decimal.NewFromFloat(f))
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount in currency units for spreadsheet cells and charts.
// Use cents for arithmetic.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Div splits the amount into n equal parts rounded to cents. Division by zero yields zero.
func (m Money) Div(n int) Money {
	if n == 0 {
		return Money{}
	}
	return MoneyFromDecimal(m.Decimal().Div(decimal.NewFromInt(int64(n))))
}

// Format renders the amount in the given currency.
func (m Money) Format(c Currency) string {
	return FormatCurrency(m.Decimal(), c)
}

// InputValue renders the amount for an <input type="number"> value.
func (m Money) InputValue() string {
	return m.Decimal().StringFixed(2)
}
