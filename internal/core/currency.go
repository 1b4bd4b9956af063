package core

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code from the supported set.
type Currency string

const (
	CAD Currency = "CAD"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	AUD Currency = "AUD"

	DefaultCurrency = CAD
)

// Currencies lists the supported currencies in display order.
var Currencies = []Currency{CAD, USD, EUR, GBP, JPY, AUD}

var currencySymbols = map[Currency]string{
	CAD: "CA$",
	USD: "$",
	EUR: "€",
	GBP: "£",
	JPY: "¥",
	AUD: "A$",
}

var currencyNames = map[Currency]string{
	CAD: "Canadian Dollar",
	USD: "US Dollar",
	EUR: "Euro",
	GBP: "British Pound",
	JPY: "Japanese Yen",
	AUD: "Australian Dollar",
}

// en-CA display prefixes used by FormatCurrency.
var currencyDisplayPrefix = map[Currency]string{
	CAD: "$",
	USD: "US$",
	EUR: "€",
	GBP: "£",
	JPY: "¥",
	AUD: "A$",
}

// ParseCurrency validates a currency code, case-insensitively.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}
	return c, nil
}

func (c Currency) IsValid() bool {
	_, ok := currencyNames[c]
	return ok
}

// OrDefault returns c, or DefaultCurrency when c is not supported.
func (c Currency) OrDefault() Currency {
	if c.IsValid() {
		return c
	}
	return DefaultCurrency
}

// Symbol returns the short symbol shown next to inputs ("$" for unknown codes).
func (c Currency) Symbol() string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return "$"
}

// Name returns the English currency name.
func (c Currency) Name() string {
	return currencyNames[c]
}

func (c Currency) String() string {
	return string(c)
}

// FormatCurrency renders amount with exactly two fraction digits and
// thousands grouping, prefixed the way the en-CA locale does it.
// Unknown currencies fall back to DefaultCurrency.
func FormatCurrency(amount decimal.Decimal, c Currency) string {
	c = c.OrDefault()
	cents := amount.Shift(2).Round(0).IntPart()
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s%s.%02d", sign, currencyDisplayPrefix[c], humanize.Comma(cents/100), cents%100)
}

// FormatCurrencyFloat is FormatCurrency for float amounts.
func FormatCurrencyFloat(amount float64, c Currency) string {
	return FormatCurrency(decimal.NewFromFloat(amount), c)
}
