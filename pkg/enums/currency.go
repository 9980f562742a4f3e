package enums

import (
	"fmt"
	"strings"
)

// Currency is an ISO 4217 code used for reporting and display amounts.
type Currency string

const (
	CurrencyDKK Currency = "DKK"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencySEK Currency = "SEK"
	CurrencyNOK Currency = "NOK"
	CurrencyGBP Currency = "GBP"
	CurrencyCHF Currency = "CHF"
	CurrencyPLN Currency = "PLN"
)

var validCurrencies = []Currency{
	CurrencyDKK,
	CurrencyUSD,
	CurrencyEUR,
	CurrencySEK,
	CurrencyNOK,
	CurrencyGBP,
	CurrencyCHF,
	CurrencyPLN,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCurrency converts a raw string into a Currency. Input is case-insensitive.
func ParseCurrency(value string) (Currency, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validCurrencies {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
