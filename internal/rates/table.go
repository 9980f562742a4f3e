package rates

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/perfdash-backend/pkg/db/models"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
)

// Table is an immutable set of per-USD rates.
type Table struct {
	asOf  time.Time
	rates map[enums.Currency]decimal.Decimal
}

// NewTable indexes rows by currency. USD is always present at 1. The table
// date is the oldest row date.
func NewTable(rows []models.CurrencyRate) *Table {
	t := &Table{rates: make(map[enums.Currency]decimal.Decimal, len(rows)+1)}
	for _, row := range rows {
		if !row.PerUSD.IsPositive() {
			continue
		}
		t.rates[row.Currency] = row.PerUSD
		if t.asOf.IsZero() || row.AsOf.Before(t.asOf) {
			t.asOf = row.AsOf
		}
	}
	t.rates[enums.CurrencyUSD] = decimal.NewFromInt(1)
	return t
}

// Rate implements engine.RateSource.
func (t *Table) Rate(currency enums.Currency) (float64, bool) {
	if t == nil {
		return 0, false
	}
	rate, ok := t.rates[currency]
	if !ok {
		return 0, false
	}
	return rate.InexactFloat64(), true
}

// AsOf returns the date of the oldest rate in the table.
func (t *Table) AsOf() time.Time {
	return t.asOf
}

// Currencies lists the currencies with a rate, sorted.
func (t *Table) Currencies() []enums.Currency {
	out := make([]enums.Currency, 0, len(t.rates))
	for c := range t.rates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Convert converts amount between two currencies through USD.
func (t *Table) Convert(amount decimal.Decimal, from, to enums.Currency) (decimal.Decimal, error) {
	if from == to || amount.IsZero() {
		return amount, nil
	}
	fromRate, ok := t.rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate for %s", from)
	}
	toRate, ok := t.rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate for %s", to)
	}
	return amount.Mul(toRate).DivRound(fromRate, 6), nil
}

// View is the JSON form of a table.
type View struct {
	Base  enums.Currency             `json:"base"`
	AsOf  string                     `json:"as_of,omitempty"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// View renders the table in the snapshot shape.
func (t *Table) View() View {
	v := View{Base: enums.CurrencyUSD, Rates: make(map[string]decimal.Decimal, len(t.rates))}
	if !t.asOf.IsZero() {
		v.AsOf = t.asOf.Format(asOfLayout)
	}
	for c, r := range t.rates {
		v.Rates[string(c)] = r
	}
	return v
}
