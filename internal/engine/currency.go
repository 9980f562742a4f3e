package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
)

// BaseCurrency is the display currency used when none is configured.
const BaseCurrency = enums.CurrencyDKK

// RateSource resolves the rate of a currency against a shared pivot currency.
type RateSource interface {
	Rate(currency enums.Currency) (float64, bool)
}

// Converter converts amounts between currencies through the pivot rates.
type Converter struct {
	rates RateSource
	base  enums.Currency
	logg  *logger.Logger
}

// NewConverter builds a converter. An empty base falls back to BaseCurrency.
func NewConverter(rates RateSource, base enums.Currency, logg *logger.Logger) *Converter {
	if base == "" {
		base = BaseCurrency
	}
	return &Converter{rates: rates, base: base, logg: logg}
}

// Base returns the converter's default target currency.
func (c *Converter) Base() enums.Currency {
	return c.base
}

// Convert returns amount expressed in to. Zero amounts and same-currency
// conversions pass through; a missing rate logs a warning and passes through.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to enums.Currency) float64 {
	if to == "" {
		to = c.base
	}
	if from == "" {
		from = c.base
	}
	if amount == 0 || from == to {
		return amount
	}
	fromRate, toRate, ok := c.pair(from, to)
	if !ok {
		warn(ctx, c.logg, "engine.currency.missing_rate", map[string]any{
			"from": from.String(),
			"to":   to.String(),
		})
		return amount
	}
	return convertAmount(amount, fromRate, toRate)
}

// ConvertSeries converts every monetary field of a series into to. The series
// currency defaults to the base currency. When a rate is missing the series is
// returned unconverted with a single warning.
func (c *Converter) ConvertSeries(ctx context.Context, s Series, to enums.Currency) Series {
	if to == "" {
		to = c.base
	}
	from := s.Currency
	if from == "" {
		from = c.base
	}
	if from == to {
		s.Currency = to
		return s
	}
	fromRate, toRate, ok := c.pair(from, to)
	if !ok {
		warn(ctx, c.logg, "engine.currency.missing_rate", map[string]any{
			"source": s.Name,
			"from":   from.String(),
			"to":     to.String(),
		})
		return s
	}

	rows := make([]RawRow, 0, len(s.Rows))
	for _, row := range s.Rows {
		fields := make(map[string]float64, len(row.Fields))
		for column, value := range row.Fields {
			if value != 0 && IsMonetary(s.canonical(column)) {
				value = convertAmount(value, fromRate, toRate)
			}
			fields[column] = value
		}
		rows = append(rows, RawRow{Date: row.Date, Fields: fields})
	}
	s.Rows = rows
	s.Currency = to
	return s
}

func (c *Converter) pair(from, to enums.Currency) (float64, float64, bool) {
	if c.rates == nil {
		return 0, 0, false
	}
	fromRate, ok := c.rates.Rate(from)
	if !ok || fromRate <= 0 {
		return 0, 0, false
	}
	toRate, ok := c.rates.Rate(to)
	if !ok || toRate <= 0 {
		return 0, 0, false
	}
	return fromRate, toRate, true
}

// convertAmount evaluates amount / fromRate * toRate in decimal arithmetic.
func convertAmount(amount, fromRate, toRate float64) float64 {
	out, _ := decimal.NewFromFloat(amount).
		Div(decimal.NewFromFloat(fromRate)).
		Mul(decimal.NewFromFloat(toRate)).
		Float64()
	return out
}
