package engine

import (
	"encoding/json"

	"github.com/angelmondragon/perfdash-backend/pkg/enums"
)

const (
	// VATRate is the modeled sales tax share of gross revenue.
	VATRate = 0.25
	// COGSRate is the modeled cost of goods as a share of gross revenue.
	COGSRate = 0.7
)

// Record is one merged day across every source.
type Record struct {
	Date    Date
	Metrics Metrics
}

// Day implements dated.
func (r Record) Day() Date { return r.Date }

// Ratios are the guarded metrics computed from a Metrics base.
type Ratios struct {
	TotalSpend   float64
	ROAS         float64
	POAS         float64
	SpendShare   float64
	SpendShareDB float64
	GP           float64
	AOV          float64
	CTR          float64
	CPC          float64
	ConvRate     float64
}

// Values flattens the ratios into a field map.
func (r Ratios) Values() map[string]float64 {
	return map[string]float64{
		FieldTotalSpend:   r.TotalSpend,
		FieldROAS:         r.ROAS,
		FieldPOAS:         r.POAS,
		FieldSpendShare:   r.SpendShare,
		FieldSpendShareDB: r.SpendShareDB,
		FieldGP:           r.GP,
		FieldAOV:          r.AOV,
		FieldCTR:          r.CTR,
		FieldCPC:          r.CPC,
		FieldConvRate:     r.ConvRate,
	}
}

// Derived is a record extended with its ratio metrics.
type Derived struct {
	Date    Date
	Metrics Metrics
	Ratios  Ratios
}

// Day implements dated.
func (d Derived) Day() Date { return d.Date }

// Values returns every additive, extra and ratio field of the row.
func (d Derived) Values() map[string]float64 {
	out := d.Metrics.Values()
	for k, v := range d.Ratios.Values() {
		out[k] = v
	}
	return out
}

// Value returns a single field, 0 when the row does not carry it.
func (d Derived) Value(field string) float64 {
	if v, ok := d.Ratios.Values()[field]; ok {
		return v
	}
	return d.Metrics.Get(field)
}

func (d Derived) MarshalJSON() ([]byte, error) {
	payload := make(map[string]any, 24)
	payload["date"] = d.Date
	for k, v := range d.Values() {
		payload[k] = v
	}
	return json.Marshal(payload)
}

// Derive applies the revenue preference and computes every ratio of one record.
// Under the net preference net_sales replaces revenue before any ratio runs.
// Non-finite inputs count as 0 so no output field is ever NaN or infinite.
func Derive(record Record, pref enums.RevenuePreference) Derived {
	m := record.Metrics.Clone()
	m.zeroNonFinite()
	if pref == enums.RevenueNet {
		m.Revenue = m.NetSales
		m.RevenueExTax = 0
	}
	if m.RevenueExTax == 0 && m.Revenue > 0 {
		m.RevenueExTax = m.Revenue * (1 - VATRate)
	}
	m.zeroNonFinite()
	return Derived{Date: record.Date, Metrics: m, Ratios: deriveRatios(m)}
}

// DeriveAll maps Derive over records, keeping their order.
func DeriveAll(records []Record, pref enums.RevenuePreference) []Derived {
	out := make([]Derived, 0, len(records))
	for _, r := range records {
		out = append(out, Derive(r, pref))
	}
	return out
}

func deriveRatios(m Metrics) Ratios {
	spend := finiteOrZero(m.PPCCost + m.PSCost)
	gp := finiteOrZero(m.Revenue*(1-VATRate) - m.Revenue*COGSRate)
	return Ratios{
		TotalSpend:   spend,
		ROAS:         safeDiv(m.Revenue, spend),
		POAS:         safeDiv(gp, spend),
		SpendShare:   safeDiv(spend, m.RevenueExTax),
		SpendShareDB: safeDiv(spend, COGSRate*m.RevenueExTax),
		GP:           gp,
		AOV:          safeDiv(m.Revenue, m.Orders),
		CTR:          safeDiv(m.Clicks, m.Impressions),
		CPC:          safeDiv(spend, m.Clicks),
		ConvRate:     safeDiv(m.Conversions, m.Clicks),
	}
}

func finiteOrZero(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}

// safeDiv returns 0 unless the denominator is a positive finite number.
func safeDiv(num, den float64) float64 {
	if den <= 0 || !isFinite(den) {
		return 0
	}
	return finiteOrZero(num / den)
}
