package engine

import "math"

// Canonical additive fields.
const (
	FieldOrders           = "orders"
	FieldRevenue          = "revenue"
	FieldNetSales         = "net_sales"
	FieldRevenueExTax     = "revenue_ex_tax"
	FieldPPCCost          = "ppc_cost"
	FieldPSCost           = "ps_cost"
	FieldClicks           = "clicks"
	FieldImpressions      = "impressions"
	FieldConversions      = "conversions"
	FieldConversionsValue = "conversions_value"
	FieldSessions         = "sessions"
	FieldRefunds          = "refunds"
)

// Derived ratio fields.
const (
	FieldTotalSpend   = "total_spend"
	FieldROAS         = "roas"
	FieldPOAS         = "poas"
	FieldSpendShare   = "spendshare"
	FieldSpendShareDB = "spendshare_db"
	FieldGP           = "gp"
	FieldAOV          = "aov"
	FieldCTR          = "ctr"
	FieldCPC          = "cpc"
	FieldConvRate     = "conv_rate"
)

// Metrics holds the additive counters of one day or one bucket. Fields that
// have no typed slot live in Extra and are summed the same way.
type Metrics struct {
	Orders           float64
	Revenue          float64
	NetSales         float64
	RevenueExTax     float64
	PPCCost          float64
	PSCost           float64
	Clicks           float64
	Impressions      float64
	Conversions      float64
	ConversionsValue float64
	Sessions         float64
	Extra            map[string]float64
}

type additiveField struct {
	name string
	ref  func(*Metrics) *float64
}

var additiveFields = []additiveField{
	{FieldOrders, func(m *Metrics) *float64 { return &m.Orders }},
	{FieldRevenue, func(m *Metrics) *float64 { return &m.Revenue }},
	{FieldNetSales, func(m *Metrics) *float64 { return &m.NetSales }},
	{FieldRevenueExTax, func(m *Metrics) *float64 { return &m.RevenueExTax }},
	{FieldPPCCost, func(m *Metrics) *float64 { return &m.PPCCost }},
	{FieldPSCost, func(m *Metrics) *float64 { return &m.PSCost }},
	{FieldClicks, func(m *Metrics) *float64 { return &m.Clicks }},
	{FieldImpressions, func(m *Metrics) *float64 { return &m.Impressions }},
	{FieldConversions, func(m *Metrics) *float64 { return &m.Conversions }},
	{FieldConversionsValue, func(m *Metrics) *float64 { return &m.ConversionsValue }},
	{FieldSessions, func(m *Metrics) *float64 { return &m.Sessions }},
}

var monetaryFields = map[string]bool{
	FieldRevenue:          true,
	FieldNetSales:         true,
	FieldRevenueExTax:     true,
	FieldPPCCost:          true,
	FieldPSCost:           true,
	FieldConversionsValue: true,
	FieldRefunds:          true,
}

// IsMonetary reports whether a canonical field carries an amount in a currency.
func IsMonetary(field string) bool {
	return monetaryFields[field]
}

func (m *Metrics) slot(field string) *float64 {
	for _, f := range additiveFields {
		if f.name == field {
			return f.ref(m)
		}
	}
	return nil
}

// Get returns the value of a canonical or extra field, 0 when absent.
func (m Metrics) Get(field string) float64 {
	if ref := m.slot(field); ref != nil {
		return *ref
	}
	return m.Extra[field]
}

// Add accumulates value into field.
func (m *Metrics) Add(field string, value float64) {
	if ref := m.slot(field); ref != nil {
		*ref += value
		return
	}
	if m.Extra == nil {
		m.Extra = map[string]float64{}
	}
	m.Extra[field] += value
}

// AddAll sums every field of other into m.
func (m *Metrics) AddAll(other Metrics) {
	for _, f := range additiveFields {
		*f.ref(m) += *f.ref(&other)
	}
	for k, v := range other.Extra {
		m.Add(k, v)
	}
}

// zeroNonFinite replaces NaN and infinite values with 0.
func (m *Metrics) zeroNonFinite() {
	for _, f := range additiveFields {
		if ref := f.ref(m); !isFinite(*ref) {
			*ref = 0
		}
	}
	for k, v := range m.Extra {
		if !isFinite(v) {
			m.Extra[k] = 0
		}
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clone returns a copy that does not share the Extra map.
func (m Metrics) Clone() Metrics {
	out := m
	if m.Extra != nil {
		out.Extra = make(map[string]float64, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Values flattens the metrics into a field map. Typed fields are always present.
func (m Metrics) Values() map[string]float64 {
	out := make(map[string]float64, len(additiveFields)+len(m.Extra))
	for _, f := range additiveFields {
		out[f.name] = *f.ref(&m)
	}
	for k, v := range m.Extra {
		out[k] = v
	}
	return out
}

// AdditiveFieldNames lists the typed additive fields in declaration order.
func AdditiveFieldNames() []string {
	names := make([]string, 0, len(additiveFields))
	for _, f := range additiveFields {
		names = append(names, f.name)
	}
	return names
}

// RatioFieldNames lists the derived fields in declaration order.
func RatioFieldNames() []string {
	return []string{
		FieldTotalSpend, FieldROAS, FieldPOAS, FieldSpendShare, FieldSpendShareDB,
		FieldGP, FieldAOV, FieldCTR, FieldCPC, FieldConvRate,
	}
}
