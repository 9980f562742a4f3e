package dashboards

import (
	"github.com/angelmondragon/perfdash-backend/internal/engine"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
)

// Extra canonical fields used by the layouts on top of the engine's typed ones.
const (
	FieldUnits            = "units"
	FieldPositionWeighted = "position_weighted"
	FieldSessionsTotal    = "sessions_total"
	FieldSessionsOrganic  = "sessions_organic_search"
)

// SourceBinding says that a source feeds a dashboard and how its warehouse
// columns map onto canonical engine fields.
type SourceBinding struct {
	Kind    enums.SourceKind  `json:"kind"`
	Mapping map[string]string `json:"mapping,omitempty"`
}

// Layout is the field configuration of one dashboard.
type Layout struct {
	Dashboard     enums.Dashboard `json:"dashboard"`
	Sources       []SourceBinding `json:"sources"`
	HeatmapFields []string        `json:"heatmap_fields"`
	SummaryFields []string        `json:"summary_fields"`
}

// Kinds lists the source kinds bound to the layout, in binding order.
func (l Layout) Kinds() []enums.SourceKind {
	out := make([]enums.SourceKind, 0, len(l.Sources))
	for _, b := range l.Sources {
		out = append(out, b.Kind)
	}
	return out
}

// Binding returns the binding of kind.
func (l Layout) Binding(kind enums.SourceKind) (SourceBinding, bool) {
	for _, b := range l.Sources {
		if b.Kind == kind {
			return b, true
		}
	}
	return SourceBinding{}, false
}

var shopMapping = map[string]string{
	"orders":         engine.FieldOrders,
	"total_sales":    engine.FieldRevenue,
	"net_sales":      engine.FieldNetSales,
	"revenue_ex_tax": engine.FieldRevenueExTax,
	"units":          FieldUnits,
	"refunds":        engine.FieldRefunds,
}

var googleAdsMapping = map[string]string{
	"cost":              engine.FieldPPCCost,
	"clicks":            engine.FieldClicks,
	"impressions":       engine.FieldImpressions,
	"conversions":       engine.FieldConversions,
	"conversions_value": engine.FieldConversionsValue,
}

var metaAdsMapping = map[string]string{
	"spend":          engine.FieldPSCost,
	"clicks":         engine.FieldClicks,
	"impressions":    engine.FieldImpressions,
	"purchases":      engine.FieldConversions,
	"purchase_value": engine.FieldConversionsValue,
}

var searchConsoleMapping = map[string]string{
	"clicks":            engine.FieldClicks,
	"impressions":       engine.FieldImpressions,
	"position_weighted": FieldPositionWeighted,
}

// Spend-only bindings keep ad engagement columns out of the canonical fields
// of dashboards that only chart spend.
var googleAdsSpendOnly = map[string]string{
	"cost":              engine.FieldPPCCost,
	"clicks":            "ppc_clicks",
	"impressions":       "ppc_impressions",
	"conversions":       "ppc_conversions",
	"conversions_value": "ppc_conversions_value",
}

var metaAdsSpendOnly = map[string]string{
	"spend":          engine.FieldPSCost,
	"clicks":         "ps_clicks",
	"impressions":    "ps_impressions",
	"purchases":      "ps_conversions",
	"purchase_value": "ps_conversions_value",
}

var seoSessionsMapping = map[string]string{
	engine.FieldSessions: FieldSessionsTotal,
	FieldSessionsOrganic: engine.FieldSessions,
}

func shopBindings(mapping map[string]string) []SourceBinding {
	return []SourceBinding{
		{Kind: enums.SourceShopify, Mapping: mapping},
		{Kind: enums.SourceWooCommerce, Mapping: mapping},
	}
}

func bindings(groups ...[]SourceBinding) []SourceBinding {
	var out []SourceBinding
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var layouts = map[enums.Dashboard]Layout{
	enums.DashboardOverview: {
		Dashboard: enums.DashboardOverview,
		Sources: bindings(
			shopBindings(shopMapping),
			[]SourceBinding{
				{Kind: enums.SourceGoogleAds, Mapping: googleAdsMapping},
				{Kind: enums.SourceMetaAds, Mapping: metaAdsMapping},
				{Kind: enums.SourceGA4},
			},
		),
		HeatmapFields: []string{engine.FieldRevenue, engine.FieldOrders, engine.FieldTotalSpend, engine.FieldROAS, engine.FieldSessions},
		SummaryFields: []string{engine.FieldRevenue, engine.FieldOrders, engine.FieldTotalSpend, engine.FieldROAS, engine.FieldPOAS, engine.FieldAOV, engine.FieldSessions},
	},
	enums.DashboardPPC: {
		Dashboard: enums.DashboardPPC,
		Sources: bindings(
			shopBindings(shopMapping),
			[]SourceBinding{
				{Kind: enums.SourceGoogleAds, Mapping: googleAdsMapping},
				{Kind: enums.SourceMetaAds, Mapping: metaAdsMapping},
			},
		),
		HeatmapFields: []string{engine.FieldROAS, engine.FieldCPC, engine.FieldCTR, engine.FieldConvRate},
		SummaryFields: []string{engine.FieldPPCCost, engine.FieldPSCost, engine.FieldTotalSpend, engine.FieldClicks, engine.FieldImpressions, engine.FieldROAS, engine.FieldCPC, engine.FieldCTR, engine.FieldConvRate},
	},
	enums.DashboardSEO: {
		Dashboard: enums.DashboardSEO,
		Sources: []SourceBinding{
			{Kind: enums.SourceSearchConsole, Mapping: searchConsoleMapping},
			{Kind: enums.SourceGA4, Mapping: seoSessionsMapping},
		},
		HeatmapFields: []string{engine.FieldClicks, engine.FieldImpressions, engine.FieldCTR, engine.FieldSessions},
		SummaryFields: []string{engine.FieldClicks, engine.FieldImpressions, engine.FieldCTR, engine.FieldSessions},
	},
	enums.DashboardProduct: {
		Dashboard:     enums.DashboardProduct,
		Sources:       shopBindings(shopMapping),
		HeatmapFields: []string{engine.FieldAOV, engine.FieldOrders, FieldUnits},
		SummaryFields: []string{engine.FieldRevenue, engine.FieldOrders, FieldUnits, engine.FieldRefunds, engine.FieldAOV},
	},
	enums.DashboardPnL: {
		Dashboard: enums.DashboardPnL,
		Sources: bindings(
			shopBindings(shopMapping),
			[]SourceBinding{
				{Kind: enums.SourceGoogleAds, Mapping: googleAdsSpendOnly},
				{Kind: enums.SourceMetaAds, Mapping: metaAdsSpendOnly},
			},
		),
		HeatmapFields: []string{engine.FieldGP, engine.FieldPOAS, engine.FieldSpendShare, engine.FieldSpendShareDB},
		SummaryFields: []string{engine.FieldRevenue, engine.FieldRevenueExTax, engine.FieldTotalSpend, engine.FieldGP, engine.FieldPOAS, engine.FieldSpendShare, engine.FieldSpendShareDB},
	},
}

// Lookup returns the layout of a dashboard.
func Lookup(d enums.Dashboard) (Layout, bool) {
	l, ok := layouts[d]
	return l, ok
}

// All returns every layout in dashboard display order.
func All() []Layout {
	out := make([]Layout, 0, len(layouts))
	for _, d := range enums.Dashboards() {
		if l, ok := layouts[d]; ok {
			out = append(out, l)
		}
	}
	return out
}
