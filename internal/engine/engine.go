package engine

import (
	"context"

	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
)

// Options configure one report computation.
type Options struct {
	Currency          enums.Currency
	RevenuePreference enums.RevenuePreference
	ComparisonMode    enums.ComparisonMode
	Granularity       enums.Granularity
	AsOf              Date
	HeatmapFields     []string
}

func (o Options) withDefaults(base enums.Currency, window Window) Options {
	if o.Currency == "" {
		o.Currency = base
	}
	if !o.RevenuePreference.IsValid() {
		o.RevenuePreference = enums.RevenueGross
	}
	if !o.ComparisonMode.IsValid() {
		o.ComparisonMode = enums.ComparisonPreviousPeriod
	}
	if !o.Granularity.IsValid() {
		o.Granularity = enums.GranularityDaily
	}
	if o.AsOf.IsZero() {
		o.AsOf = window.End
	}
	return o
}

// Input is everything the engine needs for one report. Comparison series must
// cover the window returned by ResolveWindows.
type Input struct {
	Window     Window
	Current    []Series
	Comparison []Series
	Options    Options
}

// CellStyle carries the heatmap styles of one field in one row.
type CellStyle struct {
	Current    Style `json:"current"`
	Comparison Style `json:"comparison"`
}

// Row is one display bucket with its aligned comparison bucket.
type Row struct {
	Key          string               `json:"key"`
	Label        string               `json:"label"`
	AlignedStart *Date                `json:"aligned_start,omitempty"`
	Current      Period               `json:"current"`
	Comparison   Period               `json:"comparison"`
	Difference   map[string]float64   `json:"difference"`
	Index        map[string]float64   `json:"index"`
	Styles       map[string]CellStyle `json:"styles,omitempty"`
}

// Report is the full output of one engine run.
type Report struct {
	Window            Window                  `json:"window"`
	ComparisonWindow  Window                  `json:"comparison_window"`
	Currency          enums.Currency          `json:"currency"`
	RevenuePreference enums.RevenuePreference `json:"revenue_preference"`
	ComparisonMode    enums.ComparisonMode    `json:"comparison_mode"`
	Granularity       enums.Granularity       `json:"granularity"`
	Daily             []Derived               `json:"daily"`
	ComparisonDaily   []Derived               `json:"comparison_daily"`
	Rows              []Row                   `json:"rows"`
	Totals            Comparison              `json:"totals"`
	Heatmap           Heatmap                 `json:"heatmap"`
}

// Engine runs the reconciliation pipeline. It keeps no state between calls.
type Engine struct {
	converter *Converter
	logg      *logger.Logger
}

// New builds an engine converting through rates into base by default.
func New(rates RateSource, base enums.Currency, logg *logger.Logger) *Engine {
	return &Engine{converter: NewConverter(rates, base, logg), logg: logg}
}

// Build converts, merges, derives, buckets and compares the input series.
func (e *Engine) Build(ctx context.Context, in Input) *Report {
	opts := in.Options.withDefaults(e.converter.Base(), in.Window)
	window, compWindow := ResolveWindows(in.Window, opts)

	current := e.prepare(ctx, in.Current, window, opts)
	comparison := e.prepare(ctx, in.Comparison, compWindow, opts)

	var rows []Row
	switch opts.Granularity {
	case enums.GranularityDaily:
		rows = alignDaily(current, comparison, window, compWindow)
	case enums.GranularityYTD:
		rows = pairBuckets(
			Bucket(current, opts.Granularity, opts.AsOf),
			Bucket(comparison, opts.Granularity, opts.AsOf.AddYears(-1)),
		)
	default:
		rows = pairBuckets(
			Bucket(current, opts.Granularity, opts.AsOf),
			Bucket(comparison, opts.Granularity, opts.AsOf),
		)
	}

	heatmap := Heatmap{
		Current:    ComputeRanges(currentPeriods(rows), opts.HeatmapFields),
		Comparison: ComputeRanges(comparisonPeriods(rows), opts.HeatmapFields),
	}
	if len(opts.HeatmapFields) > 0 {
		for i := range rows {
			rows[i].Styles = styleRow(heatmap, rows[i], opts.HeatmapFields)
		}
	}

	return &Report{
		Window:            window,
		ComparisonWindow:  compWindow,
		Currency:          opts.Currency,
		RevenuePreference: opts.RevenuePreference,
		ComparisonMode:    opts.ComparisonMode,
		Granularity:       opts.Granularity,
		Daily:             current,
		ComparisonDaily:   comparison,
		Rows:              rows,
		Totals:            Compare(Total(KeyTotal, current), Total(KeyTotal, comparison)),
		Heatmap:           heatmap,
	}
}

func (e *Engine) prepare(ctx context.Context, series []Series, window Window, opts Options) []Derived {
	converted := make([]Series, 0, len(series))
	for _, s := range series {
		converted = append(converted, e.converter.ConvertSeries(ctx, s, opts.Currency))
	}
	records := Clip(Merge(ctx, e.logg, converted), window)
	return DeriveAll(records, opts.RevenuePreference)
}

// alignDaily pairs every current day with the comparison day at the same offset.
// A missing comparison day compares against an empty bucket.
func alignDaily(current, comparison []Derived, window, compWindow Window) []Row {
	byDate := make(map[string]Derived, len(comparison))
	for _, row := range comparison {
		byDate[row.Date.String()] = row
	}
	rows := make([]Row, 0, len(current))
	for _, cur := range current {
		aligned := AlignDate(cur.Date, window.Start, compWindow.Start)
		prev, ok := byDate[aligned.String()]
		if !ok {
			prev = Derived{Date: aligned}
		}
		row := newRow(DayPeriod(cur), DayPeriod(prev))
		row.AlignedStart = &aligned
		rows = append(rows, row)
	}
	return rows
}

// pairBuckets pairs buckets by ordinal position.
func pairBuckets(current, comparison []Period) []Row {
	rows := make([]Row, 0, len(current))
	for i, cur := range current {
		var prev Period
		if i < len(comparison) {
			prev = comparison[i]
		}
		row := newRow(cur, prev)
		if !prev.Start.IsZero() {
			start := prev.Start
			row.AlignedStart = &start
		}
		rows = append(rows, row)
	}
	return rows
}

func newRow(current, comparison Period) Row {
	cmp := Compare(current, comparison)
	return Row{
		Key:        current.Key,
		Label:      current.Label,
		Current:    current,
		Comparison: comparison,
		Difference: cmp.Difference,
		Index:      cmp.Index,
	}
}

func styleRow(h Heatmap, row Row, fields []string) map[string]CellStyle {
	styles := make(map[string]CellStyle, len(fields))
	for _, field := range fields {
		styles[field] = CellStyle{
			Current:    h.Style(row.Current.Value(field), field, false),
			Comparison: h.Style(row.Comparison.Value(field), field, true),
		}
	}
	return styles
}

func currentPeriods(rows []Row) []Period {
	out := make([]Period, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Current)
	}
	return out
}

func comparisonPeriods(rows []Row) []Period {
	out := make([]Period, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Comparison)
	}
	return out
}
