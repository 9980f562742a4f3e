package engine

import (
	"fmt"
	"math"
)

const minIntensity = 0.05

// Range is the spread of non-zero values of one field.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Style is the inline style applied to a heatmap cell.
type Style struct {
	BackgroundColor string `json:"backgroundColor"`
}

var (
	currentRGB    = [3]int{34, 197, 94}
	comparisonRGB = [3]int{59, 130, 246}
)

// ComputeRanges scans periods for the min and max of each field, skipping zeros.
// Fields with no non-zero value get an empty range.
func ComputeRanges(periods []Period, fields []string) map[string]Range {
	out := make(map[string]Range, len(fields))
	for _, field := range fields {
		seen := false
		var r Range
		for _, p := range periods {
			v := p.Value(field)
			if v == 0 || math.IsNaN(v) {
				continue
			}
			if !seen {
				r = Range{Min: v, Max: v}
				seen = true
				continue
			}
			r.Min = math.Min(r.Min, v)
			r.Max = math.Max(r.Max, v)
		}
		out[field] = r
	}
	return out
}

// Normalize maps value into a heatmap intensity. Zero values and flat ranges
// return 0; anything else scales linearly with a floor of 0.05 and a cap of 1.
func Normalize(value float64, r Range) float64 {
	if value == 0 || math.IsNaN(value) || r.Min == r.Max {
		return 0
	}
	n := (value - r.Min) / (r.Max - r.Min)
	if n > 1 {
		n = 1
	}
	if n < minIntensity {
		n = minIntensity
	}
	return n
}

// Heatmap holds the ranges of the current and comparison series.
type Heatmap struct {
	Current    map[string]Range `json:"current"`
	Comparison map[string]Range `json:"comparison"`
}

// Style renders the background of one cell. Current and comparison series use
// separate hues and are normalized against their own ranges.
func (h Heatmap) Style(value float64, field string, isComparison bool) Style {
	ranges, rgb := h.Current, currentRGB
	if isComparison {
		ranges, rgb = h.Comparison, comparisonRGB
	}
	intensity := Normalize(value, ranges[field])
	if intensity == 0 {
		return Style{BackgroundColor: "transparent"}
	}
	return Style{BackgroundColor: fmt.Sprintf("rgba(%d, %d, %d, %.2f)", rgb[0], rgb[1], rgb[2], intensity)}
}
