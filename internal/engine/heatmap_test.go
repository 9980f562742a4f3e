package engine

import "testing"

func TestComputeRangesIgnoresZeros(t *testing.T) {
	periods := Bucket(derivedSeries(t,
		row("2024-01-01", map[string]float64{"revenue": 0, "orders": 3}),
		row("2024-01-02", map[string]float64{"revenue": 40, "orders": 1}),
		row("2024-01-03", map[string]float64{"revenue": 10}),
	), "Daily", mustDate(t, "2024-01-03"))
	ranges := ComputeRanges(periods, []string{FieldRevenue, FieldOrders, FieldClicks})
	if ranges[FieldRevenue] != (Range{Min: 10, Max: 40}) {
		t.Fatalf("unexpected revenue range %+v", ranges[FieldRevenue])
	}
	if ranges[FieldOrders] != (Range{Min: 1, Max: 3}) {
		t.Fatalf("unexpected orders range %+v", ranges[FieldOrders])
	}
	if ranges[FieldClicks] != (Range{}) {
		t.Fatalf("expected empty range for all-zero field, got %+v", ranges[FieldClicks])
	}
}

func TestNormalizeBounds(t *testing.T) {
	r := Range{Min: 10, Max: 110}
	if got := Normalize(10, r); !approxEqual(got, 0.05) {
		t.Fatalf("expected floor at min, got %v", got)
	}
	if got := Normalize(110, r); got != 1 {
		t.Fatalf("expected 1 at max, got %v", got)
	}
	if got := Normalize(60, r); !approxEqual(got, 0.5) {
		t.Fatalf("expected 0.5 midway, got %v", got)
	}
	if got := Normalize(0, r); got != 0 {
		t.Fatalf("expected 0 for zero value, got %v", got)
	}
	if got := Normalize(5, Range{Min: 5, Max: 5}); got != 0 {
		t.Fatalf("expected 0 for flat range, got %v", got)
	}
	for _, v := range []float64{-50, 1, 10, 33, 110, 500} {
		got := Normalize(v, r)
		if got < 0 || got > 1 {
			t.Fatalf("Normalize(%v) = %v out of bounds", v, got)
		}
	}
}

func TestHeatmapStyle(t *testing.T) {
	h := Heatmap{
		Current:    map[string]Range{FieldROAS: {Min: 1, Max: 5}},
		Comparison: map[string]Range{FieldROAS: {Min: 2, Max: 4}},
	}
	if got := h.Style(0, FieldROAS, false); got.BackgroundColor != "transparent" {
		t.Fatalf("expected transparent, got %s", got.BackgroundColor)
	}
	if got := h.Style(5, FieldROAS, false); got.BackgroundColor != "rgba(34, 197, 94, 1.00)" {
		t.Fatalf("unexpected current style %s", got.BackgroundColor)
	}
	if got := h.Style(3, FieldROAS, true); got.BackgroundColor != "rgba(59, 130, 246, 0.50)" {
		t.Fatalf("unexpected comparison style %s", got.BackgroundColor)
	}
	if got := h.Style(3, "unknown", false); got.BackgroundColor != "transparent" {
		t.Fatalf("expected transparent for unknown field, got %s", got.BackgroundColor)
	}
}
