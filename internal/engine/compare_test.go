package engine

import "testing"

func fixturePeriods(t *testing.T) (Period, Period) {
	t.Helper()
	a := Total(KeyTotal, derivedSeries(t,
		row("2024-01-01", map[string]float64{"orders": 5, "revenue": 500, "ppc_cost": 50, "clicks": 100, "sessions_organic": 7}),
	))
	b := Total(KeyTotal, derivedSeries(t,
		row("2023-01-01", map[string]float64{"orders": 2, "revenue": 300, "ps_cost": 20, "impressions": 900}),
	))
	return a, b
}

func TestDifferenceIsAntisymmetric(t *testing.T) {
	a, b := fixturePeriods(t)
	ab := Difference(a, b)
	ba := Difference(b, a)
	if len(ab) != len(ba) {
		t.Fatalf("expected same field sets, got %d vs %d", len(ab), len(ba))
	}
	for field, v := range ab {
		if !approxEqual(v, -ba[field]) {
			t.Fatalf("%s: %v != -%v", field, v, ba[field])
		}
	}
	if ab[FieldRevenue] != 200 || ab[FieldOrders] != 3 {
		t.Fatalf("unexpected additive differences %+v", ab)
	}
	if ab["sessions_organic"] != 7 {
		t.Fatalf("expected extra field difference, got %v", ab["sessions_organic"])
	}
	if !approxEqual(ab[FieldROAS], 10-15) {
		t.Fatalf("expected ratio difference of aggregated ratios, got %v", ab[FieldROAS])
	}
}

func TestIndex(t *testing.T) {
	for _, x := range []float64{1, 0.5, 42, -3, 1e9} {
		if got := Index(x, x); !approxEqual(got, 100) {
			t.Fatalf("Index(%v, %v) = %v, want 100", x, x, got)
		}
	}
	if got := Index(150, 100); !approxEqual(got, 150) {
		t.Fatalf("unexpected index %v", got)
	}
	if got := Index(5, 0); got != 0 {
		t.Fatalf("expected zero index for zero comparison, got %v", got)
	}
	if got := Index(0, 0); got != 0 {
		t.Fatalf("expected zero index for zero values, got %v", got)
	}
}

func TestCompare(t *testing.T) {
	a, b := fixturePeriods(t)
	cmp := Compare(a, b)
	if !approxEqual(cmp.Index[FieldRevenue], 500.0/300*100) {
		t.Fatalf("unexpected revenue index %v", cmp.Index[FieldRevenue])
	}
	if cmp.Index[FieldClicks] != 0 {
		t.Fatalf("expected zero index where comparison has no clicks, got %v", cmp.Index[FieldClicks])
	}
	if cmp.Difference[FieldImpressions] != -900 {
		t.Fatalf("unexpected impressions difference %v", cmp.Difference[FieldImpressions])
	}
	if cmp.Current.Key != KeyTotal || cmp.Comparison.Key != KeyTotal {
		t.Fatal("expected periods carried through")
	}
}
