package engine

import (
	"context"
	"math"
	"strings"
	"testing"
)

func TestMergeOuterJoinsOnDate(t *testing.T) {
	series := []Series{
		{Name: "shop", Rows: []RawRow{
			row("2024-01-03", map[string]float64{"orders": 2, "revenue": 200}),
			row("2024-01-01", map[string]float64{"orders": 1, "revenue": 100}),
		}},
		{Name: "google", Mapping: map[string]string{"cost": FieldPPCCost}, Rows: []RawRow{
			row("2024-01-02", map[string]float64{"cost": 15, "clicks": 30}),
			row("2024-01-03", map[string]float64{"cost": 5}),
		}},
	}
	got := Merge(context.Background(), nil, series)

	wantDates := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	if len(got) != len(wantDates) {
		t.Fatalf("expected %d records, got %d", len(wantDates), len(got))
	}
	for i, want := range wantDates {
		if got[i].Date.String() != want {
			t.Fatalf("record %d date = %s, want %s", i, got[i].Date, want)
		}
	}
	if got[1].Metrics.Revenue != 0 || got[1].Metrics.PPCCost != 15 || got[1].Metrics.Clicks != 30 {
		t.Fatalf("unexpected 2024-01-02 metrics %+v", got[1].Metrics)
	}
	if got[2].Metrics.Revenue != 200 || got[2].Metrics.PPCCost != 5 {
		t.Fatalf("unexpected 2024-01-03 metrics %+v", got[2].Metrics)
	}
	if _, ok := got[0].Metrics.Extra["cost"]; ok {
		t.Fatal("mapped column should not leak into extra fields")
	}
}

func TestMergeSumsDuplicateDatesWithinSource(t *testing.T) {
	got := Merge(context.Background(), nil, []Series{{Name: "meta", Rows: []RawRow{
		row("2024-02-01", map[string]float64{"ps_cost": 10}),
		row("2024-02-01", map[string]float64{"ps_cost": 5, "sessions_paid": 3}),
	}}})
	if len(got) != 1 {
		t.Fatalf("expected a single record, got %d", len(got))
	}
	if got[0].Metrics.PSCost != 15 {
		t.Fatalf("expected summed ps_cost 15, got %v", got[0].Metrics.PSCost)
	}
	if got[0].Metrics.Extra["sessions_paid"] != 3 {
		t.Fatalf("expected extra field kept, got %+v", got[0].Metrics.Extra)
	}
}

func TestMergeDropsInvalidDatesAndWarns(t *testing.T) {
	logg, buf := bufferedLogger()
	got := Merge(context.Background(), logg, []Series{{Name: "shop", Rows: []RawRow{
		row("not-a-date", map[string]float64{"revenue": 999}),
		row("2024-01-05", map[string]float64{"revenue": 50}),
	}}})
	if len(got) != 1 || got[0].Metrics.Revenue != 50 {
		t.Fatalf("expected only the valid row, got %+v", got)
	}
	if !strings.Contains(buf.String(), "engine.merge.invalid_date") {
		t.Fatalf("expected warning log, got %q", buf.String())
	}
}

func TestMergeSkipsNonFiniteValuesAndWarns(t *testing.T) {
	logg, buf := bufferedLogger()
	got := Merge(context.Background(), logg, []Series{
		{Name: "shop", Rows: []RawRow{row("2024-01-05", map[string]float64{"revenue": math.Inf(1), "orders": 2})}},
		{Name: "ads", Rows: []RawRow{row("2024-01-05", map[string]float64{"ppc_cost": math.NaN(), "clicks": 4})}},
	})
	if len(got) != 1 {
		t.Fatalf("expected one record, got %+v", got)
	}
	m := got[0].Metrics
	if m.Revenue != 0 || m.PPCCost != 0 || m.Orders != 2 || m.Clicks != 4 {
		t.Fatalf("expected non-finite values dropped and the rest kept, got %+v", m)
	}
	if !strings.Contains(buf.String(), "engine.merge.non_finite_value") {
		t.Fatalf("expected warning log, got %q", buf.String())
	}
}

func TestMergeEmptyInput(t *testing.T) {
	got := Merge(context.Background(), nil, nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
	got = Merge(context.Background(), nil, []Series{{Name: "empty"}})
	if len(got) != 0 {
		t.Fatalf("expected no records from empty series, got %d", len(got))
	}
}

func TestMergeCompleteness(t *testing.T) {
	series := []Series{
		{Name: "a", Rows: []RawRow{row("2024-03-01", nil), row("2024-03-04", map[string]float64{"orders": 1})}},
		{Name: "b", Rows: []RawRow{row("2024-03-02", map[string]float64{"clicks": 1})}},
	}
	got := Merge(context.Background(), nil, series)
	present := map[string]int{}
	for _, r := range got {
		present[r.Date.String()]++
	}
	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-04"} {
		if present[d] != 1 {
			t.Fatalf("expected exactly one record for %s, got %d", d, present[d])
		}
	}
	if present["2024-03-03"] != 0 {
		t.Fatal("date absent from every source must not appear")
	}
}

func TestClip(t *testing.T) {
	records := Merge(context.Background(), nil, []Series{{Name: "a", Rows: []RawRow{
		row("2024-01-01", nil), row("2024-01-05", nil), row("2024-01-10", nil),
	}}})
	clipped := Clip(records, Window{Start: mustDate(t, "2024-01-02"), End: mustDate(t, "2024-01-10")})
	if len(clipped) != 2 || clipped[0].Date.String() != "2024-01-05" {
		t.Fatalf("unexpected clipped records %+v", clipped)
	}
}
