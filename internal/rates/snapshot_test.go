package rates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/perfdash-backend/pkg/enums"
)

func TestParseSnapshot(t *testing.T) {
	snap, err := ParseSnapshot([]byte(`{"as_of":"2024-01-31","rates":{"DKK":6.89,"eur":"0.92"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if snap.Base != "USD" {
		t.Fatalf("expected default base USD, got %s", snap.Base)
	}
	if snap.Rates["DKK"].String() != "6.89" || snap.Rates["eur"].String() != "0.92" {
		t.Fatalf("unexpected rates %+v", snap.Rates)
	}
}

func TestParseSnapshotRejectsBadEnvelope(t *testing.T) {
	cases := map[string]string{
		"not json":    `{`,
		"bad as_of":   `{"as_of":"31/01/2024","rates":{"DKK":6.89}}`,
		"empty rates": `{"as_of":"2024-01-31","rates":{}}`,
	}
	for name, payload := range cases {
		if _, err := ParseSnapshot([]byte(payload)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestSnapshotRowsRebasesAndCollectsErrors(t *testing.T) {
	snap, err := ParseSnapshot([]byte(`{"base":"EUR","as_of":"2024-01-31","rates":{"EUR":1,"USD":0.5,"DKK":3.5,"XYZ":2,"SEK":0}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rows, errs := snap.Rows()
	if got := len(multierr.Errors(errs)); got != 2 {
		t.Fatalf("expected 2 row errors, got %d (%v)", got, errs)
	}
	byCurrency := map[enums.Currency]string{}
	for _, r := range rows {
		byCurrency[r.Currency] = r.PerUSD.String()
		if r.AsOf.Format(asOfLayout) != "2024-01-31" {
			t.Fatalf("unexpected as_of %s", r.AsOf)
		}
	}
	if byCurrency[enums.CurrencyUSD] != "1" || byCurrency[enums.CurrencyEUR] != "2" || byCurrency[enums.CurrencyDKK] != "7" {
		t.Fatalf("unexpected rebased rows %v", byCurrency)
	}

	snap.Rates = map[string]decimal.Decimal{"DKK": mustDecimal(t, "6.9")}
	if _, err := snap.Rows(); err == nil || !strings.Contains(err.Error(), "USD rate") {
		t.Fatalf("expected missing USD pivot error, got %v", err)
	}
}

func TestEmbeddedSnapshotCoversDisplayCurrencies(t *testing.T) {
	rows, err := EmbeddedSnapshot().Rows()
	if err != nil {
		t.Fatalf("embedded rows: %v", err)
	}
	table := NewTable(rows)
	for _, c := range []enums.Currency{enums.CurrencyDKK, enums.CurrencyEUR, enums.CurrencySEK, enums.CurrencyNOK, enums.CurrencyGBP} {
		if _, ok := table.Rate(c); !ok {
			t.Fatalf("embedded snapshot misses %s", c)
		}
	}
}

func TestLoadSnapshot(t *testing.T) {
	snap, err := LoadSnapshot("")
	if err != nil || snap.AsOf == "" {
		t.Fatalf("expected embedded snapshot, got %+v err=%v", snap, err)
	}

	path := filepath.Join(t.TempDir(), "rates.json")
	if err := os.WriteFile(path, []byte(`{"as_of":"2025-02-01","rates":{"DKK":7.1}}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	snap, err = LoadSnapshot(path)
	if err != nil || snap.AsOf != "2025-02-01" {
		t.Fatalf("expected file snapshot, got %+v err=%v", snap, err)
	}

	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
