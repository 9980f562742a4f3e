package rates

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/perfdash-backend/pkg/db/models"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
)

const asOfLayout = "2006-01-02"

//go:embed snapshot.json
var embeddedSnapshot []byte

// Snapshot is the on-disk rate format. Rates are units of each currency per
// one unit of Base.
type Snapshot struct {
	Base  string                     `json:"base"`
	AsOf  string                     `json:"as_of"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// ParseSnapshot decodes and checks the snapshot envelope. Individual rates
// are checked when they are turned into rows.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode rate snapshot: %w", err)
	}
	snap.Base = strings.ToUpper(strings.TrimSpace(snap.Base))
	if snap.Base == "" {
		snap.Base = string(enums.CurrencyUSD)
	}
	if _, err := time.Parse(asOfLayout, snap.AsOf); err != nil {
		return Snapshot{}, fmt.Errorf("invalid as_of %q: %w", snap.AsOf, err)
	}
	if len(snap.Rates) == 0 {
		return Snapshot{}, fmt.Errorf("rate snapshot has no rates")
	}
	return snap, nil
}

// EmbeddedSnapshot returns the snapshot compiled into the binary.
func EmbeddedSnapshot() Snapshot {
	snap, err := ParseSnapshot(embeddedSnapshot)
	if err != nil {
		panic(fmt.Sprintf("embedded rate snapshot: %v", err))
	}
	return snap
}

// LoadSnapshot reads the snapshot at path, or the embedded one when path is empty.
func LoadSnapshot(path string) (Snapshot, error) {
	if strings.TrimSpace(path) == "" {
		return EmbeddedSnapshot(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read rate snapshot: %w", err)
	}
	return ParseSnapshot(data)
}

// Rows converts the snapshot into per-USD rows. Snapshots in another base are
// rebased through their USD rate. Invalid entries are skipped and reported
// together in the returned error.
func (s Snapshot) Rows() ([]models.CurrencyRate, error) {
	asOf, err := time.Parse(asOfLayout, s.AsOf)
	if err != nil {
		return nil, fmt.Errorf("invalid as_of %q: %w", s.AsOf, err)
	}

	divisor := decimal.NewFromInt(1)
	if s.Base != string(enums.CurrencyUSD) {
		usd, ok := s.Rates[string(enums.CurrencyUSD)]
		if !ok || !usd.IsPositive() {
			return nil, fmt.Errorf("snapshot base %s needs a positive USD rate", s.Base)
		}
		divisor = usd
	}

	var errs error
	rows := make([]models.CurrencyRate, 0, len(s.Rates))
	for code, rate := range s.Rates {
		currency, err := enums.ParseCurrency(code)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !rate.IsPositive() {
			errs = multierr.Append(errs, fmt.Errorf("rate for %s must be positive", currency))
			continue
		}
		rows = append(rows, models.CurrencyRate{
			Currency: currency,
			PerUSD:   rate.DivRound(divisor, 10),
			AsOf:     asOf,
		})
	}
	return rows, errs
}
