package sources

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	cloudbigquery "cloud.google.com/go/bigquery"
	"github.com/angelmondragon/perfdash-backend/internal/engine"
	"github.com/angelmondragon/perfdash-backend/pkg/bigquery"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
	"google.golang.org/api/iterator"
)

const dayColumn = "day"

// WarehouseDefaults are used when a target leaves its warehouse location empty.
type WarehouseDefaults struct {
	Project string
	Dataset string
	Table   string
	Timeout time.Duration
}

// WarehouseFetcher reads one source kind from its BigQuery export table.
type WarehouseFetcher struct {
	kind     enums.SourceKind
	sql      string
	client   bigquery.Querier
	defaults WarehouseDefaults
	logg     *logger.Logger
}

// NewWarehouseFetcher builds the fetcher of a warehouse-backed kind.
func NewWarehouseFetcher(kind enums.SourceKind, client bigquery.Querier, defaults WarehouseDefaults, logg *logger.Logger) (*WarehouseFetcher, error) {
	sql, ok := warehouseSQL[kind]
	if !ok {
		return nil, fmt.Errorf("source %q is not stored in the warehouse", kind)
	}
	if client == nil {
		return nil, errors.New("bigquery client is required")
	}
	return &WarehouseFetcher{kind: kind, sql: sql, client: client, defaults: defaults, logg: logg}, nil
}

func (f *WarehouseFetcher) Kind() enums.SourceKind { return f.kind }

// Fetch queries the window and decodes every row into a raw engine row.
func (f *WarehouseFetcher) Fetch(ctx context.Context, target Target, window engine.Window) (engine.Series, error) {
	query, err := f.render(target)
	if err != nil {
		return engine.Series{}, err
	}
	if f.defaults.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.defaults.Timeout)
		defer cancel()
	}

	params := []cloudbigquery.QueryParameter{
		{Name: "start", Value: window.Start.String()},
		{Name: "end", Value: window.End.String()},
	}
	iter, err := f.client.Query(ctx, query, params)
	if err != nil {
		return engine.Series{}, fmt.Errorf("query %s: %w", f.kind, err)
	}

	series := engine.Series{Name: string(f.kind), Currency: target.Currency, Rows: []engine.RawRow{}}
	for {
		var row map[string]cloudbigquery.Value
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return engine.Series{}, fmt.Errorf("reading %s row: %w", f.kind, err)
		}
		series.Rows = append(series.Rows, f.decode(ctx, row))
	}
	return series, nil
}

func (f *WarehouseFetcher) render(target Target) (string, error) {
	ref, err := bigquery.QualifiedTable(
		firstNonEmpty(target.Project, f.defaults.Project),
		firstNonEmpty(target.Dataset, f.defaults.Dataset),
		firstNonEmpty(target.Table, f.defaults.Table),
	)
	if err != nil {
		return "", fmt.Errorf("resolving %s table: %w", f.kind, err)
	}
	return fmt.Sprintf(f.sql, ref), nil
}

func (f *WarehouseFetcher) decode(ctx context.Context, row map[string]cloudbigquery.Value) engine.RawRow {
	out := engine.RawRow{Fields: make(map[string]float64, len(row))}
	for column, value := range row {
		if column == dayColumn {
			out.Date = dayString(value)
			continue
		}
		n, ok := toFloat(value)
		if !ok {
			if f.logg != nil {
				f.logg.Warn(f.logg.WithFields(ctx, map[string]any{
					"source": string(f.kind),
					"column": column,
					"type":   fmt.Sprintf("%T", value),
				}), "source.unsupported_column")
			}
			continue
		}
		out.Fields[column] = n
	}
	return out
}

func dayString(v cloudbigquery.Value) string {
	switch d := v.(type) {
	case string:
		return strings.TrimSpace(d)
	case fmt.Stringer:
		return d.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(d)
	}
}

// toFloat converts numeric BigQuery values. NULL becomes 0.
func toFloat(v cloudbigquery.Value) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case *big.Rat:
		if n == nil {
			return 0, true
		}
		f, _ := n.Float64()
		return f, true
	default:
		return 0, false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
