package engine

import (
	"context"
	"sort"

	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
)

// RawRow is one daily row as returned by a source.
type RawRow struct {
	Date   string             `json:"date"`
	Fields map[string]float64 `json:"fields"`
}

// Series is the rows of one source together with how its columns map onto
// canonical fields. Columns without a mapping keep their own name.
type Series struct {
	Name     string            `json:"name"`
	Currency enums.Currency    `json:"currency,omitempty"`
	Mapping  map[string]string `json:"mapping,omitempty"`
	Rows     []RawRow          `json:"rows"`
}

func (s Series) canonical(column string) string {
	if mapped, ok := s.Mapping[column]; ok && mapped != "" {
		return mapped
	}
	return column
}

// Merge outer-joins the series on date. Every date present in at least one
// series yields exactly one record; absent fields are 0. Duplicate dates within
// a series are summed. Rows with an unparseable date are dropped with a warning.
func Merge(ctx context.Context, logg *logger.Logger, series []Series) []Record {
	byDate := map[string]*Record{}
	for _, s := range series {
		for _, row := range s.Rows {
			date, err := ParseDate(row.Date)
			if err != nil {
				warn(ctx, logg, "engine.merge.invalid_date", map[string]any{
					"source": s.Name,
					"date":   row.Date,
				})
				continue
			}
			rec, ok := byDate[date.String()]
			if !ok {
				rec = &Record{Date: date}
				byDate[date.String()] = rec
			}
			for column, value := range row.Fields {
				if !isFinite(value) {
					warn(ctx, logg, "engine.merge.non_finite_value", map[string]any{
						"source": s.Name,
						"date":   row.Date,
						"field":  column,
					})
					continue
				}
				rec.Metrics.Add(s.canonical(column), value)
			}
		}
	}

	records := make([]Record, 0, len(byDate))
	for _, rec := range byDate {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records
}

// dated is satisfied by every per-day row type.
type dated interface {
	Day() Date
}

// Clip keeps rows inside the window, preserving order.
func Clip[T dated](rows []T, w Window) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if w.Contains(row.Day()) {
			out = append(out, row)
		}
	}
	return out
}

func warn(ctx context.Context, logg *logger.Logger, msg string, fields map[string]any) {
	if logg == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logg.Warn(logg.WithFields(ctx, fields), msg)
}
