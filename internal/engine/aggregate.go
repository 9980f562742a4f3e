package engine

import (
	"encoding/json"
	"sort"

	"github.com/angelmondragon/perfdash-backend/pkg/enums"
)

const (
	KeyTotal = "Total"
	KeyYTD   = "YTD"
)

// Period is a bucket of days. Additive fields are sums over the bucket and
// ratios are derived from those sums.
type Period struct {
	Key     string
	Label   string
	Start   Date
	End     Date
	Days    int
	Derived Derived
}

// Value returns one field of the bucket.
func (p Period) Value(field string) float64 {
	return p.Derived.Value(field)
}

func (p Period) MarshalJSON() ([]byte, error) {
	payload := make(map[string]any, 28)
	for k, v := range p.Derived.Values() {
		payload[k] = v
	}
	payload["key"] = p.Key
	payload["label"] = p.Label
	payload["start"] = p.Start
	payload["end"] = p.End
	payload["days"] = p.Days
	return json.Marshal(payload)
}

type bucketSpec struct {
	key   func(Date) string
	label func(Date) string
	start func(Date) Date
	end   func(Date) Date
}

var weekBuckets = bucketSpec{
	key:   func(d Date) string { return d.WeekStart().String() },
	label: func(d Date) string { return d.WeekStart().WeekLabel() },
	start: func(d Date) Date { return d.WeekStart() },
	end:   func(d Date) Date { return d.WeekStart().AddDays(6) },
}

var monthBuckets = bucketSpec{
	key:   func(d Date) string { return d.MonthKey() },
	label: func(d Date) string { return d.MonthKey() },
	start: func(d Date) Date { return d.MonthStart() },
	end:   func(d Date) Date { return d.MonthStart().addMonths(1).AddDays(-1) },
}

// AggregateByWeek buckets rows by the Monday of their ISO week.
func AggregateByWeek(rows []Derived) []Period {
	return aggregate(rows, weekBuckets)
}

// AggregateByMonth buckets rows by calendar month.
func AggregateByMonth(rows []Derived) []Period {
	return aggregate(rows, monthBuckets)
}

func aggregate(rows []Derived, bucket bucketSpec) []Period {
	buckets := map[string]*Period{}
	for _, row := range rows {
		key := bucket.key(row.Date)
		p, ok := buckets[key]
		if !ok {
			p = &Period{
				Key:     key,
				Label:   bucket.label(row.Date),
				Start:   bucket.start(row.Date),
				End:     bucket.end(row.Date),
				Derived: Derived{Date: bucket.start(row.Date)},
			}
			buckets[key] = p
		}
		p.Derived.Metrics.AddAll(row.Metrics)
		p.Days++
	}

	out := make([]Period, 0, len(buckets))
	for _, p := range buckets {
		p.Derived.Ratios = deriveRatios(p.Derived.Metrics)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Total collapses rows into a single bucket spanning the first to the last row.
func Total(key string, rows []Derived) Period {
	p := Period{Key: key, Label: key}
	for i, row := range rows {
		if i == 0 || row.Date.Before(p.Start) {
			p.Start = row.Date
		}
		if i == 0 || row.Date.After(p.End) {
			p.End = row.Date
		}
		p.Derived.Metrics.AddAll(row.Metrics)
		p.Days++
	}
	p.Derived.Date = p.Start
	p.Derived.Ratios = deriveRatios(p.Derived.Metrics)
	return p
}

// DayPeriod wraps a single day as a one-day bucket.
func DayPeriod(row Derived) Period {
	return Period{
		Key:     row.Date.String(),
		Label:   row.Date.String(),
		Start:   row.Date,
		End:     row.Date,
		Days:    1,
		Derived: row,
	}
}

// FilterYTD keeps rows in asOf's year dated on or before asOf, sorted by date.
func FilterYTD[T dated](rows []T, asOf Date) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		d := row.Day()
		if d.Year() == asOf.Year() && !d.After(asOf) {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day().Before(out[j].Day()) })
	return out
}

// Bucket re-buckets daily rows according to granularity. YTD yields a single
// bucket of the rows that pass FilterYTD.
func Bucket(rows []Derived, granularity enums.Granularity, asOf Date) []Period {
	switch granularity {
	case enums.GranularityWeekly:
		return AggregateByWeek(rows)
	case enums.GranularityMonthly:
		return AggregateByMonth(rows)
	case enums.GranularityYTD:
		ytd := FilterYTD(rows, asOf)
		if len(ytd) == 0 {
			return []Period{}
		}
		return []Period{Total(KeyYTD, ytd)}
	default:
		out := make([]Period, 0, len(rows))
		for _, row := range rows {
			out = append(out, DayPeriod(row))
		}
		return out
	}
}
