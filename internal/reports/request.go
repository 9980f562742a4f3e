package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/perfdash-backend/internal/engine"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/perfdash-backend/pkg/errors"
)

// Preset is a named relative date range.
type Preset string

const (
	PresetLast7Days   Preset = "7d"
	PresetLast30Days  Preset = "30d"
	PresetLast90Days  Preset = "90d"
	PresetMonthToDate Preset = "mtd"
	PresetYearToDate  Preset = "ytd"
)

const maxWindowDays = 731

var trailingDays = map[Preset]int{
	PresetLast7Days:  7,
	PresetLast30Days: 30,
	PresetLast90Days: 90,
}

// ParsePreset converts raw input into a Preset.
func ParsePreset(value string) (Preset, error) {
	p := Preset(strings.ToLower(strings.TrimSpace(value)))
	switch p {
	case PresetLast7Days, PresetLast30Days, PresetLast90Days, PresetMonthToDate, PresetYearToDate:
		return p, nil
	}
	return "", fmt.Errorf("invalid preset %q", value)
}

// Window resolves the preset against today. Trailing presets end yesterday;
// month and year to date end today.
func (p Preset) Window(today engine.Date) engine.Window {
	if days, ok := trailingDays[p]; ok {
		end := today.AddDays(-1)
		return engine.Window{Start: end.AddDays(-(days - 1)), End: end}
	}
	if p == PresetYearToDate {
		return engine.YTDWindow(today)
	}
	return engine.Window{Start: today.MonthStart(), End: today}
}

// Request is a validated report request.
type Request struct {
	AccountID         uuid.UUID
	Dashboard         enums.Dashboard
	Start             engine.Date
	End               engine.Date
	Preset            Preset
	Comparison        enums.ComparisonMode
	Granularity       enums.Granularity
	Currency          enums.Currency
	RevenuePreference enums.RevenuePreference
	AsOf              engine.Date
}

// Query is the raw form of a request as it arrives over HTTP.
type Query struct {
	Start       string
	End         string
	Preset      string
	Comparison  string
	Granularity string
	Currency    string
	Revenue     string
	AsOf        string
}

// Request parses the query. Empty optional fields stay zero so the service
// can apply account and config defaults.
func (q Query) Request(accountID, dashboard string) (Request, error) {
	var req Request
	var err error

	if req.AccountID, err = uuid.Parse(strings.TrimSpace(accountID)); err != nil {
		return Request{}, validation(err, "invalid account id")
	}
	if req.Dashboard, err = enums.ParseDashboard(strings.ToLower(strings.TrimSpace(dashboard))); err != nil {
		return Request{}, validation(err, "unknown dashboard")
	}

	if v := strings.TrimSpace(q.Preset); v != "" {
		if req.Preset, err = ParsePreset(v); err != nil {
			return Request{}, validation(err, "invalid preset")
		}
	}
	if req.Start, err = parseOptionalDate(q.Start, "start"); err != nil {
		return Request{}, err
	}
	if req.End, err = parseOptionalDate(q.End, "end"); err != nil {
		return Request{}, err
	}
	if req.AsOf, err = parseOptionalDate(q.AsOf, "as_of"); err != nil {
		return Request{}, err
	}

	if v := strings.TrimSpace(q.Comparison); v != "" {
		if req.Comparison, err = enums.ParseComparisonMode(v); err != nil {
			return Request{}, validation(err, "invalid comparison")
		}
	}
	if v := strings.TrimSpace(q.Granularity); v != "" {
		if req.Granularity, err = enums.ParseGranularity(v); err != nil {
			return Request{}, validation(err, "invalid granularity")
		}
	}
	if v := strings.TrimSpace(q.Currency); v != "" {
		if req.Currency, err = enums.ParseCurrency(v); err != nil {
			return Request{}, validation(err, "invalid currency")
		}
	}
	if v := strings.TrimSpace(q.Revenue); v != "" {
		if req.RevenuePreference, err = enums.ParseRevenuePreference(strings.ToLower(v)); err != nil {
			return Request{}, validation(err, "invalid revenue preference")
		}
	}
	return req, req.validate()
}

func (r Request) validate() error {
	if r.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if !r.Dashboard.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown dashboard")
	}
	hasRange := !r.Start.IsZero() || !r.End.IsZero()
	if r.Preset != "" {
		if hasRange {
			return pkgerrors.New(pkgerrors.CodeValidation, "use either preset or start and end")
		}
		return nil
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required without a preset")
	}
	if r.End.Before(r.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must not be before start")
	}
	if engine.DaysBetween(r.Start, r.End) >= maxWindowDays {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("window cannot exceed %d days", maxWindowDays))
	}
	return nil
}

// window resolves the requested range, using today for presets.
func (r Request) window(today engine.Date) engine.Window {
	if r.Preset != "" {
		return r.Preset.Window(today)
	}
	return engine.Window{Start: r.Start, End: r.End}
}

func parseOptionalDate(value, field string) (engine.Date, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return engine.Date{}, nil
	}
	d, err := engine.ParseDate(v)
	if err != nil {
		return engine.Date{}, validation(err, fmt.Sprintf("%s must be YYYY-MM-DD", field))
	}
	return d, nil
}

func validation(err error, msg string) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg)
}

// today returns the current calendar date in the named zone, falling back to UTC.
func today(now time.Time, timezone string) engine.Date {
	if loc, err := time.LoadLocation(timezone); err == nil && timezone != "" {
		now = now.In(loc)
	} else {
		now = now.UTC()
	}
	return engine.DateOf(now)
}
