package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
	day         = 24 * time.Hour
)

// Date is a calendar day without a time component. Dates are held at UTC
// midnight so ordering matches the lexicographic order of their YYYY-MM-DD form.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its components. Out-of-range values roll over the
// way time.Date does.
func NewDate(year int, month time.Month, dayOfMonth int) Date {
	return Date{t: time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a strict YYYY-MM-DD value.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return Date{t: t}, nil
}

func (d Date) IsZero() bool {
	return d.t.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

// Time returns the date as UTC midnight.
func (d Date) Time() time.Time {
	return d.t
}

func (d Date) Year() int {
	return d.t.Year()
}

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// AddYears shifts the date by whole years. Feb 29 rolls over to Mar 1 in
// non-leap targets.
func (d Date) AddYears(n int) Date {
	return Date{t: d.t.AddDate(n, 0, 0)}
}

func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

func (d Date) addMonths(n int) Date {
	return Date{t: d.t.AddDate(0, n, 0)}
}

// WeekStart returns the Monday of the ISO week containing d. Sunday maps back six days.
func (d Date) WeekStart() Date {
	offset := (int(d.t.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.t.Year(), d.t.Month(), 1)
}

// MonthKey formats the date as YYYY-MM.
func (d Date) MonthKey() string {
	return d.t.Format(monthLayout)
}

// WeekLabel formats the ISO week as YYYY-Www.
func (d Date) WeekLabel() string {
	year, week := d.t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// DaysBetween returns the whole number of days from a to b (negative when b is before a).
func DaysBetween(a, b Date) int {
	return int(math.Round(b.t.Sub(a.t).Hours() / 24))
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Window is an inclusive calendar range.
type Window struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// NewWindow validates that start does not come after end.
func NewWindow(start, end Date) (Window, error) {
	if start.IsZero() || end.IsZero() {
		return Window{}, fmt.Errorf("window start and end are required")
	}
	if end.Before(start) {
		return Window{}, fmt.Errorf("window end %s is before start %s", end, start)
	}
	return Window{Start: start, End: end}, nil
}

// Contains reports whether d falls inside the window, both ends included.
func (w Window) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days counts the calendar days covered by the window.
func (w Window) Days() int {
	return DaysBetween(w.Start, w.End) + 1
}
