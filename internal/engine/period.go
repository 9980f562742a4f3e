package engine

import (
	"math"
	"time"

	"github.com/angelmondragon/perfdash-backend/pkg/enums"
)

// ComparisonWindow derives the window a current window is compared against.
//
// PreviousYear shifts both ends back one calendar year. PreviousPeriod shifts
// both ends back by the window length, where the end date counts as a whole
// day, so the two windows touch without overlapping.
func ComparisonWindow(current Window, mode enums.ComparisonMode) Window {
	if mode == enums.ComparisonPreviousYear {
		return Window{Start: current.Start.AddYears(-1), End: current.End.AddYears(-1)}
	}
	span := current.End.Time().Add(day).Sub(current.Start.Time())
	daysDiff := int(math.Ceil(float64(span) / float64(day)))
	return Window{Start: current.Start.AddDays(-daysDiff), End: current.End.AddDays(-daysDiff)}
}

// AlignDate maps a date of the current window onto the comparison window at the
// same day offset.
func AlignDate(current, start, compStart Date) Date {
	return compStart.AddDays(DaysBetween(start, current))
}

// YTDWindow spans January 1st of asOf's year through asOf.
func YTDWindow(asOf Date) Window {
	return Window{Start: NewDate(asOf.Year(), time.January, 1), End: asOf}
}

// ResolveWindows returns the current and comparison windows a report needs.
// YTD reports always compare against the same span of the previous year.
func ResolveWindows(requested Window, opts Options) (Window, Window) {
	if opts.Granularity == enums.GranularityYTD {
		asOf := opts.AsOf
		if asOf.IsZero() {
			asOf = requested.End
		}
		current := YTDWindow(asOf)
		return current, ComparisonWindow(current, enums.ComparisonPreviousYear)
	}
	return requested, ComparisonWindow(requested, opts.ComparisonMode)
}
