package enums

import "fmt"

// ComparisonMode selects how the comparison window is derived from the current window.
type ComparisonMode string

const (
	ComparisonPreviousPeriod ComparisonMode = "PreviousPeriod"
	ComparisonPreviousYear   ComparisonMode = "PreviousYear"
)

var validComparisonModes = []ComparisonMode{
	ComparisonPreviousPeriod,
	ComparisonPreviousYear,
}

// String implements fmt.Stringer.
func (m ComparisonMode) String() string {
	return string(m)
}

// IsValid reports whether the mode is recognized.
func (m ComparisonMode) IsValid() bool {
	for _, candidate := range validComparisonModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseComparisonMode converts raw input into a ComparisonMode.
// The short forms "period" and "year" are accepted as well.
func ParseComparisonMode(value string) (ComparisonMode, error) {
	switch value {
	case "period", "previous_period":
		return ComparisonPreviousPeriod, nil
	case "year", "previous_year":
		return ComparisonPreviousYear, nil
	}
	for _, candidate := range validComparisonModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid comparison mode %q", value)
}
