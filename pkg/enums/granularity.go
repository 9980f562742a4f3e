package enums

import (
	"fmt"
	"strings"
)

// Granularity is the bucket size of a report time series.
type Granularity string

const (
	GranularityDaily   Granularity = "Daily"
	GranularityWeekly  Granularity = "Weekly"
	GranularityMonthly Granularity = "Monthly"
	GranularityYTD     Granularity = "YTD"
)

var validGranularities = []Granularity{
	GranularityDaily,
	GranularityWeekly,
	GranularityMonthly,
	GranularityYTD,
}

// String implements fmt.Stringer.
func (g Granularity) String() string {
	return string(g)
}

// IsValid reports whether the granularity is recognized.
func (g Granularity) IsValid() bool {
	for _, candidate := range validGranularities {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGranularity converts raw input into a Granularity, ignoring case.
func ParseGranularity(value string) (Granularity, error) {
	for _, candidate := range validGranularities {
		if strings.EqualFold(string(candidate), strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid granularity %q", value)
}
