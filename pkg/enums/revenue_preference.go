package enums

import "fmt"

// RevenuePreference selects which upstream revenue figure feeds derived metrics.
type RevenuePreference string

const (
	RevenueGross RevenuePreference = "gross"
	RevenueNet   RevenuePreference = "net"
)

var validRevenuePreferences = []RevenuePreference{
	RevenueGross,
	RevenueNet,
}

// String implements fmt.Stringer.
func (p RevenuePreference) String() string {
	return string(p)
}

// IsValid reports whether the preference is recognized.
func (p RevenuePreference) IsValid() bool {
	for _, candidate := range validRevenuePreferences {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseRevenuePreference converts raw input into a RevenuePreference.
func ParseRevenuePreference(value string) (RevenuePreference, error) {
	for _, candidate := range validRevenuePreferences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid revenue preference %q", value)
}
