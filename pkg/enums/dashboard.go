package enums

import "fmt"

// Dashboard names a report view.
type Dashboard string

const (
	DashboardOverview Dashboard = "overview"
	DashboardPPC      Dashboard = "ppc"
	DashboardSEO      Dashboard = "seo"
	DashboardProduct  Dashboard = "product"
	DashboardPnL      Dashboard = "pnl"
)

var validDashboards = []Dashboard{
	DashboardOverview,
	DashboardPPC,
	DashboardSEO,
	DashboardProduct,
	DashboardPnL,
}

// String implements fmt.Stringer.
func (d Dashboard) String() string {
	return string(d)
}

// IsValid reports whether the dashboard is recognized.
func (d Dashboard) IsValid() bool {
	for _, candidate := range validDashboards {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDashboard converts raw input into a Dashboard.
func ParseDashboard(value string) (Dashboard, error) {
	for _, candidate := range validDashboards {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dashboard %q", value)
}

// Dashboards lists every dashboard in display order.
func Dashboards() []Dashboard {
	return append([]Dashboard(nil), validDashboards...)
}
