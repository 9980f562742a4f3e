package controllers

import (
	"net/http"

	"github.com/angelmondragon/perfdash-backend/api/responses"
	"github.com/angelmondragon/perfdash-backend/internal/dashboards"
)

// DashboardsList describes the available dashboards and the sources each reads.
func DashboardsList() http.HandlerFunc {
	layouts := dashboards.All()
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, layouts)
	}
}
