package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/perfdash-backend/api/responses"
	"github.com/angelmondragon/perfdash-backend/pkg/config"
)

type pingResponse struct {
	Status     string `json:"status"`
	Env        string `json:"env"`
	ServerTime string `json:"server_time"`
}

// PublicPing answers without touching any dependency. server_time lets
// dashboards detect clock skew when picking relative date presets.
func PublicPing(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, pingResponse{
			Status:     "ok",
			Env:        cfg.App.Env,
			ServerTime: time.Now().UTC().Format(time.RFC3339),
		})
	}
}
