package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/perfdash-backend/api/controllers"
	"github.com/angelmondragon/perfdash-backend/api/middleware"
	"github.com/angelmondragon/perfdash-backend/internal/accounts"
	"github.com/angelmondragon/perfdash-backend/pkg/bigquery"
	"github.com/angelmondragon/perfdash-backend/pkg/config"
	"github.com/angelmondragon/perfdash-backend/pkg/db"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
	"github.com/angelmondragon/perfdash-backend/pkg/metrics"
	"github.com/angelmondragon/perfdash-backend/pkg/redis"
)

// Deps carries everything the HTTP surface is wired to. Nil pingers are
// left out of the readiness check.
type Deps struct {
	DB       db.Pinger
	Redis    *redis.Client
	BigQuery bigquery.Pinger

	Accounts accounts.Service
	Reports  controllers.ReportBuilder
	Rates    controllers.RateTableProvider

	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

func (d Deps) readiness() map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if d.DB != nil {
		checks["db"] = d.DB
	}
	if d.Redis != nil {
		checks["redis"] = d.Redis
	}
	if d.BigQuery != nil {
		checks["bigquery"] = d.BigQuery
	}
	return checks
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	reportLimit := func(next http.Handler) http.Handler { return next }
	if deps.Redis != nil {
		policy := middleware.NewRateLimitPolicy(
			"reports",
			cfg.RateLimit.Window,
			cfg.RateLimit.IPLimit,
			cfg.RateLimit.AccountLimit,
		)
		reportLimit = middleware.RateLimit(policy, deps.Redis, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.readiness()))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing(cfg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboards", controllers.DashboardsList())

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", controllers.AccountsList(deps.Accounts, logg))
			r.Post("/", controllers.AccountsCreate(deps.Accounts, logg))

			r.Route("/{accountId}", func(r chi.Router) {
				r.Get("/", controllers.AccountsGet(deps.Accounts, logg))
				r.Patch("/", controllers.AccountsUpdate(deps.Accounts, logg))
				r.With(reportLimit).Get("/reports/{dashboard}", controllers.ReportBuild(deps.Reports, logg))
			})
		})

		r.Route("/rates", func(r chi.Router) {
			r.Get("/", controllers.RatesCurrent(deps.Rates, logg))
			r.Get("/convert", controllers.RatesConvert(deps.Rates, logg))
		})
	})

	return r
}
