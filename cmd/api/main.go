package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/perfdash-backend/api/routes"
	"github.com/angelmondragon/perfdash-backend/internal/accounts"
	"github.com/angelmondragon/perfdash-backend/internal/engine"
	"github.com/angelmondragon/perfdash-backend/internal/rates"
	"github.com/angelmondragon/perfdash-backend/internal/reports"
	"github.com/angelmondragon/perfdash-backend/internal/sources"
	"github.com/angelmondragon/perfdash-backend/pkg/bigquery"
	"github.com/angelmondragon/perfdash-backend/pkg/config"
	"github.com/angelmondragon/perfdash-backend/pkg/db"
	"github.com/angelmondragon/perfdash-backend/pkg/env"
	"github.com/angelmondragon/perfdash-backend/pkg/ga4"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
	"github.com/angelmondragon/perfdash-backend/pkg/metrics"
	"github.com/angelmondragon/perfdash-backend/pkg/migrate"
	"github.com/angelmondragon/perfdash-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if cfg.App.IsProd() && originsIncludeLocalhost(cfg.CORS.AllowedOrigins) {
		logg.Warn(logg.WithField(context.Background(), "origins", cfg.CORS.AllowedOrigins), "cors.localhost_origin_in_prod")
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	bqClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap bigquery", err)
		os.Exit(1)
	}
	defer func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing bigquery", err)
		}
	}()

	ga4Client, err := ga4.NewClient(context.Background(), cfg.GA4, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap ga4", err)
		os.Exit(1)
	}

	reportMetrics := metrics.NewReportMetrics(prometheus.DefaultRegisterer)
	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	registry, err := sources.NewDefaultRegistry(cfg.GCP, cfg.BigQuery, bqClient, ga4Client, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build source registry", err)
		os.Exit(1)
	}
	registry = registry.Wrap(func(f sources.Fetcher) sources.Fetcher {
		return sources.NewCached(f, redisClient, cfg.Cache.SourceTTL, reportMetrics, logg)
	})

	rateService, err := rates.NewService(rates.NewRepository(dbClient.DB()), cfg.Rates.ReloadTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create rate service", err)
		os.Exit(1)
	}

	accountService, err := accounts.NewService(accounts.NewRepository(dbClient), cfg.Engine.Currency())
	if err != nil {
		logg.Error(context.Background(), "failed to create account service", err)
		os.Exit(1)
	}

	reportService, err := reports.NewService(reports.ServiceParams{
		Logger:   logg,
		Accounts: accountService,
		Sources:  registry,
		Rates: reports.RateProviderFunc(func(ctx context.Context) engine.RateSource {
			return rateService.Current(ctx)
		}),
		Engine:  cfg.Engine,
		Metrics: reportMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create report service", err)
		os.Exit(1)
	}

	port := env.Get("PORT", cfg.App.Port)
	addr := ":" + port
	id := env.Get("DYNO", "local")
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
		"sources":  registry.Kinds(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			DB:          dbClient,
			Redis:       redisClient,
			BigQuery:    bqClient,
			Accounts:    accountService,
			Reports:     reportService,
			Rates:       rateService,
			HTTPMetrics: httpMetrics,
			Gatherer:    prometheus.DefaultGatherer,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shutting down gracefully")
	}
}

func originsIncludeLocalhost(origins []string) bool {
	for _, origin := range origins {
		if strings.Contains(origin, "://localhost") || strings.Contains(origin, "://127.0.0.1") {
			return true
		}
	}
	return false
}
