package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/perfdash-backend/internal/accounts"
	"github.com/angelmondragon/perfdash-backend/internal/cron"
	"github.com/angelmondragon/perfdash-backend/internal/engine"
	"github.com/angelmondragon/perfdash-backend/internal/rates"
	"github.com/angelmondragon/perfdash-backend/internal/reports"
	"github.com/angelmondragon/perfdash-backend/internal/sources"
	"github.com/angelmondragon/perfdash-backend/pkg/bigquery"
	"github.com/angelmondragon/perfdash-backend/pkg/config"
	"github.com/angelmondragon/perfdash-backend/pkg/db"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	"github.com/angelmondragon/perfdash-backend/pkg/ga4"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
	"github.com/angelmondragon/perfdash-backend/pkg/metrics"
	"github.com/angelmondragon/perfdash-backend/pkg/migrate"
	"github.com/angelmondragon/perfdash-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	rateService, err := rates.NewService(rates.NewRepository(dbClient.DB()), cfg.Rates.ReloadTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create rate service", err)
		os.Exit(1)
	}
	ratesJob, err := cron.NewRatesImportJob(cron.RatesImportJobParams{
		Logger:       logg,
		Importer:     rateService,
		SnapshotPath: cfg.Rates.SnapshotPath,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create rates import job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(ratesJob)

	dashboards, err := cfg.Cron.Dashboards()
	if err != nil {
		logg.Error(context.Background(), "invalid warmup dashboards", err)
		os.Exit(1)
	}
	if len(dashboards) > 0 {
		warmupJob, closeWarmup, err := newWarmupJob(cfg, logg, redisClient, dbClient, rateService, dashboards)
		if err != nil {
			logg.Error(context.Background(), "failed to create report warmup job", err)
			os.Exit(1)
		}
		defer closeWarmup()
		if err := registry.Register(warmupJob); err != nil {
			logg.Error(context.Background(), "failed to register report warmup job", err)
			os.Exit(1)
		}
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// newWarmupJob wires the report pipeline used by the warmup job. The returned
// func releases the BigQuery client.
func newWarmupJob(cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, dbClient *db.Client, rateService *rates.Service, dashboards []enums.Dashboard) (cron.Job, func(), error) {
	ctx := context.Background()
	noop := func() {}

	preset, err := reports.ParsePreset(cfg.Cron.WarmupPreset)
	if err != nil {
		return nil, noop, err
	}

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		return nil, noop, err
	}
	closeBQ := func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing bigquery", err)
		}
	}

	ga4Client, err := ga4.NewClient(ctx, cfg.GA4, logg)
	if err != nil {
		closeBQ()
		return nil, noop, err
	}

	reportMetrics := metrics.NewReportMetrics(prometheus.DefaultRegisterer)
	sourceRegistry, err := sources.NewDefaultRegistry(cfg.GCP, cfg.BigQuery, bqClient, ga4Client, logg)
	if err != nil {
		closeBQ()
		return nil, noop, err
	}
	sourceRegistry = sourceRegistry.Wrap(func(f sources.Fetcher) sources.Fetcher {
		return sources.NewCached(f, redisClient, cfg.Cache.SourceTTL, reportMetrics, logg)
	})

	accountService, err := accounts.NewService(accounts.NewRepository(dbClient), cfg.Engine.Currency())
	if err != nil {
		closeBQ()
		return nil, noop, err
	}

	reportService, err := reports.NewService(reports.ServiceParams{
		Logger:   logg,
		Accounts: accountService,
		Sources:  sourceRegistry,
		Rates: reports.RateProviderFunc(func(ctx context.Context) engine.RateSource {
			return rateService.Current(ctx)
		}),
		Engine:  cfg.Engine,
		Metrics: reportMetrics,
	})
	if err != nil {
		closeBQ()
		return nil, noop, err
	}

	job, err := cron.NewReportWarmupJob(cron.ReportWarmupJobParams{
		Logger:     logg,
		Accounts:   accountService,
		Reports:    reportService,
		Dashboards: dashboards,
		Preset:     preset,
	})
	if err != nil {
		closeBQ()
		return nil, noop, err
	}
	return job, closeBQ, nil
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("cron-worker:%s", env)
}
