package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/perfdash-backend/internal/dashboards"
	"github.com/angelmondragon/perfdash-backend/internal/engine"
	"github.com/angelmondragon/perfdash-backend/internal/sources"
	"github.com/angelmondragon/perfdash-backend/pkg/config"
	"github.com/angelmondragon/perfdash-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/perfdash-backend/pkg/errors"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
	"github.com/angelmondragon/perfdash-backend/pkg/metrics"
)

type accountLoader interface {
	Load(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type rateProvider interface {
	Current(ctx context.Context) engine.RateSource
}

// RateProviderFunc adapts a function to the rate provider used by the service.
type RateProviderFunc func(ctx context.Context) engine.RateSource

func (f RateProviderFunc) Current(ctx context.Context) engine.RateSource { return f(ctx) }

// ServiceParams configure the report service.
type ServiceParams struct {
	Logger   *logger.Logger
	Accounts accountLoader
	Sources  *sources.Registry
	Rates    rateProvider
	Engine   config.EngineConfig
	Metrics  *metrics.ReportMetrics
}

// Service builds dashboard reports for accounts.
type Service struct {
	logg     *logger.Logger
	accounts accountLoader
	sources  *sources.Registry
	rates    rateProvider
	defaults config.EngineConfig
	metrics  *metrics.ReportMetrics
	now      func() time.Time
}

// NewService builds the report service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("account loader required")
	}
	if params.Sources == nil {
		return nil, fmt.Errorf("source registry required")
	}
	if params.Rates == nil {
		return nil, fmt.Errorf("rate provider required")
	}
	return &Service{
		logg:     params.Logger,
		accounts: params.Accounts,
		sources:  params.Sources,
		rates:    params.Rates,
		defaults: params.Engine,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

type fetchPlan struct {
	binding dashboards.SourceBinding
	fetcher sources.Fetcher
	target  sources.Target
}

// Build resolves the account and layout, fetches every bound source for the
// current and comparison windows and runs the engine.
func (s *Service) Build(ctx context.Context, req Request) (*engine.Report, error) {
	start := s.now()
	if err := req.validate(); err != nil {
		return nil, err
	}
	ctx = s.logg.WithAccountID(ctx, req.AccountID.String())
	ctx = s.logg.WithDashboard(ctx, req.Dashboard.String())

	account, err := s.accounts.Load(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	layout, ok := dashboards.Lookup(req.Dashboard)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dashboard not found")
	}

	opts := s.options(req, account, layout)
	window, compWindow := engine.ResolveWindows(req.window(today(start, account.Timezone)), opts)

	plans := s.plan(ctx, layout, account)
	current, comparison, err := s.fetch(ctx, plans, window, compWindow)
	if err != nil {
		return nil, err
	}

	eng := engine.New(s.rates.Current(ctx), s.defaults.Currency(), s.logg)
	report := eng.Build(ctx, engine.Input{
		Window:     window,
		Current:    current,
		Comparison: comparison,
		Options:    opts,
	})

	elapsed := s.now().Sub(start)
	s.metrics.ObserveBuild(req.Dashboard.String(), opts.Granularity.String(), elapsed)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"window":      fmt.Sprintf("%s..%s", report.Window.Start, report.Window.End),
		"granularity": report.Granularity.String(),
		"sources":     len(plans),
		"rows":        len(report.Rows),
		"duration_ms": elapsed.Milliseconds(),
	}), "report.build")
	return report, nil
}

// options fills unset request options from the account, then from config.
func (s *Service) options(req Request, account *models.Account, layout dashboards.Layout) engine.Options {
	opts := engine.Options{
		Currency:          req.Currency,
		RevenuePreference: req.RevenuePreference,
		ComparisonMode:    req.Comparison,
		Granularity:       req.Granularity,
		AsOf:              req.AsOf,
	}
	if opts.Currency == "" {
		opts.Currency = account.DisplayCurrency
	}
	if !opts.Currency.IsValid() {
		opts.Currency = s.defaults.Currency()
	}
	if opts.RevenuePreference == "" {
		opts.RevenuePreference = account.RevenuePreference
	}
	if !opts.RevenuePreference.IsValid() {
		opts.RevenuePreference = s.defaults.RevenuePreference()
	}
	if opts.ComparisonMode == "" {
		opts.ComparisonMode = s.defaults.ComparisonMode()
	}
	if opts.Granularity == "" {
		opts.Granularity = s.defaults.Granularity()
	}
	opts.HeatmapFields = layout.HeatmapFields
	return opts
}

// plan pairs every layout binding with an enabled account source and a
// registered fetcher. Bindings the account does not use are skipped.
func (s *Service) plan(ctx context.Context, layout dashboards.Layout, account *models.Account) []fetchPlan {
	var plans []fetchPlan
	for _, binding := range layout.Sources {
		src, ok := account.Source(binding.Kind)
		if !ok {
			continue
		}
		fetcher, ok := s.sources.Get(binding.Kind)
		if !ok {
			s.logg.Warn(s.logg.WithField(ctx, "source", binding.Kind.String()), "report.source_unavailable")
			continue
		}
		plans = append(plans, fetchPlan{
			binding: binding,
			fetcher: fetcher,
			target: sources.Target{
				AccountID:  account.ID.String(),
				Project:    account.BigQueryProject,
				Dataset:    account.BigQueryDataset,
				Table:      src.Table,
				PropertyID: account.GA4PropertyID,
				Currency:   src.Currency,
			},
		})
	}
	return plans
}

// fetch loads every plan for both windows concurrently. The first failure
// cancels the remaining fetches.
func (s *Service) fetch(ctx context.Context, plans []fetchPlan, window, compWindow engine.Window) ([]engine.Series, []engine.Series, error) {
	current := make([]engine.Series, len(plans))
	comparison := make([]engine.Series, len(plans))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range plans {
		i, p := i, p
		g.Go(func() error {
			series, err := s.fetchOne(gctx, p, window)
			current[i] = series
			return err
		})
		g.Go(func() error {
			series, err := s.fetchOne(gctx, p, compWindow)
			comparison[i] = series
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return current, comparison, nil
}

func (s *Service) fetchOne(ctx context.Context, p fetchPlan, window engine.Window) (engine.Series, error) {
	kind := p.binding.Kind.String()
	series, err := p.fetcher.Fetch(ctx, p.target, window)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return engine.Series{}, err
		}
		s.metrics.IncFetchFailure(kind)
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{
			"source": kind,
			"start":  window.Start.String(),
			"end":    window.End.String(),
		}), "source.fetch_failed", err)
		return engine.Series{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("fetch %s", kind))
	}
	series.Name = kind
	series.Mapping = p.binding.Mapping
	if series.Currency == "" {
		series.Currency = p.target.Currency
	}
	return series, nil
}
