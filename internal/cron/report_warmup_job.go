package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/perfdash-backend/internal/accounts"
	"github.com/angelmondragon/perfdash-backend/internal/engine"
	"github.com/angelmondragon/perfdash-backend/internal/reports"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/perfdash-backend/pkg/errors"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
	"github.com/angelmondragon/perfdash-backend/pkg/pagination"
)

// ReportWarmupJobName is the registry name of the report warmup job.
const ReportWarmupJobName = "report-cache-warmup"

type accountLister interface {
	List(ctx context.Context, params pagination.Params) (*accounts.AccountList, error)
}

type reportBuilder interface {
	Build(ctx context.Context, req reports.Request) (*engine.Report, error)
}

// ReportWarmupJobParams configure the report warmup job.
type ReportWarmupJobParams struct {
	Logger     *logger.Logger
	Accounts   accountLister
	Reports    reportBuilder
	Dashboards []enums.Dashboard
	Preset     reports.Preset
}

// NewReportWarmupJob builds the job that renders the configured dashboards for
// every account so the source cache is filled before users open them.
func NewReportWarmupJob(params ReportWarmupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("account lister required")
	}
	if params.Reports == nil {
		return nil, fmt.Errorf("report builder required")
	}
	if len(params.Dashboards) == 0 {
		return nil, fmt.Errorf("at least one dashboard required")
	}
	preset := params.Preset
	if preset == "" {
		preset = reports.PresetLast30Days
	}
	return &reportWarmupJob{
		logg:       params.Logger,
		accounts:   params.Accounts,
		reports:    params.Reports,
		dashboards: append([]enums.Dashboard(nil), params.Dashboards...),
		preset:     preset,
	}, nil
}

type reportWarmupJob struct {
	logg       *logger.Logger
	accounts   accountLister
	reports    reportBuilder
	dashboards []enums.Dashboard
	preset     reports.Preset
}

func (j *reportWarmupJob) Name() string { return ReportWarmupJobName }

// Run walks every account page. Accounts deleted mid-walk are skipped. Any
// other failing build is recorded and the walk continues; the combined error
// is returned at the end.
func (j *reportWarmupJob) Run(ctx context.Context) error {
	var errs error
	built, skipped := 0, 0
	cursor := ""
	for {
		page, err := j.accounts.List(ctx, pagination.Params{Limit: pagination.MaxLimit, Cursor: cursor})
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list accounts: %w", err))
		}
		for _, account := range page.Items {
			for _, dashboard := range j.dashboards {
				if err := ctx.Err(); err != nil {
					return multierr.Append(errs, err)
				}
				req := reports.Request{AccountID: account.ID, Dashboard: dashboard, Preset: j.preset}
				_, err := j.reports.Build(ctx, req)
				switch {
				case pkgerrors.Is(err, pkgerrors.CodeNotFound):
					skipped++
					continue
				case err != nil:
					errs = multierr.Append(errs, fmt.Errorf("warm %s/%s: %w", account.Slug, dashboard, err))
					continue
				}
				built++
			}
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"built":   built,
		"skipped": skipped,
		"failed":  len(multierr.Errors(errs)),
		"preset":  string(j.preset),
	})
	j.logg.Info(logCtx, "cron.report_warmup.complete")
	return errs
}
