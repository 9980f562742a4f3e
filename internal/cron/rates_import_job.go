package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/perfdash-backend/internal/rates"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
)

// RatesImportJobName is the registry name of the rate import job.
const RatesImportJobName = "currency-rates-import"

type ratesImporter interface {
	Import(ctx context.Context, snap rates.Snapshot) (rates.ImportResult, error)
}

type RatesImportJobParams struct {
	Logger       *logger.Logger
	Importer     ratesImporter
	SnapshotPath string
}

// NewRatesImportJob builds the job that loads the configured rate snapshot
// (or the embedded one) into the currency_rates table.
func NewRatesImportJob(params RatesImportJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Importer == nil {
		return nil, fmt.Errorf("rates importer required")
	}
	return &ratesImportJob{
		logg:     params.Logger,
		importer: params.Importer,
		path:     params.SnapshotPath,
		load:     rates.LoadSnapshot,
	}, nil
}

type ratesImportJob struct {
	logg     *logger.Logger
	importer ratesImporter
	path     string
	load     func(path string) (rates.Snapshot, error)
}

func (j *ratesImportJob) Name() string { return RatesImportJobName }

func (j *ratesImportJob) Run(ctx context.Context) error {
	snap, err := j.load(j.path)
	if err != nil {
		return fmt.Errorf("load rate snapshot: %w", err)
	}

	result, err := j.importer.Import(ctx, snap)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"snapshot_path": j.path,
		"as_of":         result.AsOf,
		"imported":      result.Imported,
		"skipped":       result.Skipped,
	})
	if err != nil {
		if result.Imported == 0 {
			return fmt.Errorf("import rates: %w", err)
		}
		j.logg.Error(logCtx, "cron.rates_import.partial", err)
		return nil
	}
	j.logg.Info(logCtx, "cron.rates_import.complete")
	return nil
}
