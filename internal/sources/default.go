package sources

import (
	"github.com/angelmondragon/perfdash-backend/pkg/bigquery"
	"github.com/angelmondragon/perfdash-backend/pkg/config"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
)

// NewDefaultRegistry registers one warehouse fetcher per BigQuery-backed kind
// plus the GA4 fetcher, using the configured project, dataset and tables as
// fallbacks for accounts that leave them empty.
func NewDefaultRegistry(gcp config.GCPConfig, bq config.BigQueryConfig, querier bigquery.Querier, sessions SessionsClient, logg *logger.Logger) (*Registry, error) {
	fetchers := []Fetcher{NewGA4Fetcher(sessions)}
	for _, kind := range WarehouseKinds() {
		f, err := NewWarehouseFetcher(kind, querier, WarehouseDefaults{
			Project: gcp.ProjectID,
			Dataset: bq.Dataset,
			Table:   bq.TableFor(kind),
			Timeout: bq.QueryTimeout,
		}, logg)
		if err != nil {
			return nil, err
		}
		fetchers = append(fetchers, f)
	}
	return NewRegistry(fetchers...), nil
}
