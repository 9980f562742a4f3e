package config

const (
	EnvPrefix = "PERFDASH"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "PERFDASH_APP_ENV"
	EnvPort     = "PERFDASH_APP_PORT"
	EnvLogLevel = "PERFDASH_LOG_LEVEL"

	EnvDBDSN    = "PERFDASH_DB_DSN"
	EnvDBDriver = "PERFDASH_DB_DRIVER"
	EnvDBHost   = "PERFDASH_DB_HOST"
	EnvDBUser   = "PERFDASH_DB_USER"
	EnvDBName   = "PERFDASH_DB_NAME"

	EnvRedisURL = "PERFDASH_REDIS_URL"

	EnvGCPProjectID = "PERFDASH_GCP_PROJECT_ID"

	EnvBigQueryDataset = "PERFDASH_BIGQUERY_DATASET"

	EnvGA4Enabled = "PERFDASH_GA4_ENABLED"

	EnvRatesSnapshotPath = "PERFDASH_RATES_SNAPSHOT_PATH"

	EnvEngineBaseCurrency = "PERFDASH_ENGINE_BASE_CURRENCY"
	EnvEngineGranularity  = "PERFDASH_ENGINE_DEFAULT_GRANULARITY"
	EnvEngineComparison   = "PERFDASH_ENGINE_DEFAULT_COMPARISON"
	EnvEngineRevenue      = "PERFDASH_ENGINE_DEFAULT_REVENUE"

	EnvCacheSourceTTL = "PERFDASH_CACHE_SOURCE_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
