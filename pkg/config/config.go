package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	GCP          GCPConfig
	BigQuery     BigQueryConfig
	GA4          GA4Config
	Rates        RatesConfig
	Engine       EngineConfig
	Cache        CacheConfig
	Cron         CronConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Engine.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PERFDASH_APP_ENV" required:"true"`
	Port         string `envconfig:"PERFDASH_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PERFDASH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PERFDASH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PERFDASH_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PERFDASH_DB_DSN"`
	Driver string `envconfig:"PERFDASH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PERFDASH_DB_HOST"`
	LegacyPort     int    `envconfig:"PERFDASH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PERFDASH_DB_USER"`
	LegacyPassword string `envconfig:"PERFDASH_DB_PASSWORD"`
	LegacyName     string `envconfig:"PERFDASH_DB_NAME"`
	LegacySSLMode  string `envconfig:"PERFDASH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PERFDASH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PERFDASH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PERFDASH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PERFDASH_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"PERFDASH_DB_SLOW_QUERY" default:"500ms"`
}

// IsSQLite reports whether the sqlite driver is configured.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"PERFDASH_REDIS_URL"`
	Address      string        `envconfig:"PERFDASH_REDIS_ADDR"`
	Password     string        `envconfig:"PERFDASH_REDIS_PASSWORD"`
	DB           int           `envconfig:"PERFDASH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PERFDASH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PERFDASH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PERFDASH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PERFDASH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PERFDASH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PERFDASH_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"PERFDASH_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PERFDASH_GOOGLE_APPLICATION_CREDENTIALS"`
}

// BigQueryConfig names the default dataset and the warehouse table of each
// source kind. Accounts may override both.
type BigQueryConfig struct {
	Dataset            string        `envconfig:"PERFDASH_BIGQUERY_DATASET" default:"perfdash"`
	Location           string        `envconfig:"PERFDASH_BIGQUERY_LOCATION" default:"EU"`
	ShopifyTable       string        `envconfig:"PERFDASH_BIGQUERY_SHOPIFY_TABLE" default:"shopify_orders_daily"`
	WooCommerceTable   string        `envconfig:"PERFDASH_BIGQUERY_WOOCOMMERCE_TABLE" default:"woocommerce_orders_daily"`
	GoogleAdsTable     string        `envconfig:"PERFDASH_BIGQUERY_GOOGLE_ADS_TABLE" default:"google_ads_daily"`
	MetaAdsTable       string        `envconfig:"PERFDASH_BIGQUERY_META_ADS_TABLE" default:"meta_ads_daily"`
	SearchConsoleTable string        `envconfig:"PERFDASH_BIGQUERY_SEARCH_CONSOLE_TABLE" default:"search_console_daily"`
	EnsureTables       bool          `envconfig:"PERFDASH_BIGQUERY_ENSURE_TABLES" default:"false"`
	QueryTimeout       time.Duration `envconfig:"PERFDASH_BIGQUERY_QUERY_TIMEOUT" default:"30s"`
}

// TableFor returns the configured warehouse table of a source kind.
func (b BigQueryConfig) TableFor(kind enums.SourceKind) string {
	switch kind {
	case enums.SourceShopify:
		return b.ShopifyTable
	case enums.SourceWooCommerce:
		return b.WooCommerceTable
	case enums.SourceGoogleAds:
		return b.GoogleAdsTable
	case enums.SourceMetaAds:
		return b.MetaAdsTable
	case enums.SourceSearchConsole:
		return b.SearchConsoleTable
	default:
		return ""
	}
}

type GA4Config struct {
	Enabled         bool          `envconfig:"PERFDASH_GA4_ENABLED" default:"false"`
	CredentialsJSON string        `envconfig:"PERFDASH_GA4_CREDENTIALS_JSON"`
	Timeout         time.Duration `envconfig:"PERFDASH_GA4_TIMEOUT" default:"20s"`
}

type RatesConfig struct {
	SnapshotPath string        `envconfig:"PERFDASH_RATES_SNAPSHOT_PATH"`
	ReloadTTL    time.Duration `envconfig:"PERFDASH_RATES_RELOAD_TTL" default:"15m"`
}

// EngineConfig holds the defaults applied when a report request or an
// account leaves an option unset.
type EngineConfig struct {
	BaseCurrency       string `envconfig:"PERFDASH_ENGINE_BASE_CURRENCY" default:"DKK"`
	DefaultRevenue     string `envconfig:"PERFDASH_ENGINE_DEFAULT_REVENUE" default:"gross"`
	DefaultComparison  string `envconfig:"PERFDASH_ENGINE_DEFAULT_COMPARISON" default:"PreviousPeriod"`
	DefaultGranularity string `envconfig:"PERFDASH_ENGINE_DEFAULT_GRANULARITY" default:"Daily"`
}

func (e EngineConfig) Currency() enums.Currency {
	c, _ := enums.ParseCurrency(e.BaseCurrency)
	return c
}

func (e EngineConfig) RevenuePreference() enums.RevenuePreference {
	p, _ := enums.ParseRevenuePreference(e.DefaultRevenue)
	return p
}

func (e EngineConfig) ComparisonMode() enums.ComparisonMode {
	m, _ := enums.ParseComparisonMode(e.DefaultComparison)
	return m
}

func (e EngineConfig) Granularity() enums.Granularity {
	g, _ := enums.ParseGranularity(e.DefaultGranularity)
	return g
}

func (e EngineConfig) validate() error {
	if _, err := enums.ParseCurrency(e.BaseCurrency); err != nil {
		return fmt.Errorf("%s: %w", EnvEngineBaseCurrency, err)
	}
	if _, err := enums.ParseRevenuePreference(e.DefaultRevenue); err != nil {
		return fmt.Errorf("%s: %w", EnvEngineRevenue, err)
	}
	if _, err := enums.ParseComparisonMode(e.DefaultComparison); err != nil {
		return fmt.Errorf("%s: %w", EnvEngineComparison, err)
	}
	if _, err := enums.ParseGranularity(e.DefaultGranularity); err != nil {
		return fmt.Errorf("%s: %w", EnvEngineGranularity, err)
	}
	return nil
}

type CacheConfig struct {
	SourceTTL time.Duration `envconfig:"PERFDASH_CACHE_SOURCE_TTL" default:"10m"`
}

// CronConfig drives the cron worker. An empty warmup dashboard list turns
// the report warmup job off.
type CronConfig struct {
	Interval         time.Duration `envconfig:"PERFDASH_CRON_INTERVAL" default:"24h"`
	LockTTL          time.Duration `envconfig:"PERFDASH_CRON_LOCK_TTL" default:"10m"`
	WarmupDashboards []string      `envconfig:"PERFDASH_CRON_WARMUP_DASHBOARDS" default:"overview"`
	WarmupPreset     string        `envconfig:"PERFDASH_CRON_WARMUP_PRESET" default:"30d"`
}

// Dashboards parses the warmup dashboard list, dropping blanks.
func (c CronConfig) Dashboards() ([]enums.Dashboard, error) {
	out := make([]enums.Dashboard, 0, len(c.WarmupDashboards))
	for _, raw := range c.WarmupDashboards {
		raw = strings.ToLower(strings.TrimSpace(raw))
		if raw == "" {
			continue
		}
		d, err := enums.ParseDashboard(raw)
		if err != nil {
			return nil, fmt.Errorf("PERFDASH_CRON_WARMUP_DASHBOARDS: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PERFDASH_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// RateLimitConfig throttles report builds per client IP and per account.
type RateLimitConfig struct {
	Window       time.Duration `envconfig:"PERFDASH_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit      int           `envconfig:"PERFDASH_RATE_LIMIT_IP" default:"120"`
	AccountLimit int           `envconfig:"PERFDASH_RATE_LIMIT_ACCOUNT" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PERFDASH_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:perfdash.db?cache=shared"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
