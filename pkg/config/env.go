package config

// EnvPrefix is handed to envconfig; every field also carries its full variable name.
const EnvPrefix = "ATTRIBUTION"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "ATTRIBUTION_APP_ENV"
	EnvLogLevel     = "ATTRIBUTION_LOG_LEVEL"
	EnvLogFormat    = "ATTRIBUTION_LOG_FORMAT"
	EnvLogWarnStack = "ATTRIBUTION_LOG_WARN_STACK"

	EnvAttributionWindowDays = "ATTRIBUTION_WINDOW_DAYS"
	EnvExtendedAnalysisDays  = "ATTRIBUTION_EXTENDED_DAYS"
	EnvCOGSPercentage        = "ATTRIBUTION_COGS_PERCENTAGE"
	EnvDaysBack              = "ATTRIBUTION_DAYS_BACK"
	EnvTimezone              = "ATTRIBUTION_TIMEZONE"
	EnvSpendCurrency         = "ATTRIBUTION_SPEND_CURRENCY"
	EnvReportCurrency        = "ATTRIBUTION_REPORT_CURRENCY"
	EnvShopName              = "ATTRIBUTION_SHOP_NAME"

	EnvFXEnabled      = "ATTRIBUTION_FX_ENABLED"
	EnvFXBaseURL      = "ATTRIBUTION_FX_BASE_URL"
	EnvFXTimeout      = "ATTRIBUTION_FX_TIMEOUT"
	EnvFXCacheTTL     = "ATTRIBUTION_FX_CACHE_TTL"
	EnvFXFallbackRate = "ATTRIBUTION_FX_FALLBACK_RATE"

	EnvRedisURL      = "ATTRIBUTION_REDIS_URL"
	EnvRedisAddr     = "ATTRIBUTION_REDIS_ADDR"
	EnvRedisPassword = "ATTRIBUTION_REDIS_PASSWORD"
	EnvRedisDB       = "ATTRIBUTION_REDIS_DB"

	EnvDBDSN         = "ATTRIBUTION_DB_DSN"
	EnvDBDriver      = "ATTRIBUTION_DB_DRIVER"
	EnvDBAutoMigrate = "ATTRIBUTION_DB_AUTO_MIGRATE"

	EnvMetricsTextfile = "ATTRIBUTION_METRICS_TEXTFILE"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)
