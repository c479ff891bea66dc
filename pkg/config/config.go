package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/campaign-attribution/pkg/enums"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Analysis AnalysisConfig
	FX       FXConfig
	Redis    RedisConfig
	DB       DBConfig
	Metrics  MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Analysis.validate(); err != nil {
		return nil, err
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ATTRIBUTION_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"ATTRIBUTION_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"ATTRIBUTION_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"ATTRIBUTION_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AnalysisConfig holds the run parameters of the attribution engine.
type AnalysisConfig struct {
	AttributionWindowDays int     `envconfig:"ATTRIBUTION_WINDOW_DAYS" default:"7"`
	ExtendedAnalysisDays  int     `envconfig:"ATTRIBUTION_EXTENDED_DAYS" default:"30"`
	COGSPercentage        float64 `envconfig:"ATTRIBUTION_COGS_PERCENTAGE" default:"0.4"`
	DaysBack              int     `envconfig:"ATTRIBUTION_DAYS_BACK" default:"30"`
	Timezone              string  `envconfig:"ATTRIBUTION_TIMEZONE" default:"UTC"`
	SpendCurrency         string  `envconfig:"ATTRIBUTION_SPEND_CURRENCY" default:"USD"`
	ReportCurrency        string  `envconfig:"ATTRIBUTION_REPORT_CURRENCY" default:"EUR"`
	ShopName              string  `envconfig:"ATTRIBUTION_SHOP_NAME"`
}

// StoreURL is the public storefront base used to build product and collection links.
func (a AnalysisConfig) StoreURL() string {
	name := strings.TrimSpace(a.ShopName)
	if name == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.myshopify.com", name)
}

// Location resolves Timezone, defaulting to UTC when empty.
func (a AnalysisConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvTimezone, name, err)
	}
	return loc, nil
}

func (a AnalysisConfig) validate() error {
	if a.AttributionWindowDays <= 0 {
		return fmt.Errorf("%s must be positive", EnvAttributionWindowDays)
	}
	if a.ExtendedAnalysisDays < 0 {
		return fmt.Errorf("%s must not be negative", EnvExtendedAnalysisDays)
	}
	if a.COGSPercentage < 0 || a.COGSPercentage > 1 {
		return fmt.Errorf("%s must be within [0,1]", EnvCOGSPercentage)
	}
	if a.DaysBack <= 0 {
		return fmt.Errorf("%s must be positive", EnvDaysBack)
	}
	if _, err := a.Location(); err != nil {
		return err
	}
	if _, err := enums.ParseCurrency(a.SpendCurrency); err != nil {
		return fmt.Errorf("%s: %w", EnvSpendCurrency, err)
	}
	if _, err := enums.ParseCurrency(a.ReportCurrency); err != nil {
		return fmt.Errorf("%s: %w", EnvReportCurrency, err)
	}
	return nil
}

type FXConfig struct {
	Enabled      bool          `envconfig:"ATTRIBUTION_FX_ENABLED" default:"true"`
	BaseURL      string        `envconfig:"ATTRIBUTION_FX_BASE_URL" default:"https://api.exchangerate-api.com/v4"`
	Timeout      time.Duration `envconfig:"ATTRIBUTION_FX_TIMEOUT" default:"10s"`
	CacheTTL     time.Duration `envconfig:"ATTRIBUTION_FX_CACHE_TTL" default:"12h"`
	FallbackRate float64       `envconfig:"ATTRIBUTION_FX_FALLBACK_RATE" default:"0.96"`
}

// RedisConfig is optional; an empty URL and Address disables the rate cache.
type RedisConfig struct {
	URL          string        `envconfig:"ATTRIBUTION_REDIS_URL"`
	Address      string        `envconfig:"ATTRIBUTION_REDIS_ADDR"`
	Password     string        `envconfig:"ATTRIBUTION_REDIS_PASSWORD"`
	DB           int           `envconfig:"ATTRIBUTION_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ATTRIBUTION_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"ATTRIBUTION_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"ATTRIBUTION_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ATTRIBUTION_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ATTRIBUTION_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// DBConfig is optional; an empty DSN disables result persistence.
type DBConfig struct {
	DSN         string `envconfig:"ATTRIBUTION_DB_DSN"`
	Driver      string `envconfig:"ATTRIBUTION_DB_DRIVER" default:"postgres"`
	AutoMigrate bool   `envconfig:"ATTRIBUTION_DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"ATTRIBUTION_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"ATTRIBUTION_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"ATTRIBUTION_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ATTRIBUTION_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) Enabled() bool {
	return strings.TrimSpace(db.DSN) != ""
}

func (db *DBConfig) validate() error {
	db.Driver = strings.ToLower(strings.TrimSpace(db.Driver))
	switch db.Driver {
	case DBDriverPostgres, DBDriverSQLite:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvDBDriver, DBDriverPostgres, DBDriverSQLite, db.Driver)
	}
}

type MetricsConfig struct {
	// TextfilePath, when set, receives the run metrics in node-exporter textfile format.
	TextfilePath string `envconfig:"ATTRIBUTION_METRICS_TEXTFILE"`
}
