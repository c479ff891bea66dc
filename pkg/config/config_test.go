package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Analysis.AttributionWindowDays != 7 {
		t.Fatalf("expected 7 day window, got %d", cfg.Analysis.AttributionWindowDays)
	}
	if cfg.Analysis.ExtendedAnalysisDays != 30 {
		t.Fatalf("expected 30 extended days, got %d", cfg.Analysis.ExtendedAnalysisDays)
	}
	if cfg.Analysis.COGSPercentage != 0.4 {
		t.Fatalf("expected cogs 0.4, got %v", cfg.Analysis.COGSPercentage)
	}
	if cfg.FX.FallbackRate != 0.96 {
		t.Fatalf("expected fallback rate 0.96, got %v", cfg.FX.FallbackRate)
	}
	if cfg.FX.CacheTTL != 12*time.Hour {
		t.Fatalf("expected 12h cache ttl, got %v", cfg.FX.CacheTTL)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis should be disabled without url or addr")
	}
	if cfg.DB.Enabled() {
		t.Fatalf("db should be disabled without dsn")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvAttributionWindowDays, "14")
	t.Setenv(EnvCOGSPercentage, "0.35")
	t.Setenv(EnvTimezone, "Europe/Berlin")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvDBDSN, "file::memory:")
	t.Setenv(EnvDBDriver, "SQLite")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Analysis.AttributionWindowDays != 14 {
		t.Fatalf("expected 14 day window, got %d", cfg.Analysis.AttributionWindowDays)
	}
	if cfg.Analysis.COGSPercentage != 0.35 {
		t.Fatalf("expected cogs 0.35, got %v", cfg.Analysis.COGSPercentage)
	}
	loc, err := cfg.Analysis.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Fatalf("unexpected location %v err=%v", loc, err)
	}
	if cfg.Analysis.StoreURL() != "" {
		t.Fatalf("store url should be empty without a shop name")
	}
	if !cfg.Redis.Enabled() || !cfg.DB.Enabled() {
		t.Fatalf("expected redis and db to be enabled")
	}
	if cfg.DB.Driver != DBDriverSQLite {
		t.Fatalf("expected normalized sqlite driver, got %q", cfg.DB.Driver)
	}
}

func TestAnalysisStoreURL(t *testing.T) {
	a := AnalysisConfig{ShopName: " acme "}
	if got := a.StoreURL(); got != "https://acme.myshopify.com" {
		t.Fatalf("unexpected store url %q", got)
	}
}

func TestLoad_InvalidAnalysis(t *testing.T) {
	cases := map[string]string{
		EnvAttributionWindowDays: "0",
		EnvCOGSPercentage:        "1.5",
		EnvTimezone:              "Mars/Olympus",
		EnvDBDriver:              "mysql",
		EnvSpendCurrency:         "XYZ",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected %s=%s to be rejected", key, value)
			}
		})
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
