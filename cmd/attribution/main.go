package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/campaign-attribution/internal/attribution"
	"github.com/angelmondragon/campaign-attribution/internal/results"
	"github.com/angelmondragon/campaign-attribution/pkg/config"
	"github.com/angelmondragon/campaign-attribution/pkg/db"
	"github.com/angelmondragon/campaign-attribution/pkg/fxrates"
	"github.com/angelmondragon/campaign-attribution/pkg/logger"
	"github.com/angelmondragon/campaign-attribution/pkg/metrics"
	"github.com/angelmondragon/campaign-attribution/pkg/migrate"
	"github.com/angelmondragon/campaign-attribution/pkg/redis"
)

const serviceName = "attribution"

func main() {
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	ordersPath := flag.String("orders", "", "path to the orders feed (JSON)")
	catalogPath := flag.String("catalog", "", "path to the catalog feed (JSON)")
	campaignsPath := flag.String("campaigns", "", "path to the ad insights feed (JSON)")
	statusesPath := flag.String("statuses", "", "optional path to the campaign list with statuses (JSON)")
	start := flag.String("start", "", "analysis start day (YYYY-MM-DD); defaults to DaysBack days before -end")
	end := flag.String("end", "", "inclusive analysis end day (YYYY-MM-DD); defaults to now")
	now := flag.String("now", "", "reference instant for launch-year resolution (RFC3339 or YYYY-MM-DD)")
	outPath := flag.String("out", "-", "output file, - for stdout")
	persist := flag.Bool("persist", true, "store the run when a database is configured")
	runID := flag.String("run-id", "", "optional fixed run id, for replaying a stored run")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})

	params, err := buildParams(cfg.Analysis, rangeFlags{Start: *start, End: *end, Now: *now}, time.Now())
	requireResource(ctx, logg, "run parameters", err)

	src, closeFeeds, err := openFeeds(*ordersPath, *catalogPath, *campaignsPath, *statusesPath)
	requireResource(ctx, logg, "feeds", err)

	reg := prometheus.NewRegistry()
	runMetrics := metrics.NewAttributionMetrics(reg)

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
	}

	var dbClient *db.Client
	var store resultStore
	if *persist && cfg.DB.Enabled() {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		requireResource(ctx, logg, "database", err)
		requireResource(ctx, logg, "migrations", migrate.MaybeRun(ctx, cfg.DB, logg, dbClient))
		store, err = results.NewService(results.NewRepository(dbClient.DB()), dbClient)
		requireResource(ctx, logg, "results store", err)
	}

	newID, err := runIDSource(*runID)
	requireResource(ctx, logg, "run id", err)
	engine, err := attribution.NewEngine(attribution.EngineParams{Logger: logg, Metrics: runMetrics, NewID: newID})
	requireResource(ctx, logg, "engine", err)

	svcParams := serviceParams{
		Logger:         logg,
		Engine:         engine,
		Rates:          newRateResolver(cfg, redisClient, logg, runMetrics),
		Store:          store,
		SpendCurrency:  cfg.Analysis.SpendCurrency,
		ReportCurrency: cfg.Analysis.ReportCurrency,
		StoreURL:       cfg.Analysis.StoreURL(),
	}
	if redisClient != nil {
		svcParams.Lock = redisClient
	}
	svc, err := newService(svcParams)
	requireResource(ctx, logg, "attribution service", err)

	doc, runErr := svc.Run(ctx, src, params)
	if doc != nil {
		requireResource(ctx, logg, "output", writeDocument(*outPath, doc))
	}
	if err := metrics.WriteTextfile(reg, cfg.Metrics.TextfilePath); err != nil {
		logg.Error(ctx, "failed to write metrics textfile", err)
	}

	closeErr := multierr.Combine(closeFeeds(), closeClients(redisClient, dbClient))
	if closeErr != nil {
		logg.Error(ctx, "error releasing resources", closeErr)
	}
	if runErr != nil {
		logg.Error(ctx, "attribution run failed", runErr)
		os.Exit(1)
	}
}

func newRateResolver(cfg *config.Config, redisClient *redis.Client, logg *logger.Logger, m *metrics.AttributionMetrics) *fxrates.Resolver {
	params := fxrates.ResolverParams{
		Fallback: cfg.FX.FallbackRate,
		Logger:   logg,
		Metrics:  m,
	}
	if cfg.FX.Enabled {
		params.Source = fxrates.NewClient(fxrates.WithBaseURL(cfg.FX.BaseURL), fxrates.WithTimeout(cfg.FX.Timeout))
	}
	if redisClient != nil {
		params.Cache = fxrates.NewCache(redisClient, cfg.FX.CacheTTL)
	}
	return fxrates.NewResolver(params)
}

// openFeeds opens every feed file. The returned closer releases all of them.
func openFeeds(ordersPath, catalogPath, campaignsPath, statusesPath string) (feedSources, func() error, error) {
	var files []*os.File
	closeAll := func() error {
		var err error
		for _, f := range files {
			err = multierr.Append(err, f.Close())
		}
		return err
	}
	open := func(flagName, path string) (io.Reader, error) {
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("missing -%s", flagName)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open -%s: %w", flagName, err)
		}
		files = append(files, f)
		return f, nil
	}

	var src feedSources
	var err error
	if src.Orders, err = open("orders", ordersPath); err != nil {
		return feedSources{}, nil, multierr.Append(err, closeAll())
	}
	if src.Catalog, err = open("catalog", catalogPath); err != nil {
		return feedSources{}, nil, multierr.Append(err, closeAll())
	}
	if src.Campaigns, err = open("campaigns", campaignsPath); err != nil {
		return feedSources{}, nil, multierr.Append(err, closeAll())
	}
	if strings.TrimSpace(statusesPath) != "" {
		if src.Statuses, err = open("statuses", statusesPath); err != nil {
			return feedSources{}, nil, multierr.Append(err, closeAll())
		}
	}
	return src, closeAll, nil
}

func writeDocument(path string, doc *Document) error {
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func closeClients(redisClient *redis.Client, dbClient *db.Client) error {
	var err error
	if redisClient != nil {
		err = multierr.Append(err, redisClient.Close())
	}
	if dbClient != nil {
		err = multierr.Append(err, dbClient.Close())
	}
	return err
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
