package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/angelmondragon/campaign-attribution/internal/attribution"
	"github.com/angelmondragon/campaign-attribution/internal/feeds"
	"github.com/angelmondragon/campaign-attribution/internal/ledger"
	"github.com/angelmondragon/campaign-attribution/internal/refunds"
	"github.com/angelmondragon/campaign-attribution/internal/report"
	"github.com/angelmondragon/campaign-attribution/internal/results"
	"github.com/angelmondragon/campaign-attribution/pkg/db/models"
	pkgerrors "github.com/angelmondragon/campaign-attribution/pkg/errors"
	"github.com/angelmondragon/campaign-attribution/pkg/fxrates"
	"github.com/angelmondragon/campaign-attribution/pkg/instance"
	"github.com/angelmondragon/campaign-attribution/pkg/logger"
	"github.com/google/uuid"
)

const defaultLockTTL = 15 * time.Minute

type rateResolver interface {
	Resolve(ctx context.Context, from, to string) fxrates.Resolution
}

type resultStore interface {
	Save(ctx context.Context, input results.SaveInput) (*models.AttributionRun, error)
}

type runLocker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	RunLockKey(scope string) string
}

// feedSources are the already-fetched feed documents. Statuses is optional.
type feedSources struct {
	Orders    io.Reader
	Catalog   io.Reader
	Campaigns io.Reader
	Statuses  io.Reader
}

// Document is the JSON written for one run.
type Document struct {
	RunID      uuid.UUID          `json:"run_id"`
	Params     attribution.Params `json:"params"`
	Timezone   string             `json:"timezone"`
	FX         fxrates.Resolution `json:"fx"`
	Rows       []report.Row       `json:"rows"`
	Summary    report.Summary     `json:"summary"`
	Duplicates []string           `json:"duplicate_campaigns,omitempty"`
}

type serviceParams struct {
	Logger         *logger.Logger
	Engine         *attribution.Engine
	Rates          rateResolver
	Store          resultStore
	Lock           runLocker
	LockTTL        time.Duration
	SpendCurrency  string
	ReportCurrency string
	StoreURL       string
}

type service struct {
	logg           *logger.Logger
	engine         *attribution.Engine
	rates          rateResolver
	store          resultStore
	lock           runLocker
	lockTTL        time.Duration
	spendCurrency  string
	reportCurrency string
	storeURL       string
}

func newService(p serviceParams) (*service, error) {
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if p.Engine == nil {
		return nil, fmt.Errorf("engine required")
	}
	if p.Rates == nil {
		return nil, fmt.Errorf("rate resolver required")
	}
	ttl := p.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &service{
		logg:           p.Logger,
		engine:         p.Engine,
		rates:          p.Rates,
		store:          p.Store,
		lock:           p.Lock,
		lockTTL:        ttl,
		spendCurrency:  p.SpendCurrency,
		reportCurrency: p.ReportCurrency,
		storeURL:       p.StoreURL,
	}, nil
}

// Run decodes the feeds, attributes every campaign and builds the summary.
// When a store is configured the run is persisted; a persistence failure is
// returned together with the finished document.
func (s *service) Run(ctx context.Context, src feedSources, params attribution.Params) (*Document, error) {
	release, err := s.acquire(ctx, params)
	if err != nil {
		return nil, err
	}
	defer release()

	orders, err := feeds.DecodeOrders(src.Orders)
	if err := s.tolerate(ctx, "orders", err); err != nil {
		return nil, err
	}
	cat, err := feeds.DecodeCatalog(src.Catalog, s.storeURL)
	if err := s.tolerate(ctx, "catalog", err); err != nil {
		return nil, err
	}
	campaigns, err := feeds.DecodeCampaigns(src.Campaigns, params.Location)
	if err := s.tolerate(ctx, "campaigns", err); err != nil {
		return nil, err
	}
	if src.Statuses != nil {
		statuses, err := feeds.DecodeCampaignStatuses(src.Statuses)
		if err := s.tolerate(ctx, "campaign statuses", err); err != nil {
			return nil, err
		}
		feeds.ApplyStatuses(campaigns, statuses)
	}

	l, err := ledger.New(feeds.LineItems(orders))
	if err != nil {
		return nil, err
	}

	fx := s.rates.Resolve(ctx, s.spendCurrency, s.reportCurrency)
	params.SpendRate = fx.Rate

	out, err := s.engine.Run(ctx, attribution.Input{
		Campaigns: campaigns,
		Ledger:    l,
		Catalog:   cat,
		Params:    params,
	})
	if err != nil {
		return nil, err
	}

	analysis := refunds.Analyze(refunds.Extract(orders), orders)
	summary := report.BuildSummary(out.Rows, analysis, out.Shop)

	doc := &Document{
		RunID:      out.RunID,
		Params:     out.Params,
		Timezone:   out.Params.Timezone(),
		FX:         fx,
		Rows:       out.Rows,
		Summary:    summary,
		Duplicates: out.Duplicates,
	}

	if s.store != nil {
		ctx = s.logg.WithRunID(ctx, out.RunID.String())
		if _, err := s.store.Save(ctx, results.SaveInput{Output: out, Summary: summary}); err != nil {
			return doc, err
		}
		s.logg.Info(ctx, "attribution run stored")
	}
	return doc, nil
}

// tolerate logs skipped records and fails only on unreadable feeds.
func (s *service) tolerate(ctx context.Context, feed string, err error) error {
	if err == nil {
		return nil
	}
	if !feeds.Partial(err) {
		return err
	}
	ctx = s.logg.WithField(ctx, "feed", feed)
	for _, recordErr := range feeds.RecordErrors(err) {
		s.logg.Warn(ctx, "skipping invalid record: "+recordErr.Error())
	}
	return nil
}

// acquire takes the run lock for the analysis range when a locker is configured.
func (s *service) acquire(ctx context.Context, params attribution.Params) (func(), error) {
	if s.lock == nil {
		return func() {}, nil
	}
	scope := fmt.Sprintf("%s_%s", params.AnalysisStart.Format(dayLayout), params.AnalysisEnd.Format(dayLayout))
	key := s.lock.RunLockKey(scope)
	ok, err := s.lock.SetNX(ctx, key, instance.ID(), s.lockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire run lock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "another run holds the lock for this range").
			WithDetails(map[string]any{"key": key})
	}
	return func() {
		if err := s.lock.Del(context.Background(), key); err != nil {
			s.logg.Error(ctx, "failed to release run lock", err)
		}
	}, nil
}
