package results

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/campaign-attribution/internal/attribution"
	"github.com/angelmondragon/campaign-attribution/internal/report"
	"github.com/angelmondragon/campaign-attribution/pkg/db"
	"github.com/angelmondragon/campaign-attribution/pkg/db/models"
	"github.com/angelmondragon/campaign-attribution/pkg/enums"
	pkgerrors "github.com/angelmondragon/campaign-attribution/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupResultsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	runs := `
CREATE TABLE IF NOT EXISTS attribution_runs (
  id TEXT PRIMARY KEY,
  analysis_start DATETIME NOT NULL,
  analysis_end DATETIME NOT NULL,
  attribution_window_days INTEGER NOT NULL,
  extended_analysis_days INTEGER NOT NULL,
  cogs_percentage REAL NOT NULL,
  spend_rate REAL NOT NULL,
  timezone TEXT NOT NULL,
  campaign_count INTEGER NOT NULL DEFAULT 0,
  total_ad_spend REAL NOT NULL DEFAULT 0,
  total_revenue REAL NOT NULL DEFAULT 0,
  summary TEXT NOT NULL,
  created_at DATETIME
);`
	campaignResults := `
CREATE TABLE IF NOT EXISTS campaign_results (
  id TEXT PRIMARY KEY,
  run_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  row_key TEXT NOT NULL,
  campaign TEXT NOT NULL,
  kind TEXT NOT NULL,
  outcome TEXT NOT NULL,
  product_label TEXT NOT NULL,
  collection_code TEXT,
  matched_product_ids TEXT,
  is_distributed_product INTEGER NOT NULL DEFAULT 0,
  launch_date DATETIME,
  ad_spend REAL NOT NULL DEFAULT 0,
  attributed_revenue REAL NOT NULL DEFAULT 0,
  attributed_orders REAL NOT NULL DEFAULT 0,
  extended_revenue REAL NOT NULL DEFAULT 0,
  extended_orders REAL NOT NULL DEFAULT 0,
  roas REAL,
  net_profit REAL NOT NULL DEFAULT 0,
  payload TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (run_id, row_key)
);`
	require.NoError(t, conn.Exec(runs).Error)
	require.NoError(t, conn.Exec(campaignResults).Error)
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), db.FromGorm(conn))
	require.NoError(t, err)
	return svc
}

func sampleOutput() *attribution.Output {
	now := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	launch := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	single := report.Row{
		Key:               "1 MARCH - Blue Hoodie - 3.5 - SINGLE PRODUCT",
		Campaign:          "1 MARCH - Blue Hoodie - 3.5 - SINGLE PRODUCT",
		Kind:              enums.CampaignKindSingleProduct,
		Outcome:           enums.OutcomeMatched,
		ProductLabel:      "Blue Hoodie",
		MatchedProductIDs: []int64{1},
		LaunchDate:        &launch,
		AdSpend:           50,
		AttributedRevenue: 200,
		AttributedOrders:  4,
		COGSPercentage:    0.4,
	}
	single.Recompute()

	collection := report.Row{
		Key:                  "2 MARCH - C12 ADS Collection",
		Campaign:             "2 MARCH - C12 ADS Collection",
		Kind:                 enums.CampaignKindCollection,
		Outcome:              enums.OutcomeMatched,
		ProductLabel:         "Spring C12 ADS Collection",
		CollectionCode:       "C12",
		MatchedProductIDs:    []int64{2, 3},
		ProductCount:         2,
		IsCollectionCampaign: true,
		AdSpend:              80,
		AttributedRevenue:    120,
		AttributedOrders:     3,
		COGSPercentage:       0.4,
	}
	collection.Recompute()

	rows := report.Split([]report.Row{single, collection})
	return &attribution.Output{
		RunID:  uuid.New(),
		Params: attribution.DefaultParams(now, time.UTC),
		Rows:   rows,
	}
}

func TestServiceSaveStoresRunAndRows(t *testing.T) {
	conn := setupResultsTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	out := sampleOutput()
	summary := report.Summary{Campaigns: 2, TotalAdSpend: 130, TotalRevenue: 320}
	saved, err := svc.Save(ctx, SaveInput{Output: out, Summary: summary})
	require.NoError(t, err)
	require.Len(t, saved.Results, len(out.Rows))

	run, err := NewRepository(conn).FindRun(ctx, out.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, run.CampaignCount)
	assert.Equal(t, "UTC", run.Timezone)
	assert.InDelta(t, 130, run.TotalAdSpend, 1e-9)
	assert.True(t, run.AnalysisStart.Equal(out.Params.AnalysisStart))

	var decodedSummary report.Summary
	require.NoError(t, json.Unmarshal(run.Summary, &decodedSummary))
	assert.InDelta(t, 320, decodedSummary.TotalRevenue, 1e-9)

	require.Len(t, run.Results, 4)
	for i, res := range run.Results {
		assert.Equal(t, i, res.Position)
		assert.Equal(t, out.Rows[i].Key, res.RowKey)
	}

	first := run.Results[0]
	assert.Equal(t, []int64{1}, []int64(first.MatchedProductIDs))
	assert.Nil(t, first.CollectionCode)
	require.NotNil(t, first.LaunchDate)
	require.NotNil(t, first.ROAS)
	assert.InDelta(t, 4, *first.ROAS, 1e-9)

	aggregate := run.Results[1]
	require.NotNil(t, aggregate.CollectionCode)
	assert.Equal(t, "C12", *aggregate.CollectionCode)
	assert.Equal(t, []int64{2, 3}, []int64(aggregate.MatchedProductIDs))
	assert.False(t, aggregate.IsDistributedProduct)
	assert.True(t, run.Results[2].IsDistributedProduct)
	assert.InDelta(t, 40, run.Results[2].AdSpend, 1e-9)

	var payload report.Row
	require.NoError(t, json.Unmarshal(aggregate.Payload, &payload))
	assert.Equal(t, out.Rows[1].Key, payload.Key)
	require.NotNil(t, payload.ROAS)
	assert.InDelta(t, 1.5, *payload.ROAS, 1e-9)
}

func TestServiceSaveRejectsDuplicateRun(t *testing.T) {
	conn := setupResultsTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	out := sampleOutput()
	_, err := svc.Save(ctx, SaveInput{Output: out})
	require.NoError(t, err)

	_, err = svc.Save(ctx, SaveInput{Output: out})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	var count int64
	require.NoError(t, conn.Model(&models.CampaignResult{}).Count(&count).Error)
	assert.EqualValues(t, len(out.Rows), count)
}

func TestServiceSaveRollsBackRunWhenRowsFail(t *testing.T) {
	conn := setupResultsTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	out := sampleOutput()
	out.Rows[1].Key = out.Rows[0].Key
	_, err := svc.Save(ctx, SaveInput{Output: out})
	require.Error(t, err)

	var runs int64
	require.NoError(t, conn.Model(&models.AttributionRun{}).Count(&runs).Error)
	assert.Zero(t, runs)
}

func TestServiceSaveValidatesInput(t *testing.T) {
	conn := setupResultsTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.Save(context.Background(), SaveInput{})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.Save(context.Background(), SaveInput{Output: &attribution.Output{}})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil)
	assert.Error(t, err)

	conn := setupResultsTestDB(t)
	_, err = NewService(NewRepository(conn), nil)
	assert.Error(t, err)
}

func TestRepositoryListRunsNewestFirst(t *testing.T) {
	conn := setupResultsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		run := &models.AttributionRun{
			ID:            uuid.New(),
			AnalysisStart: base,
			AnalysisEnd:   base.AddDate(0, 0, 14),
			SpendRate:     1,
			Timezone:      "UTC",
			Summary:       json.RawMessage(`{}`),
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		}
		_, err := repo.CreateRun(ctx, run)
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}
