// Package results persists attribution runs and their campaign rows.
package results

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/campaign-attribution/internal/attribution"
	"github.com/angelmondragon/campaign-attribution/internal/report"
	"github.com/angelmondragon/campaign-attribution/pkg/db"
	"github.com/angelmondragon/campaign-attribution/pkg/db/models"
	pkgerrors "github.com/angelmondragon/campaign-attribution/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service stores completed runs.
type Service interface {
	Save(ctx context.Context, input SaveInput) (*models.AttributionRun, error)
}

// SaveInput is one finished run and the summary built from it.
type SaveInput struct {
	Output  *attribution.Output
	Summary report.Summary
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a results service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("results repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Save writes the run and every row in one transaction; a run is never
// stored without its rows.
func (s *service) Save(ctx context.Context, input SaveInput) (*models.AttributionRun, error) {
	run, rows, err := buildRecords(input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateRun(ctx, run); err != nil {
			return err
		}
		return repo.CreateResults(ctx, rows)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "run already stored").
				WithDetails(map[string]any{"run_id": run.ID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store attribution run")
	}
	run.Results = rows
	return run, nil
}

func buildRecords(input SaveInput) (*models.AttributionRun, []models.CampaignResult, error) {
	out := input.Output
	if out == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "run output is required")
	}
	if out.RunID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "run id is required")
	}

	summary, err := json.Marshal(input.Summary)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode run summary")
	}

	p := out.Params
	run := &models.AttributionRun{
		ID:                    out.RunID,
		AnalysisStart:         p.AnalysisStart.UTC(),
		AnalysisEnd:           p.AnalysisEnd.UTC(),
		AttributionWindowDays: p.AttributionWindowDays,
		ExtendedAnalysisDays:  p.ExtendedAnalysisDays,
		COGSPercentage:        p.COGSPercentage,
		SpendRate:             p.SpendRate,
		Timezone:              p.Timezone(),
		CampaignCount:         input.Summary.Campaigns,
		TotalAdSpend:          input.Summary.TotalAdSpend,
		TotalRevenue:          input.Summary.TotalRevenue,
		Summary:               summary,
	}

	rows := make([]models.CampaignResult, 0, len(out.Rows))
	for i, row := range out.Rows {
		record, err := resultFromRow(out.RunID, i, row)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, record)
	}
	return run, rows, nil
}

func resultFromRow(runID uuid.UUID, position int, row report.Row) (models.CampaignResult, error) {
	payload, err := json.Marshal(row)
	if err != nil {
		return models.CampaignResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode campaign row").
			WithDetails(map[string]any{"key": row.Key})
	}

	record := models.CampaignResult{
		ID:                   uuid.New(),
		RunID:                runID,
		Position:             position,
		RowKey:               row.Key,
		Campaign:             row.Campaign,
		Kind:                 row.Kind,
		Outcome:              row.Outcome,
		ProductLabel:         row.ProductLabel,
		MatchedProductIDs:    row.MatchedProductIDs,
		IsDistributedProduct: row.IsDistributedProduct,
		AdSpend:              row.AdSpend,
		AttributedRevenue:    row.AttributedRevenue,
		AttributedOrders:     row.AttributedOrders,
		ExtendedRevenue:      row.ExtendedRevenue,
		ExtendedOrders:       row.ExtendedOrders,
		ROAS:                 row.ROAS,
		NetProfit:            row.NetProfit,
		Payload:              payload,
	}
	if row.CollectionCode != "" {
		code := row.CollectionCode
		record.CollectionCode = &code
	}
	if row.LaunchDate != nil {
		launch := row.LaunchDate.UTC()
		record.LaunchDate = &launch
	}
	return record, nil
}
