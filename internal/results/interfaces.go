package results

import (
	"context"

	"github.com/angelmondragon/campaign-attribution/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for run and result tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateRun(ctx context.Context, run *models.AttributionRun) (*models.AttributionRun, error)
	CreateResults(ctx context.Context, results []models.CampaignResult) error
	FindRun(ctx context.Context, id uuid.UUID) (*models.AttributionRun, error)
	ListRuns(ctx context.Context, limit int) ([]models.AttributionRun, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
