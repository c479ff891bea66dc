package results

import (
	"context"

	"github.com/angelmondragon/campaign-attribution/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 20
	resultBatchSize  = 200
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a results repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateRun(ctx context.Context, run *models.AttributionRun) (*models.AttributionRun, error) {
	if err := r.db.WithContext(ctx).Omit("Results").Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *repository) CreateResults(ctx context.Context, results []models.CampaignResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&results, resultBatchSize).Error
}

func (r *repository) FindRun(ctx context.Context, id uuid.UUID) (*models.AttributionRun, error) {
	var run models.AttributionRun
	err := r.db.WithContext(ctx).
		Preload("Results", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs without their result rows.
func (r *repository) ListRuns(ctx context.Context, limit int) ([]models.AttributionRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var runs []models.AttributionRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
