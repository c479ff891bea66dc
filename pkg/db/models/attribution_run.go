package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AttributionRun records the parameters and portfolio summary of one engine run.
type AttributionRun struct {
	ID                    uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	AnalysisStart         time.Time        `gorm:"column:analysis_start;not null"`
	AnalysisEnd           time.Time        `gorm:"column:analysis_end;not null"`
	AttributionWindowDays int              `gorm:"column:attribution_window_days;not null"`
	ExtendedAnalysisDays  int              `gorm:"column:extended_analysis_days;not null"`
	COGSPercentage        float64          `gorm:"column:cogs_percentage;not null"`
	SpendRate             float64          `gorm:"column:spend_rate;not null"`
	Timezone              string           `gorm:"column:timezone;not null"`
	CampaignCount         int              `gorm:"column:campaign_count;not null"`
	TotalAdSpend          float64          `gorm:"column:total_ad_spend;not null"`
	TotalRevenue          float64          `gorm:"column:total_revenue;not null"`
	Summary               json.RawMessage  `gorm:"column:summary;type:jsonb;not null"`
	CreatedAt             time.Time        `gorm:"column:created_at;autoCreateTime"`
	Results               []CampaignResult `gorm:"foreignKey:RunID"`
}
