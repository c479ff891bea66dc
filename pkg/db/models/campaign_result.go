package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/campaign-attribution/pkg/db/types"
	"github.com/angelmondragon/campaign-attribution/pkg/enums"
)

// CampaignResult is one output row of a run, distributed rows included.
type CampaignResult struct {
	ID                   uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	RunID                uuid.UUID                `gorm:"column:run_id;type:uuid;not null"`
	Position             int                      `gorm:"column:position;not null"`
	RowKey               string                   `gorm:"column:row_key;not null"`
	Campaign             string                   `gorm:"column:campaign;not null"`
	Kind                 enums.CampaignKind       `gorm:"column:kind;not null"`
	Outcome              enums.AttributionOutcome `gorm:"column:outcome;not null"`
	ProductLabel         string                   `gorm:"column:product_label;not null"`
	CollectionCode       *string                  `gorm:"column:collection_code"`
	MatchedProductIDs    dbtypes.Int64Array       `gorm:"column:matched_product_ids;type:bigint[]"`
	IsDistributedProduct bool                     `gorm:"column:is_distributed_product;not null"`
	LaunchDate           *time.Time               `gorm:"column:launch_date"`
	AdSpend              float64                  `gorm:"column:ad_spend;not null"`
	AttributedRevenue    float64                  `gorm:"column:attributed_revenue;not null"`
	AttributedOrders     float64                  `gorm:"column:attributed_orders;not null"`
	ExtendedRevenue      float64                  `gorm:"column:extended_revenue;not null"`
	ExtendedOrders       float64                  `gorm:"column:extended_orders;not null"`
	ROAS                 *float64                 `gorm:"column:roas"`
	NetProfit            float64                  `gorm:"column:net_profit;not null"`
	Payload              json.RawMessage          `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
}
