// Package report shapes attributed campaign rows into the run output: it
// distributes multi-product rows and aggregates the portfolio summary.
package report

import (
	"time"

	"github.com/angelmondragon/campaign-attribution/internal/kpi"
	"github.com/angelmondragon/campaign-attribution/pkg/enums"
)

// DailySale is the attributed revenue of one local calendar day.
type DailySale struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Orders  float64 `json:"orders"`
}

// ProductSales is one product's share of a campaign's claimed line items.
type ProductSales struct {
	ProductID int64   `json:"product_id"`
	Title     string  `json:"title"`
	Revenue   float64 `json:"revenue"`
	Orders    float64 `json:"orders"`
}

// Row is one campaign result. Counts are float64 so distributed rows can
// carry exact fractional shares.
type Row struct {
	Key              string                   `json:"key"`
	Campaign         string                   `json:"campaign"`
	OriginalCampaign string                   `json:"original_campaign,omitempty"`
	Kind             enums.CampaignKind       `json:"kind"`
	Status           string                   `json:"status,omitempty"`
	Stage            enums.AttributionStage   `json:"stage"`
	Outcome          enums.AttributionOutcome `json:"outcome"`
	Error            string                   `json:"error,omitempty"`

	ProductLabel      string   `json:"product_label"`
	CollectionCode    string   `json:"collection_code,omitempty"`
	CollectionTitle   string   `json:"collection_title,omitempty"`
	ProductNames      []string `json:"product_names,omitempty"`
	ProductURL        string   `json:"product_url,omitempty"`
	MatchedProductIDs []int64  `json:"matched_product_ids,omitempty"`

	ProductCount         int  `json:"product_count,omitempty"`
	IsCollectionCampaign bool `json:"is_collection_campaign"`
	IsDistributedProduct bool `json:"is_distributed_product"`

	LaunchDate       *time.Time             `json:"launch_date,omitempty"`
	LaunchDateSource enums.LaunchDateSource `json:"launch_date_source,omitempty"`
	AttributionEnd   *time.Time             `json:"attribution_end,omitempty"`
	ExtendedEnd      *time.Time             `json:"extended_end,omitempty"`

	AdSpend           float64 `json:"ad_spend"`
	Impressions       float64 `json:"impressions"`
	Clicks            float64 `json:"clicks"`
	AttributedRevenue float64 `json:"attributed_revenue"`
	AttributedOrders  float64 `json:"attributed_orders"`
	ExtendedRevenue   float64 `json:"extended_revenue"`
	ExtendedOrders    float64 `json:"extended_orders"`
	COGSPercentage    float64 `json:"cogs_percentage"`

	kpi.KPIs

	DailySales         []DailySale    `json:"daily_sales,omitempty"`
	SalesPerProduct    []ProductSales `json:"sales_per_product,omitempty"`
	ProcessedLineItems int            `json:"processed_line_items"`
}

// Input returns the row's base figures.
func (r Row) Input() kpi.Input {
	return kpi.Input{
		AttributedRevenue: r.AttributedRevenue,
		AttributedOrders:  r.AttributedOrders,
		ExtendedRevenue:   r.ExtendedRevenue,
		ExtendedOrders:    r.ExtendedOrders,
		AdSpend:           r.AdSpend,
		Impressions:       r.Impressions,
		Clicks:            r.Clicks,
		COGSPercentage:    r.COGSPercentage,
	}
}

// Recompute refreshes every derived ratio from the base figures.
func (r *Row) Recompute() {
	r.KPIs = kpi.Compute(r.Input())
}

// TotalOrders is attribution plus extended orders.
func (r Row) TotalOrders() float64 {
	return r.AttributedOrders + r.ExtendedOrders
}

// Aggregated reports whether the row belongs in portfolio totals.
func (r Row) Aggregated() bool {
	return !r.IsDistributedProduct && r.Outcome != enums.OutcomeSkipped
}
