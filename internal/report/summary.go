package report

import (
	"sort"
	"time"

	"github.com/angelmondragon/campaign-attribution/internal/kpi"
	"github.com/angelmondragon/campaign-attribution/internal/ledger"
	"github.com/angelmondragon/campaign-attribution/internal/refunds"
	"github.com/angelmondragon/campaign-attribution/pkg/enums"
)

// ProductRevenue is one product's storefront revenue for the period.
type ProductRevenue struct {
	ProductID int64   `json:"product_id"`
	Title     string  `json:"title"`
	Revenue   float64 `json:"revenue"`
	LineItems int     `json:"line_items"`
}

// ShopTotals describes every sale in the analysis range, attributed or not.
type ShopTotals struct {
	TotalRevenue float64          `json:"total_revenue"`
	LineItems    int              `json:"line_items"`
	Products     []ProductRevenue `json:"products"`
}

// ComputeShopTotals sums line items created within [from, to]. Products are
// titled by their first sold line item and ordered by revenue descending.
func ComputeShopTotals(items []ledger.LineItem, from, to time.Time) ShopTotals {
	var out ShopTotals
	byProduct := make(map[int64]int)
	byTitle := make(map[string]int)
	for _, item := range items {
		if item.CreatedAt.Before(from) || item.CreatedAt.After(to) {
			continue
		}
		price := item.Price.InexactFloat64()
		out.TotalRevenue += price
		out.LineItems++

		// Custom items without a product are grouped by title.
		idx, ok := byProduct[item.ProductID]
		if item.ProductID == 0 {
			idx, ok = byTitle[item.Title]
		}
		if !ok {
			idx = len(out.Products)
			if item.ProductID == 0 {
				byTitle[item.Title] = idx
			} else {
				byProduct[item.ProductID] = idx
			}
			out.Products = append(out.Products, ProductRevenue{ProductID: item.ProductID, Title: item.Title})
		}
		out.Products[idx].Revenue += price
		out.Products[idx].LineItems++
	}
	sort.SliceStable(out.Products, func(i, j int) bool {
		return out.Products[i].Revenue > out.Products[j].Revenue
	})
	return out
}

// Performer names the row that leads one ranking.
type Performer struct {
	Campaign string  `json:"campaign"`
	Value    float64 `json:"value"`
}

type TopPerformers struct {
	HighestROAS           *Performer `json:"highest_roas"`
	HighestRevenue        *Performer `json:"highest_revenue"`
	HighestNetProfit      *Performer `json:"highest_net_profit"`
	HighestConversionRate *Performer `json:"highest_conversion_rate"`
	HighestCTR            *Performer `json:"highest_ctr"`
	HighestProfitMargin   *Performer `json:"highest_profit_margin"`
	LowestCPA             *Performer `json:"lowest_cpa"`
}

type ClaimDiagnostics struct {
	ClaimedLineItems int `json:"claimed_line_items"`
	InRangeLineItems int `json:"in_range_line_items"`
}

// Summary is the portfolio view of one run. Headline revenue and orders are
// attribution-window figures; tracked figures add the extended window.
type Summary struct {
	Campaigns        int `json:"campaigns"`
	MatchedCampaigns int `json:"matched_campaigns"`

	TotalAdSpend            float64      `json:"total_ad_spend"`
	TotalAttributionRevenue float64      `json:"total_attribution_revenue"`
	TotalExtendedRevenue    float64      `json:"total_extended_revenue"`
	TotalRevenue            float64      `json:"total_revenue"`
	TotalTrackedRevenue     float64      `json:"total_tracked_revenue"`
	TotalAttributionROAS    kpi.Optional `json:"total_attribution_roas"`
	TotalROAS               kpi.Optional `json:"total_roas"`
	TrackedROAS             kpi.Optional `json:"tracked_roas"`
	TotalAttributionOrders  float64      `json:"total_attribution_orders"`
	TotalExtendedOrders     float64      `json:"total_extended_orders"`
	TotalOrders             float64      `json:"total_orders"`
	TotalTrackedOrders      float64      `json:"total_tracked_orders"`

	AverageAttributionWindowPct float64      `json:"average_attribution_window_pct"`
	AverageExtendedWindowPct    float64      `json:"average_extended_window_pct"`
	AverageCPA                  kpi.Optional `json:"average_cpa"`
	AverageProfitMargin         kpi.Optional `json:"average_profit_margin_pct"`
	AverageROI                  kpi.Optional `json:"average_roi_pct"`
	AverageROAS                 kpi.Optional `json:"average_roas"`

	TopPerformers      TopPerformers    `json:"top_performers"`
	Refunds            refunds.Analysis `json:"refunds"`
	Shop               ShopTotals       `json:"shop"`
	CoveragePct        kpi.Optional     `json:"attribution_coverage_pct"`
	TrackedCoveragePct kpi.Optional     `json:"tracked_coverage_pct"`
	Diagnostics        ClaimDiagnostics `json:"diagnostics"`
}

// BuildSummary aggregates rows that are neither distributed nor skipped, so
// multi-product campaigns are counted once.
func BuildSummary(rows []Row, refundAnalysis refunds.Analysis, shop ShopTotals) Summary {
	out := Summary{
		Refunds: refundAnalysis,
		Shop:    shop,
		Diagnostics: ClaimDiagnostics{
			InRangeLineItems: shop.LineItems,
		},
	}

	var attrShares, extShares float64
	var cpas, margins, rois, roases []kpi.Optional
	var included []Row
	for _, row := range rows {
		if !row.Aggregated() {
			continue
		}
		included = append(included, row)
		out.Campaigns++
		if row.Outcome == enums.OutcomeMatched {
			out.MatchedCampaigns++
		}

		out.TotalAdSpend += row.AdSpend
		out.TotalAttributionRevenue += row.AttributedRevenue
		out.TotalExtendedRevenue += row.ExtendedRevenue
		out.TotalAttributionOrders += row.AttributedOrders
		out.TotalExtendedOrders += row.ExtendedOrders
		out.Diagnostics.ClaimedLineItems += row.ProcessedLineItems

		attrShares += row.AttributionWindowShare
		extShares += row.ExtendedWindowShare
		cpas = append(cpas, row.CPA)
		margins = append(margins, row.ProfitMargin)
		rois = append(rois, row.ROI)
		roases = append(roases, row.ROAS)
	}

	out.TotalRevenue = out.TotalAttributionRevenue
	out.TotalOrders = out.TotalAttributionOrders
	out.TotalTrackedRevenue = out.TotalAttributionRevenue + out.TotalExtendedRevenue
	out.TotalTrackedOrders = out.TotalAttributionOrders + out.TotalExtendedOrders
	out.TotalAttributionROAS = kpi.Ratio(out.TotalAttributionRevenue, out.TotalAdSpend)
	out.TotalROAS = kpi.Ratio(out.TotalRevenue, out.TotalAdSpend)
	out.TrackedROAS = kpi.Ratio(out.TotalTrackedRevenue, out.TotalAdSpend)

	if out.Campaigns > 0 {
		out.AverageAttributionWindowPct = attrShares / float64(out.Campaigns)
		out.AverageExtendedWindowPct = extShares / float64(out.Campaigns)
	}
	out.AverageCPA = kpi.Mean(cpas)
	out.AverageProfitMargin = kpi.Mean(margins)
	out.AverageROI = kpi.Mean(rois)
	out.AverageROAS = kpi.Mean(roases)

	out.CoveragePct = percentOf(out.TotalRevenue, shop.TotalRevenue)
	out.TrackedCoveragePct = percentOf(out.TotalTrackedRevenue, shop.TotalRevenue)
	out.TopPerformers = rankPerformers(included)
	return out
}

func percentOf(part, whole float64) kpi.Optional {
	ratio := kpi.Ratio(part, whole)
	if ratio == nil {
		return nil
	}
	return kpi.Some(*ratio * 100)
}

func rankPerformers(rows []Row) TopPerformers {
	return TopPerformers{
		HighestROAS:           best(rows, func(r Row) kpi.Optional { return r.ROAS }, higher),
		HighestRevenue:        best(rows, func(r Row) kpi.Optional { return kpi.Some(r.TotalRevenue) }, higher),
		HighestNetProfit:      best(rows, func(r Row) kpi.Optional { return kpi.Some(r.NetProfit) }, higher),
		HighestConversionRate: best(rows, func(r Row) kpi.Optional { return kpi.Some(r.ConversionRate) }, higher),
		HighestCTR:            best(rows, func(r Row) kpi.Optional { return kpi.Some(r.CTR) }, higher),
		HighestProfitMargin:   best(rows, func(r Row) kpi.Optional { return r.ProfitMargin }, higher),
		LowestCPA:             best(rows, func(r Row) kpi.Optional { return r.CPA }, lower),
	}
}

func higher(candidate, current float64) bool { return candidate > current }

func lower(candidate, current float64) bool { return candidate < current }

// best skips undefined values; the earliest row wins ties.
func best(rows []Row, value func(Row) kpi.Optional, better func(candidate, current float64) bool) *Performer {
	var out *Performer
	for _, row := range rows {
		v := value(row)
		if v == nil {
			continue
		}
		if out == nil || better(*v, out.Value) {
			out = &Performer{Campaign: row.Campaign, Value: *v}
		}
	}
	return out
}
