package report

import (
	"math"
	"testing"
	"time"

	"github.com/angelmondragon/campaign-attribution/internal/kpi"
	"github.com/angelmondragon/campaign-attribution/internal/ledger"
	"github.com/angelmondragon/campaign-attribution/internal/refunds"
	"github.com/angelmondragon/campaign-attribution/pkg/enums"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchedRow(name string, spend, revenue, orders float64, products ...int64) Row {
	row := Row{
		Key:               name,
		Campaign:          name,
		Outcome:           enums.OutcomeMatched,
		Stage:             enums.AttributionStageFinalized,
		MatchedProductIDs: products,
		AdSpend:           spend,
		Impressions:       1000,
		Clicks:            40,
		AttributedRevenue: revenue,
		AttributedOrders:  orders,
		ExtendedRevenue:   revenue / 2,
		ExtendedOrders:    1,
		COGSPercentage:    0.4,
	}
	for _, id := range products {
		row.ProductNames = append(row.ProductNames, "Product "+string(rune('A'+id-1)))
		row.SalesPerProduct = append(row.SalesPerProduct, ProductSales{ProductID: id, Revenue: revenue / float64(len(products))})
	}
	row.Recompute()
	return row
}

func TestSplitLeavesSingleProductRows(t *testing.T) {
	rows := []Row{matchedRow("solo", 10, 50, 2, 1), matchedRow("none", 10, 0, 0)}
	got := Split(rows)
	require.Len(t, got, 2)
	assert.False(t, got[0].IsCollectionCampaign)
	assert.False(t, got[1].IsDistributedProduct)
}

func TestSplitDistributesCollectionRow(t *testing.T) {
	agg := matchedRow("C12 bundle", 90, 300, 6, 1, 2, 3)
	agg.DailySales = []DailySale{{Date: "2024-02-16", Revenue: 300, Orders: 6}}
	got := Split([]Row{agg})
	require.Len(t, got, 4)

	assert.True(t, got[0].IsCollectionCampaign)
	assert.Equal(t, "C12 bundle", got[0].Key)
	assert.InDelta(t, 90.0, got[0].AdSpend, 1e-9)

	for i, row := range got[1:] {
		assert.Equal(t, "C12 bundle__PRODUCT_"+string(rune('1'+i)), row.Key)
		assert.Equal(t, "C12 bundle", row.OriginalCampaign)
		assert.True(t, row.IsDistributedProduct)
		assert.False(t, row.IsCollectionCampaign)
		assert.Equal(t, 3, row.ProductCount)
		assert.Equal(t, []int64{agg.MatchedProductIDs[i]}, row.MatchedProductIDs)
		assert.Equal(t, []string{agg.ProductNames[i]}, row.ProductNames)
		assert.InDelta(t, 30.0, row.AdSpend, 1e-9)
		assert.InDelta(t, 100.0, row.AttributedRevenue, 1e-9)
		assert.InDelta(t, 2.0, row.AttributedOrders, 1e-9)
		assert.InDelta(t, 40.0, row.COGS, 1e-9)
		require.NotNil(t, row.ROAS)
		assert.InDelta(t, *agg.ROAS, *row.ROAS, 1e-9)
		assert.Nil(t, row.DailySales)
		require.Len(t, row.SalesPerProduct, 1)
		assert.Equal(t, agg.MatchedProductIDs[i], row.SalesPerProduct[0].ProductID)
	}
}

func TestSplitConservesAdditiveFigures(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("distributed rows sum to the aggregate", prop.ForAll(
		func(spend, revenue, orders float64, n int) bool {
			ids := make([]int64, n)
			for i := range ids {
				ids[i] = int64(i + 1)
			}
			agg := matchedRow("bundle", spend, revenue, math.Floor(orders), ids...)
			got := Split([]Row{agg})
			if len(got) != n+1 {
				return false
			}
			var sum Row
			for _, row := range got[1:] {
				sum.AdSpend += row.AdSpend
				sum.Impressions += row.Impressions
				sum.Clicks += row.Clicks
				sum.AttributedRevenue += row.AttributedRevenue
				sum.AttributedOrders += row.AttributedOrders
				sum.ExtendedRevenue += row.ExtendedRevenue
				sum.ExtendedOrders += row.ExtendedOrders
				sum.COGS += row.COGS
				sum.GrossProfit += row.GrossProfit
				sum.NetProfit += row.NetProfit
			}
			near := func(a, b float64) bool { return math.Abs(a-b) <= 1e-6*math.Max(1, math.Abs(b)) }
			return near(sum.AdSpend, agg.AdSpend) &&
				near(sum.Impressions, agg.Impressions) &&
				near(sum.Clicks, agg.Clicks) &&
				near(sum.AttributedRevenue, agg.AttributedRevenue) &&
				near(sum.AttributedOrders, agg.AttributedOrders) &&
				near(sum.ExtendedRevenue, agg.ExtendedRevenue) &&
				near(sum.ExtendedOrders, agg.ExtendedOrders) &&
				near(sum.COGS, agg.COGS) &&
				near(sum.GrossProfit, agg.GrossProfit) &&
				near(sum.NetProfit, agg.NetProfit)
		},
		gen.Float64Range(0, 1e5),
		gen.Float64Range(0, 1e6),
		gen.Float64Range(0, 500),
		gen.IntRange(2, 12),
	))

	properties.TestingRun(t)
}

func TestBuildSummaryExcludesDistributedAndSkippedRows(t *testing.T) {
	rows := Split([]Row{
		matchedRow("bundle", 60, 300, 6, 1, 2),
		matchedRow("solo", 40, 100, 2, 3),
		{Key: "future", Campaign: "future", Outcome: enums.OutcomeSkipped, AdSpend: 999},
		{Key: "zero", Campaign: "zero", Outcome: enums.OutcomeNoSalesFound, AdSpend: 0},
	})
	rows[0].ProcessedLineItems = 8
	rows[3].ProcessedLineItems = 2

	shop := ShopTotals{TotalRevenue: 800, LineItems: 20}
	analysis := refunds.Analysis{TotalRefunds: 3}
	got := BuildSummary(rows, analysis, shop)

	assert.Equal(t, 3, got.Campaigns)
	assert.Equal(t, 2, got.MatchedCampaigns)
	assert.InDelta(t, 100.0, got.TotalAdSpend, 1e-9)
	assert.InDelta(t, 400.0, got.TotalRevenue, 1e-9)
	assert.InDelta(t, 400.0, got.TotalAttributionRevenue, 1e-9)
	assert.InDelta(t, 200.0, got.TotalExtendedRevenue, 1e-9)
	assert.InDelta(t, 600.0, got.TotalTrackedRevenue, 1e-9)
	assert.InDelta(t, 8.0, got.TotalOrders, 1e-9)
	require.NotNil(t, got.TotalAttributionROAS)
	assert.InDelta(t, 4.0, *got.TotalAttributionROAS, 1e-9)
	require.NotNil(t, got.TotalROAS)
	assert.InDelta(t, 4.0, *got.TotalROAS, 1e-9)
	require.NotNil(t, got.TrackedROAS)
	assert.InDelta(t, 6.0, *got.TrackedROAS, 1e-9)
	require.NotNil(t, got.CoveragePct)
	assert.InDelta(t, 50.0, *got.CoveragePct, 1e-9)
	require.NotNil(t, got.TrackedCoveragePct)
	assert.InDelta(t, 75.0, *got.TrackedCoveragePct, 1e-9)
	assert.Equal(t, 3, got.Refunds.TotalRefunds)
	assert.Equal(t, ClaimDiagnostics{ClaimedLineItems: 10, InRangeLineItems: 20}, got.Diagnostics)

	// The zero-spend row has no ROAS, CPA or margin and is skipped by the means.
	require.NotNil(t, got.AverageROAS)
	assert.InDelta(t, (5.0+2.5)/2, *got.AverageROAS, 1e-9)

	require.NotNil(t, got.TopPerformers.HighestROAS)
	assert.Equal(t, "bundle", got.TopPerformers.HighestROAS.Campaign)
	require.NotNil(t, got.TopPerformers.LowestCPA)
	assert.Equal(t, "bundle", got.TopPerformers.LowestCPA.Campaign)
	assert.InDelta(t, 10.0, got.TopPerformers.LowestCPA.Value, 1e-9)
}

func TestBuildSummaryKeepsExtendedRevenueOutOfROASAndCoverage(t *testing.T) {
	row := matchedRow("steady", 100, 100, 2, 1)
	row.ExtendedRevenue = 100
	row.Recompute()

	got := BuildSummary([]Row{row}, refunds.Analysis{}, ShopTotals{TotalRevenue: 400})

	require.NotNil(t, got.TotalROAS)
	assert.InDelta(t, 1.0, *got.TotalROAS, 1e-9)
	assert.InDelta(t, got.TotalRevenue/got.TotalAdSpend, *got.TotalROAS, 1e-9)
	require.NotNil(t, got.CoveragePct)
	assert.InDelta(t, 25.0, *got.CoveragePct, 1e-9)

	require.NotNil(t, got.TrackedROAS)
	assert.InDelta(t, 2.0, *got.TrackedROAS, 1e-9)
	require.NotNil(t, got.TrackedCoveragePct)
	assert.InDelta(t, 50.0, *got.TrackedCoveragePct, 1e-9)
}

func TestBuildSummaryWithoutMatches(t *testing.T) {
	rows := []Row{{Key: "miss", Campaign: "miss", Outcome: enums.OutcomeNoSalesFound, AdSpend: 25}}
	for i := range rows {
		rows[i].Recompute()
	}
	got := BuildSummary(rows, refunds.Analysis{TotalRefunds: 2, TotalRefundValue: 40}, ShopTotals{})

	assert.Zero(t, got.TotalRevenue)
	assert.Equal(t, 2, got.Refunds.TotalRefunds)
	assert.Nil(t, got.AverageCPA)
	assert.Nil(t, got.CoveragePct)
	require.NotNil(t, got.TotalAttributionROAS)
	assert.Zero(t, *got.TotalAttributionROAS)
	assert.Nil(t, got.TopPerformers.LowestCPA)
}

func TestBestTiesGoToEarliestRow(t *testing.T) {
	rows := []Row{
		{Campaign: "first", KPIs: kpi.KPIs{ROAS: kpi.Some(2)}},
		{Campaign: "undefined"},
		{Campaign: "second", KPIs: kpi.KPIs{ROAS: kpi.Some(2)}},
	}
	got := best(rows, func(r Row) kpi.Optional { return r.ROAS }, higher)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.Campaign)

	assert.Nil(t, best(rows[1:2], func(r Row) kpi.Optional { return r.ROAS }, higher))
}

func TestComputeShopTotals(t *testing.T) {
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)
	item := func(order, product int64, title, price string, at time.Time) ledger.LineItem {
		return ledger.LineItem{OrderID: order, LineItemID: order * 10, ProductID: product, Title: title, Price: decimal.RequireFromString(price), CreatedAt: at}
	}
	items := []ledger.LineItem{
		item(1, 5, "Hoodie", "40", from),
		item(2, 5, "Hoodie - renamed", "40", from.AddDate(0, 0, 3)),
		item(3, 0, "Gift Card", "100", from.AddDate(0, 0, 4)),
		item(4, 7, "Cap", "15", to),
		item(5, 7, "Cap", "15", to.Add(time.Second)),
	}
	got := ComputeShopTotals(items, from, to)

	assert.InDelta(t, 195.0, got.TotalRevenue, 1e-9)
	assert.Equal(t, 4, got.LineItems)
	require.Len(t, got.Products, 3)
	assert.Equal(t, "Gift Card", got.Products[0].Title)
	assert.Equal(t, ProductRevenue{ProductID: 5, Title: "Hoodie", Revenue: 80, LineItems: 2}, got.Products[1])
	assert.Equal(t, int64(7), got.Products[2].ProductID)
}
