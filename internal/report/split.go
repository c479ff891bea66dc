package report

import "fmt"

// Split distributes every row with more than one matched product into one
// synthetic row per product. The aggregate row is kept and flagged as a
// collection campaign; each synthetic row carries 1/N of every additive
// figure and recomputed ratios. Rows keep their input order, with synthetic
// rows following their aggregate.
func Split(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		n := len(row.MatchedProductIDs)
		if n <= 1 {
			out = append(out, row)
			continue
		}

		row.IsCollectionCampaign = true
		out = append(out, row)
		for i, productID := range row.MatchedProductIDs {
			out = append(out, distribute(row, i, productID, n))
		}
	}
	return out
}

func distribute(agg Row, i int, productID int64, n int) Row {
	share := float64(n)
	row := agg
	row.Key = fmt.Sprintf("%s__PRODUCT_%d", agg.Campaign, i+1)
	row.OriginalCampaign = agg.Campaign
	row.ProductCount = n
	row.IsCollectionCampaign = false
	row.IsDistributedProduct = true
	row.MatchedProductIDs = []int64{productID}
	row.ProductNames = nil
	if i < len(agg.ProductNames) {
		row.ProductNames = []string{agg.ProductNames[i]}
		row.ProductLabel = agg.ProductNames[i]
	}

	row.AdSpend = agg.AdSpend / share
	row.Impressions = agg.Impressions / share
	row.Clicks = agg.Clicks / share
	row.AttributedRevenue = agg.AttributedRevenue / share
	row.AttributedOrders = agg.AttributedOrders / share
	row.ExtendedRevenue = agg.ExtendedRevenue / share
	row.ExtendedOrders = agg.ExtendedOrders / share
	row.Recompute()

	// Daily detail stays on the aggregate row.
	row.DailySales = nil
	row.SalesPerProduct = nil
	for _, ps := range agg.SalesPerProduct {
		if ps.ProductID == productID {
			row.SalesPerProduct = []ProductSales{ps}
			break
		}
	}
	row.ProcessedLineItems = 0
	return row
}
