// Package kpi derives campaign profitability ratios from attributed totals.
package kpi

// Optional is a ratio that may be undefined. A nil value means the
// denominator was zero and must be skipped by aggregates.
type Optional = *float64

// Input holds the base figures of one campaign row. Counts are float64 so
// split rows can carry fractional shares.
type Input struct {
	AttributedRevenue float64
	AttributedOrders  float64
	ExtendedRevenue   float64
	ExtendedOrders    float64
	AdSpend           float64
	Impressions       float64
	Clicks            float64
	COGSPercentage    float64
}

// KPIs are computed on attribution-window figures only; extended figures are informational.
type KPIs struct {
	TotalRevenue   float64  `json:"total_revenue"`
	COGS           float64  `json:"cogs"`
	GrossProfit    float64  `json:"gross_profit"`
	NetProfit      float64  `json:"net_profit"`
	ROI            Optional `json:"roi_pct"`
	ROAS           Optional `json:"roas"`
	CTR            float64  `json:"ctr_pct"`
	ConversionRate float64  `json:"conversion_rate_pct"`
	CPA            Optional `json:"cpa"`
	ProfitMargin   Optional `json:"profit_margin_pct"`

	AverageSellingPrice    float64 `json:"average_selling_price"`
	ExtendedCOGS           float64 `json:"extended_cogs"`
	ExtendedGrossProfit    float64 `json:"extended_gross_profit"`
	AttributionWindowShare float64 `json:"attribution_window_pct"`
	ExtendedWindowShare    float64 `json:"extended_window_pct"`
}

func Compute(in Input) KPIs {
	revenue := in.AttributedRevenue
	cogs := revenue * in.COGSPercentage
	gross := revenue - cogs
	net := gross - in.AdSpend

	out := KPIs{
		TotalRevenue: revenue,
		COGS:         cogs,
		GrossProfit:  gross,
		NetProfit:    net,
	}
	if in.AdSpend > 0 {
		out.ROI = Some(net / in.AdSpend * 100)
		out.ROAS = Some(revenue / in.AdSpend)
	}
	if in.Impressions > 0 {
		out.CTR = in.Clicks / in.Impressions * 100
	}
	if in.Clicks > 0 {
		out.ConversionRate = in.AttributedOrders / in.Clicks * 100
	}
	if in.AttributedOrders > 0 {
		out.CPA = Some(in.AdSpend / in.AttributedOrders)
		out.AverageSellingPrice = revenue / in.AttributedOrders
	}
	if revenue > 0 {
		out.ProfitMargin = Some(net / revenue * 100)
	}

	out.ExtendedCOGS = in.ExtendedRevenue * in.COGSPercentage
	out.ExtendedGrossProfit = in.ExtendedRevenue - out.ExtendedCOGS
	if tracked := revenue + in.ExtendedRevenue; tracked > 0 {
		out.AttributionWindowShare = revenue / tracked * 100
		out.ExtendedWindowShare = in.ExtendedRevenue / tracked * 100
	}
	return out
}

func Some(v float64) Optional {
	return &v
}

// Mean averages the defined values; it is undefined when none are defined.
func Mean(values []Optional) Optional {
	var sum float64
	var n int
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	return Some(sum / float64(n))
}

// Ratio returns num/den, undefined when den is not positive.
func Ratio(num, den float64) Optional {
	if den <= 0 {
		return nil
	}
	return Some(num / den)
}
