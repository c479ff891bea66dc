// Package attribution credits storefront line items to ad campaigns. Each run
// owns a claim registry so a sale is never credited to two campaigns.
package attribution

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/angelmondragon/campaign-attribution/internal/campaigns"
	"github.com/angelmondragon/campaign-attribution/internal/catalog"
	"github.com/angelmondragon/campaign-attribution/internal/feeds"
	"github.com/angelmondragon/campaign-attribution/internal/ledger"
	"github.com/angelmondragon/campaign-attribution/internal/report"
	"github.com/angelmondragon/campaign-attribution/pkg/enums"
	pkgerrors "github.com/angelmondragon/campaign-attribution/pkg/errors"
	"github.com/angelmondragon/campaign-attribution/pkg/logger"
	"github.com/angelmondragon/campaign-attribution/pkg/metrics"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Input is everything one run reads. Campaign order is the claim order.
type Input struct {
	Campaigns []feeds.Campaign
	Ledger    *ledger.Ledger
	Catalog   *catalog.Catalog
	Params    Params
}

// Output holds the split result rows and the committed claims of one run.
type Output struct {
	RunID      uuid.UUID
	Params     Params
	Rows       []report.Row
	Registry   *ledger.ClaimRegistry
	Shop       report.ShopTotals
	Duplicates []string
}

// EngineParams wires the engine's collaborators. Metrics are optional.
// NewID defaults to uuid.New; pin it to replay a run byte for byte.
type EngineParams struct {
	Logger  *logger.Logger
	Metrics *metrics.AttributionMetrics
	NewID   func() uuid.UUID
}

type Engine struct {
	logg    *logger.Logger
	metrics *metrics.AttributionMetrics
	newID   func() uuid.UUID

	// afterAttribution runs once a campaign's windows are scanned, before commit.
	afterAttribution func(row *report.Row)
}

func NewEngine(p EngineParams) (*Engine, error) {
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	newID := p.NewID
	if newID == nil {
		newID = uuid.New
	}
	return &Engine{logg: p.Logger, metrics: p.Metrics, newID: newID}, nil
}

type run struct {
	params   Params
	ledger   *ledger.Ledger
	catalog  *catalog.Catalog
	matcher  *catalog.Matcher
	registry *ledger.ClaimRegistry
	sold     []ledger.LineItem
}

// Run attributes every campaign in input order. A failing campaign yields an
// OutcomeFailed row and never aborts the run; only invalid input is returned
// as an error.
func (e *Engine) Run(ctx context.Context, in Input) (*Output, error) {
	started := time.Now()
	if err := in.Params.Validate(); err != nil {
		e.metrics.ObserveRun("invalid", time.Since(started))
		return nil, err
	}
	if in.Ledger == nil || in.Catalog == nil {
		e.metrics.ObserveRun("invalid", time.Since(started))
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger and catalog are required")
	}

	out := &Output{
		RunID:    e.newID(),
		Params:   in.Params,
		Registry: ledger.NewClaimRegistry(),
	}
	ctx = e.logg.WithRunID(ctx, out.RunID.String())

	r := &run{
		params:   in.Params,
		ledger:   in.Ledger,
		catalog:  in.Catalog,
		matcher:  catalog.NewMatcher(in.Catalog),
		registry: out.Registry,
		sold:     in.Ledger.Items(),
	}

	ordered, duplicates := Dedupe(in.Campaigns)
	out.Duplicates = duplicates
	for _, name := range duplicates {
		e.logg.Warn(e.logg.WithCampaign(ctx, name), "duplicate campaign row dropped")
	}

	rows := make([]report.Row, 0, len(ordered))
	for _, c := range ordered {
		row := e.attribute(e.logg.WithCampaign(ctx, c.Name), r, c)
		e.metrics.IncOutcome(row.Outcome.String())
		rows = append(rows, row)
	}

	for window, n := range countWindows(out.Registry.Claims()) {
		e.metrics.AddClaims(window.String(), n)
	}

	out.Rows = report.Split(rows)
	out.Shop = report.ComputeShopTotals(r.sold, in.Params.AnalysisStart, in.Params.AnalysisEnd)

	e.logg.Info(e.logg.WithFields(ctx, map[string]any{
		"campaigns":        len(ordered),
		"rows":             len(out.Rows),
		"claimed":          out.Registry.Len(),
		"in_range_items":   out.Shop.LineItems,
		"duplicates":       len(duplicates),
		"duration_seconds": time.Since(started).Seconds(),
	}), "attribution run completed")
	e.metrics.ObserveRun("success", time.Since(started))
	return out, nil
}

// Dedupe keeps the first row for every campaign name and reports the names of
// dropped repeats in the order they were seen.
func Dedupe(rows []feeds.Campaign) ([]feeds.Campaign, []string) {
	seen := make(map[string]bool, len(rows))
	out := make([]feeds.Campaign, 0, len(rows))
	var dups []string
	for _, c := range rows {
		if seen[c.Name] {
			dups = append(dups, c.Name)
			continue
		}
		seen[c.Name] = true
		out = append(out, c)
	}
	return out, dups
}

// attribute runs one campaign through Unresolved, Matched, Attributed and
// Finalized. Its claims reach the registry only on a clean finish.
func (e *Engine) attribute(ctx context.Context, r *run, c feeds.Campaign) (row report.Row) {
	row = newRow(c, r.params)
	tx := r.registry.Begin(c.Name)

	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			err := pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("campaign attribution panicked: %v", rec))
			row = failedRow(row, err)
			e.logg.Error(ctx, "campaign attribution failed", err)
		}
	}()

	parsed := campaigns.Parse(c.Name, r.params.Now, r.params.Location)
	row.Kind = parsed.Kind
	row.CollectionCode = parsed.CollectionCode

	launch := parsed.LaunchDate
	row.LaunchDateSource = enums.LaunchDateFromName
	if launch == nil {
		if c.DateStart == nil {
			tx.Rollback()
			err := pkgerrors.New(pkgerrors.CodeParse, "no launch date in campaign name or platform feed")
			e.logg.Warn(ctx, err.Error())
			return failedRow(row, err)
		}
		start := c.DateStart.In(r.params.Location)
		launch = &start
		row.LaunchDateSource = enums.LaunchDateFromPlatform
		e.logg.Warn(e.logg.WithField(ctx, "date_start", start.Format(dateLayout)), "launch date not in campaign name, using platform start date")
	}
	row.LaunchDate = launch

	if launch.After(r.params.AnalysisEnd) {
		tx.Rollback()
		e.logg.Info(e.logg.WithField(ctx, "launch_date", launch.Format(dateLayout)), "campaign launched after analysis end, skipped")
		return skippedRow(row)
	}

	attrEnd := r.params.attributionEnd(*launch)
	extEnd := r.params.extendedEnd(attrEnd)
	row.AttributionEnd = &attrEnd
	row.ExtendedEnd = &extEnd

	products := e.match(ctx, r, parsed, &row)
	if len(products) > 0 {
		row.Stage = enums.AttributionStageMatched
		claimWindows(r, tx, &row, products, *launch, attrEnd, extEnd)
		row.Stage = enums.AttributionStageAttributed
	}

	if e.afterAttribution != nil {
		e.afterAttribution(&row)
	}

	if err := tx.Commit(); err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeInternal, err, "commit campaign claims")
		e.logg.Error(ctx, "campaign claims rejected", wrapped)
		return failedRow(row, wrapped)
	}

	row.Recompute()
	row.Stage = enums.AttributionStageFinalized
	e.logg.Debug(e.logg.WithFields(ctx, map[string]any{
		"outcome":            row.Outcome.String(),
		"attributed_revenue": row.AttributedRevenue,
		"attributed_orders":  row.AttributedOrders,
		"extended_revenue":   row.ExtendedRevenue,
	}), "campaign attributed")
	return row
}

// match resolves the campaign to catalog products and labels the row. It
// returns nil on a miss, leaving a zero-attribution row.
func (e *Engine) match(ctx context.Context, r *run, parsed campaigns.Parsed, row *report.Row) []int64 {
	if parsed.IsCollection() {
		if parsed.CollectionCode == "" {
			row.Outcome = enums.OutcomeNoCollectionCode
			row.ProductLabel = fmt.Sprintf("Collection from %s - No code extracted", row.Campaign)
			e.logg.Warn(ctx, "collection campaign without a collection code")
			return nil
		}
		m := r.matcher.MatchCollection(parsed.CollectionCode)
		if !m.Found() {
			row.Outcome = enums.OutcomeCollectionNotFound
			row.ProductLabel = fmt.Sprintf("Collection %s - Not Found in Shopify", parsed.CollectionCode)
			e.logg.Warn(e.logg.WithField(ctx, "collection_code", parsed.CollectionCode), "collection not found in catalog")
			return nil
		}
		row.Outcome = enums.OutcomeMatched
		row.CollectionTitle = m.Title
		row.ProductLabel = m.Title
		row.ProductURL = m.URL
		row.MatchedProductIDs = append([]int64(nil), m.ProductIDs...)
		for _, id := range m.ProductIDs {
			row.ProductNames = append(row.ProductNames, r.catalog.ProductTitle(id))
		}
		e.logg.Info(e.logg.WithFields(ctx, map[string]any{
			"collection_code": parsed.CollectionCode,
			"collection":      m.Title,
			"products":        len(m.ProductIDs),
		}), "collection matched")
		return m.ProductIDs
	}

	pm, ok := r.matcher.MatchProduct(parsed.ProductHint, r.sold)
	if !ok {
		row.Outcome = enums.OutcomeNoSalesFound
		row.ProductLabel = fmt.Sprintf("%s [No Sales Found]", parsed.ProductHint)
		e.logg.Warn(e.logg.WithField(ctx, "product_hint", parsed.ProductHint), "no product matched campaign")
		return nil
	}
	row.Outcome = enums.OutcomeMatched
	row.ProductLabel = pm.Title
	row.ProductNames = []string{pm.Title}
	row.ProductURL = pm.URL
	row.MatchedProductIDs = []int64{pm.ProductID}
	e.logg.Info(e.logg.WithFields(ctx, map[string]any{
		"product_hint": parsed.ProductHint,
		"product":      pm.Title,
		"source":       string(pm.Source),
	}), "product matched")
	return row.MatchedProductIDs
}

// claimWindows stages the attribution window for every product first, then
// the extended window, accumulating the row's sales as it goes.
func claimWindows(r *run, tx *ledger.Tx, row *report.Row, products []int64, launch, attrEnd, extEnd time.Time) {
	daily := make(map[string]*report.DailySale)
	perProduct := make(map[int64]*report.ProductSales, len(products))
	for _, id := range products {
		perProduct[id] = &report.ProductSales{ProductID: id, Title: r.catalog.ProductTitle(id)}
	}

	for _, id := range products {
		for _, item := range r.ledger.Window(id, launch, attrEnd, true) {
			if !tx.Claim(item.Key(), enums.WindowAttribution) {
				continue
			}
			price := item.Price.InexactFloat64()
			row.AttributedRevenue += price
			row.AttributedOrders++

			day := item.CreatedAt.In(r.params.Location).Format(dateLayout)
			sale, ok := daily[day]
			if !ok {
				sale = &report.DailySale{Date: day}
				daily[day] = sale
			}
			sale.Revenue += price
			sale.Orders++

			perProduct[id].Revenue += price
			perProduct[id].Orders++
		}
	}

	for _, id := range products {
		for _, item := range r.ledger.Window(id, attrEnd, extEnd, false) {
			if !tx.Claim(item.Key(), enums.WindowExtended) {
				continue
			}
			price := item.Price.InexactFloat64()
			row.ExtendedRevenue += price
			row.ExtendedOrders++
			perProduct[id].Revenue += price
			perProduct[id].Orders++
		}
	}

	row.ProcessedLineItems = len(tx.Claims())
	row.DailySales = make([]report.DailySale, 0, len(daily))
	for _, sale := range daily {
		row.DailySales = append(row.DailySales, *sale)
	}
	sort.Slice(row.DailySales, func(i, j int) bool { return row.DailySales[i].Date < row.DailySales[j].Date })

	row.SalesPerProduct = make([]report.ProductSales, 0, len(products))
	for _, id := range products {
		if ps := perProduct[id]; ps.Orders > 0 {
			row.SalesPerProduct = append(row.SalesPerProduct, *ps)
		}
	}
}

func newRow(c feeds.Campaign, p Params) report.Row {
	row := report.Row{
		Key:            c.Name,
		Campaign:       c.Name,
		Status:         c.Status,
		Stage:          enums.AttributionStageUnresolved,
		AdSpend:        c.Spend.InexactFloat64() * p.SpendRate,
		Impressions:    float64(c.Impressions),
		Clicks:         float64(c.Clicks),
		COGSPercentage: p.COGSPercentage,
	}
	row.Kind = enums.CampaignKindSingleProduct
	if campaigns.IsCollection(c.Name) {
		row.Kind = enums.CampaignKindCollection
	}
	return row
}

// skippedRow zeroes every figure; skipped campaigns stay out of totals.
func skippedRow(row report.Row) report.Row {
	out := report.Row{
		Key:              row.Key,
		Campaign:         row.Campaign,
		Kind:             row.Kind,
		Status:           row.Status,
		CollectionCode:   row.CollectionCode,
		LaunchDate:       row.LaunchDate,
		LaunchDateSource: row.LaunchDateSource,
		COGSPercentage:   row.COGSPercentage,
		Stage:            enums.AttributionStageFinalized,
		Outcome:          enums.OutcomeSkipped,
	}
	out.Recompute()
	return out
}

// failedRow keeps the spend and drops every sale the campaign staged.
func failedRow(row report.Row, err error) report.Row {
	row.Outcome = enums.OutcomeFailed
	row.Error = err.Error()
	row.AttributedRevenue = 0
	row.AttributedOrders = 0
	row.ExtendedRevenue = 0
	row.ExtendedOrders = 0
	row.MatchedProductIDs = nil
	row.DailySales = nil
	row.SalesPerProduct = nil
	row.ProcessedLineItems = 0
	row.Recompute()
	return row
}

func countWindows(claims []ledger.Claim) map[enums.AttributionWindow]int {
	out := make(map[enums.AttributionWindow]int)
	for _, c := range claims {
		out[c.Window]++
	}
	return out
}
