package attribution

import (
	"time"

	pkgerrors "github.com/angelmondragon/campaign-attribution/pkg/errors"
	"github.com/angelmondragon/campaign-attribution/pkg/validators"
)

const (
	DefaultAttributionWindowDays = 7
	DefaultExtendedAnalysisDays  = 30
	DefaultCOGSPercentage        = 0.4
	DefaultDaysBack              = 30
)

// Params are the run parameters. Now is the reference instant for launch-year
// disambiguation; the engine never reads the wall clock.
type Params struct {
	AttributionWindowDays int            `json:"attribution_window_days" validate:"gte=0"`
	ExtendedAnalysisDays  int            `json:"extended_analysis_days" validate:"gte=0"`
	COGSPercentage        float64        `json:"cogs_percentage" validate:"gte=0,lte=1"`
	AnalysisStart         time.Time      `json:"analysis_start"`
	AnalysisEnd           time.Time      `json:"analysis_end" validate:"gtefield=AnalysisStart"`
	Now                   time.Time      `json:"now"`
	Location              *time.Location `json:"-" validate:"required"`
	SpendRate             float64        `json:"spend_rate" validate:"gt=0"`
}

// DefaultParams covers the DefaultDaysBack days ending at now.
func DefaultParams(now time.Time, loc *time.Location) Params {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	return Params{
		AttributionWindowDays: DefaultAttributionWindowDays,
		ExtendedAnalysisDays:  DefaultExtendedAnalysisDays,
		COGSPercentage:        DefaultCOGSPercentage,
		AnalysisStart:         now.AddDate(0, 0, -DefaultDaysBack),
		AnalysisEnd:           now,
		Now:                   now,
		Location:              loc,
		SpendRate:             1,
	}
}

func (p Params) Validate() error {
	if err := validators.Struct(p); err != nil {
		return err
	}
	missing := map[string]string{}
	if p.AnalysisStart.IsZero() {
		missing["analysis_start"] = "is required"
	}
	if p.AnalysisEnd.IsZero() {
		missing["analysis_end"] = "is required"
	}
	if p.Now.IsZero() {
		missing["now"] = "is required"
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(missing)
	}
	return nil
}

// Timezone names the location dates are bucketed in.
func (p Params) Timezone() string {
	if p.Location == nil {
		return ""
	}
	return p.Location.String()
}

func (p Params) attributionEnd(launch time.Time) time.Time {
	return launch.AddDate(0, 0, p.AttributionWindowDays)
}

func (p Params) extendedEnd(attributionEnd time.Time) time.Time {
	return attributionEnd.AddDate(0, 0, p.ExtendedAnalysisDays)
}
