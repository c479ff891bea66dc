package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/campaign-attribution/internal/attribution"
	"github.com/angelmondragon/campaign-attribution/pkg/config"
	"github.com/google/uuid"
)

const dayLayout = "2006-01-02"

// rangeFlags are the raw -start, -end and -now values.
type rangeFlags struct {
	Start string
	End   string
	Now   string
}

// buildParams resolves run parameters from configuration and flags. Without
// -start the range covers DaysBack days ending at -end (or now). Days are
// interpreted in the configured timezone and -end is inclusive.
func buildParams(cfg config.AnalysisConfig, flags rangeFlags, clock time.Time) (attribution.Params, error) {
	loc, err := cfg.Location()
	if err != nil {
		return attribution.Params{}, err
	}

	now := clock.In(loc)
	if strings.TrimSpace(flags.Now) != "" {
		now, err = parseInstant(flags.Now, loc)
		if err != nil {
			return attribution.Params{}, fmt.Errorf("-now: %w", err)
		}
	}

	end := now
	if strings.TrimSpace(flags.End) != "" {
		day, err := time.ParseInLocation(dayLayout, strings.TrimSpace(flags.End), loc)
		if err != nil {
			return attribution.Params{}, fmt.Errorf("-end: %w", err)
		}
		end = endOfDay(day)
	}

	start := startOfDay(end.AddDate(0, 0, -cfg.DaysBack))
	if strings.TrimSpace(flags.Start) != "" {
		start, err = time.ParseInLocation(dayLayout, strings.TrimSpace(flags.Start), loc)
		if err != nil {
			return attribution.Params{}, fmt.Errorf("-start: %w", err)
		}
	}

	params := attribution.Params{
		AttributionWindowDays: cfg.AttributionWindowDays,
		ExtendedAnalysisDays:  cfg.ExtendedAnalysisDays,
		COGSPercentage:        cfg.COGSPercentage,
		AnalysisStart:         start,
		AnalysisEnd:           end,
		Now:                   now,
		Location:              loc,
		SpendRate:             1,
	}
	return params, params.Validate()
}

// parseInstant accepts RFC 3339 timestamps or bare days.
func parseInstant(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	return time.ParseInLocation(dayLayout, value, loc)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// runIDSource pins the run id when -run-id is set so a replay reproduces the
// stored document.
func runIDSource(raw string) (func() uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid -run-id %q: %w", raw, err)
	}
	return func() uuid.UUID { return id }, nil
}
