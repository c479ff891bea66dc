package enums

import "fmt"

// AttributionOutcome records how a campaign's catalog match and attribution ended.
type AttributionOutcome string

const (
	OutcomeMatched            AttributionOutcome = "matched"
	OutcomeNoSalesFound       AttributionOutcome = "no_sales_found"
	OutcomeCollectionNotFound AttributionOutcome = "collection_not_found"
	OutcomeNoCollectionCode   AttributionOutcome = "no_collection_code"
	OutcomeSkipped            AttributionOutcome = "skipped"
	OutcomeFailed             AttributionOutcome = "failed"
)

var validAttributionOutcomes = []AttributionOutcome{
	OutcomeMatched,
	OutcomeNoSalesFound,
	OutcomeCollectionNotFound,
	OutcomeNoCollectionCode,
	OutcomeSkipped,
	OutcomeFailed,
}

// String implements fmt.Stringer.
func (v AttributionOutcome) String() string {
	return string(v)
}

// IsValid reports whether the value is a known AttributionOutcome.
func (v AttributionOutcome) IsValid() bool {
	for _, candidate := range validAttributionOutcomes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseAttributionOutcome converts raw input into a AttributionOutcome.
func ParseAttributionOutcome(value string) (AttributionOutcome, error) {
	for _, candidate := range validAttributionOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid attribution outcome %q", value)
}
