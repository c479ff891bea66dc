package enums

import "fmt"

// AttributionStage tracks a campaign's progress through the attribution pipeline.
type AttributionStage string

const (
	AttributionStageUnresolved AttributionStage = "unresolved"
	AttributionStageMatched    AttributionStage = "matched"
	AttributionStageAttributed AttributionStage = "attributed"
	AttributionStageFinalized  AttributionStage = "finalized"
)

var validAttributionStages = []AttributionStage{
	AttributionStageUnresolved,
	AttributionStageMatched,
	AttributionStageAttributed,
	AttributionStageFinalized,
}

// String implements fmt.Stringer.
func (v AttributionStage) String() string {
	return string(v)
}

// IsValid reports whether the value is a known AttributionStage.
func (v AttributionStage) IsValid() bool {
	for _, candidate := range validAttributionStages {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseAttributionStage converts raw input into a AttributionStage.
func ParseAttributionStage(value string) (AttributionStage, error) {
	for _, candidate := range validAttributionStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid attribution stage %q", value)
}
