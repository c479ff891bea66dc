package enums

import "fmt"

// CampaignKind distinguishes campaigns promoting one product from collection campaigns.
type CampaignKind string

const (
	CampaignKindSingleProduct CampaignKind = "single_product"
	CampaignKindCollection    CampaignKind = "collection"
)

var validCampaignKinds = []CampaignKind{
	CampaignKindSingleProduct,
	CampaignKindCollection,
}

// String implements fmt.Stringer.
func (v CampaignKind) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CampaignKind.
func (v CampaignKind) IsValid() bool {
	for _, candidate := range validCampaignKinds {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCampaignKind converts raw input into a CampaignKind.
func ParseCampaignKind(value string) (CampaignKind, error) {
	for _, candidate := range validCampaignKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid campaign kind %q", value)
}
