package enums

import "fmt"

// AttributionWindow names the window a line item was claimed in.
type AttributionWindow string

const (
	WindowAttribution AttributionWindow = "attribution"
	WindowExtended    AttributionWindow = "extended"
)

var validAttributionWindows = []AttributionWindow{
	WindowAttribution,
	WindowExtended,
}

// String implements fmt.Stringer.
func (v AttributionWindow) String() string {
	return string(v)
}

// IsValid reports whether the value is a known AttributionWindow.
func (v AttributionWindow) IsValid() bool {
	for _, candidate := range validAttributionWindows {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseAttributionWindow converts raw input into a AttributionWindow.
func ParseAttributionWindow(value string) (AttributionWindow, error) {
	for _, candidate := range validAttributionWindows {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid attribution window %q", value)
}
