package enums

import "fmt"

// LaunchDateSource records where a campaign's launch date came from.
type LaunchDateSource string

const (
	LaunchDateFromName     LaunchDateSource = "campaign_name"
	LaunchDateFromPlatform LaunchDateSource = "platform"
)

var validLaunchDateSources = []LaunchDateSource{
	LaunchDateFromName,
	LaunchDateFromPlatform,
}

// String implements fmt.Stringer.
func (v LaunchDateSource) String() string {
	return string(v)
}

// IsValid reports whether the value is a known LaunchDateSource.
func (v LaunchDateSource) IsValid() bool {
	for _, candidate := range validLaunchDateSources {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseLaunchDateSource converts raw input into a LaunchDateSource.
func ParseLaunchDateSource(value string) (LaunchDateSource, error) {
	for _, candidate := range validLaunchDateSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid launch date source %q", value)
}
