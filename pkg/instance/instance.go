package instance

import (
	"os"
	"strings"
)

const envInstanceID = "ATTRIBUTION_INSTANCE_ID"

// ID names this process when it holds a run lock: ATTRIBUTION_INSTANCE_ID,
// then the hostname, then a fixed default.
func ID() string {
	if id := strings.TrimSpace(os.Getenv(envInstanceID)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "attribution-0"
}
