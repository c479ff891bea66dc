package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile dumps the registry in node-exporter textfile format. An empty path is a no-op.
func WriteTextfile(reg *prometheus.Registry, path string) error {
	if reg == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
