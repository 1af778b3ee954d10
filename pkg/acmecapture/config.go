package acmecapture

import (
	"github.com/ptitiano/acme-utils/internal/app/config"
	"github.com/ptitiano/acme-utils/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// CapturePolicy carries the acquisition parameters shared by all workers.
	CapturePolicy = ports.CapturePolicy
	// ProbeConfig identifies one probe by cape host and slot.
	ProbeConfig = config.ProbeConfig
	// CaptureConfig holds duration, buffer size, and channel selection.
	CaptureConfig = config.CaptureConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// OutputConfig configures the report and trace files.
	OutputConfig = config.OutputConfig
	// PostgresConfig configures the optional summary database sink.
	PostgresConfig = config.PostgresConfig
	// Duration is a YAML-parseable wrapper around time.Duration.
	Duration = config.Duration
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseProbeSpecs expands host:slot(s) selection strings into probe configs.
func ParseProbeSpecs(specs []string, names []string) ([]ProbeConfig, error) {
	return config.ParseProbeSpecs(specs, names)
}
