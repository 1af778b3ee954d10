package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ptitiano/acme-utils/internal/domain"
	"github.com/ptitiano/acme-utils/internal/ports"
)

// Duration wraps time.Duration so YAML configs can use human-readable
// values like "10s" or "500ms".
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }
func (d Duration) String() string     { return time.Duration(d).String() }

func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	Probes   []ProbeConfig  `yaml:"probes"`
	Capture  CaptureConfig  `yaml:"capture"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Output   OutputConfig   `yaml:"output"`
	Postgres PostgresConfig `yaml:"postgres"`

	// Virtual selects the software-simulated cape. Development only.
	Virtual bool `yaml:"virtual"`
}

type ProbeConfig struct {
	Host string `yaml:"host"`
	Slot int    `yaml:"slot"`
	Name string `yaml:"name"`
}

type CaptureConfig struct {
	Duration          Duration `yaml:"duration"`
	BufferSize        int      `yaml:"buffer_size"`
	Channels          []string `yaml:"channels"`
	OversamplingRatio int      `yaml:"oversampling_ratio"`
	AsynchronousReads bool     `yaml:"asynchronous_reads"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type OutputConfig struct {
	Dir      string `yaml:"dir"`
	Basename string `yaml:"basename"`
	Disable  bool   `yaml:"disable"`
}

// PostgresConfig enables the optional summary database sink when a
// connection string is set.
type PostgresConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Capture.Duration == 0 {
		c.Capture.Duration = Duration(10 * time.Second)
	}
	if c.Capture.BufferSize == 0 {
		c.Capture.BufferSize = 127
	}
	if len(c.Capture.Channels) == 0 {
		for _, ch := range domain.DefaultCaptureChannels {
			c.Capture.Channels = append(c.Capture.Channels, string(ch))
		}
	}
	if c.Capture.OversamplingRatio == 0 {
		c.Capture.OversamplingRatio = 1
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Output.Dir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			c.Output.Dir = home + "/acmecapture"
		} else {
			c.Output.Dir = "./acmecapture"
		}
	}
	if c.Postgres.Table == "" {
		c.Postgres.Table = "capture_summaries"
	}
	for i := range c.Probes {
		if c.Probes[i].Name == "" {
			c.Probes[i].Name = fmt.Sprintf("%s-%d", c.Probes[i].Host, c.Probes[i].Slot)
		}
	}
}

func (c *Config) Validate() error {
	if len(c.Probes) == 0 {
		return fmt.Errorf("at least one probe must be configured")
	}
	for _, p := range c.Probes {
		if p.Host == "" {
			return fmt.Errorf("probe host is required")
		}
		if p.Slot < 1 {
			return fmt.Errorf("probe %s: slot must be >= 1, got %d", p.Host, p.Slot)
		}
	}
	if c.Capture.Duration <= 0 {
		return fmt.Errorf("capture.duration must be > 0")
	}
	if c.Capture.BufferSize <= 0 {
		return fmt.Errorf("capture.buffer_size must be > 0")
	}
	if c.Capture.OversamplingRatio < 1 {
		return fmt.Errorf("capture.oversampling_ratio must be >= 1")
	}
	for _, name := range c.Capture.Channels {
		if _, ok := domain.ParseChannel(name); !ok {
			return fmt.Errorf("unknown capture channel %q", name)
		}
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	return nil
}

// Policy returns the capture policy shared by every worker in a run.
func (c *Config) Policy() ports.CapturePolicy {
	channels := make([]domain.Channel, 0, len(c.Capture.Channels))
	for _, name := range c.Capture.Channels {
		if ch, ok := domain.ParseChannel(name); ok {
			channels = append(channels, ch)
		}
	}
	return ports.CapturePolicy{
		Channels:          channels,
		Duration:          c.Capture.Duration.Std(),
		BufferSize:        c.Capture.BufferSize,
		OversamplingRatio: c.Capture.OversamplingRatio,
		AsynchronousReads: c.Capture.AsynchronousReads,
	}
}

// ProbeAddrs returns the probe identities in configuration order.
func (c *Config) ProbeAddrs() []domain.ProbeAddr {
	addrs := make([]domain.ProbeAddr, 0, len(c.Probes))
	for _, p := range c.Probes {
		addrs = append(addrs, domain.ProbeAddr{Host: p.Host, Slot: p.Slot, Name: p.Name})
	}
	return addrs
}
