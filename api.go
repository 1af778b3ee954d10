package acmecapture

import (
	base "github.com/ptitiano/acme-utils/pkg/acmecapture"
)

// Re-exported errors for convenience.
var (
	ErrAttach            = base.ErrAttach
	ErrConfig            = base.ErrConfig
	ErrChannelNotFound   = base.ErrChannelNotFound
	ErrAllocation        = base.ErrAllocation
	ErrRefill            = base.ErrRefill
	ErrRead              = base.ErrRead
	ErrParse             = base.ErrParse
	ErrDataIntegrity     = base.ErrDataIntegrity
	ErrNotAttached       = base.ErrNotAttached
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import github.com/ptitiano/acme-utils directly.
type (
	Config            = base.Config
	CapturePolicy     = base.CapturePolicy
	ProbeConfig       = base.ProbeConfig
	CaptureConfig     = base.CaptureConfig
	MetricsConfig     = base.MetricsConfig
	OutputConfig      = base.OutputConfig
	PostgresConfig    = base.PostgresConfig
	Duration          = base.Duration
	Runtime           = base.Runtime
	RuntimeOption     = base.RuntimeOption
	Probe             = base.Probe
	ProbeAddr         = base.ProbeAddr
	ProbeType         = base.ProbeType
	HardwareTransport = base.HardwareTransport
	DeviceSession     = base.DeviceSession
	CaptureBuffer     = base.CaptureBuffer
	ChannelHandle     = base.ChannelHandle
	ProbeInfoClient   = base.ProbeInfoClient
	ResultSink        = base.ResultSink
	ResultsFunc       = base.ResultsFunc
	Observability     = base.Observability
	Field             = base.Field
	Channel           = base.Channel
	CaptureResult     = base.CaptureResult
	Reduced           = base.Reduced
	Series            = base.Series
	Stats             = base.Stats
)

// Measurement channels known to the cape.
const (
	ChannelVshunt = base.ChannelVshunt
	ChannelVbat   = base.ChannelVbat
	ChannelTime   = base.ChannelTime
	ChannelIshunt = base.ChannelIshunt
	ChannelPower  = base.ChannelPower
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func ParseProbeSpecs(specs []string, names []string) ([]ProbeConfig, error) {
	return base.ParseProbeSpecs(specs, names)
}

// Runtime construction and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithTransport(t HardwareTransport) RuntimeOption {
	return base.WithTransport(t)
}

func WithProbeInfoClient(c ProbeInfoClient) RuntimeOption {
	return base.WithProbeInfoClient(c)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithSink(s ResultSink) RuntimeOption {
	return base.WithSink(s)
}

func WithProbes(probes ...Probe) RuntimeOption {
	return base.WithProbes(probes...)
}

// Sink adapters.
func NewCallbackSink(name string, fn ResultsFunc) ResultSink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (ResultSink, <-chan []*Reduced, func()) {
	return base.NewChannelSink(name, buffer)
}
