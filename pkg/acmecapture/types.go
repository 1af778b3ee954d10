package acmecapture

import (
	"github.com/ptitiano/acme-utils/internal/domain"
	"github.com/ptitiano/acme-utils/internal/ports"
)

// Probe is the uniform capability interface over real hardware probes and
// the software simulator.
type Probe = ports.Probe

// HardwareTransport is the boundary to the low-level cape wire driver.
type HardwareTransport = ports.HardwareTransport

// DeviceSession is an open session with one cape.
type DeviceSession = ports.DeviceSession

// CaptureBuffer holds one refill cycle's worth of interleaved samples.
type CaptureBuffer = ports.CaptureBuffer

// ChannelHandle is a device-side channel exposed by the transport.
type ChannelHandle = ports.ChannelHandle

// ProbeInfoClient is the text-based probe metadata side-channel.
type ProbeInfoClient = ports.ProbeInfoClient

// ResultSink consumes the reduced per-probe results of a capture run.
type ResultSink = ports.ResultSink

// Observability emits structured logs and capture metrics.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Channel is a named measurement line on a probe.
type Channel = domain.Channel

// ProbeType is the physical connector category of a probe.
type ProbeType = domain.ProbeType

// ProbeAddr identifies a probe by cape host and 1-based slot.
type ProbeAddr = domain.ProbeAddr

// CaptureResult is the raw per-probe accumulation of one capture run.
type CaptureResult = domain.CaptureResult

// Reduced is the post-capture reduction handed to sinks: normalized traces,
// the derived power channel, and min/max/avg statistics.
type Reduced = domain.Reduced

// Series is one channel's sample sequence with its unit.
type Series = domain.Series

// Stats holds min/max/avg scalars of one channel.
type Stats = domain.Stats

// Measurement channels known to the cape.
const (
	ChannelVshunt = domain.ChannelVshunt
	ChannelVbat   = domain.ChannelVbat
	ChannelTime   = domain.ChannelTime
	ChannelIshunt = domain.ChannelIshunt
	ChannelPower  = domain.ChannelPower
)

// Failure classes surfaced by the capture engine; classify with errors.Is.
var (
	ErrAttach          = domain.ErrAttach
	ErrConfig          = domain.ErrConfig
	ErrChannelNotFound = domain.ErrChannelNotFound
	ErrAllocation      = domain.ErrAllocation
	ErrRefill          = domain.ErrRefill
	ErrRead            = domain.ErrRead
	ErrParse           = domain.ErrParse
	ErrDataIntegrity   = domain.ErrDataIntegrity
	ErrNotAttached     = domain.ErrNotAttached
)
