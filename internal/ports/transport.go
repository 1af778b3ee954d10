package ports

import "context"

// HardwareTransport is the low-level link to a measurement cape. The actual
// wire driver lives outside this module; the capture engine only depends on
// this boundary.
type HardwareTransport interface {
	// Reachable performs a probe-alive check against the cape host.
	Reachable(ctx context.Context, host string) bool

	// OpenSession establishes a device session with the cape.
	OpenSession(ctx context.Context, host string) (DeviceSession, error)
}

// DeviceSession is an open session with one cape. Device indices are dense,
// zero-based, and assigned in slot order.
type DeviceSession interface {
	// FindChannel resolves an IIO channel id on one device.
	FindChannel(deviceIndex int, channelID string) (ChannelHandle, error)

	SetChannelEnabled(deviceIndex int, channelID string, enabled bool) error

	// WriteDeviceAttr performs a device configuration write, e.g. the
	// oversampling ratio or the asynchronous-read mode.
	WriteDeviceAttr(deviceIndex int, attr, value string) error

	// CreateBuffer allocates a capture buffer holding samplesCount
	// interleaved samples on one device.
	CreateBuffer(deviceIndex int, samplesCount int, cyclic bool) (CaptureBuffer, error)

	Close() error
}

// CaptureBuffer is a fixed-capacity holding area for one refill cycle.
type CaptureBuffer interface {
	// Refill blocks until a fresh batch of samples is available.
	Refill(ctx context.Context) error

	// Read returns the raw bytes captured for one channel since the last
	// refill.
	Read(ch ChannelHandle) ([]byte, error)
}

// ChannelHandle is a device-side channel as exposed by the transport.
type ChannelHandle interface {
	ID() string

	// Scale returns the multiplicative factor converting raw integer
	// samples to physical units. Channels without a scale attribute
	// return an error.
	Scale() (float64, error)
}

// ProbeInfoClient is the text-based metadata side-channel reporting per-slot
// probe attributes.
type ProbeInfoClient interface {
	// ProbeInfo returns the free-text info blob for one cape slot, or an
	// error when the side-channel is unreachable or the slot is absent.
	ProbeInfo(ctx context.Context, host string, slot int) (string, error)
}
