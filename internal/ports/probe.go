package ports

import (
	"context"

	"github.com/ptitiano/acme-utils/internal/domain"
)

// Probe abstracts one physical measurement probe attached to a cape slot.
// Real hardware and the software simulator implement the same interface and
// are substitutable anywhere a probe is used.
//
// A probe is exclusively owned by one capture worker during a run; accessors
// are read-only afterwards.
type Probe interface {
	// Attach checks cape reachability, opens a device session, queries the
	// probe metadata side-channel, resolves the cape slot to a device
	// index, and binds the device handle. Static attributes are unset
	// until Attach succeeds and immutable afterwards. Re-attach re-runs
	// the whole sequence.
	Attach(ctx context.Context) error
	IsAttached() bool

	Name() string
	Slot() int
	Type() domain.ProbeType
	ShuntMicroOhm() int
	HasPowerSwitch() bool

	// EnablePower drives the probe's power switch. Probes without one
	// reject the call.
	EnablePower(enable bool) error

	SetOversamplingRatio(ratio int) error
	EnableAsynchronousReads(enable bool) error
	EnableCaptureChannel(ch domain.Channel, enable bool) error

	// AllocateCaptureBuffer must be called after channels are enabled.
	AllocateCaptureBuffer(samplesCount int, cyclic bool) error

	// RefillCaptureBuffer blocks until samplesCount fresh interleaved
	// samples are available from the device.
	RefillCaptureBuffer(ctx context.Context) error

	// ReadCaptureBuffer unpacks and scales one channel's samples out of
	// the last refill.
	ReadCaptureBuffer(ch domain.Channel) (domain.ChannelRead, error)

	State() domain.ProbeState
}
