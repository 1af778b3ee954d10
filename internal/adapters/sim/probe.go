// Package sim provides a pure-software stand-in for an ACME probe. It
// implements the same interface as the hardware-backed adapter without any
// network or device calls, for development and deterministic testing.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/ptitiano/acme-utils/internal/domain"
	"github.com/ptitiano/acme-utils/internal/ports"
)

// refillLatency emulates the acquisition latency of a real refill.
const refillLatency = 500 * time.Millisecond

// timestampStepNs is the synthesized sample period: 1 ms per sample.
const timestampStepNs = 1_000_000

// Probe simulates one ACME probe. Attach always succeeds; samples are
// synthesized from the slot number so results are predictable.
type Probe struct {
	addr domain.ProbeAddr

	state        domain.ProbeState
	shunt        int
	samplesCount int
	enabled      map[domain.Channel]bool
	timeStartNs  int64
}

func NewProbe(addr domain.ProbeAddr) *Probe {
	return &Probe{
		addr:    addr,
		state:   domain.StateUnattached,
		enabled: make(map[domain.Channel]bool),
	}
}

// Attach synthesizes the static attributes: shunt is derived from the slot
// so each simulated rail is distinguishable.
func (p *Probe) Attach(ctx context.Context) error {
	p.shunt = p.addr.Slot * 10000
	p.enabled = make(map[domain.Channel]bool)
	p.samplesCount = 0
	p.timeStartNs = 0
	p.state = domain.StateAttached
	return nil
}

func (p *Probe) IsAttached() bool {
	return p.state != domain.StateUnattached && p.state != domain.StateFailed
}

func (p *Probe) Name() string             { return p.addr.Label() }
func (p *Probe) Slot() int                { return p.addr.Slot }
func (p *Probe) Type() domain.ProbeType   { return domain.ProbeTypeJack }
func (p *Probe) ShuntMicroOhm() int       { return p.shunt }
func (p *Probe) HasPowerSwitch() bool     { return false }
func (p *Probe) State() domain.ProbeState { return p.state }

func (p *Probe) EnablePower(enable bool) error {
	return domain.ConfigError(p.addr.Label(), "power switch",
		fmt.Errorf("probe has no power switch"))
}

func (p *Probe) SetOversamplingRatio(ratio int) error {
	if p.state == domain.StateUnattached {
		return domain.ConfigError(p.addr.Label(), "oversampling ratio", domain.ErrNotAttached)
	}
	return nil
}

func (p *Probe) EnableAsynchronousReads(enable bool) error {
	if p.state == domain.StateUnattached {
		return domain.ConfigError(p.addr.Label(), "asynchronous reads", domain.ErrNotAttached)
	}
	return nil
}

func (p *Probe) EnableCaptureChannel(ch domain.Channel, enable bool) error {
	if p.state == domain.StateUnattached {
		return domain.ConfigError(p.addr.Label(), "channel enable", domain.ErrNotAttached)
	}
	if _, ok := ch.DeviceID(); !ok {
		return fmt.Errorf("probe %s: channel %s: %w", p.addr.Label(), ch, domain.ErrChannelNotFound)
	}
	p.enabled[ch] = enable
	return nil
}

func (p *Probe) AllocateCaptureBuffer(samplesCount int, cyclic bool) error {
	if p.state == domain.StateUnattached {
		return fmt.Errorf("probe %s: %w: %w", p.addr.Label(), domain.ErrAllocation, domain.ErrNotAttached)
	}
	if samplesCount <= 0 {
		return fmt.Errorf("probe %s: %w: samples count %d", p.addr.Label(), domain.ErrAllocation, samplesCount)
	}
	p.samplesCount = samplesCount
	p.state = domain.StateConfigured
	return nil
}

// RefillCaptureBuffer sleeps for the fixed simulated acquisition latency.
func (p *Probe) RefillCaptureBuffer(ctx context.Context) error {
	if p.samplesCount == 0 {
		return domain.RefillError(p.addr.Label(), fmt.Errorf("no capture buffer allocated"))
	}
	p.state = domain.StateCapturing
	time.Sleep(refillLatency)
	return nil
}

// ReadCaptureBuffer synthesizes one refill's worth of samples: a
// monotonically increasing timestamp sequence at 1 ms per sample, a constant
// per-slot voltage, and a constant per-slot value on every other channel.
func (p *Probe) ReadCaptureBuffer(ch domain.Channel) (domain.ChannelRead, error) {
	if p.samplesCount == 0 {
		return domain.ChannelRead{}, domain.ReadError(p.addr.Label(), ch, fmt.Errorf("no capture buffer allocated"))
	}
	if !p.enabled[ch] {
		return domain.ChannelRead{}, domain.ReadError(p.addr.Label(), ch, domain.ErrChannelNotFound)
	}

	samples := make([]float64, p.samplesCount)
	switch {
	case ch.IsTimestamp():
		for i := range samples {
			samples[i] = float64(p.timeStartNs + int64(i)*timestampStepNs)
		}
		p.timeStartNs += int64(timestampStepNs) * int64(p.samplesCount)
	case ch == domain.ChannelVbat:
		for i := range samples {
			samples[i] = 1000 * float64(p.addr.Slot)
		}
	default:
		for i := range samples {
			samples[i] = float64(p.addr.Slot)
		}
	}

	return domain.ChannelRead{
		Channel: ch,
		Unit:    ch.Unit(),
		Samples: samples,
	}, nil
}

var _ ports.Probe = (*Probe)(nil)
