package iio

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/ptitiano/acme-utils/internal/domain"
	"github.com/ptitiano/acme-utils/internal/ports"
)

// Device attribute names used for configuration writes.
const (
	attrOversamplingRatio = "in_oversampling_ratio"
	attrAsynchronousReads = "in_allow_async_readout"
)

// Probe drives one ACME probe over an injected hardware transport. The wire
// driver itself lives behind ports.HardwareTransport; this adapter owns the
// device lifecycle, channel resolution, and sample unpacking.
type Probe struct {
	addr      domain.ProbeAddr
	transport ports.HardwareTransport
	info      ports.ProbeInfoClient

	mu          sync.Mutex
	state       domain.ProbeState
	probeInfo   domain.ProbeInfo
	session     ports.DeviceSession
	deviceIndex int
	channels    map[domain.Channel]ports.ChannelHandle
	buffer      ports.CaptureBuffer
	bufSamples  int
}

// NewProbe builds an unattached probe bound to one cape slot.
func NewProbe(addr domain.ProbeAddr, transport ports.HardwareTransport, info ports.ProbeInfoClient) *Probe {
	return &Probe{
		addr:      addr,
		transport: transport,
		info:      info,
		state:     domain.StateUnattached,
		channels:  make(map[domain.Channel]ports.ChannelHandle),
	}
}

// Attach runs the full attach sequence: reachability check, device session,
// metadata query and parse, slot-to-index resolution, device bind. Re-attach
// re-runs the whole sequence and is the only way out of the failed state.
func (p *Probe) Attach(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resetLocked()
	if err := p.attachLocked(ctx); err != nil {
		p.state = domain.StateFailed
		return err
	}
	return nil
}

func (p *Probe) attachLocked(ctx context.Context) error {
	if !p.transport.Reachable(ctx, p.addr.Host) {
		return domain.AttachError(p.addr.Label(), fmt.Errorf("host %s unreachable", p.addr.Host))
	}

	session, err := p.transport.OpenSession(ctx, p.addr.Host)
	if err != nil {
		return domain.AttachError(p.addr.Label(), fmt.Errorf("open session: %w", err))
	}

	blob, err := p.info.ProbeInfo(ctx, p.addr.Host, p.addr.Slot)
	if err != nil {
		_ = session.Close()
		return domain.AttachError(p.addr.Label(), fmt.Errorf("probe info: %w", err))
	}
	if !SlotPopulated(blob) {
		_ = session.Close()
		return domain.AttachError(p.addr.Label(), fmt.Errorf("slot %d not populated", p.addr.Slot))
	}
	info, err := ParseProbeInfo(blob)
	if err != nil {
		_ = session.Close()
		return domain.AttachError(p.addr.Label(), err)
	}

	index, err := p.resolveDeviceIndex(ctx)
	if err != nil {
		_ = session.Close()
		return domain.AttachError(p.addr.Label(), err)
	}

	// Bind the device handle: the timestamp channel exists on every
	// probe, so resolving it doubles as an index sanity check.
	tsID, _ := domain.ChannelTime.DeviceID()
	if _, err := session.FindChannel(index, tsID); err != nil {
		_ = session.Close()
		return domain.AttachError(p.addr.Label(),
			fmt.Errorf("device index %d not found: %w", index, err))
	}

	p.session = session
	p.deviceIndex = index
	p.probeInfo = info
	p.state = domain.StateAttached

	slog.Debug("probe attached",
		"probe", p.addr.Label(),
		"slot", p.addr.Slot,
		"device_index", index,
		"type", info.Type,
		"shunt_uohm", info.ShuntMicroOhm)
	return nil
}

// resolveDeviceIndex maps the 1-based cape slot to the dense zero-based
// device index by counting populated lower-or-equal slots.
func (p *Probe) resolveDeviceIndex(ctx context.Context) (int, error) {
	populated := 0
	for slot := 1; slot <= p.addr.Slot; slot++ {
		blob, err := p.info.ProbeInfo(ctx, p.addr.Host, slot)
		if err != nil {
			return 0, fmt.Errorf("resolve slot %d: probe info for slot %d: %w", p.addr.Slot, slot, err)
		}
		if SlotPopulated(blob) {
			populated++
		}
	}
	if populated == 0 {
		return 0, fmt.Errorf("resolve slot %d: no populated slots", p.addr.Slot)
	}
	return populated - 1, nil
}

func (p *Probe) resetLocked() {
	if p.session != nil {
		_ = p.session.Close()
	}
	p.session = nil
	p.buffer = nil
	p.bufSamples = 0
	p.probeInfo = domain.ProbeInfo{}
	p.channels = make(map[domain.Channel]ports.ChannelHandle)
	p.state = domain.StateUnattached
}

func (p *Probe) IsAttached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state != domain.StateUnattached && p.state != domain.StateFailed
}

func (p *Probe) Name() string { return p.addr.Label() }
func (p *Probe) Slot() int    { return p.addr.Slot }

func (p *Probe) Type() domain.ProbeType {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probeInfo.Type
}

func (p *Probe) ShuntMicroOhm() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probeInfo.ShuntMicroOhm
}

func (p *Probe) HasPowerSwitch() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probeInfo.HasPowerSwitch
}

func (p *Probe) State() domain.ProbeState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// EnablePower drives the probe's power switch to power the device under test
// on or off.
func (p *Probe) EnablePower(enable bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == domain.StateUnattached || p.state == domain.StateFailed {
		return domain.ConfigError(p.addr.Label(), "power switch", domain.ErrNotAttached)
	}
	if !p.probeInfo.HasPowerSwitch {
		return domain.ConfigError(p.addr.Label(), "power switch",
			fmt.Errorf("probe has no power switch"))
	}
	value := "0"
	if enable {
		value = "1"
	}
	if err := p.session.WriteDeviceAttr(p.deviceIndex, "in_active", value); err != nil {
		return domain.ConfigError(p.addr.Label(), "power switch", err)
	}
	return nil
}

func (p *Probe) SetOversamplingRatio(ratio int) error {
	return p.writeAttr("oversampling ratio", attrOversamplingRatio, strconv.Itoa(ratio))
}

func (p *Probe) EnableAsynchronousReads(enable bool) error {
	value := "0"
	if enable {
		value = "1"
	}
	return p.writeAttr("asynchronous reads", attrAsynchronousReads, value)
}

func (p *Probe) writeAttr(setting, attr, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == domain.StateUnattached || p.state == domain.StateFailed {
		return domain.ConfigError(p.addr.Label(), setting, domain.ErrNotAttached)
	}
	if err := p.session.WriteDeviceAttr(p.deviceIndex, attr, value); err != nil {
		return domain.ConfigError(p.addr.Label(), setting, err)
	}
	return nil
}

func (p *Probe) EnableCaptureChannel(ch domain.Channel, enable bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == domain.StateUnattached || p.state == domain.StateFailed {
		return domain.ConfigError(p.addr.Label(), "channel enable", domain.ErrNotAttached)
	}
	id, ok := ch.DeviceID()
	if !ok {
		return fmt.Errorf("probe %s: channel %s: %w", p.addr.Label(), ch, domain.ErrChannelNotFound)
	}
	handle, err := p.session.FindChannel(p.deviceIndex, id)
	if err != nil {
		return fmt.Errorf("probe %s: channel %s (%s): %w: %w",
			p.addr.Label(), ch, id, domain.ErrChannelNotFound, err)
	}
	if err := p.session.SetChannelEnabled(p.deviceIndex, id, enable); err != nil {
		return domain.ConfigError(p.addr.Label(), "channel enable", err)
	}
	if enable {
		p.channels[ch] = handle
	} else {
		delete(p.channels, ch)
	}
	return nil
}

func (p *Probe) AllocateCaptureBuffer(samplesCount int, cyclic bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == domain.StateUnattached || p.state == domain.StateFailed {
		return fmt.Errorf("probe %s: %w: %w", p.addr.Label(), domain.ErrAllocation, domain.ErrNotAttached)
	}
	if samplesCount <= 0 {
		return fmt.Errorf("probe %s: %w: samples count %d", p.addr.Label(), domain.ErrAllocation, samplesCount)
	}
	buf, err := p.session.CreateBuffer(p.deviceIndex, samplesCount, cyclic)
	if err != nil {
		return fmt.Errorf("probe %s: %w: %w", p.addr.Label(), domain.ErrAllocation, err)
	}
	p.buffer = buf
	p.bufSamples = samplesCount
	p.state = domain.StateConfigured
	return nil
}

func (p *Probe) RefillCaptureBuffer(ctx context.Context) error {
	p.mu.Lock()
	buf := p.buffer
	if buf != nil && p.state == domain.StateConfigured {
		p.state = domain.StateCapturing
	}
	p.mu.Unlock()

	if buf == nil {
		return domain.RefillError(p.addr.Label(), fmt.Errorf("no capture buffer allocated"))
	}
	if err := buf.Refill(ctx); err != nil {
		p.mu.Lock()
		p.state = domain.StateFailed
		p.mu.Unlock()
		return domain.RefillError(p.addr.Label(), err)
	}
	return nil
}

func (p *Probe) ReadCaptureBuffer(ch domain.Channel) (domain.ChannelRead, error) {
	p.mu.Lock()
	handle, ok := p.channels[ch]
	buf := p.buffer
	p.mu.Unlock()

	if !ok {
		return domain.ChannelRead{}, domain.ReadError(p.addr.Label(), ch, domain.ErrChannelNotFound)
	}
	if buf == nil {
		return domain.ChannelRead{}, domain.ReadError(p.addr.Label(), ch, fmt.Errorf("no capture buffer allocated"))
	}

	raw, err := buf.Read(handle)
	if err != nil {
		return domain.ChannelRead{}, domain.ReadError(p.addr.Label(), ch, err)
	}

	scale := 1.0
	if !ch.IsTimestamp() {
		scale, err = handle.Scale()
		if err != nil {
			return domain.ChannelRead{}, domain.ReadError(p.addr.Label(), ch, fmt.Errorf("scale attribute: %w", err))
		}
	}

	samples, err := unpackSamples(ch, raw, scale)
	if err != nil {
		return domain.ChannelRead{}, domain.ReadError(p.addr.Label(), ch, err)
	}

	return domain.ChannelRead{
		Channel: ch,
		Unit:    ch.Unit(),
		Samples: samples,
	}, nil
}

// unpackSamples decodes the raw fixed-width little-endian samples of one
// channel and applies the channel scale. Timestamps are 64-bit, measurement
// channels 16-bit signed. The multiply is skipped when scale == 1.0 to avoid
// needless floating-point rounding.
func unpackSamples(ch domain.Channel, raw []byte, scale float64) ([]float64, error) {
	width := 2
	if ch.IsTimestamp() {
		width = 8
	}
	if len(raw)%width != 0 {
		return nil, fmt.Errorf("raw length %d not a multiple of sample width %d", len(raw), width)
	}

	samples := make([]float64, len(raw)/width)
	for i := range samples {
		var v float64
		if ch.IsTimestamp() {
			v = float64(int64(binary.LittleEndian.Uint64(raw[i*8:])))
		} else {
			v = float64(int16(binary.LittleEndian.Uint16(raw[i*2:])))
		}
		if scale != 1.0 {
			v *= scale
		}
		samples[i] = v
	}
	return samples, nil
}

var _ ports.Probe = (*Probe)(nil)
