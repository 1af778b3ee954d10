package iio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/ptitiano/acme-utils/internal/domain"
	"github.com/ptitiano/acme-utils/internal/ports"
)

const populatedBlob = "Probe Type: JACK\nR_Shunt: 5000 uOhm\nHas Power Switch\n"

type fakeTransport struct {
	reachable bool
	session   *fakeSession
	openErr   error
}

func (f *fakeTransport) Reachable(ctx context.Context, host string) bool {
	return f.reachable
}

func (f *fakeTransport) OpenSession(ctx context.Context, host string) (ports.DeviceSession, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.session, nil
}

type fakeSession struct {
	channels   map[string]*fakeChannel // keyed by "index/channelID"
	attrs      map[string]string       // keyed by "index/attr"
	buffer     *fakeBuffer
	bufferErr  error
	enabled    map[string]bool
	attrErr    error
	closed     bool
	bufSamples int
}

func newFakeSession(deviceIndex int) *fakeSession {
	s := &fakeSession{
		channels: make(map[string]*fakeChannel),
		attrs:    make(map[string]string),
		enabled:  make(map[string]bool),
		buffer:   &fakeBuffer{raw: make(map[string][]byte)},
	}
	for _, ch := range []domain.Channel{domain.ChannelTime, domain.ChannelVbat, domain.ChannelIshunt, domain.ChannelVshunt} {
		id, _ := ch.DeviceID()
		scale := 1.0
		if !ch.IsTimestamp() {
			scale = 0.5
		}
		s.channels[chanKey(deviceIndex, id)] = &fakeChannel{id: id, scale: scale}
	}
	return s
}

func chanKey(index int, id string) string { return fmt.Sprintf("%d/%s", index, id) }

func (s *fakeSession) FindChannel(deviceIndex int, channelID string) (ports.ChannelHandle, error) {
	ch, ok := s.channels[chanKey(deviceIndex, channelID)]
	if !ok {
		return nil, fmt.Errorf("channel %s not found on device %d", channelID, deviceIndex)
	}
	return ch, nil
}

func (s *fakeSession) SetChannelEnabled(deviceIndex int, channelID string, enabled bool) error {
	s.enabled[chanKey(deviceIndex, channelID)] = enabled
	return nil
}

func (s *fakeSession) WriteDeviceAttr(deviceIndex int, attr, value string) error {
	if s.attrErr != nil {
		return s.attrErr
	}
	s.attrs[chanKey(deviceIndex, attr)] = value
	return nil
}

func (s *fakeSession) CreateBuffer(deviceIndex int, samplesCount int, cyclic bool) (ports.CaptureBuffer, error) {
	if s.bufferErr != nil {
		return nil, s.bufferErr
	}
	s.bufSamples = samplesCount
	return s.buffer, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeChannel struct {
	id       string
	scale    float64
	scaleErr error
}

func (c *fakeChannel) ID() string { return c.id }

func (c *fakeChannel) Scale() (float64, error) {
	if c.scaleErr != nil {
		return 0, c.scaleErr
	}
	return c.scale, nil
}

type fakeBuffer struct {
	raw       map[string][]byte
	refills   int
	refillErr error
	readErr   error
}

func (b *fakeBuffer) Refill(ctx context.Context) error {
	if b.refillErr != nil {
		return b.refillErr
	}
	b.refills++
	return nil
}

func (b *fakeBuffer) Read(ch ports.ChannelHandle) ([]byte, error) {
	if b.readErr != nil {
		return nil, b.readErr
	}
	return b.raw[ch.ID()], nil
}

type fakeInfo struct {
	// blobs holds the per-slot info response; missing slots answer "Failed".
	blobs map[int]string
	err   error
}

func (f *fakeInfo) ProbeInfo(ctx context.Context, host string, slot int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	blob, ok := f.blobs[slot]
	if !ok {
		return "Failed", nil
	}
	return blob, nil
}

func newTestProbe(slot int, transport *fakeTransport, info *fakeInfo) *Probe {
	return NewProbe(domain.ProbeAddr{Host: "acme1", Slot: slot, Name: "rail"}, transport, info)
}

func TestAttachSuccess(t *testing.T) {
	session := newFakeSession(0)
	transport := &fakeTransport{reachable: true, session: session}
	info := &fakeInfo{blobs: map[int]string{1: populatedBlob}}

	p := newTestProbe(1, transport, info)
	if err := p.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if !p.IsAttached() {
		t.Fatalf("expected probe to be attached")
	}
	if p.State() != domain.StateAttached {
		t.Fatalf("expected attached state, got %s", p.State())
	}
	if p.Type() != domain.ProbeTypeJack {
		t.Fatalf("expected JACK, got %q", p.Type())
	}
	if p.ShuntMicroOhm() != 5000 {
		t.Fatalf("expected shunt 5000, got %d", p.ShuntMicroOhm())
	}
	if !p.HasPowerSwitch() {
		t.Fatalf("expected power switch")
	}
}

func TestAttachUnreachable(t *testing.T) {
	transport := &fakeTransport{reachable: false}
	info := &fakeInfo{blobs: map[int]string{1: populatedBlob}}

	p := newTestProbe(1, transport, info)
	err := p.Attach(context.Background())
	if !errors.Is(err, domain.ErrAttach) {
		t.Fatalf("expected ErrAttach, got %v", err)
	}
	if p.IsAttached() {
		t.Fatalf("probe must not be attached")
	}
	if p.State() != domain.StateFailed {
		t.Fatalf("expected failed state, got %s", p.State())
	}
}

func TestAttachUnpopulatedSlot(t *testing.T) {
	session := newFakeSession(0)
	transport := &fakeTransport{reachable: true, session: session}
	info := &fakeInfo{blobs: map[int]string{}}

	p := newTestProbe(3, transport, info)
	err := p.Attach(context.Background())
	if !errors.Is(err, domain.ErrAttach) {
		t.Fatalf("expected ErrAttach, got %v", err)
	}
	if !session.closed {
		t.Fatalf("session must be closed on attach failure")
	}
}

func TestAttachSparseSlotIndexResolution(t *testing.T) {
	// Slots 2 and 5 populated: slot 5 must resolve to device index 1.
	session := newFakeSession(1)
	transport := &fakeTransport{reachable: true, session: session}
	info := &fakeInfo{blobs: map[int]string{
		2: "Probe Type: USB\nR_Shunt: 10000 uOhm\n",
		5: populatedBlob,
	}}

	p := newTestProbe(5, transport, info)
	if err := p.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	// The timestamp bind only succeeds on the resolved index; a wrong
	// index would have failed the attach above.
	if p.ShuntMicroOhm() != 5000 {
		t.Fatalf("expected shunt from slot 5 blob, got %d", p.ShuntMicroOhm())
	}
}

func TestAttachInfoSideChannelDown(t *testing.T) {
	session := newFakeSession(0)
	transport := &fakeTransport{reachable: true, session: session}
	info := &fakeInfo{err: errors.New("connection refused")}

	p := newTestProbe(1, transport, info)
	if err := p.Attach(context.Background()); !errors.Is(err, domain.ErrAttach) {
		t.Fatalf("expected ErrAttach, got %v", err)
	}
}

func TestReattachAfterFailure(t *testing.T) {
	session := newFakeSession(0)
	transport := &fakeTransport{reachable: false, session: session}
	info := &fakeInfo{blobs: map[int]string{1: populatedBlob}}

	p := newTestProbe(1, transport, info)
	if err := p.Attach(context.Background()); err == nil {
		t.Fatalf("expected first attach to fail")
	}

	transport.reachable = true
	if err := p.Attach(context.Background()); err != nil {
		t.Fatalf("re-attach: %v", err)
	}
	if !p.IsAttached() {
		t.Fatalf("expected probe attached after retry")
	}
}

func TestConfigureRequiresAttach(t *testing.T) {
	p := newTestProbe(1, &fakeTransport{}, &fakeInfo{})

	if err := p.SetOversamplingRatio(1); !errors.Is(err, domain.ErrNotAttached) {
		t.Fatalf("expected ErrNotAttached, got %v", err)
	}
	if err := p.AllocateCaptureBuffer(127, false); !errors.Is(err, domain.ErrNotAttached) {
		t.Fatalf("expected ErrNotAttached, got %v", err)
	}
}

func TestConfigureWritesDeviceAttrs(t *testing.T) {
	session := newFakeSession(0)
	transport := &fakeTransport{reachable: true, session: session}
	info := &fakeInfo{blobs: map[int]string{1: populatedBlob}}

	p := newTestProbe(1, transport, info)
	if err := p.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if err := p.SetOversamplingRatio(4); err != nil {
		t.Fatalf("oversampling: %v", err)
	}
	if got := session.attrs[chanKey(0, attrOversamplingRatio)]; got != "4" {
		t.Fatalf("expected oversampling ratio 4, got %q", got)
	}

	if err := p.EnableAsynchronousReads(false); err != nil {
		t.Fatalf("async reads: %v", err)
	}
	if got := session.attrs[chanKey(0, attrAsynchronousReads)]; got != "0" {
		t.Fatalf("expected async readout 0, got %q", got)
	}
}

func TestEnablePower(t *testing.T) {
	session := newFakeSession(0)
	transport := &fakeTransport{reachable: true, session: session}
	info := &fakeInfo{blobs: map[int]string{1: populatedBlob}}

	p := newTestProbe(1, transport, info)
	if err := p.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := p.EnablePower(true); err != nil {
		t.Fatalf("enable power: %v", err)
	}
	if got := session.attrs[chanKey(0, "in_active")]; got != "1" {
		t.Fatalf("expected in_active=1, got %q", got)
	}
}

func TestEnablePowerWithoutSwitch(t *testing.T) {
	session := newFakeSession(0)
	transport := &fakeTransport{reachable: true, session: session}
	info := &fakeInfo{blobs: map[int]string{1: "Probe Type: HE10\nR_Shunt: 10000 uOhm\n"}}

	p := newTestProbe(1, transport, info)
	if err := p.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := p.EnablePower(true); !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestEnableCaptureChannelUnknown(t *testing.T) {
	session := newFakeSession(0)
	transport := &fakeTransport{reachable: true, session: session}
	info := &fakeInfo{blobs: map[int]string{1: populatedBlob}}

	p := newTestProbe(1, transport, info)
	if err := p.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := p.EnableCaptureChannel(domain.Channel("Bogus"), true); !errors.Is(err, domain.ErrChannelNotFound) {
		t.Fatalf("expected ErrChannelNotFound, got %v", err)
	}
}

func attachAndArm(t *testing.T, session *fakeSession) *Probe {
	t.Helper()
	transport := &fakeTransport{reachable: true, session: session}
	info := &fakeInfo{blobs: map[int]string{1: populatedBlob}}

	p := newTestProbe(1, transport, info)
	if err := p.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	for _, ch := range domain.DefaultCaptureChannels {
		if err := p.EnableCaptureChannel(ch, true); err != nil {
			t.Fatalf("enable %s: %v", ch, err)
		}
	}
	if err := p.AllocateCaptureBuffer(4, false); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	return p
}

func TestCaptureRoundTrip(t *testing.T) {
	session := newFakeSession(0)

	// Raw device bytes: int64 LE timestamps, int16 LE measurements.
	ts := make([]byte, 8*2)
	binary.LittleEndian.PutUint64(ts[0:], 1000)
	binary.LittleEndian.PutUint64(ts[8:], 2000)
	session.buffer.raw["timestamp"] = ts

	vbat := make([]byte, 2*2)
	negSample := int16(-100)
	binary.LittleEndian.PutUint16(vbat[0:], uint16(int16(7400)))
	binary.LittleEndian.PutUint16(vbat[2:], uint16(negSample))
	session.buffer.raw["voltage1"] = vbat

	p := attachAndArm(t, session)

	if err := p.RefillCaptureBuffer(context.Background()); err != nil {
		t.Fatalf("refill: %v", err)
	}
	if p.State() != domain.StateCapturing {
		t.Fatalf("expected capturing state, got %s", p.State())
	}

	tsRead, err := p.ReadCaptureBuffer(domain.ChannelTime)
	if err != nil {
		t.Fatalf("read time: %v", err)
	}
	if tsRead.Unit != "ns" {
		t.Fatalf("expected ns unit, got %q", tsRead.Unit)
	}
	// Timestamps are never scaled.
	if tsRead.Samples[0] != 1000 || tsRead.Samples[1] != 2000 {
		t.Fatalf("unexpected timestamps %v", tsRead.Samples)
	}

	vbatRead, err := p.ReadCaptureBuffer(domain.ChannelVbat)
	if err != nil {
		t.Fatalf("read vbat: %v", err)
	}
	// Fake scale is 0.5.
	if math.Abs(vbatRead.Samples[0]-3700) > 1e-9 || math.Abs(vbatRead.Samples[1]+50) > 1e-9 {
		t.Fatalf("unexpected scaled samples %v", vbatRead.Samples)
	}
}

func TestReadCaptureBufferUnalignedRaw(t *testing.T) {
	session := newFakeSession(0)
	session.buffer.raw["voltage1"] = []byte{0x01, 0x02, 0x03} // not a multiple of 2

	p := attachAndArm(t, session)
	if err := p.RefillCaptureBuffer(context.Background()); err != nil {
		t.Fatalf("refill: %v", err)
	}
	if _, err := p.ReadCaptureBuffer(domain.ChannelVbat); !errors.Is(err, domain.ErrRead) {
		t.Fatalf("expected ErrRead, got %v", err)
	}
}

func TestRefillFailure(t *testing.T) {
	session := newFakeSession(0)
	session.buffer.refillErr = errors.New("device timeout")

	p := attachAndArm(t, session)
	if err := p.RefillCaptureBuffer(context.Background()); !errors.Is(err, domain.ErrRefill) {
		t.Fatalf("expected ErrRefill, got %v", err)
	}
	if p.State() != domain.StateFailed {
		t.Fatalf("expected failed state after refill error, got %s", p.State())
	}
}

func TestReadDisabledChannel(t *testing.T) {
	session := newFakeSession(0)
	p := attachAndArm(t, session)

	if _, err := p.ReadCaptureBuffer(domain.ChannelVshunt); !errors.Is(err, domain.ErrRead) {
		t.Fatalf("expected ErrRead for disabled channel, got %v", err)
	}
}

func TestUnpackSamplesSkipsUnityScale(t *testing.T) {
	raw := make([]byte, 2)
	binary.LittleEndian.PutUint16(raw, uint16(int16(1234)))

	samples, err := unpackSamples(domain.ChannelVbat, raw, 1.0)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if samples[0] != 1234 {
		t.Fatalf("expected raw value with unity scale, got %v", samples[0])
	}
}
