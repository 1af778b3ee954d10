package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/ptitiano/acme-utils/internal/domain"
)

func newAttachedProbe(t *testing.T, slot int) *Probe {
	t.Helper()
	p := NewProbe(domain.ProbeAddr{Host: "virtual", Slot: slot})
	if err := p.Attach(context.Background()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	return p
}

func TestAttachDerivesShuntFromSlot(t *testing.T) {
	p := newAttachedProbe(t, 3)

	if !p.IsAttached() {
		t.Fatalf("expected attached probe")
	}
	if p.ShuntMicroOhm() != 30000 {
		t.Fatalf("expected shunt 30000 uOhm for slot 3, got %d", p.ShuntMicroOhm())
	}
	if p.Type() != domain.ProbeTypeJack {
		t.Fatalf("expected JACK type, got %q", p.Type())
	}
	if p.HasPowerSwitch() {
		t.Fatalf("simulated probe must not expose a power switch")
	}
}

func TestEnablePowerRejected(t *testing.T) {
	p := newAttachedProbe(t, 1)
	if err := p.EnablePower(true); !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestConfigureRequiresAttach(t *testing.T) {
	p := NewProbe(domain.ProbeAddr{Host: "virtual", Slot: 1})

	if err := p.SetOversamplingRatio(1); !errors.Is(err, domain.ErrNotAttached) {
		t.Fatalf("expected ErrNotAttached, got %v", err)
	}
	if err := p.EnableCaptureChannel(domain.ChannelVbat, true); !errors.Is(err, domain.ErrNotAttached) {
		t.Fatalf("expected ErrNotAttached, got %v", err)
	}
}

func TestRefillRequiresBuffer(t *testing.T) {
	p := newAttachedProbe(t, 1)
	if err := p.RefillCaptureBuffer(context.Background()); !errors.Is(err, domain.ErrRefill) {
		t.Fatalf("expected ErrRefill without a buffer, got %v", err)
	}
}

func TestReadRequiresEnabledChannel(t *testing.T) {
	p := newAttachedProbe(t, 1)
	if err := p.AllocateCaptureBuffer(4, false); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if _, err := p.ReadCaptureBuffer(domain.ChannelVbat); !errors.Is(err, domain.ErrRead) {
		t.Fatalf("expected ErrRead for disabled channel, got %v", err)
	}
}

func TestSynthesizedSamples(t *testing.T) {
	p := newAttachedProbe(t, 3)
	for _, ch := range domain.DefaultCaptureChannels {
		if err := p.EnableCaptureChannel(ch, true); err != nil {
			t.Fatalf("enable %s: %v", ch, err)
		}
	}
	if err := p.AllocateCaptureBuffer(4, false); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	if err := p.RefillCaptureBuffer(context.Background()); err != nil {
		t.Fatalf("refill: %v", err)
	}
	if p.State() != domain.StateCapturing {
		t.Fatalf("expected capturing state, got %s", p.State())
	}

	// First refill: timestamps start at 0, 1 ms apart.
	ts, err := p.ReadCaptureBuffer(domain.ChannelTime)
	if err != nil {
		t.Fatalf("read time: %v", err)
	}
	want := []float64{0, 1_000_000, 2_000_000, 3_000_000}
	for i, v := range want {
		if ts.Samples[i] != v {
			t.Fatalf("timestamp[%d]: expected %v, got %v", i, v, ts.Samples[i])
		}
	}

	vbat, err := p.ReadCaptureBuffer(domain.ChannelVbat)
	if err != nil {
		t.Fatalf("read vbat: %v", err)
	}
	for i, v := range vbat.Samples {
		if v != 3000 {
			t.Fatalf("vbat[%d]: expected 3000 mV for slot 3, got %v", i, v)
		}
	}

	ishunt, err := p.ReadCaptureBuffer(domain.ChannelIshunt)
	if err != nil {
		t.Fatalf("read ishunt: %v", err)
	}
	if ishunt.Unit != "mA" {
		t.Fatalf("expected mA unit, got %q", ishunt.Unit)
	}
	for i, v := range ishunt.Samples {
		if v != 3 {
			t.Fatalf("ishunt[%d]: expected 3 for slot 3, got %v", i, v)
		}
	}
}

func TestTimestampsAdvancePerRefill(t *testing.T) {
	p := newAttachedProbe(t, 1)
	if err := p.EnableCaptureChannel(domain.ChannelTime, true); err != nil {
		t.Fatalf("enable time: %v", err)
	}
	if err := p.AllocateCaptureBuffer(4, false); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	if err := p.RefillCaptureBuffer(context.Background()); err != nil {
		t.Fatalf("refill 1: %v", err)
	}
	first, err := p.ReadCaptureBuffer(domain.ChannelTime)
	if err != nil {
		t.Fatalf("read 1: %v", err)
	}

	if err := p.RefillCaptureBuffer(context.Background()); err != nil {
		t.Fatalf("refill 2: %v", err)
	}
	second, err := p.ReadCaptureBuffer(domain.ChannelTime)
	if err != nil {
		t.Fatalf("read 2: %v", err)
	}

	// The second batch continues 1 ms after the last sample of the first.
	if got := second.Samples[0] - first.Samples[3]; got != 1_000_000 {
		t.Fatalf("expected batches 1 ms apart, got %v ns", got)
	}
}
