package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/ptitiano/acme-utils/internal/domain"
	"github.com/ptitiano/acme-utils/internal/ports"
)

func TestOrchestratorRunsProbesConcurrently(t *testing.T) {
	// Two probes with different refill latencies: run in sequence this
	// would take well over twice the duration budget.
	fast := newFakeProbe("fast")
	fast.refillLatency = 5 * time.Millisecond
	slow := newFakeProbe("slow")
	slow.refillLatency = 40 * time.Millisecond

	policy := testPolicy(30*time.Millisecond, 2)
	orch := NewOrchestrator([]ports.Probe{fast, slow}, policy, newMockObs())

	start := time.Now()
	results, err := orch.Run(context.Background())
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Probe != "fast" || results[1].Probe != "slow" {
		t.Fatalf("results must come back in probe order, got %s, %s", results[0].Probe, results[1].Probe)
	}

	// The join waits for the slower worker but the total stays far below
	// a serialized run.
	if elapsed < 40*time.Millisecond {
		t.Fatalf("run returned before the slow worker finished: %v", elapsed)
	}
	if elapsed > 200*time.Millisecond {
		t.Fatalf("workers appear serialized: %v", elapsed)
	}

	// The fast probe fits more refill cycles into the same budget.
	if len(results[0].RefillSpans) <= len(results[1].RefillSpans) {
		t.Fatalf("expected more refills on the fast probe: fast=%d slow=%d",
			len(results[0].RefillSpans), len(results[1].RefillSpans))
	}
}

func TestOrchestratorOwnsActiveCapturesGauge(t *testing.T) {
	fast := newFakeProbe("fast")
	fast.refillLatency = 5 * time.Millisecond
	slow := newFakeProbe("slow")
	slow.refillLatency = 60 * time.Millisecond

	obs := newMockObs()
	orch := NewOrchestrator([]ports.Probe{fast, slow}, testPolicy(time.Millisecond, 2), obs)

	if _, err := orch.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	// One write to worker count before the fan-out, one write to zero after
	// the join. Per-worker absolute writes would clobber each other and drop
	// the gauge while the slow worker is still capturing.
	got := obs.gauge("acme_active_captures")
	want := []float64{2, 0}
	if len(got) != len(want) {
		t.Fatalf("expected gauge writes %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected gauge writes %v, got %v", want, got)
		}
	}
}

func TestOrchestratorConfigFailureAbortsBeforeStart(t *testing.T) {
	good := newFakeProbe("good")
	bad := newFakeProbe("bad")
	bad.configErrOn = "allocate"

	obs := newMockObs()
	orch := NewOrchestrator([]ports.Probe{good, bad}, testPolicy(time.Millisecond, 2), obs)

	results, err := orch.Run(context.Background())
	if err == nil {
		t.Fatalf("expected configuration failure")
	}
	if results != nil {
		t.Fatalf("no results expected on configuration failure")
	}
	if good.refills != 0 || bad.refills != 0 {
		t.Fatalf("no capture may start when configuration fails: good=%d bad=%d",
			good.refills, bad.refills)
	}
	if len(obs.critical) == 0 {
		t.Fatalf("expected configuration failure to be logged as critical")
	}
}

func TestOrchestratorWorkerFailureDoesNotAbortRun(t *testing.T) {
	healthy := newFakeProbe("healthy")
	healthy.refillLatency = 5 * time.Millisecond
	flaky := newFakeProbe("flaky")
	flaky.refillLatency = 5 * time.Millisecond
	flaky.refillErrOn = 1

	orch := NewOrchestrator([]ports.Probe{healthy, flaky}, testPolicy(time.Millisecond, 2), newMockObs())

	results, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("loop failures must not become run errors: %v", err)
	}
	if results[0].Failed {
		t.Fatalf("healthy probe must not be flagged")
	}
	if !results[1].Failed {
		t.Fatalf("flaky probe must carry the failed flag")
	}
	// The healthy probe's data survives untouched.
	if len(results[0].Series[domain.ChannelTime].Samples) == 0 {
		t.Fatalf("healthy probe lost its samples")
	}
}
