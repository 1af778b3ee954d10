package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromObsMetrics(t *testing.T) {
	origReg := prometheus.DefaultRegisterer
	origGatherer := prometheus.DefaultGatherer
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGatherer
	})

	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	obs := NewPromObs()

	obs.IncCounter("acme_refills_total", 4)
	if got := testutil.ToFloat64(obs.counters["acme_refills_total"]); got != 4 {
		t.Fatalf("expected refill counter 4, got %f", got)
	}

	obs.IncCounter("acme_refill_failures_total", 1)
	if got := testutil.ToFloat64(obs.counters["acme_refill_failures_total"]); got != 1 {
		t.Fatalf("expected refill failure counter 1, got %f", got)
	}

	obs.IncCounter("acme_samples_captured_total", 127)
	if got := testutil.ToFloat64(obs.counters["acme_samples_captured_total"]); got != 127 {
		t.Fatalf("expected samples counter 127, got %f", got)
	}

	obs.SetGauge("acme_active_captures", 2)
	if got := testutil.ToFloat64(obs.gauges["acme_active_captures"]); got != 2 {
		t.Fatalf("expected active captures gauge 2, got %f", got)
	}

	obs.ObserveLatency("acme_refill_duration_seconds", 0.5)
	hCollector := obs.histos["acme_refill_duration_seconds"].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected refill histogram to record 1 sample, got %d", samples)
	}

	// Unknown metric names are ignored, not registered lazily.
	obs.IncCounter("acme_bogus_total", 1)
	obs.SetGauge("acme_bogus", 1)
	obs.ObserveLatency("acme_bogus_seconds", 1)
}
