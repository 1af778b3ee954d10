package pipeline

import (
	"log/slog"

	"github.com/ptitiano/acme-utils/internal/domain"
)

// SpanTimings reduces a sequence of refill or read spans to diagnostics:
// start offsets relative to the first span (ms), per-span durations (ms),
// and delays between consecutive span starts (ms). Diagnostics only; the
// measurement result never depends on these.
type SpanTimings struct {
	StartsMs    []float64
	DurationsMs []float64
	DelaysMs    []float64

	DurationStats domain.Stats
	DelayStats    domain.Stats
}

func ReduceSpans(spans []domain.Span) SpanTimings {
	var t SpanTimings
	if len(spans) == 0 {
		return t
	}

	first := spans[0].Start
	t.StartsMs = make([]float64, len(spans))
	t.DurationsMs = make([]float64, len(spans))
	for i, s := range spans {
		t.StartsMs[i] = float64(s.Start.Sub(first).Microseconds()) / 1000
		t.DurationsMs[i] = float64(s.Duration().Microseconds()) / 1000
	}
	t.DurationStats = seriesStats(t.DurationsMs)

	if len(spans) > 1 {
		t.DelaysMs = make([]float64, len(spans)-1)
		for i := 1; i < len(spans); i++ {
			t.DelaysMs[i-1] = t.StartsMs[i] - t.StartsMs[i-1]
		}
		t.DelayStats = seriesStats(t.DelaysMs)
	}
	return t
}

// LogRuntimeStats emits the refill/read timing diagnostics of one result.
// Printing from the workers themselves would interleave; data is collected
// during the run and logged after the join instead.
func LogRuntimeStats(result *domain.CaptureResult) {
	refill := ReduceSpans(result.RefillSpans)
	read := ReduceSpans(result.ReadSpans)

	slog.Debug("capture runtime stats",
		"probe", result.Probe,
		"refills", len(result.RefillSpans),
		"refill_ms_min", refill.DurationStats.Min,
		"refill_ms_max", refill.DurationStats.Max,
		"refill_ms_avg", refill.DurationStats.Avg,
		"refill_delay_ms_avg", refill.DelayStats.Avg,
		"read_ms_min", read.DurationStats.Min,
		"read_ms_max", read.DurationStats.Max,
		"read_ms_avg", read.DurationStats.Avg,
		"read_delay_ms_avg", read.DelayStats.Avg,
	)
}
