package pipeline

import (
	"context"
	"time"

	"github.com/ptitiano/acme-utils/internal/domain"
	"github.com/ptitiano/acme-utils/internal/ports"
)

// Worker drives one probe through a timed refill/read loop and owns the
// accumulation of its results. One worker runs per probe, on its own
// goroutine, with no shared mutable state between workers.
type Worker struct {
	probe  ports.Probe
	policy ports.CapturePolicy
	obs    ports.Observability

	result *domain.CaptureResult
}

func NewWorker(probe ports.Probe, policy ports.CapturePolicy, obs ports.Observability) *Worker {
	return &Worker{
		probe:  probe,
		policy: policy,
		obs:    obs,
	}
}

func (w *Worker) Probe() ports.Probe { return w.probe }

// ConfigureCapture arms the probe: oversampling ratio, asynchronous-read
// mode, the requested channels in input order, then the capture buffer. The
// first failing step aborts; later steps are not attempted.
func (w *Worker) ConfigureCapture() error {
	if err := w.probe.SetOversamplingRatio(w.policy.OversamplingRatio); err != nil {
		return err
	}
	if err := w.probe.EnableAsynchronousReads(w.policy.AsynchronousReads); err != nil {
		return err
	}
	for _, ch := range w.policy.Channels {
		if err := w.probe.EnableCaptureChannel(ch, true); err != nil {
			return err
		}
	}
	if err := w.probe.AllocateCaptureBuffer(w.policy.BufferSize, false); err != nil {
		return err
	}
	return nil
}

// Run captures samples until the configured duration elapses. The duration is
// a soft, loop-checked budget: the last refill is retained even when it
// overshoots, and cancelling ctx stops before the next refill rather than
// interrupting one in flight. Refill and read failures flag the run as failed
// but do not abort the loop, so a transient blip does not discard collected
// data.
func (w *Worker) Run(ctx context.Context) {
	result := &domain.CaptureResult{
		Probe:    w.probe.Name(),
		Channels: w.policy.Channels,
		Duration: w.policy.Duration,
		Series:   make(map[domain.Channel]*domain.Series, len(w.policy.Channels)),
	}
	for _, ch := range w.policy.Channels {
		result.Series[ch] = &domain.Series{Unit: ch.Unit()}
	}

	start := time.Now()
	for {
		refillStart := time.Now()
		err := w.probe.RefillCaptureBuffer(ctx)
		refillEnd := time.Now()
		result.RefillSpans = append(result.RefillSpans, domain.Span{Start: refillStart, End: refillEnd})

		w.obs.IncCounter("acme_refills_total", 1)
		w.obs.ObserveLatency("acme_refill_duration_seconds", refillEnd.Sub(refillStart).Seconds())
		if err != nil {
			result.Failed = true
			w.obs.IncCounter("acme_refill_failures_total", 1)
			w.obs.LogError("buffer_refill_failed", err, ports.Field{Key: "probe", Value: w.probe.Name()})
		}

		readStart := time.Now()
		for _, ch := range w.policy.Channels {
			read, err := w.probe.ReadCaptureBuffer(ch)
			if err != nil {
				result.Failed = true
				w.obs.IncCounter("acme_read_failures_total", 1)
				w.obs.LogError("buffer_read_failed", err, ports.Field{Key: "probe", Value: w.probe.Name()})
				continue
			}
			series := result.Series[ch]
			series.Unit = read.Unit
			series.Samples = append(series.Samples, read.Samples...)
			w.obs.IncCounter("acme_samples_captured_total", float64(len(read.Samples)))
		}
		result.ReadSpans = append(result.ReadSpans, domain.Span{Start: readStart, End: time.Now()})

		if ctx.Err() != nil || time.Since(start) >= w.policy.Duration {
			break
		}
	}

	w.result = result
	w.obs.LogInfo("capture_run_done",
		ports.Field{Key: "probe", Value: w.probe.Name()},
		ports.Field{Key: "refills", Value: len(result.RefillSpans)},
		ports.Field{Key: "failed", Value: result.Failed})
}

// Samples returns the accumulated result. Pure read; only valid after Run has
// completed (the orchestrator calls it after joining the worker).
func (w *Worker) Samples() *domain.CaptureResult {
	return w.result
}
