package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ptitiano/acme-utils/internal/ports"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs() *PromObs {
	refills := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acme_refills_total",
		Help: "Total capture buffer refill calls across all probes.",
	})
	refillFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acme_refill_failures_total",
		Help: "Refill calls that failed; the capture run continues degraded.",
	})
	readFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acme_read_failures_total",
		Help: "Channel buffer reads that failed during the capture loop.",
	})
	samples := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acme_samples_captured_total",
		Help: "Scaled samples accumulated across all probes and channels.",
	})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "acme_active_captures",
		Help: "Capture workers running in the current acquisition run.",
	})
	refillLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "acme_refill_duration_seconds",
		Help:    "Wall-clock duration of blocking capture buffer refills.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	prometheus.MustRegister(refills, refillFailures, readFailures, samples, active, refillLatency)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"acme_refills_total":          refills,
			"acme_refill_failures_total":  refillFailures,
			"acme_read_failures_total":    readFailures,
			"acme_samples_captured_total": samples,
		},
		gauges: map[string]prometheus.Gauge{
			"acme_active_captures": active,
		},
		histos: map[string]prometheus.Observer{
			"acme_refill_duration_seconds": refillLatency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	slog.Info(msg, fieldArgs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		slog.Error(msg, append([]any{"err", err}, fieldArgs(fields)...)...)
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		slog.Error(msg, append([]any{"critical", true, "err", err}, fieldArgs(fields)...)...)
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func fieldArgs(fields []ports.Field) []any {
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}

var _ ports.Observability = (*PromObs)(nil)
