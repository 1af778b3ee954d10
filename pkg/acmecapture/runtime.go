package acmecapture

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ptitiano/acme-utils/internal/adapters/iio"
	"github.com/ptitiano/acme-utils/internal/adapters/observability"
	"github.com/ptitiano/acme-utils/internal/adapters/sim"
	"github.com/ptitiano/acme-utils/internal/adapters/sink"
	"github.com/ptitiano/acme-utils/internal/app/pipeline"
	"github.com/ptitiano/acme-utils/internal/domain"
	"github.com/ptitiano/acme-utils/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	transport     ports.HardwareTransport
	infoClient    ports.ProbeInfoClient
	observability ports.Observability
	sinks         []ports.ResultSink
	probes        []ports.Probe
}

// WithTransport injects the hardware wire driver. Required for non-virtual
// captures; the low-level driver lives outside this module.
func WithTransport(t ports.HardwareTransport) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.transport = t
	}
}

// WithProbeInfoClient injects the probe metadata side-channel client.
func WithProbeInfoClient(c ports.ProbeInfoClient) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.infoClient = c
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs ports.Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithSink appends an extra result sink alongside the configured ones.
func WithSink(s ports.ResultSink) RuntimeOption {
	return func(o *runtimeOverrides) {
		if s != nil {
			o.sinks = append(o.sinks, s)
		}
	}
}

// WithProbes replaces the configured probe set entirely. Intended for
// embedding and testing with custom probe implementations.
func WithProbes(probes ...ports.Probe) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.probes = probes
	}
}

// Runtime wires probes, the capture orchestrator, the reduction pipeline,
// and the result sinks into one capture run.
type Runtime struct {
	cfg    *Config
	policy ports.CapturePolicy
	obs    ports.Observability
	probes []ports.Probe
	sinks  []ports.ResultSink

	runID      string
	db         *sql.DB
	metricsSrv *http.Server
}

// NewRuntime bootstraps the default adapters: simulated or hardware probes
// per configuration, Prometheus observability, and the report/trace/summary
// sinks. RuntimeOption values override any dependency.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs()
	}

	runID := uuid.NewString()

	probes := overrides.probes
	if probes == nil {
		var err error
		probes, err = buildProbes(cfg, overrides.transport, overrides.infoClient)
		if err != nil {
			return nil, err
		}
	}
	if len(probes) == 0 {
		return nil, fmt.Errorf("no probes to capture from")
	}

	r := &Runtime{
		cfg:    cfg,
		policy: cfg.Policy(),
		obs:    obs,
		probes: probes,
		runID:  runID,
		sinks:  overrides.sinks,
	}

	if !cfg.Output.Disable {
		basename := cfg.Output.Basename
		if basename == "" {
			basename = time.Now().Format("20060102-150405")
		}
		params := sink.ReportParams{
			RunID:             runID,
			Channels:          r.policy.Channels,
			OversamplingRatio: r.policy.OversamplingRatio,
			AsynchronousReads: r.policy.AsynchronousReads,
			Duration:          r.policy.Duration,
		}
		r.sinks = append(r.sinks,
			sink.NewReportSink(cfg.Output.Dir, basename, params, true),
			sink.NewTraceSink(cfg.Output.Dir, basename))
	}

	if cfg.Postgres.ConnString != "" {
		db, err := sql.Open("postgres", cfg.Postgres.ConnString)
		if err != nil {
			return nil, err
		}
		r.db = db
		r.sinks = append(r.sinks, sink.NewPostgresSink(db, cfg.Postgres.Table, runID))
	}

	return r, nil
}

func buildProbes(cfg *Config, transport ports.HardwareTransport, info ports.ProbeInfoClient) ([]ports.Probe, error) {
	addrs := cfg.ProbeAddrs()
	probes := make([]ports.Probe, 0, len(addrs))

	if cfg.Virtual {
		for _, addr := range addrs {
			probes = append(probes, sim.NewProbe(addr))
		}
		return probes, nil
	}

	if transport == nil || info == nil {
		return nil, fmt.Errorf("hardware transport and probe info client are required unless virtual mode is enabled")
	}
	for _, addr := range addrs {
		probes = append(probes, iio.NewProbe(addr, transport, info))
	}
	return probes, nil
}

// RunID returns the unique id stamped into the report and summary rows.
func (r *Runtime) RunID() string { return r.runID }

// Run executes one complete capture: attach every probe, capture
// concurrently for the configured duration, reduce, and hand results to the
// sinks. Attach and configuration failures abort before any capture starts;
// per-probe loop failures surface through each result's Failed flag.
func (r *Runtime) Run(ctx context.Context) ([]*domain.Reduced, error) {
	for _, p := range r.probes {
		if err := p.Attach(ctx); err != nil {
			return nil, err
		}
		slog.Debug("probe ready",
			"probe", p.Name(),
			"type", p.Type(),
			"shunt_uohm", p.ShuntMicroOhm())
	}

	if r.cfg.Metrics.Enabled {
		r.startMetrics()
	}
	defer r.shutdown()

	orch := pipeline.NewOrchestrator(r.probes, r.policy, r.obs)
	results, err := orch.Run(ctx)
	if err != nil {
		return nil, err
	}

	var errs []error
	reduced := make([]*domain.Reduced, 0, len(results))
	for i, result := range results {
		pipeline.LogRuntimeStats(result)
		red, err := pipeline.Reduce(result, r.probes[i])
		if err != nil {
			// Integrity failures must stay visible to the operator;
			// remaining probes are still reported.
			r.obs.LogCritical("reduction_failed", err,
				ports.Field{Key: "probe", Value: result.Probe})
			errs = append(errs, err)
			continue
		}
		reduced = append(reduced, red)
	}

	for _, s := range r.sinks {
		if err := s.WriteResults(reduced); err != nil {
			r.obs.LogError("sink_write_failed", err,
				ports.Field{Key: "sink", Value: s.Name()})
			errs = append(errs, fmt.Errorf("sink %s: %w", s.Name(), err))
		}
	}

	return reduced, errors.Join(errs...)
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server exited", "err", err)
		}
	}()
}

func (r *Runtime) shutdown() {
	if r.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.metricsSrv.Shutdown(ctx)
		r.metricsSrv = nil
	}
	if r.db != nil {
		_ = r.db.Close()
		r.db = nil
	}
}
