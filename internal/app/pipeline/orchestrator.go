package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ptitiano/acme-utils/internal/domain"
	"github.com/ptitiano/acme-utils/internal/ports"
)

// Orchestrator fans out one capture worker per probe, runs them
// concurrently, and fans in the results. It is the only synchronization
// point across probes: workers exchange nothing while running.
type Orchestrator struct {
	workers []*Worker
	obs     ports.Observability
}

func NewOrchestrator(probes []ports.Probe, policy ports.CapturePolicy, obs ports.Observability) *Orchestrator {
	workers := make([]*Worker, 0, len(probes))
	for _, p := range probes {
		workers = append(workers, NewWorker(p, policy, obs))
	}
	return &Orchestrator{workers: workers, obs: obs}
}

func (o *Orchestrator) Workers() []*Worker { return o.workers }

// Run configures every worker up front, starts them all, and joins them.
// Any configuration failure aborts before any worker starts: partial starts
// are not permitted. Loop-body failures surface through each result's Failed
// flag and are never converted into an orchestrator error, so operators
// still get whatever data was collected.
func (o *Orchestrator) Run(ctx context.Context) ([]*domain.CaptureResult, error) {
	for _, w := range o.workers {
		if err := w.ConfigureCapture(); err != nil {
			o.obs.LogCritical("capture_configure_failed", err,
				ports.Field{Key: "probe", Value: w.Probe().Name()})
			return nil, err
		}
	}
	o.obs.LogInfo("capture_started", ports.Field{Key: "probes", Value: len(o.workers)})

	// The gauge is owned here, not per worker: workers run concurrently and
	// would clobber each other's absolute writes.
	o.obs.SetGauge("acme_active_captures", float64(len(o.workers)))
	defer o.obs.SetGauge("acme_active_captures", 0)

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range o.workers {
		g.Go(func() error {
			w.Run(gctx)
			return nil
		})
	}
	// Join barrier: workers only stop on their own duration cutoff.
	_ = g.Wait()

	results := make([]*domain.CaptureResult, 0, len(o.workers))
	for _, w := range o.workers {
		results = append(results, w.Samples())
	}
	o.obs.LogInfo("capture_completed", ports.Field{Key: "probes", Value: len(results)})
	return results, nil
}
