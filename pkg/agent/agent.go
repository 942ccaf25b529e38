// Package agent provides the stackpulse refresh scheduler and snapshot store.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/driftworks/stackpulse/pkg/config"
	"github.com/driftworks/stackpulse/pkg/hub"
	"github.com/driftworks/stackpulse/pkg/probes"
	"github.com/driftworks/stackpulse/pkg/types"
)

// Publisher receives every built snapshot, in addition to hub subscribers.
// Used for the optional Redis publisher; failures are logged, never fatal.
type Publisher interface {
	PublishSnapshot(ctx context.Context, snap *types.Snapshot) error
}

// Agent drives the refresh cycle: it fans out the four gather operations,
// merges their results into one immutable snapshot, stores it as the
// last-known value and publishes it to the hub.
type Agent struct {
	config *config.Config
	logger *slog.Logger
	hub    *hub.Hub

	systemProbe    probes.SystemProbe
	serviceProber  probes.ServiceProber
	modelLister    probes.ModelLister
	pipelineLister probes.PipelineLister
	publisher      Publisher

	// State. snapshot is replaced wholesale at the end of a cycle and
	// never mutated in place; readers get the current pointer.
	mu       sync.RWMutex
	snapshot *types.Snapshot
	inFlight bool
	running  bool

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// Option is a functional option for configuring the Agent.
type Option func(*Agent)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// WithSystemProbe sets a custom host metrics probe.
func WithSystemProbe(p probes.SystemProbe) Option {
	return func(a *Agent) { a.systemProbe = p }
}

// WithServiceProber sets a custom service prober.
func WithServiceProber(p probes.ServiceProber) Option {
	return func(a *Agent) { a.serviceProber = p }
}

// WithModelLister sets a custom model lister.
func WithModelLister(l probes.ModelLister) Option {
	return func(a *Agent) { a.modelLister = l }
}

// WithPipelineLister sets a custom pipeline lister.
func WithPipelineLister(l probes.PipelineLister) Option {
	return func(a *Agent) { a.pipelineLister = l }
}

// WithPublisher adds an external snapshot publisher.
func WithPublisher(p Publisher) Option {
	return func(a *Agent) { a.publisher = p }
}

// New creates a new Agent.
func New(cfg *config.Config, opts ...Option) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Agent{
		config:   cfg,
		logger:   slog.Default(),
		hub:      hub.New(),
		snapshot: types.EmptySnapshot(),
		stopChan: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.systemProbe == nil {
		a.systemProbe = probes.NewGoSystemProbe()
	}
	if a.serviceProber == nil {
		a.serviceProber = probes.NewHTTPProber(cfg.Services, cfg.ProbeTimeout)
	}
	if a.modelLister == nil {
		a.modelLister = probes.NewOllamaModelProbe(cfg.OllamaURL, cfg.ProbeTimeout)
	}
	if a.pipelineLister == nil {
		a.pipelineLister = probes.NewPipelinesProbe(cfg.PipelinesURL, cfg.PipelinesToken, cfg.ProbeTimeout)
	}

	return a, nil
}

// Hub returns the subscriber hub snapshots are published to.
func (a *Agent) Hub() *hub.Hub {
	return a.hub
}

// Models returns the live model list, bypassing the snapshot cache.
func (a *Agent) Models(ctx context.Context) ([]types.ModelInfo, error) {
	return a.modelLister.ListModels(ctx)
}

// Pipelines returns the live pipeline list, bypassing the snapshot cache.
func (a *Agent) Pipelines(ctx context.Context) ([]types.PipelineInfo, error) {
	return a.pipelineLister.ListPipelines(ctx)
}

// Snapshot returns the last-known snapshot. Before the first cycle completes
// this is an empty snapshot, never nil.
func (a *Agent) Snapshot() *types.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// Start runs one refresh immediately, then one per configured interval.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("agent already running")
	}
	a.running = true
	a.mu.Unlock()

	a.logger.Info("stackpulse agent started",
		"interval", a.config.Interval,
		"services", len(a.config.Services),
	)

	a.refresh(ctx)

	a.wg.Add(1)
	go a.refreshLoop(ctx)

	return nil
}

// Stop gracefully stops the agent and closes the hub.
func (a *Agent) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	close(a.stopChan)
	a.wg.Wait()
	a.hub.Close()

	a.logger.Info("stackpulse agent stopped")
	return nil
}

func (a *Agent) refreshLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refresh(ctx)
		}
	}
}

// refresh runs one full cycle. If the previous cycle is somehow still in
// flight the tick is skipped rather than overlapped.
func (a *Agent) refresh(ctx context.Context) {
	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		a.logger.Warn("previous refresh cycle still running, skipping tick")
		return
	}
	a.inFlight = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.inFlight = false
		a.mu.Unlock()
	}()

	snap, ok := a.gather(ctx)
	if !ok {
		a.logger.Error("refresh cycle produced no data, keeping previous snapshot")
		return
	}

	a.mu.Lock()
	a.snapshot = snap
	a.mu.Unlock()

	a.hub.Publish(snap)

	if a.publisher != nil {
		if err := a.publisher.PublishSnapshot(ctx, snap); err != nil {
			a.logger.Warn("snapshot publish failed", "error", err)
		}
	}

	a.logger.Debug("refresh cycle complete",
		"services", len(snap.Services),
		"models", len(snap.Models),
		"pipelines", len(snap.Pipelines),
		"system", snap.System != nil,
	)
}

// gather runs the four data-gathering operations concurrently and merges
// their results into one snapshot. Each operation swallows its own error;
// ok is false only when all four failed, in which case the previous
// snapshot must be retained.
func (a *Agent) gather(ctx context.Context) (*types.Snapshot, bool) {
	var (
		services  map[string]types.ServiceStatus
		system    *types.SystemMetrics
		models    []types.ModelInfo
		pipelines []types.PipelineInfo

		probeErr, systemErr, modelErr, pipelineErr error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		services, probeErr = a.serviceProber.Probe(gctx)
		if probeErr != nil {
			a.logger.Warn("service probe round failed", "error", probeErr)
		}
		return nil
	})

	g.Go(func() error {
		system, systemErr = a.systemProbe.Collect(gctx)
		if systemErr != nil {
			a.logger.Warn("host metrics unavailable this cycle", "error", systemErr)
			system = nil
		}
		return nil
	})

	g.Go(func() error {
		models, modelErr = a.modelLister.ListModels(gctx)
		if modelErr != nil {
			a.logger.Warn("model list unavailable this cycle", "error", modelErr)
			models = nil
		}
		return nil
	})

	g.Go(func() error {
		pipelines, pipelineErr = a.pipelineLister.ListPipelines(gctx)
		if pipelineErr != nil {
			a.logger.Warn("pipeline list unavailable this cycle", "error", pipelineErr)
			pipelines = nil
		}
		return nil
	})

	// Goroutines only ever return nil; Wait is just the fan-in barrier.
	_ = g.Wait()

	if probeErr != nil && systemErr != nil && modelErr != nil && pipelineErr != nil {
		return nil, false
	}

	if services == nil {
		services = map[string]types.ServiceStatus{}
	}
	if models == nil {
		models = []types.ModelInfo{}
	}
	if pipelines == nil {
		pipelines = []types.PipelineInfo{}
	}

	return &types.Snapshot{
		Timestamp: time.Now(),
		Services:  services,
		System:    system,
		Models:    models,
		Pipelines: pipelines,
	}, true
}
