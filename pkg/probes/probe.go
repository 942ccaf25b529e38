// Package probes provides the data-gathering side of a refresh cycle:
// the service health prober, the host metrics collector, and the two
// auxiliary fetchers.
package probes

import (
	"context"

	"github.com/driftworks/stackpulse/pkg/types"
)

// SystemProbe collects host resource metrics (CPU, memory, disk, network).
type SystemProbe interface {
	Collect(ctx context.Context) (*types.SystemMetrics, error)
}

// ServiceProber runs one health probe per configured service. The returned
// map always has exactly one entry per descriptor; individual probe failures
// are recorded as unhealthy entries, never returned as errors. The error is
// non-nil only when the round itself could not run (context cancelled).
type ServiceProber interface {
	Probe(ctx context.Context) (map[string]types.ServiceStatus, error)
}

// ModelLister fetches the model list from the inference engine.
type ModelLister interface {
	ListModels(ctx context.Context) ([]types.ModelInfo, error)
}

// PipelineLister fetches the pipeline list from the pipelines service.
type PipelineLister interface {
	ListPipelines(ctx context.Context) ([]types.PipelineInfo, error)
}
