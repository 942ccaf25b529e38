package agent

import (
	"context"
	"errors"

	"github.com/driftworks/stackpulse/pkg/types"
)

var errMockFailure = errors.New("mock failure")

// mockSystemProbe implements probes.SystemProbe for testing.
type mockSystemProbe struct {
	CollectFn func(ctx context.Context) (*types.SystemMetrics, error)
}

func (m *mockSystemProbe) Collect(ctx context.Context) (*types.SystemMetrics, error) {
	if m.CollectFn != nil {
		return m.CollectFn(ctx)
	}
	return &types.SystemMetrics{
		CPU:    types.CPUMetrics{UsagePercent: 12, Cores: 8},
		Memory: types.MemoryMetrics{TotalGB: 32, UsedGB: 9, UsagePercent: 28},
	}, nil
}

// mockServiceProber implements probes.ServiceProber for testing.
type mockServiceProber struct {
	ProbeFn func(ctx context.Context) (map[string]types.ServiceStatus, error)
}

func (m *mockServiceProber) Probe(ctx context.Context) (map[string]types.ServiceStatus, error) {
	if m.ProbeFn != nil {
		return m.ProbeFn(ctx)
	}
	return map[string]types.ServiceStatus{
		"ollama": types.NewHealthyStatus("ollama", "0.002"),
	}, nil
}

// mockModelLister implements probes.ModelLister for testing.
type mockModelLister struct {
	ListFn func(ctx context.Context) ([]types.ModelInfo, error)
}

func (m *mockModelLister) ListModels(ctx context.Context) ([]types.ModelInfo, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return []types.ModelInfo{{Name: "llama3.2:3b"}}, nil
}

// mockPipelineLister implements probes.PipelineLister for testing.
type mockPipelineLister struct {
	ListFn func(ctx context.Context) ([]types.PipelineInfo, error)
}

func (m *mockPipelineLister) ListPipelines(ctx context.Context) ([]types.PipelineInfo, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return []types.PipelineInfo{{ID: "mem0_memory_filter", Name: "Mem0 Memory Filter"}}, nil
}
