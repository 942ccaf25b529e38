// Package types defines the shared data model for stackpulse.
// These types are serialized as-is over the HTTP and WebSocket surfaces.
package types

import "time"

// HealthState is the probe outcome for a single service.
type HealthState string

const (
	StateHealthy   HealthState = "healthy"
	StateUnhealthy HealthState = "unhealthy"
)

// ServiceDescriptor identifies one backend to be probed. The descriptor set
// is loaded once at startup and never changes for the process lifetime.
type ServiceDescriptor struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	BaseURL     string `json:"baseUrl"`
	HealthPath  string `json:"healthPath"`
	Icon        string `json:"icon,omitempty"`
}

// ServiceStatus is the result of one probe of one service. A new value is
// produced every cycle; it is never mutated after creation.
type ServiceStatus struct {
	Key          string      `json:"key"`
	Status       HealthState `json:"status"`
	ResponseTime string      `json:"responseTime"`
	LastCheck    time.Time   `json:"lastCheck"`
	Error        string      `json:"error,omitempty"`
}

// NewHealthyStatus builds the status entry for a successful probe.
// responseTime comes from the backend's timing header when present.
func NewHealthyStatus(key, responseTime string) ServiceStatus {
	if responseTime == "" {
		responseTime = "unknown"
	}
	return ServiceStatus{
		Key:          key,
		Status:       StateHealthy,
		ResponseTime: responseTime,
		LastCheck:    time.Now(),
	}
}

// NewUnhealthyStatus builds the status entry for a failed probe.
func NewUnhealthyStatus(key, errMsg string) ServiceStatus {
	return ServiceStatus{
		Key:          key,
		Status:       StateUnhealthy,
		ResponseTime: "unknown",
		LastCheck:    time.Now(),
		Error:        errMsg,
	}
}

// CPUMetrics contains host CPU usage.
type CPUMetrics struct {
	UsagePercent int `json:"usagePercent"`
	Cores        int `json:"cores"`
}

// MemoryMetrics contains host memory usage in whole GB.
type MemoryMetrics struct {
	TotalGB      int `json:"totalGb"`
	UsedGB       int `json:"usedGb"`
	UsagePercent int `json:"usagePercent"`
}

// DiskMetrics contains usage for a single mounted filesystem.
type DiskMetrics struct {
	Mount        string `json:"mount"`
	SizeGB       int    `json:"sizeGb"`
	UsedGB       int    `json:"usedGb"`
	UsagePercent int    `json:"usagePercent"`
}

// NetworkMetrics contains cumulative counters for one interface in whole MB.
type NetworkMetrics struct {
	Name string `json:"name"`
	RxMB int    `json:"rxMb"`
	TxMB int    `json:"txMb"`
}

// SystemMetrics is the host resource section of a snapshot, recomputed
// wholesale each cycle.
type SystemMetrics struct {
	CPU       CPUMetrics       `json:"cpu"`
	Memory    MemoryMetrics    `json:"memory"`
	Disks     []DiskMetrics    `json:"disks"`
	Network   []NetworkMetrics `json:"network"`
	Timestamp time.Time        `json:"timestamp"`
}

// ModelInfo describes one model reported by the inference engine.
type ModelInfo struct {
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// PipelineInfo describes one pipeline reported by the pipelines service.
type PipelineInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Snapshot is the single authoritative unit broadcast to subscribers and
// served to pull-based callers. It is built once per cycle and replaced
// atomically; readers never observe a partially built snapshot.
//
// System is nil when host metrics collection failed for the cycle.
type Snapshot struct {
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]ServiceStatus `json:"services"`
	System    *SystemMetrics           `json:"system"`
	Models    []ModelInfo              `json:"models"`
	Pipelines []PipelineInfo           `json:"pipelines"`
}

// EmptySnapshot returns the value served before the first cycle completes.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Services:  map[string]ServiceStatus{},
		Models:    []ModelInfo{},
		Pipelines: []PipelineInfo{},
	}
}
