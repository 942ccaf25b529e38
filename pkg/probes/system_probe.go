package probes

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/driftworks/stackpulse/pkg/types"
)

const (
	bytesPerGB = 1 << 30
	bytesPerMB = 1 << 20
)

// GoSystemProbe implements SystemProbe using gopsutil.
type GoSystemProbe struct{}

// NewGoSystemProbe creates a host metrics probe.
func NewGoSystemProbe() *GoSystemProbe {
	return &GoSystemProbe{}
}

// Collect gathers CPU, memory, disk and network counters. CPU or memory
// failure fails the whole collection so the cycle records system metrics as
// absent rather than half-populated; individual partitions or interfaces
// that cannot be read are skipped.
func (p *GoSystemProbe) Collect(ctx context.Context) (*types.SystemMetrics, error) {
	cpuMetrics, err := p.collectCPU(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect cpu: %w", err)
	}

	memMetrics, err := p.collectMemory(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect memory: %w", err)
	}

	return &types.SystemMetrics{
		CPU:       *cpuMetrics,
		Memory:    *memMetrics,
		Disks:     p.collectDisks(ctx),
		Network:   p.collectNetwork(ctx),
		Timestamp: time.Now(),
	}, nil
}

func (p *GoSystemProbe) collectCPU(ctx context.Context) (*types.CPUMetrics, error) {
	// Blocking 1s sample; cycles are far apart so this is fine.
	pct, err := cpu.PercentWithContext(ctx, time.Second, false)
	if err != nil {
		return nil, err
	}
	usage := 0.0
	if len(pct) > 0 {
		usage = pct[0]
	}

	cores := runtime.NumCPU()
	if c, err := cpu.CountsWithContext(ctx, true); err == nil && c > 0 {
		cores = c
	}

	return &types.CPUMetrics{
		UsagePercent: roundPercent(usage),
		Cores:        cores,
	}, nil
}

func (p *GoSystemProbe) collectMemory(ctx context.Context) (*types.MemoryMetrics, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return &types.MemoryMetrics{
		TotalGB:      toGB(v.Total),
		UsedGB:       toGB(v.Used),
		UsagePercent: roundPercent(v.UsedPercent),
	}, nil
}

func (p *GoSystemProbe) collectDisks(ctx context.Context) []types.DiskMetrics {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil
	}

	disks := make([]types.DiskMetrics, 0, len(partitions))
	for _, part := range partitions {
		if isVirtualMount(part.Mountpoint) {
			continue
		}
		usage, err := disk.UsageWithContext(ctx, part.Mountpoint)
		if err != nil || usage.Total == 0 {
			continue
		}
		disks = append(disks, types.DiskMetrics{
			Mount:        part.Mountpoint,
			SizeGB:       toGB(usage.Total),
			UsedGB:       toGB(usage.Used),
			UsagePercent: roundPercent(usage.UsedPercent),
		})
	}
	return disks
}

func (p *GoSystemProbe) collectNetwork(ctx context.Context) []types.NetworkMetrics {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil
	}

	ifaces := make([]types.NetworkMetrics, 0, len(counters))
	for _, c := range counters {
		if c.Name == "lo" || strings.HasPrefix(c.Name, "veth") {
			continue
		}
		ifaces = append(ifaces, types.NetworkMetrics{
			Name: c.Name,
			RxMB: toMB(c.BytesRecv),
			TxMB: toMB(c.BytesSent),
		})
	}
	return ifaces
}

// isVirtualMount filters out pseudo filesystems that gopsutil still reports
// on some distros even with all=false.
func isVirtualMount(mount string) bool {
	for _, prefix := range []string{"/proc", "/sys", "/dev", "/run", "/snap"} {
		if mount == prefix || strings.HasPrefix(mount, prefix+"/") {
			return true
		}
	}
	return false
}

func toGB(b uint64) int {
	return int(b / bytesPerGB)
}

func toMB(b uint64) int {
	return int(b / bytesPerMB)
}

func roundPercent(v float64) int {
	if v < 0 {
		return 0
	}
	return int(v + 0.5)
}

// Ensure GoSystemProbe implements SystemProbe
var _ SystemProbe = (*GoSystemProbe)(nil)
