package sysmetrics

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
)

// Snapshot describes the node host itself, reported alongside pool
// analytics so operators can tell a stressed node from a stressed pool.
type Snapshot struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
	DiskPercent   float64 `json:"disk_percent"`
	Load1         float64 `json:"load_1"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
}

// Collect gathers a best-effort host snapshot. Individual probe
// failures are logged and leave their fields at zero rather than
// failing the whole heartbeat.
func Collect(ctx context.Context) Snapshot {
	var snap Snapshot

	if percents, err := cpu.PercentWithContext(ctx, time.Second, false); err != nil {
		logger.WithError(err).Debug("CPU probe failed")
	} else if len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		logger.WithError(err).Debug("Memory probe failed")
	} else {
		snap.MemoryPercent = vm.UsedPercent
		snap.MemoryUsedMB = vm.Used / 1024 / 1024
		snap.MemoryTotalMB = vm.Total / 1024 / 1024
	}

	if usage, err := disk.UsageWithContext(ctx, "/"); err != nil {
		logger.WithError(err).Debug("Disk probe failed")
	} else {
		snap.DiskPercent = usage.UsedPercent
	}

	if avg, err := load.AvgWithContext(ctx); err != nil {
		logger.WithError(err).Debug("Load probe failed")
	} else {
		snap.Load1 = avg.Load1
	}

	if uptime, err := host.UptimeWithContext(ctx); err != nil {
		logger.WithError(err).Debug("Uptime probe failed")
	} else {
		snap.UptimeSeconds = uptime
	}

	return snap
}

// Map renders the snapshot for the heartbeat's free-form metrics field.
func (s Snapshot) Map() map[string]interface{} {
	return map[string]interface{}{
		"cpu_percent":     s.CPUPercent,
		"memory_percent":  s.MemoryPercent,
		"memory_used_mb":  s.MemoryUsedMB,
		"memory_total_mb": s.MemoryTotalMB,
		"disk_percent":    s.DiskPercent,
		"load_1":          s.Load1,
		"uptime_seconds":  s.UptimeSeconds,
	}
}
