package logging

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemInfo is a point-in-time description of the host.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Arch         string `json:"arch"`
	Hostname     string `json:"hostname"`
	PhysicalCPUs int    `json:"physical_cpus,omitempty"`
	LogicalCPUs  int    `json:"logical_cpus"`
	MemoryTotal  uint64 `json:"memory_total,omitempty"`
	MemoryFree   uint64 `json:"memory_available,omitempty"`
	DiskTotal    uint64 `json:"disk_total,omitempty"`
	DiskFree     uint64 `json:"disk_free,omitempty"`
	// Unavailable lists the metrics that could not be read.
	Unavailable []string `json:"unavailable,omitempty"`
}

// CollectSystemInfo gathers host metrics. Metrics that cannot be read are
// recorded in Unavailable rather than failing the collection. diskPath is
// the filesystem whose usage is reported.
func CollectSystemInfo(ctx context.Context, diskPath string) SystemInfo {
	info := SystemInfo{
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		LogicalCPUs: runtime.NumCPU(),
	}

	if host, err := os.Hostname(); err == nil {
		info.Hostname = host
	} else {
		info.Unavailable = append(info.Unavailable, "hostname")
	}

	if n, err := cpu.CountsWithContext(ctx, false); err == nil && n > 0 {
		info.PhysicalCPUs = n
	} else {
		info.Unavailable = append(info.Unavailable, "physical_cpus")
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemoryTotal = vm.Total
		info.MemoryFree = vm.Available
	} else {
		info.Unavailable = append(info.Unavailable, "memory")
	}

	if diskPath == "" {
		diskPath = "."
	}
	if usage, err := disk.UsageWithContext(ctx, diskPath); err == nil {
		info.DiskTotal = usage.Total
		info.DiskFree = usage.Free
	} else {
		info.Unavailable = append(info.Unavailable, "disk")
	}

	return info
}

// LogSystemInfo writes a DEBUG-level summary of the host, framed by a
// separator line, for attaching to bug reports.
func LogSystemInfo(l *Logger) {
	if !l.Enabled(LevelDebug) {
		return
	}
	info := CollectSystemInfo(context.Background(), ".")

	ctx := context.Background()
	sep := strings.Repeat("=", 60)
	lines := []string{
		sep,
		"System Information",
		sep,
		"Go version: " + info.GoVersion,
		fmt.Sprintf("Platform: %s/%s", info.OS, info.Arch),
		"Hostname: " + info.Hostname,
		fmt.Sprintf("CPU count: %d physical, %d logical", info.PhysicalCPUs, info.LogicalCPUs),
	}
	if info.MemoryTotal > 0 {
		lines = append(lines, fmt.Sprintf("Memory: %s total, %s available",
			humanize.IBytes(info.MemoryTotal), humanize.IBytes(info.MemoryFree)))
	}
	if info.DiskTotal > 0 {
		lines = append(lines, fmt.Sprintf("Disk: %s total, %s free",
			humanize.IBytes(info.DiskTotal), humanize.IBytes(info.DiskFree)))
	}
	if len(info.Unavailable) > 0 {
		lines = append(lines, "Unavailable metrics: "+strings.Join(info.Unavailable, ", "))
	}
	lines = append(lines, sep)

	for _, line := range lines {
		l.logDepth(ctx, 1, LevelDebug, line)
	}
}
