package metrics

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// SystemStats 系统统计信息
type SystemStats struct {
	Timestamp time.Time    `json:"timestamp"`
	CPU       CPUStats     `json:"cpu"`
	Memory    MemoryStats  `json:"memory"`
	Process   ProcessStats `json:"process"`
	Runtime   RuntimeStats `json:"runtime"`
	Host      HostStats    `json:"host"`
}

// CPUStats CPU统计信息
type CPUStats struct {
	UsagePercent float64 `json:"usage_percent"`
	CountLogical int     `json:"count_logical"`
}

// MemoryStats 内存统计信息
type MemoryStats struct {
	Total        uint64  `json:"total"`
	Available    uint64  `json:"available"`
	UsagePercent float64 `json:"usage_percent"`
}

// ProcessStats 进程统计信息
type ProcessStats struct {
	PID        int32   `json:"pid"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryRSS  uint64  `json:"memory_rss"`
	NumThreads int32   `json:"num_threads"`
}

// RuntimeStats Go运行时统计信息
type RuntimeStats struct {
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	NumGC      uint32 `json:"num_gc"`
}

// HostStats 主机统计信息
type HostStats struct {
	Hostname string `json:"hostname"`
	Uptime   uint64 `json:"uptime"`
	Platform string `json:"platform"`
	Version  string `json:"version"`
}

// CollectSystemStats takes one snapshot. Sections the platform cannot
// report are left zero.
func CollectSystemStats(ctx context.Context) SystemStats {
	stats := SystemStats{Timestamp: time.Now()}

	// 收集CPU信息
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		stats.CPU.UsagePercent = pct[0]
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		stats.CPU.CountLogical = n
	}

	// 收集内存信息
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.Memory = MemoryStats{Total: vm.Total, Available: vm.Available, UsagePercent: vm.UsedPercent}
	}

	// 收集进程信息
	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		stats.Process.PID = p.Pid
		if v, err := p.CPUPercentWithContext(ctx); err == nil {
			stats.Process.CPUPercent = v
		}
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
			stats.Process.MemoryRSS = mi.RSS
		}
		if n, err := p.NumThreadsWithContext(ctx); err == nil {
			stats.Process.NumThreads = n
		}
	}

	// 收集运行时信息
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	stats.Runtime = RuntimeStats{Goroutines: runtime.NumGoroutine(), HeapAlloc: ms.HeapAlloc, NumGC: ms.NumGC}

	// 收集主机信息
	if hi, err := host.InfoWithContext(ctx); err == nil {
		stats.Host = HostStats{Hostname: hi.Hostname, Uptime: hi.Uptime, Platform: hi.Platform, Version: hi.PlatformVersion}
	}
	return stats
}
