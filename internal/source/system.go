package source

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// SystemSource implements Runtime for the current process. OS-level readings
// (CPU time, RSS, file descriptors) come from gopsutil; heap readings come
// from the Go runtime, mapped into the same shape a managed runtime reports.
//
// It deliberately implements neither LoopMonitor nor GCNotifier, so the
// samplers depending on those stay disabled when the agent observes itself.
type SystemSource struct {
	proc *process.Process
}

// NewSystemSource creates a source observing the current process.
func NewSystemSource() (*SystemSource, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("error attaching to own process: %w", err)
	}
	return &SystemSource{proc: proc}, nil
}

// Version returns the Go runtime version string.
func (s *SystemSource) Version() string {
	return runtime.Version()
}

// Now returns the current time split into seconds and nanoseconds.
func (s *SystemSource) Now() HRTime {
	now := time.Now()
	return HRTime{Sec: now.Unix(), Nsec: int64(now.Nanosecond())}
}

// CPUUsage returns cumulative user and system CPU time in microseconds.
func (s *SystemSource) CPUUsage() (CPUUsage, error) {
	times, err := s.proc.Times()
	if err != nil {
		return CPUUsage{}, fmt.Errorf("error reading cpu times: %w", err)
	}
	return CPUUsage{
		User:   int64(times.User * 1e6),
		System: int64(times.System * 1e6),
	}, nil
}

// MemoryUsage returns the resident set size from the OS and heap figures from
// the runtime.
func (s *SystemSource) MemoryUsage() (MemoryUsage, error) {
	info, err := s.proc.MemoryInfo()
	if err != nil {
		return MemoryUsage{}, fmt.Errorf("error reading memory info: %w", err)
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return MemoryUsage{
		RSS:       int64(info.RSS),
		HeapTotal: int64(ms.HeapSys),
		HeapUsed:  int64(ms.HeapAlloc),
		External:  int64(ms.Sys - ms.HeapSys),
	}, nil
}

// HeapStatistics maps the runtime's memory statistics onto the dynamic
// (name, value) pairs the collector forwards.
func (s *SystemSource) HeapStatistics() ([]HeapStat, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return []HeapStat{
		{Name: "total_heap_size", Value: int64(ms.HeapSys)},
		{Name: "used_heap_size", Value: int64(ms.HeapAlloc)},
		{Name: "total_physical_size", Value: int64(ms.HeapSys - ms.HeapReleased)},
		{Name: "total_available_size", Value: int64(ms.HeapIdle)},
		{Name: "heap_size_limit", Value: int64(ms.NextGC)},
		{Name: "malloced_memory", Value: int64(ms.Sys)},
	}, nil
}

// HeapSpaceStatistics reports the heap and the stacks as two spaces. The
// long-lived heap maps to old_space and goroutine stacks to new_space.
func (s *SystemSource) HeapSpaceStatistics() ([]HeapSpace, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return []HeapSpace{
		{
			Name:      "old_space",
			Size:      int64(ms.HeapSys),
			Used:      int64(ms.HeapInuse),
			Available: int64(ms.HeapIdle),
			Physical:  int64(ms.HeapSys - ms.HeapReleased),
		},
		{
			Name:      "new_space",
			Size:      int64(ms.StackSys),
			Used:      int64(ms.StackInuse),
			Available: int64(ms.StackSys - ms.StackInuse),
			Physical:  int64(ms.StackSys),
		},
	}, nil
}

// FDActivity returns the open descriptor count and, when the process has a
// finite RLIMIT_NOFILE, the soft ceiling. An unlimited rlimit leaves Max nil
// so no ceiling metric is emitted for that sample.
func (s *SystemSource) FDActivity() (FDActivity, error) {
	used, err := s.proc.NumFDs()
	if err != nil {
		return FDActivity{}, fmt.Errorf("error counting file descriptors: %w", err)
	}
	activity := FDActivity{Used: int64(used)}

	limits, err := s.proc.RlimitUsage(false)
	if err != nil {
		// Some platforms can't report rlimits; the used count alone is fine.
		return activity, nil
	}
	for _, limit := range limits {
		if limit.Resource == process.RLIMIT_NOFILE {
			if limit.Soft != math.MaxUint64 {
				max := int64(limit.Soft)
				activity.Max = &max
			}
			break
		}
	}
	return activity, nil
}
