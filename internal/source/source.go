// Package source defines the capabilities a managed runtime must expose for
// metrics collection, and provides a system-backed implementation for the
// OS-level subset.
//
// The collector only ever talks to these interfaces. Required capabilities
// (CPU usage, heap space statistics) are validated at collector construction;
// the optional ones (event loop monitor, GC notifier) are discovered through
// interface assertions and their absence disables the matching samplers.
package source

import "time"

// HRTime is a high resolution monotonic timestamp split into whole seconds
// and the nanosecond remainder.
type HRTime struct {
	Sec  int64
	Nsec int64
}

// Nanos returns the timestamp as a single nanosecond count.
func (t HRTime) Nanos() int64 {
	return t.Sec*1e9 + t.Nsec
}

// CPUUsage holds cumulative process CPU time in microseconds.
type CPUUsage struct {
	User   int64
	System int64
}

// MemoryUsage holds point-in-time process memory readings in bytes.
type MemoryUsage struct {
	RSS       int64
	HeapTotal int64
	HeapUsed  int64
	External  int64
}

// HeapStat is one named byte-size counter from the runtime's heap statistics.
// The key set is dynamic; names are forwarded after a camelCase transform.
type HeapStat struct {
	Name  string
	Value int64
}

// HeapSpace describes one named heap region at a point in time.
type HeapSpace struct {
	Name      string
	Size      int64
	Used      int64
	Available int64
	Physical  int64
}

// FDActivity holds the current and maximum file descriptor counts. Max is nil
// when the process has no descriptor ceiling.
type FDActivity struct {
	Used int64
	Max  *int64
}

// LoopUsage holds cumulative event loop idle and active time in nanoseconds.
type LoopUsage struct {
	Idle        int64
	Active      int64
	Utilization float64
}

// GCCategory identifies the kind of garbage collection that occurred.
type GCCategory string

const (
	GCScavenge             GCCategory = "scavenge"
	GCMarkSweepCompact     GCCategory = "markSweepCompact"
	GCIncrementalMarking   GCCategory = "incrementalMarking"
	GCProcessWeakCallbacks GCCategory = "processWeakCallbacks"
	GCUnknown              GCCategory = "unknown"
)

// GCEvent is one garbage collection occurrence: the category, the elapsed
// duration, before and after heap space snapshots matched by space name, and
// the post-collection heap size ceiling.
type GCEvent struct {
	Category    GCCategory
	Elapsed     time.Duration
	Before      []HeapSpace
	After       []HeapSpace
	MaxHeapSize int64
}

// Runtime is the required capability set for metrics collection.
type Runtime interface {
	// Version identifies the observed runtime; it is attached to every
	// produced metric as a tag.
	Version() string

	// Now returns the current monotonic high resolution time.
	Now() HRTime

	// CPUUsage returns cumulative user and system CPU time in microseconds.
	CPUUsage() (CPUUsage, error)

	// MemoryUsage returns current process memory readings.
	MemoryUsage() (MemoryUsage, error)

	// HeapStatistics returns the runtime's named heap counters. The key set
	// is dynamic and forwarded as-is.
	HeapStatistics() ([]HeapStat, error)

	// HeapSpaceStatistics returns per-region heap statistics.
	HeapSpaceStatistics() ([]HeapSpace, error)

	// FDActivity returns current file descriptor usage.
	FDActivity() (FDActivity, error)
}

// LoopMonitor is the optional event loop utilization capability. Runtimes
// that cannot report idle/active counters simply do not implement it.
type LoopMonitor interface {
	LoopUsage() (LoopUsage, error)
}

// GCNotifier is the optional GC notification capability. OnGCEvent registers
// a callback invoked once per collection and returns an unregister function
// releasing the registration.
type GCNotifier interface {
	OnGCEvent(fn func(GCEvent)) (unregister func())
}

// Yielder schedules a callback after a delay on the runtime's scheduling
// loop. It backs the round trip sampler; tests substitute a synchronous one.
type Yielder interface {
	Yield(d time.Duration, fn func())
}
