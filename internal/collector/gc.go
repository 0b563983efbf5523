package collector

import (
	"github.com/Schera-ole/nodemetrics/internal/source"
)

// gcState holds the cross-event accumulators of the GC processor. It is only
// ever touched by the single GC consumer goroutine, and every field update
// for one event happens within one ProcessGCEvent call, so an event never
// observes a half-updated state.
type gcState struct {
	// liveDataSize caches the last trustworthy old generation size so the
	// gauge can be refreshed between size-decreasing events.
	liveDataSize float64
	liveSeeded   bool

	// prevMapSize and prevLargeSize carry the previous event's after-sizes
	// for the map and large object spaces.
	prevMapSize   int64
	mapSeeded     bool
	prevLargeSize int64
	largeSeeded   bool
}

// ProcessGCEvent derives GC metrics from one collection event.
//
// Every event records the heap ceiling gauge and a pause timer tagged with
// the GC category. The before/after space pairs are then classified by role:
//
//   - old generation growth counts as promoted bytes; shrinkage, or any
//     mark-sweep-compact event, refreshes the live data size gauge with the
//     after-size, and otherwise the cached previous value is re-emitted;
//   - young generation shrinkage counts reclaimed garbage toward the
//     allocation total;
//   - map and large object spaces contribute their growth relative to the
//     previous event's after-size.
//
// The allocation contributions of one event sum into a single counter
// increment. Events with none of the known spaces present still record the
// ceiling and pause.
func (c *Collector) ProcessGCEvent(ev source.GCEvent) {
	c.registry.Gauge(c.prefixed("gc.maxDataSize"), nil).Set(float64(ev.MaxHeapSize))

	elapsed := ev.Elapsed
	if elapsed < 0 {
		elapsed = 0
	}
	category := ev.Category
	if category == "" {
		category = source.GCUnknown
	}
	c.registry.Timer(c.prefixed("gc.pause"), map[string]string{"id": string(category)}).Record(elapsed)

	after := make(map[string]source.HeapSpace, len(ev.After))
	for _, space := range ev.After {
		after[space.Name] = space
	}

	var allocTotal int64
	allocDefined := false
	addAlloc := func(delta int64) {
		allocTotal += delta
		allocDefined = true
	}

	for _, before := range ev.Before {
		role, known := classifySpace(before.Name)
		if !known {
			continue
		}
		afterSpace, matched := after[before.Name]
		if !matched {
			continue
		}

		switch role {
		case RoleOld:
			if afterSpace.Used > before.Used {
				c.registry.Counter(c.prefixed("gc.promotionRate"), nil).Increment(afterSpace.Used - before.Used)
			}
			if afterSpace.Used < before.Used || category == source.GCMarkSweepCompact {
				c.gc.liveDataSize = float64(afterSpace.Used)
				c.gc.liveSeeded = true
				c.registry.Gauge(c.prefixed("gc.liveDataSize"), nil).Set(c.gc.liveDataSize)
			} else if c.gc.liveSeeded {
				c.registry.Gauge(c.prefixed("gc.liveDataSize"), nil).Set(c.gc.liveDataSize)
			}
		case RoleYoung:
			if before.Used > afterSpace.Used {
				addAlloc(before.Used - afterSpace.Used)
			}
		case RoleMap:
			if c.gc.mapSeeded && before.Used > c.gc.prevMapSize {
				addAlloc(before.Used - c.gc.prevMapSize)
			}
			c.gc.prevMapSize = afterSpace.Used
			c.gc.mapSeeded = true
		case RoleLarge:
			if c.gc.largeSeeded && before.Used > c.gc.prevLargeSize {
				addAlloc(before.Used - c.gc.prevLargeSize)
			}
			c.gc.prevLargeSize = afterSpace.Used
			c.gc.largeSeeded = true
		}
	}

	if allocDefined {
		c.registry.Counter(c.prefixed("gc.allocationRate"), nil).Increment(allocTotal)
	}
}
