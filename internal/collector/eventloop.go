package collector

import (
	"time"
)

// lagState holds the previous check's timestamp for the lag sampler.
type lagState struct {
	lastNanos int64
}

// sampleLag measures how late the periodic check fired relative to its
// configured period. Only positive drift is recorded; a check firing early
// or on schedule produces no sample. The timestamp is updated either way so
// one late firing doesn't poison the next measurement.
func (c *Collector) sampleLag() {
	now := c.runtime.Now().Nanos()
	lag := now - c.lag.lastNanos - c.config.LagPeriod.Nanoseconds()
	if lag > 0 {
		c.registry.Timer(c.prefixed("eventLoopLag"), nil).Record(time.Duration(lag))
	}
	c.lag.lastNanos = now
}

// utilizationState is the previous {timestamp, idle, active} snapshot of the
// loop monitor.
type utilizationState struct {
	seeded  bool
	atNanos int64
	idle    int64
	active  int64
}

// sampleUtilization reads the cumulative idle/active counters and emits the
// percentage of wall time the loop spent active since the previous snapshot.
// The first call only seeds state. The snapshot is always overwritten, even
// when nothing was emitted.
func (c *Collector) sampleUtilization() {
	monitor := c.loopMonitor
	if monitor == nil {
		return
	}
	usage, err := monitor.LoopUsage()
	if err != nil {
		c.logger.Debugf("event loop usage unavailable this cycle: %v", err)
		return
	}
	now := c.runtime.Now().Nanos()
	if c.util.seeded {
		deltaActive := usage.Active - c.util.active
		deltaWall := now - c.util.atNanos
		if deltaWall > 0 {
			c.registry.Gauge(c.prefixed("eventLoopUtilization"), nil).Set(100 * float64(deltaActive) / float64(deltaWall))
		}
	}
	c.util = utilizationState{seeded: true, atNanos: now, idle: usage.Idle, active: usage.Active}
}

// sampleRoundTrip schedules two chained yield points and records the total
// elapsed time until both have run. Unlike the lag sampler, which measures
// timer firing drift, this measures end-to-end scheduling responsiveness.
func (c *Collector) sampleRoundTrip() {
	start := c.runtime.Now().Nanos()
	c.yield(c.config.YieldPeriod, func() {
		c.yield(c.config.YieldPeriod, func() {
			elapsed := c.runtime.Now().Nanos() - start
			if elapsed < 0 {
				return
			}
			c.registry.Timer(c.prefixed("eventLoop"), nil).Record(time.Duration(elapsed))
		})
	})
}

func (c *Collector) yield(d time.Duration, fn func()) {
	if c.yielder != nil {
		c.yielder.Yield(d, fn)
		return
	}
	time.AfterFunc(d, fn)
}
