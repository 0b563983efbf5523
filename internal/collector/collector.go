// Package collector derives runtime metrics from raw samples: CPU rates from
// cumulative usage counters, GC rates from before/after heap snapshots, and
// event loop health from repeated timestamp sampling.
//
// The hard part lives here rather than in the samplers themselves: turning
// noisy, irregularly sampled monotonic counters into stable rates across
// sampling gaps, state resets and partial data.
package collector

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Schera-ole/nodemetrics/internal/config"
	internalerrors "github.com/Schera-ole/nodemetrics/internal/errors"
	"github.com/Schera-ole/nodemetrics/internal/registry"
	"github.com/Schera-ole/nodemetrics/internal/source"
)

// Config controls sampling periods and metric naming.
type Config struct {
	// Prefix is prepended to runtime metric names, "nodejs" by default.
	// File descriptor metrics are published unprefixed.
	Prefix string

	RuntimeInterval     time.Duration
	FDInterval          time.Duration
	LagInterval         time.Duration
	UtilizationInterval time.Duration
	RoundTripInterval   time.Duration

	// LagPeriod is the expected interval subtracted by the lag sampler. It
	// defaults to LagInterval; keeping it explicit avoids the hidden-literal
	// mismatch between the subtraction and the actual timer period.
	LagPeriod time.Duration

	// YieldPeriod is the delay of each chained yield in a round trip
	// measurement.
	YieldPeriod time.Duration
}

// DefaultConfig returns the standard sampling configuration.
func DefaultConfig() Config {
	return Config{
		Prefix:              config.DefaultMetricPrefix,
		RuntimeInterval:     config.DefaultRuntimeInterval,
		FDInterval:          config.DefaultFDInterval,
		LagInterval:         config.DefaultLagInterval,
		UtilizationInterval: config.DefaultUtilizationInterval,
		RoundTripInterval:   config.DefaultRoundTripInterval,
		LagPeriod:           config.DefaultLagInterval,
		YieldPeriod:         config.DefaultYieldPeriod,
	}
}

func (cfg *Config) fillDefaults() {
	defaults := DefaultConfig()
	if cfg.Prefix == "" {
		cfg.Prefix = defaults.Prefix
	}
	if cfg.RuntimeInterval <= 0 {
		cfg.RuntimeInterval = defaults.RuntimeInterval
	}
	if cfg.FDInterval <= 0 {
		cfg.FDInterval = defaults.FDInterval
	}
	if cfg.LagInterval <= 0 {
		cfg.LagInterval = defaults.LagInterval
	}
	if cfg.UtilizationInterval <= 0 {
		cfg.UtilizationInterval = defaults.UtilizationInterval
	}
	if cfg.RoundTripInterval <= 0 {
		cfg.RoundTripInterval = defaults.RoundTripInterval
	}
	if cfg.LagPeriod <= 0 {
		cfg.LagPeriod = cfg.LagInterval
	}
	if cfg.YieldPeriod <= 0 {
		cfg.YieldPeriod = defaults.YieldPeriod
	}
}

// task is one periodic sampling loop and the channel that stops it.
type task struct {
	ticker *time.Ticker
	done   chan struct{}
}

// Collector owns the sampling tasks and all cross-sample derivation state.
//
// Each periodic task touches only its own state, so the samplers need no
// locking between each other; GC events arrive asynchronously and are
// serialized through a single consumer goroutine.
type Collector struct {
	logger   *zap.SugaredLogger
	registry *registry.Registry
	runtime  source.Runtime
	config   Config

	loopMonitor source.LoopMonitor
	gcNotifier  source.GCNotifier
	yielder     source.Yielder

	mu      sync.Mutex
	running bool
	tasks   []*task

	unregisterGC func()
	gcDone       chan struct{}

	engine *DeltaEngine
	gc     gcState
	lag    lagState
	util   utilizationState
}

// New creates a collector over the given runtime and verifies the required
// capabilities up front. A runtime that cannot report CPU usage or heap space
// statistics fails construction immediately instead of failing sample by
// sample later.
func New(rt source.Runtime, reg *registry.Registry, cfg Config, logger *zap.SugaredLogger) (*Collector, error) {
	cfg.fillDefaults()

	if _, err := rt.CPUUsage(); err != nil {
		return nil, fmt.Errorf("%w: cpu usage: %v", internalerrors.ErrUnsupportedRuntime, err)
	}
	if _, err := rt.HeapSpaceStatistics(); err != nil {
		return nil, fmt.Errorf("%w: heap space statistics: %v", internalerrors.ErrUnsupportedRuntime, err)
	}

	c := &Collector{
		logger:   logger,
		registry: reg,
		runtime:  rt,
		config:   cfg,
		engine:   NewDeltaEngine(),
	}
	if monitor, ok := rt.(source.LoopMonitor); ok {
		c.loopMonitor = monitor
	} else {
		logger.Debugf("runtime has no event loop utilization capability, sampler disabled")
	}
	if notifier, ok := rt.(source.GCNotifier); ok {
		c.gcNotifier = notifier
	} else {
		logger.Debugf("runtime has no GC notification capability, GC metrics disabled")
	}
	if yielder, ok := rt.(source.Yielder); ok {
		c.yielder = yielder
	}
	return c, nil
}

// Start seeds the derivation state and registers all periodic sampling
// tasks. Calling Start on a running collector is a no-op.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.logger.Infof("collector already running, start ignored")
		return
	}

	// Seed the first-sample baselines synchronously so the first periodic
	// firing diffs against start time rather than emitting a spurious value.
	now := c.runtime.Now()
	if usage, err := c.runtime.CPUUsage(); err == nil {
		c.engine.RatePercent("cpu.user", usage.User, now)
		c.engine.RatePercent("cpu.system", usage.System, now)
	}
	c.lag = lagState{lastNanos: now.Nanos()}
	c.util = utilizationState{}
	if c.loopMonitor != nil {
		c.sampleUtilization()
	}

	if c.gcNotifier != nil {
		events := make(chan source.GCEvent, 128)
		done := make(chan struct{})
		c.gcDone = done
		go func() {
			for {
				select {
				case ev := <-events:
					c.ProcessGCEvent(ev)
				case <-done:
					return
				}
			}
		}()
		c.unregisterGC = c.gcNotifier.OnGCEvent(func(ev source.GCEvent) {
			select {
			case events <- ev:
			default:
				c.logger.Debugf("GC event dropped, processing backlog full")
			}
		})
	}

	c.schedule(c.config.RuntimeInterval, c.sampleRuntime)
	c.schedule(c.config.FDInterval, c.sampleFD)
	c.schedule(c.config.LagInterval, c.sampleLag)
	if c.loopMonitor != nil {
		c.schedule(c.config.UtilizationInterval, c.sampleUtilization)
	}
	c.schedule(c.config.RoundTripInterval, c.sampleRoundTrip)

	c.running = true
	c.logger.Infof("collector started with %d sampling tasks", len(c.tasks))
}

// Stop cancels all periodic tasks and releases the GC registration. Calling
// Stop on a stopped collector is a no-op.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		c.logger.Infof("collector not running, stop ignored")
		return
	}
	for _, t := range c.tasks {
		t.ticker.Stop()
		close(t.done)
	}
	c.tasks = nil
	if c.unregisterGC != nil {
		c.unregisterGC()
		c.unregisterGC = nil
	}
	if c.gcDone != nil {
		close(c.gcDone)
		c.gcDone = nil
	}
	c.running = false
	c.logger.Infof("collector stopped")
}

// Running reports whether the collector is started.
func (c *Collector) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// TaskCount returns the number of registered periodic tasks.
func (c *Collector) TaskCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

func (c *Collector) schedule(interval time.Duration, fn func()) {
	t := &task{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	c.tasks = append(c.tasks, t)
	go func() {
		for {
			select {
			case <-t.ticker.C:
				fn()
			case <-t.done:
				return
			}
		}
	}()
}

func (c *Collector) prefixed(name string) string {
	return c.config.Prefix + "." + name
}

// sampleRuntime takes one pass over the point-in-time runtime capabilities:
// memory usage, CPU usage rates, heap statistics and heap space statistics.
// A capability failing this cycle only skips its own metrics; the next cycle
// starts fresh.
func (c *Collector) sampleRuntime() {
	if mem, err := c.runtime.MemoryUsage(); err == nil {
		c.registry.Gauge(c.prefixed("rss"), nil).Set(float64(mem.RSS))
		c.registry.Gauge(c.prefixed("heapTotal"), nil).Set(float64(mem.HeapTotal))
		c.registry.Gauge(c.prefixed("heapUsed"), nil).Set(float64(mem.HeapUsed))
		c.registry.Gauge(c.prefixed("external"), nil).Set(float64(mem.External))
	} else {
		c.logger.Debugf("memory usage unavailable this cycle: %v", err)
	}

	if usage, err := c.runtime.CPUUsage(); err == nil {
		now := c.runtime.Now()
		if rate, ok := c.engine.RatePercent("cpu.user", usage.User, now); ok {
			c.registry.Gauge(c.prefixed("cpuUsage"), map[string]string{"id": "user"}).Set(rate)
		}
		if rate, ok := c.engine.RatePercent("cpu.system", usage.System, now); ok {
			c.registry.Gauge(c.prefixed("cpuUsage"), map[string]string{"id": "system"}).Set(rate)
		}
	} else {
		c.logger.Debugf("cpu usage unavailable this cycle: %v", err)
	}

	if stats, err := c.runtime.HeapStatistics(); err == nil {
		for _, stat := range stats {
			c.registry.Gauge(c.prefixed(camelCase(stat.Name)), nil).Set(float64(stat.Value))
		}
	} else {
		c.logger.Debugf("heap statistics unavailable this cycle: %v", err)
	}

	if spaces, err := c.runtime.HeapSpaceStatistics(); err == nil {
		for _, space := range spaces {
			role, known := classifySpace(space.Name)
			if !known {
				continue
			}
			tags := map[string]string{"id": string(role)}
			c.registry.Gauge(c.prefixed("spaceSize"), tags).Set(float64(space.Size))
			c.registry.Gauge(c.prefixed("spaceUsedSize"), tags).Set(float64(space.Used))
			c.registry.Gauge(c.prefixed("spaceAvailableSize"), tags).Set(float64(space.Available))
			c.registry.Gauge(c.prefixed("physicalSpaceSize"), tags).Set(float64(space.Physical))
		}
	} else {
		c.logger.Debugf("heap space statistics unavailable this cycle: %v", err)
	}
}

// sampleFD records the open descriptor count and, when the runtime reports a
// ceiling, the maximum. An absent ceiling omits the metric for the cycle.
func (c *Collector) sampleFD() {
	activity, err := c.runtime.FDActivity()
	if err != nil {
		c.logger.Debugf("fd activity unavailable this cycle: %v", err)
		return
	}
	c.registry.Gauge("openFileDescriptorsCount", nil).Set(float64(activity.Used))
	if activity.Max != nil {
		c.registry.Gauge("maxFileDescriptorsCount", nil).Set(float64(*activity.Max))
	}
}
