// Package registry provides the in-process metric instruments the collector
// writes into: tagged counters, gauges and timers, with a snapshot operation
// that drains accumulated values for reporting.
package registry

import (
	"sync"
	"time"

	models "github.com/Schera-ole/nodemetrics/internal/model"
)

// Counter accumulates increments between snapshots.
type Counter struct {
	mu    sync.Mutex
	name  string
	tags  map[string]string
	value int64
}

// Increment adds delta to the counter. Non-positive deltas are ignored.
func (c *Counter) Increment(delta int64) {
	if delta <= 0 {
		return
	}
	c.mu.Lock()
	c.value += delta
	c.mu.Unlock()
}

// Gauge holds the last value written to it.
type Gauge struct {
	mu    sync.Mutex
	name  string
	tags  map[string]string
	value float64
	set   bool
}

// Set overwrites the gauge value.
func (g *Gauge) Set(value float64) {
	g.mu.Lock()
	g.value = value
	g.set = true
	g.mu.Unlock()
}

// Timer accumulates duration samples between snapshots.
type Timer struct {
	mu    sync.Mutex
	name  string
	tags  map[string]string
	count int64
	total float64
	max   float64
}

// Record adds one duration sample to the timer.
func (t *Timer) Record(d time.Duration) {
	seconds := d.Seconds()
	t.mu.Lock()
	t.count++
	t.total += seconds
	if seconds > t.max {
		t.max = seconds
	}
	t.mu.Unlock()
}

// Registry hands out instruments keyed by name and tag set. Every instrument
// carries the registry's base tags (the runtime version identifier) merged
// with its own.
type Registry struct {
	mu       sync.Mutex
	baseTags map[string]string
	counters map[string]*Counter
	gauges   map[string]*Gauge
	timers   map[string]*Timer
}

// New creates a registry. The base tags are attached to every instrument.
func New(baseTags map[string]string) *Registry {
	return &Registry{
		baseTags: baseTags,
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
		timers:   make(map[string]*Timer),
	}
}

func (r *Registry) mergeTags(tags map[string]string) map[string]string {
	merged := make(map[string]string, len(r.baseTags)+len(tags))
	for k, v := range r.baseTags {
		merged[k] = v
	}
	for k, v := range tags {
		merged[k] = v
	}
	return merged
}

// Counter returns the counter registered under name and tags, creating it on
// first use.
func (r *Registry) Counter(name string, tags map[string]string) *Counter {
	merged := r.mergeTags(tags)
	key := models.Key(name, merged)
	r.mu.Lock()
	defer r.mu.Unlock()
	counter, exists := r.counters[key]
	if !exists {
		counter = &Counter{name: name, tags: merged}
		r.counters[key] = counter
	}
	return counter
}

// Gauge returns the gauge registered under name and tags, creating it on
// first use.
func (r *Registry) Gauge(name string, tags map[string]string) *Gauge {
	merged := r.mergeTags(tags)
	key := models.Key(name, merged)
	r.mu.Lock()
	defer r.mu.Unlock()
	gauge, exists := r.gauges[key]
	if !exists {
		gauge = &Gauge{name: name, tags: merged}
		r.gauges[key] = gauge
	}
	return gauge
}

// Timer returns the timer registered under name and tags, creating it on
// first use.
func (r *Registry) Timer(name string, tags map[string]string) *Timer {
	merged := r.mergeTags(tags)
	key := models.Key(name, merged)
	r.mu.Lock()
	defer r.mu.Unlock()
	timer, exists := r.timers[key]
	if !exists {
		timer = &Timer{name: name, tags: merged}
		r.timers[key] = timer
	}
	return timer
}

// Snapshot returns all accumulated metric values and resets counters and
// timers, so a reporting cycle ships deltas since the previous cycle. Gauges
// keep their last value and are included only once something was written.
//
// Timers flatten into three series: <name>.count, <name>.totalTime and
// <name>.max.
func (r *Registry) Snapshot() []models.Metric {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []models.Metric
	for _, counter := range r.counters {
		counter.mu.Lock()
		value := counter.value
		counter.value = 0
		counter.mu.Unlock()
		if value == 0 {
			continue
		}
		result = append(result, models.Metric{
			Name:  counter.name,
			Type:  models.Counter,
			Tags:  counter.tags,
			Value: value,
		})
	}
	for _, gauge := range r.gauges {
		gauge.mu.Lock()
		value, set := gauge.value, gauge.set
		gauge.mu.Unlock()
		if !set {
			continue
		}
		result = append(result, models.Metric{
			Name:  gauge.name,
			Type:  models.Gauge,
			Tags:  gauge.tags,
			Value: value,
		})
	}
	for _, timer := range r.timers {
		timer.mu.Lock()
		count, total, max := timer.count, timer.total, timer.max
		timer.count, timer.total, timer.max = 0, 0, 0
		timer.mu.Unlock()
		if count == 0 {
			continue
		}
		result = append(result,
			models.Metric{Name: timer.name + ".count", Type: models.Counter, Tags: timer.tags, Value: count},
			models.Metric{Name: timer.name + ".totalTime", Type: models.Gauge, Tags: timer.tags, Value: total},
			models.Metric{Name: timer.name + ".max", Type: models.Gauge, Tags: timer.tags, Value: max},
		)
	}
	return result
}
