package collector

import "github.com/Schera-ole/nodemetrics/internal/source"

// previousSample is the per-quantity state the delta engine keeps between
// observations: the last raw value and the timestamp it was taken at.
type previousSample struct {
	value int64
	at    source.HRTime
}

// DeltaEngine converts consecutive raw samples of monotonic quantities into
// rates and deltas. State is created lazily on the first observation of each
// quantity; the first observation only seeds state and emits nothing.
//
// Each quantity is sampled by exactly one periodic task, so the engine needs
// no locking.
type DeltaEngine struct {
	prev map[string]previousSample
}

// NewDeltaEngine creates an engine with no seeded quantities.
func NewDeltaEngine() *DeltaEngine {
	return &DeltaEngine{prev: make(map[string]previousSample)}
}

// RatePercent computes the share of elapsed wall time the quantity consumed:
// (current - previous) / elapsedMicros * 100. The raw values must be
// cumulative microsecond counters, as CPU user/system time is.
//
// The previous sample is always overwritten, whether or not a rate was
// emitted. ok is false on the first observation and whenever no wall time
// elapsed between samples.
func (e *DeltaEngine) RatePercent(name string, value int64, at source.HRTime) (rate float64, ok bool) {
	prev, seeded := e.prev[name]
	e.prev[name] = previousSample{value: value, at: at}
	if !seeded {
		return 0, false
	}
	micros := ElapsedMicros(prev.at, at)
	if micros <= 0 {
		return 0, false
	}
	return float64(value-prev.value) / float64(micros) * 100, true
}

// Delta computes the increase of a monotonic counter since the previous
// observation. A decreasing or unchanged value emits nothing: wrapped or
// reset counters are ignored rather than reported as negative deltas.
//
// The previous sample is always overwritten.
func (e *DeltaEngine) Delta(name string, value int64, at source.HRTime) (delta int64, ok bool) {
	prev, seeded := e.prev[name]
	e.prev[name] = previousSample{value: value, at: at}
	if !seeded || value <= prev.value {
		return 0, false
	}
	return value - prev.value, true
}
