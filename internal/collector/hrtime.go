package collector

import "github.com/Schera-ole/nodemetrics/internal/source"

// ElapsedMicros computes the elapsed time in microseconds between two high
// resolution timestamps.
//
// The subtraction is carried out in integer seconds and nanoseconds with an
// explicit borrow when the later nanosecond component is smaller, so a
// sampling gap of any length stays numerically exact and never picks up an
// off-by-one-second error from floating point rounding.
func ElapsedMicros(from, to source.HRTime) int64 {
	sec := to.Sec - from.Sec
	nsec := to.Nsec - from.Nsec
	if nsec < 0 {
		nsec += 1e9
		sec--
	}
	return sec*1e6 + nsec/1e3
}
