package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Schera-ole/nodemetrics/internal/source"
)

func TestElapsedMicros(t *testing.T) {
	// Plain second boundary
	assert.Equal(t, int64(1_000_000), ElapsedMicros(
		source.HRTime{Sec: 2, Nsec: 0},
		source.HRTime{Sec: 3, Nsec: 0},
	))

	// Nanosecond borrow: later timestamp has the smaller nanosecond component
	assert.Equal(t, int64(999_999), ElapsedMicros(
		source.HRTime{Sec: 5, Nsec: 500},
		source.HRTime{Sec: 6, Nsec: 400},
	))

	// Sub-second elapsed, no borrow
	assert.Equal(t, int64(250), ElapsedMicros(
		source.HRTime{Sec: 10, Nsec: 100_000},
		source.HRTime{Sec: 10, Nsec: 350_000},
	))

	// A long sampling gap must stay exact
	assert.Equal(t, int64(3600_000_000), ElapsedMicros(
		source.HRTime{Sec: 0, Nsec: 0},
		source.HRTime{Sec: 3600, Nsec: 0},
	))

	// Borrow across a multi-second gap
	assert.Equal(t, int64(1_999_999), ElapsedMicros(
		source.HRTime{Sec: 0, Nsec: 999_999_000},
		source.HRTime{Sec: 2, Nsec: 999_998_000},
	))
}

func TestHRTimeNanos(t *testing.T) {
	assert.Equal(t, int64(1_500_000_000), source.HRTime{Sec: 1, Nsec: 500_000_000}.Nanos())
}
