package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/Schera-ole/nodemetrics/internal/model"
)

func find(metrics []models.Metric, name string, tags map[string]string) (models.Metric, bool) {
	want := models.Key(name, tags)
	for _, m := range metrics {
		if models.Key(m.Name, m.Tags) == want {
			return m, true
		}
	}
	return models.Metric{}, false
}

func TestRegistry_InstrumentsAreReused(t *testing.T) {
	reg := New(nil)

	first := reg.Counter("allocations", map[string]string{"id": "young"})
	second := reg.Counter("allocations", map[string]string{"id": "young"})
	assert.Same(t, first, second)

	// A different tag set is a different instrument
	other := reg.Counter("allocations", map[string]string{"id": "old"})
	assert.NotSame(t, first, other)
}

func TestRegistry_BaseTagsMergedIntoEveryInstrument(t *testing.T) {
	reg := New(map[string]string{"nodejs.version": "v20.11.0"})

	reg.Gauge("rss", nil).Set(1024)
	reg.Counter("allocations", map[string]string{"id": "young"}).Increment(5)

	snapshot := reg.Snapshot()

	rss, ok := find(snapshot, "rss", map[string]string{"nodejs.version": "v20.11.0"})
	require.True(t, ok)
	assert.Equal(t, 1024.0, rss.Value)

	alloc, ok := find(snapshot, "allocations", map[string]string{
		"nodejs.version": "v20.11.0",
		"id":             "young",
	})
	require.True(t, ok)
	assert.Equal(t, int64(5), alloc.Value)
}

func TestCounter_IgnoresNonPositiveDeltas(t *testing.T) {
	reg := New(nil)
	counter := reg.Counter("promotions", nil)

	counter.Increment(0)
	counter.Increment(-10)
	assert.Empty(t, reg.Snapshot())

	counter.Increment(3)
	counter.Increment(4)
	snapshot := reg.Snapshot()
	m, ok := find(snapshot, "promotions", nil)
	require.True(t, ok)
	assert.Equal(t, int64(7), m.Value)
}

func TestSnapshot_DrainsCountersAndTimersKeepsGauges(t *testing.T) {
	reg := New(nil)

	reg.Counter("allocations", nil).Increment(100)
	reg.Gauge("rss", nil).Set(2048)
	reg.Timer("pause", nil).Record(5 * time.Millisecond)

	first := reg.Snapshot()
	assert.Len(t, first, 5)

	// Counters and timers were reset; the gauge carries its last value
	second := reg.Snapshot()
	require.Len(t, second, 1)
	assert.Equal(t, "rss", second[0].Name)
	assert.Equal(t, 2048.0, second[0].Value)
}

func TestSnapshot_UnsetGaugeIsExcluded(t *testing.T) {
	reg := New(nil)

	// Obtaining the instrument is not writing to it
	reg.Gauge("heapUsed", nil)
	assert.Empty(t, reg.Snapshot())

	// A written zero is a real value
	reg.Gauge("heapUsed", nil).Set(0)
	snapshot := reg.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, 0.0, snapshot[0].Value)
}

func TestTimer_FlattensToThreeSeries(t *testing.T) {
	reg := New(nil)
	timer := reg.Timer("pause", map[string]string{"id": "scavenge"})

	timer.Record(10 * time.Millisecond)
	timer.Record(30 * time.Millisecond)
	timer.Record(20 * time.Millisecond)

	snapshot := reg.Snapshot()
	tags := map[string]string{"id": "scavenge"}

	count, ok := find(snapshot, "pause.count", tags)
	require.True(t, ok)
	assert.Equal(t, int64(3), count.Value)

	total, ok := find(snapshot, "pause.totalTime", tags)
	require.True(t, ok)
	assert.InDelta(t, 0.06, total.Value.(float64), 1e-9)

	max, ok := find(snapshot, "pause.max", tags)
	require.True(t, ok)
	assert.InDelta(t, 0.03, max.Value.(float64), 1e-9)

	// An idle timer produces no series at all
	assert.Empty(t, reg.Snapshot())
}
