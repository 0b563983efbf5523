package collector

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internalerrors "github.com/Schera-ole/nodemetrics/internal/errors"
	models "github.com/Schera-ole/nodemetrics/internal/model"
	"github.com/Schera-ole/nodemetrics/internal/registry"
	"github.com/Schera-ole/nodemetrics/internal/source"
)

// fakeRuntime is a scriptable source.Runtime. Tests mutate its fields
// between sampling calls.
type fakeRuntime struct {
	now    source.HRTime
	cpu    source.CPUUsage
	cpuErr error
	mem    source.MemoryUsage
	memErr error
	heap   []source.HeapStat
	spaces []source.HeapSpace
	spcErr error
	fd     source.FDActivity
	fdErr  error
}

func (f *fakeRuntime) Version() string { return "v20.11.0" }

func (f *fakeRuntime) Now() source.HRTime { return f.now }

func (f *fakeRuntime) CPUUsage() (source.CPUUsage, error) { return f.cpu, f.cpuErr }

func (f *fakeRuntime) MemoryUsage() (source.MemoryUsage, error) { return f.mem, f.memErr }

func (f *fakeRuntime) HeapStatistics() ([]source.HeapStat, error) { return f.heap, nil }

func (f *fakeRuntime) HeapSpaceStatistics() ([]source.HeapSpace, error) { return f.spaces, f.spcErr }

func (f *fakeRuntime) FDActivity() (source.FDActivity, error) { return f.fd, f.fdErr }

// fakeLoopRuntime adds the optional event loop utilization capability.
type fakeLoopRuntime struct {
	*fakeRuntime
	usage    source.LoopUsage
	usageErr error
}

func (f *fakeLoopRuntime) LoopUsage() (source.LoopUsage, error) { return f.usage, f.usageErr }

// fakeYieldRuntime runs yields synchronously so round trips complete inline.
type fakeYieldRuntime struct {
	*fakeRuntime
	perYieldNanos int64
}

func (f *fakeYieldRuntime) Yield(d time.Duration, fn func()) {
	f.now = source.HRTime{Sec: f.now.Sec, Nsec: f.now.Nsec + f.perYieldNanos}
	fn()
}

func newTestCollector(t *testing.T, rt source.Runtime) (*Collector, *registry.Registry) {
	t.Helper()
	reg := registry.New(nil)
	c, err := New(rt, reg, DefaultConfig(), zap.NewNop().Sugar())
	require.NoError(t, err)
	return c, reg
}

func findMetric(metrics []models.Metric, name string, tags map[string]string) (models.Metric, bool) {
	want := models.Key(name, tags)
	for _, m := range metrics {
		if models.Key(m.Name, m.Tags) == want {
			return m, true
		}
	}
	return models.Metric{}, false
}

func TestNew_UnsupportedRuntime(t *testing.T) {
	rt := &fakeRuntime{cpuErr: errors.New("no cpu usage on this platform")}
	_, err := New(rt, registry.New(nil), DefaultConfig(), zap.NewNop().Sugar())
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerrors.ErrUnsupportedRuntime))

	rt = &fakeRuntime{spcErr: errors.New("no heap introspection")}
	_, err = New(rt, registry.New(nil), DefaultConfig(), zap.NewNop().Sugar())
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerrors.ErrUnsupportedRuntime))
}

func TestCollector_StartStopIdempotent(t *testing.T) {
	c, _ := newTestCollector(t, &fakeRuntime{})

	assert.False(t, c.Running())
	c.Start()
	assert.True(t, c.Running())
	registered := c.TaskCount()
	require.Greater(t, registered, 0)

	// A second start must not register duplicate tasks
	c.Start()
	assert.Equal(t, registered, c.TaskCount())

	c.Stop()
	assert.False(t, c.Running())
	assert.Equal(t, 0, c.TaskCount())

	// A second stop is a no-op
	c.Stop()
	assert.False(t, c.Running())
}

func TestCollector_RestartRegistersFreshTasks(t *testing.T) {
	c, _ := newTestCollector(t, &fakeRuntime{})
	c.Start()
	registered := c.TaskCount()
	c.Stop()

	c.Start()
	assert.Equal(t, registered, c.TaskCount())
	c.Stop()
}

func TestSampleRuntime_MemoryAndCPU(t *testing.T) {
	rt := &fakeRuntime{
		now: source.HRTime{Sec: 0, Nsec: 0},
		cpu: source.CPUUsage{User: 0, System: 0},
		mem: source.MemoryUsage{RSS: 100, HeapTotal: 80, HeapUsed: 60, External: 10},
	}
	c, reg := newTestCollector(t, rt)

	// First pass seeds the CPU baselines, so only point-in-time gauges emit
	c.sampleRuntime()
	snapshot := reg.Snapshot()
	rss, ok := findMetric(snapshot, "nodejs.rss", nil)
	require.True(t, ok)
	assert.Equal(t, 100.0, rss.Value)
	_, ok = findMetric(snapshot, "nodejs.cpuUsage", map[string]string{"id": "user"})
	assert.False(t, ok)

	// 10 seconds later the process consumed 1s user, 0.5s system CPU
	rt.now = source.HRTime{Sec: 10, Nsec: 0}
	rt.cpu = source.CPUUsage{User: 1_000_000, System: 500_000}
	c.sampleRuntime()
	snapshot = reg.Snapshot()

	user, ok := findMetric(snapshot, "nodejs.cpuUsage", map[string]string{"id": "user"})
	require.True(t, ok)
	assert.InDelta(t, 10.0, user.Value.(float64), 1e-9)

	system, ok := findMetric(snapshot, "nodejs.cpuUsage", map[string]string{"id": "system"})
	require.True(t, ok)
	assert.InDelta(t, 5.0, system.Value.(float64), 1e-9)
}

func TestSampleRuntime_HeapStatistics(t *testing.T) {
	rt := &fakeRuntime{
		heap: []source.HeapStat{
			{Name: "total_heap_size", Value: 4096},
			{Name: "number_of_native_contexts", Value: 2},
		},
	}
	c, reg := newTestCollector(t, rt)
	c.sampleRuntime()
	snapshot := reg.Snapshot()

	total, ok := findMetric(snapshot, "nodejs.totalHeapSize", nil)
	require.True(t, ok)
	assert.Equal(t, 4096.0, total.Value)

	contexts, ok := findMetric(snapshot, "nodejs.numberOfNativeContexts", nil)
	require.True(t, ok)
	assert.Equal(t, 2.0, contexts.Value)
}

func TestSampleRuntime_HeapSpaces(t *testing.T) {
	rt := &fakeRuntime{
		spaces: []source.HeapSpace{
			{Name: "old_space", Size: 1000, Used: 700, Available: 300, Physical: 900},
			{Name: "read_only_space", Size: 50, Used: 50},
		},
	}
	c, reg := newTestCollector(t, rt)
	c.sampleRuntime()
	snapshot := reg.Snapshot()

	oldTags := map[string]string{"id": "old_gen"}
	used, ok := findMetric(snapshot, "nodejs.spaceUsedSize", oldTags)
	require.True(t, ok)
	assert.Equal(t, 700.0, used.Value)

	// Unknown space names don't produce series
	for _, m := range snapshot {
		assert.NotEqual(t, "read_only_space", m.Tags["id"])
	}
}

func TestSampleFD(t *testing.T) {
	rt := &fakeRuntime{fd: source.FDActivity{Used: 1, Max: nil}}
	c, reg := newTestCollector(t, rt)

	c.sampleFD()
	snapshot := reg.Snapshot()

	used, ok := findMetric(snapshot, "openFileDescriptorsCount", nil)
	require.True(t, ok)
	assert.Equal(t, 1.0, used.Value)

	// Without a ceiling, no max metric is emitted
	_, ok = findMetric(snapshot, "maxFileDescriptorsCount", nil)
	assert.False(t, ok)

	max := int64(1024)
	rt.fd = source.FDActivity{Used: 3, Max: &max}
	c.sampleFD()
	snapshot = reg.Snapshot()

	ceiling, ok := findMetric(snapshot, "maxFileDescriptorsCount", nil)
	require.True(t, ok)
	assert.Equal(t, 1024.0, ceiling.Value)
}

func TestSampleRuntime_PartialFailureSkipsOnlyItsMetrics(t *testing.T) {
	rt := &fakeRuntime{
		memErr: errors.New("transient failure"),
		heap:   []source.HeapStat{{Name: "used_heap_size", Value: 7}},
	}
	c, reg := newTestCollector(t, rt)
	c.sampleRuntime()
	snapshot := reg.Snapshot()

	_, ok := findMetric(snapshot, "nodejs.rss", nil)
	assert.False(t, ok)

	used, ok := findMetric(snapshot, "nodejs.usedHeapSize", nil)
	require.True(t, ok)
	assert.Equal(t, 7.0, used.Value)
}
