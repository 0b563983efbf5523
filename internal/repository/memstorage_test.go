package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schera-ole/nodemetrics/internal/config"
	internalerrors "github.com/Schera-ole/nodemetrics/internal/errors"
	models "github.com/Schera-ole/nodemetrics/internal/model"
)

func TestNewMemStorage(t *testing.T) {
	storage := NewMemStorage()
	assert.NotNil(t, storage)
	assert.NotNil(t, storage.gauges)
	assert.NotNil(t, storage.counters)
	assert.NotNil(t, storage.series)
}

func TestMemStorage_SetAndGetMetric(t *testing.T) {
	storage := NewMemStorage()
	ctx := context.Background()

	// Test setting and getting a gauge metric
	err := storage.SetMetric(ctx, models.Metric{Name: "nodejs.rss", Type: config.GaugeType, Value: 42.5})
	require.NoError(t, err)

	val, err := storage.GetMetricByKey(ctx, models.Key("nodejs.rss", nil))
	require.NoError(t, err)
	assert.Equal(t, 42.5, val)

	// Test setting and getting a counter metric
	err = storage.SetMetric(ctx, models.Metric{Name: "nodejs.gc.allocationRate", Type: config.CounterType, Value: int64(10)})
	require.NoError(t, err)

	val, err = storage.GetMetricByKey(ctx, models.Key("nodejs.gc.allocationRate", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(10), val)

	// Test getting a non-existent metric
	_, err = storage.GetMetricByKey(ctx, models.Key("nonExistent", nil))
	assert.ErrorIs(t, err, internalerrors.ErrMetricNotFound)
}

func TestMemStorage_SetMetricIncrementCounter(t *testing.T) {
	storage := NewMemStorage()
	ctx := context.Background()

	// Set initial counter value
	err := storage.SetMetric(ctx, models.Metric{Name: "nodejs.gc.promotionRate", Type: config.CounterType, Value: int64(5)})
	require.NoError(t, err)

	// Increment the counter
	err = storage.SetMetric(ctx, models.Metric{Name: "nodejs.gc.promotionRate", Type: config.CounterType, Value: int64(3)})
	require.NoError(t, err)

	// Check that the counter was incremented
	val, err := storage.GetMetricByKey(ctx, models.Key("nodejs.gc.promotionRate", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(8), val)
}

func TestMemStorage_TaggedSeriesAreDistinct(t *testing.T) {
	storage := NewMemStorage()
	ctx := context.Background()

	// Same name, different tag sets
	err := storage.SetMetric(ctx, models.Metric{
		Name:  "nodejs.cpuUsage",
		Type:  config.GaugeType,
		Tags:  map[string]string{"id": "user"},
		Value: 10.0,
	})
	require.NoError(t, err)

	err = storage.SetMetric(ctx, models.Metric{
		Name:  "nodejs.cpuUsage",
		Type:  config.GaugeType,
		Tags:  map[string]string{"id": "system"},
		Value: 5.0,
	})
	require.NoError(t, err)

	val, err := storage.GetMetricByKey(ctx, models.Key("nodejs.cpuUsage", map[string]string{"id": "user"}))
	require.NoError(t, err)
	assert.Equal(t, 10.0, val)

	val, err = storage.GetMetricByKey(ctx, models.Key("nodejs.cpuUsage", map[string]string{"id": "system"}))
	require.NoError(t, err)
	assert.Equal(t, 5.0, val)
}

func TestMemStorage_DeleteMetric(t *testing.T) {
	storage := NewMemStorage()
	ctx := context.Background()

	// Add a gauge metric
	err := storage.SetMetric(ctx, models.Metric{Name: "nodejs.heapUsed", Type: config.GaugeType, Value: 42.5})
	require.NoError(t, err)

	key := models.Key("nodejs.heapUsed", nil)

	// Verify it exists
	_, err = storage.GetMetricByKey(ctx, key)
	require.NoError(t, err)

	// Delete the metric
	err = storage.DeleteMetric(ctx, key)
	require.NoError(t, err)

	// Verify it's deleted
	_, err = storage.GetMetricByKey(ctx, key)
	assert.Error(t, err)
}

func TestMemStorage_ListMetrics(t *testing.T) {
	storage := NewMemStorage()
	ctx := context.Background()

	// Add some metrics
	err := storage.SetMetric(ctx, models.Metric{Name: "nodejs.rss", Type: config.GaugeType, Value: 1.5})
	require.NoError(t, err)

	err = storage.SetMetric(ctx, models.Metric{Name: "nodejs.gc.allocationRate", Type: config.CounterType, Value: int64(10)})
	require.NoError(t, err)

	// List all metrics
	metrics, err := storage.ListMetrics(ctx)
	require.NoError(t, err)
	assert.Len(t, metrics, 2)

	// Check that both metrics are in the list
	foundGauge := false
	foundCounter := false
	for _, metric := range metrics {
		if metric.Name == "nodejs.rss" && metric.Type == config.GaugeType {
			assert.Equal(t, 1.5, metric.Value)
			foundGauge = true
		}
		if metric.Name == "nodejs.gc.allocationRate" && metric.Type == config.CounterType {
			assert.Equal(t, int64(10), metric.Value)
			foundCounter = true
		}
	}
	assert.True(t, foundGauge)
	assert.True(t, foundCounter)
}

func TestMemStorage_GetMetric(t *testing.T) {
	storage := NewMemStorage()
	ctx := context.Background()

	// Add a tagged gauge metric
	tags := map[string]string{"id": "old_gen"}
	err := storage.SetMetric(ctx, models.Metric{Name: "nodejs.spaceUsedSize", Type: config.GaugeType, Tags: tags, Value: 42.5})
	require.NoError(t, err)

	// Create a metrics DTO to query
	dto := models.MetricsDTO{
		ID:    "nodejs.spaceUsedSize",
		MType: config.GaugeType,
		Tags:  tags,
	}

	// Get the metric
	result, err := storage.GetMetric(ctx, dto)
	require.NoError(t, err)
	assert.Equal(t, "nodejs.spaceUsedSize", result.ID)
	assert.Equal(t, config.GaugeType, result.MType)
	assert.Equal(t, tags, result.Tags)
	require.NotNil(t, result.Value)
	assert.Equal(t, 42.5, *result.Value)

	// Try to get a non-existent metric
	dtoNonExistent := models.MetricsDTO{
		ID:    "nonExistent",
		MType: config.GaugeType,
	}

	_, err = storage.GetMetric(ctx, dtoNonExistent)
	assert.ErrorIs(t, err, internalerrors.ErrMetricNotFound)
}

func TestMemStorage_Ping(t *testing.T) {
	storage := NewMemStorage()
	ctx := context.Background()

	// Ping should always succeed for MemStorage
	err := storage.Ping(ctx)
	assert.NoError(t, err)
}

func TestMemStorage_Close(t *testing.T) {
	storage := NewMemStorage()

	// Close should always succeed for MemStorage
	err := storage.Close()
	assert.NoError(t, err)
}

func TestMemStorage_SetMetrics(t *testing.T) {
	storage := NewMemStorage()
	ctx := context.Background()

	// Prepare batch of metrics
	metrics := []models.Metric{
		{Name: "nodejs.heapTotal", Type: config.GaugeType, Value: 3.14},
		{Name: "nodejs.gc.allocationRate", Type: config.CounterType, Value: int64(42)},
	}

	// Set metrics in batch
	err := storage.SetMetrics(ctx, metrics)
	require.NoError(t, err)

	// Verify gauge was set
	val, err := storage.GetMetricByKey(ctx, models.Key("nodejs.heapTotal", nil))
	require.NoError(t, err)
	assert.Equal(t, 3.14, val)

	// Verify counter was set
	val, err = storage.GetMetricByKey(ctx, models.Key("nodejs.gc.allocationRate", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(42), val)
}
