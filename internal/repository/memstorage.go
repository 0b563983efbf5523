package repository

import (
	"context"
	"sync"

	"github.com/Schera-ole/nodemetrics/internal/config"
	internalerrors "github.com/Schera-ole/nodemetrics/internal/errors"
	models "github.com/Schera-ole/nodemetrics/internal/model"
)

// seriesInfo keeps the identity of a stored series so it can be reconstructed
// from its storage key.
type seriesInfo struct {
	name string
	typ  string
	tags map[string]string
}

// MemStorage implements the Repository interface using in-memory storage.
type MemStorage struct {
	// mu provides thread-safe access to the storage maps
	mu sync.RWMutex

	// gauges stores gauge metrics as key -> value pairs
	gauges map[string]float64

	// counters stores counter metrics as key -> value pairs
	counters map[string]int64

	// series stores the name, type and tags for each storage key
	series map[string]seriesInfo
}

// NewMemStorage creates a new in-memory storage instance.
func NewMemStorage() *MemStorage {

	return &MemStorage{
		gauges:   make(map[string]float64),
		counters: make(map[string]int64),
		series:   make(map[string]seriesInfo),
	}
}

func (ms *MemStorage) set(metric models.Metric) {
	key := models.Key(metric.Name, metric.Tags)
	switch metric.Type {
	case config.CounterType:
		val, ok := metric.Value.(int64)
		if !ok {
			return
		}
		ms.counters[key] += val
		ms.series[key] = seriesInfo{name: metric.Name, typ: metric.Type, tags: metric.Tags}
	case config.GaugeType:
		val, ok := metric.Value.(float64)
		if !ok {
			return
		}
		ms.gauges[key] = val
		ms.series[key] = seriesInfo{name: metric.Name, typ: metric.Type, tags: metric.Tags}
	}
}

// SetMetric stores a single metric value in memory.
//
// For counters, it adds the value to the existing counter (or creates a new
// one). For gauges, it replaces the existing value (or creates a new one).
func (ms *MemStorage) SetMetric(ctx context.Context, metric models.Metric) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.set(metric)
	return nil
}

// SetMetrics stores multiple metrics in memory.
func (ms *MemStorage) SetMetrics(ctx context.Context, metrics []models.Metric) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, metric := range metrics {
		ms.set(metric)
	}
	return nil
}

// DeleteMetric removes a metric series from memory storage.
func (ms *MemStorage) DeleteMetric(ctx context.Context, key string) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.gauges, key)
	delete(ms.counters, key)
	delete(ms.series, key)
	return nil
}

// ListMetrics returns all metrics stored in memory.
func (ms *MemStorage) ListMetrics(ctx context.Context) ([]models.Metric, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	var result []models.Metric

	for key, info := range ms.series {
		var value any

		switch info.typ {
		case config.GaugeType:
			value = ms.gauges[key]
		case config.CounterType:
			value = ms.counters[key]
		default:
			continue
		}

		result = append(result, models.Metric{
			Name:  info.name,
			Type:  info.typ,
			Tags:  info.tags,
			Value: value,
		})
	}
	return result, nil
}

// GetMetric retrieves a single metric by its DTO.
//
// The series is looked up by the DTO's name and tag set; the response DTO
// carries the current value.
func (ms *MemStorage) GetMetric(ctx context.Context, metrics models.MetricsDTO) (models.MetricsDTO, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	key := models.Key(metrics.ID, metrics.Tags)
	info, exists := ms.series[key]
	if !exists {
		return models.MetricsDTO{}, internalerrors.ErrMetricNotFound
	}

	responseMetrics := models.MetricsDTO{
		ID:    metrics.ID,
		MType: info.typ,
		Tags:  info.tags,
	}

	switch info.typ {
	case config.GaugeType:
		if val, exists := ms.gauges[key]; exists {
			responseMetrics.Value = &val
		}
	case config.CounterType:
		if val, exists := ms.counters[key]; exists {
			responseMetrics.Delta = &val
		}
	default:
		return models.MetricsDTO{}, internalerrors.ErrUnknownMetricType
	}
	return responseMetrics, nil
}

// GetMetricByKey retrieves a single metric by its storage key.
//
// It returns the raw value (float64 for gauges, int64 for counters).
func (ms *MemStorage) GetMetricByKey(ctx context.Context, key string) (any, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	info, exists := ms.series[key]
	if !exists {
		return nil, internalerrors.ErrMetricNotFound
	}
	switch info.typ {
	case config.GaugeType:
		return ms.gauges[key], nil
	case config.CounterType:
		return ms.counters[key], nil
	default:
		return nil, internalerrors.ErrUnknownMetricType
	}
}

// Close releases any resources held by the memory storage.
func (ms *MemStorage) Close() error {

	return nil
}

// Ping checks the health of the memory storage.
//
// For MemStorage, this always returns nil since there are no external dependencies.
func (ms *MemStorage) Ping(ctx context.Context) error {
	return nil
}
