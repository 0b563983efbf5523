// Package repository provides storage implementations for reported metrics.
package repository

import (
	"context"

	models "github.com/Schera-ole/nodemetrics/internal/model"
)

// Repository is the storage contract for reported metric series. Series are
// addressed by the stable key derived from metric name and tag set.
type Repository interface {
	SetMetric(ctx context.Context, metric models.Metric) error
	SetMetrics(ctx context.Context, metrics []models.Metric) error
	GetMetric(ctx context.Context, metrics models.MetricsDTO) (models.MetricsDTO, error)
	GetMetricByKey(ctx context.Context, key string) (any, error)
	DeleteMetric(ctx context.Context, key string) error
	ListMetrics(ctx context.Context) ([]models.Metric, error)
	Ping(ctx context.Context) error
	Close() error
}
