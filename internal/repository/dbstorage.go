package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Schera-ole/nodemetrics/internal/config"
	internalerrors "github.com/Schera-ole/nodemetrics/internal/errors"
	models "github.com/Schera-ole/nodemetrics/internal/model"
)

type DBStorage struct {
	db *sql.DB
}

func NewDBStorage(dsn string) (*DBStorage, error) {
	dbConnect, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DBStorage{db: dbConnect}, nil
}

func (storage *DBStorage) Close() error {
	return storage.db.Close()
}

func encodeTags(tags map[string]string) (string, error) {
	if len(tags) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("error encoding tags: %w", err)
	}
	return string(data), nil
}

func decodeTags(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var tags map[string]string
	if err := json.Unmarshal([]byte(data), &tags); err != nil {
		return nil, fmt.Errorf("error decoding tags: %w", err)
	}
	return tags, nil
}

func setMetricTx(ctx context.Context, tx *sql.Tx, metric models.Metric) error {
	key := models.Key(metric.Name, metric.Tags)
	tags, err := encodeTags(metric.Tags)
	if err != nil {
		return err
	}

	var exists bool
	err = tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM metrics WHERE key = $1)", key).Scan(&exists)
	if err != nil {
		return fmt.Errorf("error checking if metric exists: %w", err)
	}
	if !exists {
		query := "INSERT INTO metrics (key, name, tags, type, value, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, NOW(), NOW())"
		_, err = tx.ExecContext(ctx, query, key, metric.Name, tags, metric.Type, metric.Value)
		if err != nil {
			return fmt.Errorf("error saving metric: %w", err)
		}
		return nil
	}
	switch metric.Type {
	case config.CounterType:
		query := "UPDATE metrics SET value = value + $1, updated_at = NOW() WHERE key = $2"
		_, err = tx.ExecContext(ctx, query, metric.Value, key)
	case config.GaugeType:
		query := "UPDATE metrics SET value = $1, updated_at = NOW() WHERE key = $2"
		_, err = tx.ExecContext(ctx, query, metric.Value, key)
	}
	if err != nil {
		return fmt.Errorf("error saving metric: %w", err)
	}
	return nil
}

func (storage *DBStorage) SetMetrics(ctx context.Context, metrics []models.Metric) error {
	tx, err := storage.db.Begin()
	if err != nil {
		return fmt.Errorf("can't starting transaction: %w", err)
	}
	defer tx.Rollback()
	for _, metric := range metrics {
		if err := setMetricTx(ctx, tx, metric); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (storage *DBStorage) SetMetric(ctx context.Context, metric models.Metric) error {
	return storage.SetMetrics(ctx, []models.Metric{metric})
}

func (storage *DBStorage) GetMetric(ctx context.Context, metrics models.MetricsDTO) (models.MetricsDTO, error) {
	var metricType string
	var value float64

	key := models.Key(metrics.ID, metrics.Tags)
	query := "SELECT type, value FROM metrics WHERE key = $1"
	err := storage.db.QueryRowContext(ctx, query, key).Scan(&metricType, &value)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.MetricsDTO{}, internalerrors.ErrMetricNotFound
		}
		return models.MetricsDTO{}, fmt.Errorf("error retrieving metric: %w", err)
	}

	responseMetrics := models.MetricsDTO{
		ID:    metrics.ID,
		MType: metricType,
		Tags:  metrics.Tags,
	}

	switch metricType {
	case config.GaugeType:
		responseMetrics.Value = &value
	case config.CounterType:
		intValue := int64(value)
		responseMetrics.Delta = &intValue
	default:
		return models.MetricsDTO{}, internalerrors.ErrUnknownMetricType
	}
	return responseMetrics, nil
}

func (storage *DBStorage) GetMetricByKey(ctx context.Context, key string) (any, error) {
	var metricType string
	var value float64

	query := "SELECT type, value FROM metrics WHERE key = $1"
	err := storage.db.QueryRowContext(ctx, query, key).Scan(&metricType, &value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, internalerrors.ErrMetricNotFound
		}
		return nil, fmt.Errorf("error retrieving metric: %w", err)
	}
	switch metricType {
	case config.GaugeType:
		return value, nil
	case config.CounterType:
		return int64(value), nil
	default:
		return nil, internalerrors.ErrUnknownMetricType
	}
}

func (storage *DBStorage) DeleteMetric(ctx context.Context, key string) error {
	query := "DELETE FROM metrics WHERE key = $1"
	_, err := storage.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("error deleting metric: %w", err)
	}
	return nil
}

func (storage *DBStorage) ListMetrics(ctx context.Context) ([]models.Metric, error) {
	var formattedMetrics []models.Metric
	query := "SELECT name, tags, type, value FROM metrics"
	rows, err := storage.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error retrieving metrics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, tagsData, metricType string
		var value float64

		err = rows.Scan(&name, &tagsData, &metricType, &value)
		if err != nil {
			return nil, fmt.Errorf("error scanning metric: %w", err)
		}

		tags, err := decodeTags(tagsData)
		if err != nil {
			return nil, err
		}

		var metricValue any
		if metricType == config.CounterType {
			metricValue = int64(value)
		} else {
			metricValue = value
		}
		formattedMetrics = append(formattedMetrics, models.Metric{
			Name:  name,
			Type:  metricType,
			Tags:  tags,
			Value: metricValue,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over metrics: %w", err)
	}

	return formattedMetrics, nil
}

func (storage *DBStorage) Ping(ctx context.Context) error {
	err := storage.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %v", err)
	}
	return nil
}
