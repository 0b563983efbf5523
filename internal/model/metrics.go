// Package models defines the data structures used throughout the runtime metrics system.
package models

import (
	"fmt"
	"sort"
	"strings"
)

const (
	Counter = "counter"
	Gauge   = "gauge"
)

// MetricsDTO represents a metric data transfer object for API requests and responses.
type MetricsDTO struct {
	// ID is the unique identifier for the metric
	ID string `json:"id"`

	// MType is the type of the metric (either "counter" or "gauge")
	MType string `json:"type"`

	// Delta is the increment value for counter metrics (omitted for gauge metrics)
	Delta *int64 `json:"delta,omitempty"`

	// Value is the value for gauge metrics (omitted for counter metrics)
	Value *float64 `json:"value,omitempty"`

	// Tags holds dimensional tags such as the runtime version or the id tag
	// distinguishing series published under one name (omitted when empty)
	Tags map[string]string `json:"tags,omitempty"`
}

// Metric represents a single metric with its name, type, tags, and value.
type Metric struct {
	// Name is the identifier for the metric
	Name string

	// Type is the type of the metric (either "counter" or "gauge")
	Type string

	// Tags holds dimensional tags attached to the metric
	Tags map[string]string

	// Value is the metric value (int64 for counters, float64 for gauges)
	Value any
}

// Key returns a stable storage key for a metric name and tag set.
//
// Tags are sorted by key so that the same logical series always maps to the
// same storage entry regardless of map iteration order.
func Key(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, tags[k]))
	}
	return name + "{" + strings.Join(parts, ",") + "}"
}

// AuditEvent represents an audit log entry for metric ingest operations.
type AuditEvent struct {
	// TS is the timestamp of the event in ISO 8601 format
	TS string `json:"ts"`

	// Metrics is a list of metric names affected by the operation
	Metrics []string `json:"metrics"`

	// IPAddress is the IP address of the client that initiated the operation
	IPAddress string `json:"ip_address"`
}
