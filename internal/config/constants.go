// Package config provides configuration for the runtime metrics system.
package config

import "time"

const (
	// GaugeType represents the type string for gauge metrics.
	GaugeType = "gauge"

	// CounterType represents the type string for counter metrics.
	CounterType = "counter"
)

const (
	// DefaultRuntimeInterval is how often CPU, memory and heap statistics are sampled.
	DefaultRuntimeInterval = 30 * time.Second

	// DefaultFDInterval is how often file descriptor activity is sampled.
	DefaultFDInterval = 60 * time.Second

	// DefaultLagInterval is how often event loop lag is checked.
	DefaultLagInterval = time.Second

	// DefaultUtilizationInterval is how often event loop utilization is computed.
	DefaultUtilizationInterval = 60 * time.Second

	// DefaultRoundTripInterval is how often a scheduling round trip is measured.
	DefaultRoundTripInterval = 10 * time.Second

	// DefaultYieldPeriod is the delay between the two chained yield points of
	// a round trip measurement.
	DefaultYieldPeriod = 500 * time.Millisecond

	// DefaultMetricPrefix is prepended to runtime metric names.
	DefaultMetricPrefix = "nodejs"

	// VersionTag is the tag key carrying the runtime version identifier.
	VersionTag = "nodejs.version"
)
