// Package nodemetrics implements runtime metrics collection for a managed
// runtime, and a server for storing what the collector reports.
//
// The collector periodically samples the runtime's internal state (heap,
// event loop, garbage collector, file descriptors, CPU) and derives stable
// metrics from the raw readings: CPU rates from cumulative usage counters,
// allocation/promotion rates from GC before/after heap snapshots, and event
// loop lag and utilization from repeated timestamp sampling. Derived values
// land in a tagged in-process registry and are shipped to the server as
// gzipped JSON batches.
//
// Features:
//   - exact elapsed-time math across irregular sampling gaps
//   - first-sample seeding so no delta is emitted without a prior state
//   - GC-derived allocation rate, promotion rate and live data size with a
//     last-known-good refresh policy
//   - idempotent start/stop lifecycle for all sampling tasks
//   - REST API for updating and retrieving metrics, with batch support
//   - data compression using gzip and HMAC SHA256 integrity validation
//   - in-memory or PostgreSQL storage with file persistence
//   - audit logging of ingested batches to file or HTTP endpoint
//   - structured logging
//
// Both server and agent components support configuration via command-line
// flags and environment variables.
package nodemetrics
