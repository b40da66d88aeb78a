// Package metric provides Prometheus metrics for branchweb.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: the application Registry and its /metrics handler
//   - collector.go: scrape-time gauges read from live components
//
// Metrics include:
//
//   - Session key issuance, revocation and expiry counters
//   - Active key and registered user gauges
//   - Request counters by method and envelope status
//   - Handler failure and login throttling counters
//
// Each Registry owns a private prometheus.Registry, so tests and
// embedders never collide on the global default registerer.
package metric
