// Package metrics defines the Prometheus instrumentation for the scanner:
// walk progress and cache-hit tiers, hashing and extraction cost, thumbnail
// throughput, and stale-cache cleanup counts. All collectors are registered
// with the default registry via promauto and exposed by the serve
// subcommand's /metrics endpoint.
package metrics
