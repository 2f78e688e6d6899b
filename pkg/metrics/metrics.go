// Package metrics provides the centralized Prometheus metrics registry
// for the export and generation pipelines. All metrics are defined in
// their respective packages (shopify, sanity, lightspeed, agent,
// descriptions) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the pipelines.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Admin API Metrics (pkg/shopify):
//   - shopify_requests_total{operation, status} (Counter): Total requests by GraphQL operation and HTTP status
//   - shopify_request_duration_seconds{operation} (Histogram): Request duration by operation
//   - shopify_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, graphql)
//   - shopify_query_cost (Histogram): Actual query cost reported per request
//
// Cost Throttle Metrics (pkg/shopify):
//   - shopify_throttle_available_points (Gauge): Cost capacity reported by the last response
//   - shopify_throttle_waits_total (Counter): Requests delayed by the cost throttle
//   - shopify_throttle_wait_seconds (Histogram): Duration of throttle pauses
//
// Content Lake Metrics (pkg/sanity):
//   - sanity_requests_total{status} (Counter): Total query API requests by status code
//   - sanity_request_duration_seconds (Histogram): Query API request duration
//   - sanity_errors_total{class} (Counter): Errors by class (client, server, network, query)
//
// Shop API Metrics (pkg/lightspeed):
//   - lightspeed_requests_total{path, status} (Counter): Total requests by resource path and status code
//   - lightspeed_request_duration_seconds{path} (Histogram): Request duration by resource path
//   - lightspeed_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Generation Metrics (pkg/agent):
//   - agent_calls_total{outcome} (Counter): Generation calls by outcome subtype
//   - agent_call_duration_seconds (Histogram): Generation call duration
//   - agent_cost_usd_total (Counter): Accumulated generation cost in US dollars
//   - agent_tokens_total{direction} (Counter): Token usage by direction (input, output)
//
// Pipeline Metrics (pkg/descriptions):
//   - descriptions_records_total{disposition} (Counter): Input records by disposition (generated, skipped)
//   - descriptions_batches_total (Counter): Generation batches dispatched
//
// Example Prometheus Queries:
//
//   # Admin API Request Rate
//   rate(shopify_requests_total[5m])
//
//   # Throttle Engagement
//   rate(shopify_throttle_waits_total[5m])
//
//   # P95 Admin API Latency
//   histogram_quantile(0.95, rate(shopify_request_duration_seconds_bucket[5m]))
//
//   # Generation Cost Burn Rate
//   rate(agent_cost_usd_total[1h])
//
//   # Skip Ratio
//   sum(rate(descriptions_records_total{disposition="skipped"}[5m])) /
//   sum(rate(descriptions_records_total[5m]))
//
//   # Generation Failure Rate
//   sum(rate(agent_calls_total{outcome!="success"}[5m]))
