// Package api hosts the HTTP server, middleware, and REST handlers for
// operator access. Notable routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/analyze for synchronous page analysis.
//   - GET /v1/cache/stats and /v1/workers for introspection.
//   - POST /v1/control/{pause,resume,stop} lifecycle hooks.
//   - GET /v1/runs/{run_id}/results for persisted run output.
package api
