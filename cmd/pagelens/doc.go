// Package main hosts the pagelens service entrypoint.
//
// Architecture overview:
//   - CLI: cmd wires Cobra subcommands (analyze, serve) around a shared
//     application container built in PersistentPreRunE and torn down in
//     PersistentPostRun. Configuration comes from Viper (PAGELENS_* env
//     vars or an explicit --config file).
//   - Analysis pipeline: the orchestrator batches submitted pages, runs
//     each through the content metrics analyzer, page type classifier,
//     and section detector on a bounded worker pool, and enriches the
//     batch with cross-page references when enabled.
//   - Caching: results are cached by content hash in an in-memory LRU
//     with TTL expiry, so re-analyzing unchanged pages is a lookup.
//   - Persistence & progress: results and run summaries are optionally
//     persisted to Postgres; lifecycle events flow through a buffered
//     progress hub into log, Prometheus, and store sinks.
//   - HTTP API: internal/api exposes batch analysis, cache and worker
//     statistics, pause/resume/stop controls, run results, health
//     endpoints, and /metrics behind chi middleware.
//
// Operational notes:
//   - Concurrency model: bounded worker pool plus a semaphore capping
//     concurrent page analyses per run. Shutdown is coordinated via
//     context cancellation from main through the orchestrator's Destroy.
//   - Degradation: a memory monitor halves batch sizes under heap
//     pressure; worker failures fall back to in-process analysis; a
//     health ticker logs stuck workers while work is in flight.
//   - Observability: zap logs carry run IDs and URLs at key transitions;
//     Prometheus counters and histograms track pages, batches, cache
//     hits, and fallbacks.
//
// Quick checklist:
//   - Configure env vars: PAGELENS_SERVER_PORT, PAGELENS_POOL_MAX_WORKERS,
//     PAGELENS_ANALYSIS_BATCH_SIZE, PAGELENS_DB_DSN when persistence is
//     required, PAGELENS_AUTH_ENABLED plus PAGELENS_AUTH_API_KEY for the
//     API.
//   - Run locally: go run ./cmd/pagelens analyze --input ./pages --output ./reports
//     or go run ./cmd/pagelens serve --port 8080.
//   - The serve process reacts to SIGTERM with a graceful drain bounded
//     by the shutdown timeout.
package main
