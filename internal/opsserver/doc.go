// Package opsserver exposes the operational HTTP endpoints of the ingest
// process.
//
// # Endpoints
//
//	/metrics  Prometheus exposition
//	/livez    always 200 while the process serves requests
//	/healthz  pipeline status as JSON; 503 until the initial scan finishes
//	/readyz   200 once the initial scan has completed, 503 before
//
// The server carries no client-facing API. Requests are logged through the
// injected logger with user-controlled fields sanitized.
package opsserver
