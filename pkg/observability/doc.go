// Package observability provides structured logging and Prometheus metrics
// for the panel service.
//
// The Logger wraps stdlib slog with a JSON handler so all application logs
// are machine-parseable. Metrics covers the HTTP surface plus a small set of
// auth-specific counters (login outcomes, rate limiting, impersonation).
package observability
