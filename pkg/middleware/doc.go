// Package middleware holds the HTTP edge layer: the gatekeeper that routes
// unauthenticated traffic to login, escalating login rate limiting with
// pluggable in-memory or Redis counters, and request logging.
package middleware
