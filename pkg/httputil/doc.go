// Package httputil provides shared HTTP plumbing: JSON response helpers that
// keep error bodies consistent with the API error taxonomy, request parsing
// helpers (including numeric-string channel IDs), and client IP resolution
// behind proxies.
package httputil
