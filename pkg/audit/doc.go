// Package audit records security-relevant panel events (logins, denied
// access, impersonation, administrative actions) into the shared log table
// where operators already look for bot activity.
package audit
