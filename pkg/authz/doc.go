// Package authz decides what a session may touch: superadmin-only surfaces,
// channel ownership via assignments, and user-scoped resources under
// impersonation.
package authz
