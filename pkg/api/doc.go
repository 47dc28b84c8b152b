// Package api exposes the panel's HTTP surface: session auth with
// impersonation, per-user channel management, global filter configuration,
// and the superadmin operations area.
package api
