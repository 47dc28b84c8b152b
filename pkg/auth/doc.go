// Package auth implements stateless session authentication for the panel.
//
// A session is an HS256-signed token carried in an HttpOnly cookie. The
// server holds no per-session record: identity, role, and an optional
// impersonation target are all encoded in the token, and every "mutation"
// of session state (starting or stopping impersonation) is a re-issue of
// the cookie with a fresh signature and expiry.
//
// Impersonation keeps the real identity in the token. Ownership checks key
// off the effective user (the impersonation target), while
// superadmin-exclusive endpoints keep reading the real role — impersonation
// changes whose data is visible, not what privilege level is held.
package auth
