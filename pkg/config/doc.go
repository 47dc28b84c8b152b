// Package config loads application configuration from environment variables.
//
// Every setting has a TGPANEL_-prefixed variable and a sensible default, with
// two exceptions: the database URL is always required, and the session signing
// secret must be explicitly set outside development — the fallback value is a
// development convenience, never a production default.
package config
