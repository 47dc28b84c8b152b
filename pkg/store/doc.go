// Package store provides database access for the panel: accounts, channel
// assignments, filter configuration, invite links, bot logs, forwarding
// statistics, and the shared bot status row.
//
// Postgres is the production driver; sqlite3 is supported for local
// development. Queries use $N placeholders and ON CONFLICT upserts, which
// both drivers accept.
package store
