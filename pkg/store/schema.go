package store

import "context"

// schemaPostgres is the authoritative schema. The sqlite variant below is kept
// in lockstep for local development; both are idempotent.
const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'user',
	telegram_id BIGINT,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	is_banned BOOLEAN NOT NULL DEFAULT FALSE,
	banned_reason TEXT,
	bot_enabled BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users (LOWER(username));

CREATE TABLE IF NOT EXISTS channels (
	channel_id BIGINT PRIMARY KEY,
	channel_name TEXT,
	channel_username TEXT,
	channel_photo TEXT,
	member_count INTEGER,
	description TEXT,
	is_joined BOOLEAN NOT NULL DEFAULT FALSE,
	last_updated TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_channels (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	channel_id BIGINT NOT NULL REFERENCES channels(channel_id) ON DELETE CASCADE,
	paused BOOLEAN NOT NULL DEFAULT FALSE,
	filter_mode TEXT NOT NULL DEFAULT 'all',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, channel_id)
);

CREATE TABLE IF NOT EXISTS channel_filters (
	id BIGSERIAL PRIMARY KEY,
	channel_id BIGINT NOT NULL REFERENCES channels(channel_id) ON DELETE CASCADE,
	keyword TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (channel_id, keyword)
);

CREATE TABLE IF NOT EXISTS keywords (
	id BIGSERIAL PRIMARY KEY,
	keyword TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS banned_words (
	id BIGSERIAL PRIMARY KEY,
	word TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS listening_channels (
	channel_id BIGINT PRIMARY KEY,
	channel_name TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS admin_links (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	channel_id BIGINT NOT NULL,
	link_code TEXT NOT NULL,
	link_url TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, channel_id, link_code)
);

CREATE TABLE IF NOT EXISTS channel_stats (
	id BIGSERIAL PRIMARY KEY,
	channel_id BIGINT NOT NULL,
	stat_date DATE NOT NULL,
	daily_count INTEGER NOT NULL DEFAULT 0,
	UNIQUE (channel_id, stat_date)
);

CREATE TABLE IF NOT EXISTS bot_logs (
	id BIGSERIAL PRIMARY KEY,
	level TEXT NOT NULL,
	message TEXT NOT NULL,
	details TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_bot_logs_created_at ON bot_logs (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_bot_logs_level ON bot_logs (level);

CREATE TABLE IF NOT EXISTS bot_status (
	id INTEGER PRIMARY KEY,
	is_running BOOLEAN NOT NULL DEFAULT FALSE,
	last_heartbeat TIMESTAMPTZ,
	cache_version BIGINT NOT NULL DEFAULT 0,
	cache_updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
INSERT INTO bot_status (id) VALUES (1) ON CONFLICT (id) DO NOTHING;
`

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'user',
	telegram_id INTEGER,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	is_banned BOOLEAN NOT NULL DEFAULT FALSE,
	banned_reason TEXT,
	bot_enabled BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users (LOWER(username));

CREATE TABLE IF NOT EXISTS channels (
	channel_id INTEGER PRIMARY KEY,
	channel_name TEXT,
	channel_username TEXT,
	channel_photo TEXT,
	member_count INTEGER,
	description TEXT,
	is_joined BOOLEAN NOT NULL DEFAULT FALSE,
	last_updated TIMESTAMP,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_channels (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	channel_id INTEGER NOT NULL REFERENCES channels(channel_id) ON DELETE CASCADE,
	paused BOOLEAN NOT NULL DEFAULT FALSE,
	filter_mode TEXT NOT NULL DEFAULT 'all',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, channel_id)
);

CREATE TABLE IF NOT EXISTS channel_filters (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	channel_id INTEGER NOT NULL REFERENCES channels(channel_id) ON DELETE CASCADE,
	keyword TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (channel_id, keyword)
);

CREATE TABLE IF NOT EXISTS keywords (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	keyword TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS banned_words (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	word TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS listening_channels (
	channel_id INTEGER PRIMARY KEY,
	channel_name TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS admin_links (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	channel_id INTEGER NOT NULL,
	link_code TEXT NOT NULL,
	link_url TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, channel_id, link_code)
);

CREATE TABLE IF NOT EXISTS channel_stats (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	channel_id INTEGER NOT NULL,
	stat_date DATE NOT NULL,
	daily_count INTEGER NOT NULL DEFAULT 0,
	UNIQUE (channel_id, stat_date)
);

CREATE TABLE IF NOT EXISTS bot_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	level TEXT NOT NULL,
	message TEXT NOT NULL,
	details TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_bot_logs_created_at ON bot_logs (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_bot_logs_level ON bot_logs (level);

CREATE TABLE IF NOT EXISTS bot_status (
	id INTEGER PRIMARY KEY,
	is_running BOOLEAN NOT NULL DEFAULT FALSE,
	last_heartbeat TIMESTAMP,
	cache_version INTEGER NOT NULL DEFAULT 0,
	cache_updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
INSERT INTO bot_status (id) VALUES (1) ON CONFLICT (id) DO NOTHING;
`

// ensureSchema creates missing tables and indexes
func (s *Store) ensureSchema(ctx context.Context) error {
	schema := schemaPostgres
	if s.driver == "sqlite3" {
		schema = schemaSQLite
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}
