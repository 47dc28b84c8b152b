// Package telegram talks to the Telegram Bot API on behalf of the panel,
// keeping channel metadata (titles, usernames, member counts) fresh.
package telegram
