package store

import "time"

// User is an account in the management panel. Telegram and channel IDs are
// serialized as strings so frontends never lose precision on 64-bit values.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	DisplayName  string     `json:"displayName"`
	Role         string     `json:"role"`
	TelegramID   *int64     `json:"telegramId,string,omitempty"`
	IsActive     bool       `json:"isActive"`
	IsBanned     bool       `json:"isBanned"`
	BannedReason *string    `json:"bannedReason,omitempty"`
	BotEnabled   bool       `json:"botEnabled"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Channel holds the Telegram-side metadata for a distribution channel.
type Channel struct {
	ChannelID       int64      `json:"channelId,string"`
	ChannelName     *string    `json:"channelName"`
	ChannelUsername *string    `json:"channelUsername"`
	ChannelPhoto    *string    `json:"channelPhoto"`
	MemberCount     *int       `json:"memberCount"`
	Description     *string    `json:"description"`
	IsJoined        bool       `json:"isJoined"`
	LastUpdated     *time.Time `json:"lastUpdated"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// UserChannel is an assignment of a channel to a user.
type UserChannel struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	ChannelID  int64     `json:"channelId,string"`
	Paused     bool      `json:"paused"`
	FilterMode string    `json:"filterMode"`
	CreatedAt  time.Time `json:"createdAt"`

	// Populated by list queries that join channel metadata.
	Channel *Channel `json:"channel,omitempty"`
}

// ChannelFilter is a per-channel keyword filter entry.
type ChannelFilter struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channelId,string"`
	Keyword   string    `json:"keyword"`
	CreatedAt time.Time `json:"createdAt"`
}

// Keyword is a global match keyword.
type Keyword struct {
	ID        int64     `json:"id"`
	Keyword   string    `json:"keyword"`
	CreatedAt time.Time `json:"createdAt"`
}

// BannedWord is a global content blocklist entry.
type BannedWord struct {
	ID        int64     `json:"id"`
	Word      string    `json:"word"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListeningChannel is a source channel the bot monitors.
type ListeningChannel struct {
	ChannelID   int64     `json:"channelId,string"`
	ChannelName *string   `json:"channelName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AdminLink is an invite link generated by an admin for a channel.
type AdminLink struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	ChannelID int64     `json:"channelId,string"`
	LinkCode  string    `json:"linkCode"`
	LinkURL   string    `json:"linkUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChannelStat is one day of forwarding volume for a channel.
type ChannelStat struct {
	ChannelID  int64     `json:"channelId,string"`
	StatDate   time.Time `json:"statDate"`
	DailyCount int       `json:"dailyCount"`
}

// BotLog is an operational log line recorded by the bot or the panel.
type BotLog struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Details   *string   `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// BotStatus is the single shared-state row the bot polls. CacheVersion is a
// monotonic counter the panel bumps whenever bot-visible configuration
// changes; the bot reloads when the value it last saw is stale.
type BotStatus struct {
	IsRunning      bool       `json:"isRunning"`
	LastHeartbeat  *time.Time `json:"lastHeartbeat"`
	CacheVersion   int64      `json:"cacheVersion"`
	CacheUpdatedAt time.Time  `json:"cacheUpdatedAt"`
}
