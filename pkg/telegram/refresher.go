package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/arasverel/tgpanel/pkg/observability"
	"github.com/arasverel/tgpanel/pkg/store"
)

// ChatAPI is the slice of the Telegram Bot API the refresher needs.
// *tgbotapi.BotAPI satisfies it.
type ChatAPI interface {
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
	GetChatMembersCount(config tgbotapi.ChatMemberCountConfig) (int, error)
}

// MetadataStore persists refreshed channel metadata.
type MetadataStore interface {
	Channels(ctx context.Context) ([]store.Channel, error)
	UpsertChannelMetadata(ctx context.Context, m store.ChannelMetadata) error
}

// Refresher pulls channel titles, usernames, and member counts from
// Telegram and writes them through to the store. With no bot token
// configured it is a no-op, so the panel runs fine without Telegram
// credentials.
type Refresher struct {
	api    ChatAPI
	store  MetadataStore
	logger *observability.Logger
}

// NewRefresher creates a Refresher; api may be nil
func NewRefresher(api ChatAPI, st MetadataStore, logger *observability.Logger) *Refresher {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Refresher{api: api, store: st, logger: logger}
}

// Enabled reports whether a Telegram client is configured
func (r *Refresher) Enabled() bool {
	return r != nil && r.api != nil
}

// RefreshChannel fetches one channel's metadata and stores it.
func (r *Refresher) RefreshChannel(ctx context.Context, channelID int64) error {
	if !r.Enabled() {
		return nil
	}

	chat, err := r.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: channelID},
	})
	if err != nil {
		return fmt.Errorf("failed to fetch chat %d: %w", channelID, err)
	}

	meta := store.ChannelMetadata{
		ChannelID: channelID,
		IsJoined:  true,
	}
	if chat.Title != "" {
		title := chat.Title
		meta.ChannelName = &title
	}
	if chat.UserName != "" {
		username := chat.UserName
		meta.ChannelUsername = &username
	}
	if chat.Description != "" {
		desc := chat.Description
		meta.Description = &desc
	}
	if chat.Photo != nil && chat.Photo.SmallFileID != "" {
		photo := chat.Photo.SmallFileID
		meta.ChannelPhoto = &photo
	}

	count, err := r.api.GetChatMembersCount(tgbotapi.ChatMemberCountConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: channelID},
	})
	if err != nil {
		// Title and username are still worth keeping.
		r.logger.WithError(err).WithField("channelId", channelID).Warn("failed to fetch member count")
	} else {
		meta.MemberCount = &count
	}

	return r.store.UpsertChannelMetadata(ctx, meta)
}

// refreshConcurrency caps parallel Telegram calls during a full refresh.
const refreshConcurrency = 4

// RefreshAll refreshes every known channel, a few in parallel. Per-channel
// failures are logged and skipped so one dead channel never stalls the rest.
func (r *Refresher) RefreshAll(ctx context.Context) {
	if !r.Enabled() {
		return
	}

	channels, err := r.store.Channels(ctx)
	if err != nil {
		r.logger.WithError(err).Error("failed to list channels for refresh")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for _, c := range channels {
		channelID := c.ChannelID
		g.Go(func() error {
			if err := r.RefreshChannel(gctx, channelID); err != nil {
				r.logger.WithError(err).WithField("channelId", channelID).Warn("channel refresh failed")
			}
			return nil
		})
	}
	g.Wait()
}

// RefreshAsync refreshes one channel in the background, used after channel
// creation so the API response does not wait on Telegram.
func (r *Refresher) RefreshAsync(channelID int64) {
	if !r.Enabled() {
		return
	}
	go func() {
		if err := r.RefreshChannel(context.Background(), channelID); err != nil {
			r.logger.WithError(err).WithField("channelId", channelID).Warn("background channel refresh failed")
		}
	}()
}
