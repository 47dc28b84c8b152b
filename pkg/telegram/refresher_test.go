package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arasverel/tgpanel/pkg/store"
)

type fakeChatAPI struct {
	chats    map[int64]tgbotapi.Chat
	counts   map[int64]int
	chatErr  error
	countErr error
}

func (f *fakeChatAPI) GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error) {
	if f.chatErr != nil {
		return tgbotapi.Chat{}, f.chatErr
	}
	return f.chats[config.ChatID], nil
}

func (f *fakeChatAPI) GetChatMembersCount(config tgbotapi.ChatMemberCountConfig) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.counts[config.ChatID], nil
}

type fakeMetaStore struct {
	mu       sync.Mutex
	channels []store.Channel
	listErr  error
	upserts  []store.ChannelMetadata
}

func (f *fakeMetaStore) Channels(context.Context) ([]store.Channel, error) {
	return f.channels, f.listErr
}

// RefreshAll writes concurrently, so the fake locks.
func (f *fakeMetaStore) UpsertChannelMetadata(_ context.Context, m store.ChannelMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, m)
	return nil
}

func (f *fakeMetaStore) upserted() []store.ChannelMetadata {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.ChannelMetadata(nil), f.upserts...)
}

func TestRefreshChannel(t *testing.T) {
	api := &fakeChatAPI{
		chats: map[int64]tgbotapi.Chat{
			-100500: {Title: "News", UserName: "newschannel", Description: "daily news"},
		},
		counts: map[int64]int{-100500: 1234},
	}
	st := &fakeMetaStore{}
	r := NewRefresher(api, st, nil)

	require.NoError(t, r.RefreshChannel(context.Background(), -100500))
	require.Len(t, st.upserts, 1)

	m := st.upserts[0]
	assert.Equal(t, int64(-100500), m.ChannelID)
	assert.True(t, m.IsJoined)
	require.NotNil(t, m.ChannelName)
	assert.Equal(t, "News", *m.ChannelName)
	require.NotNil(t, m.MemberCount)
	assert.Equal(t, 1234, *m.MemberCount)
}

func TestRefreshChannelMemberCountFailureKeepsMetadata(t *testing.T) {
	api := &fakeChatAPI{
		chats:    map[int64]tgbotapi.Chat{-100500: {Title: "News"}},
		countErr: errors.New("flood wait"),
	}
	st := &fakeMetaStore{}
	r := NewRefresher(api, st, nil)

	require.NoError(t, r.RefreshChannel(context.Background(), -100500))
	require.Len(t, st.upserts, 1)
	assert.Nil(t, st.upserts[0].MemberCount)
	require.NotNil(t, st.upserts[0].ChannelName)
}

func TestRefreshAllSwallowsPerChannelErrors(t *testing.T) {
	api := &fakeChatAPI{chatErr: errors.New("chat not found")}
	st := &fakeMetaStore{channels: []store.Channel{{ChannelID: -1}, {ChannelID: -2}}}
	r := NewRefresher(api, st, nil)

	assert.NotPanics(t, func() { r.RefreshAll(context.Background()) })
	assert.Empty(t, st.upserted())
}

func TestRefreshAllCoversEveryChannel(t *testing.T) {
	channels := make([]store.Channel, 0, 10)
	chats := make(map[int64]tgbotapi.Chat, 10)
	for i := int64(1); i <= 10; i++ {
		channels = append(channels, store.Channel{ChannelID: -i})
		chats[-i] = tgbotapi.Chat{Title: "c"}
	}
	api := &fakeChatAPI{chats: chats, counts: map[int64]int{}}
	st := &fakeMetaStore{channels: channels}
	r := NewRefresher(api, st, nil)

	r.RefreshAll(context.Background())

	got := st.upserted()
	require.Len(t, got, 10)
	seen := make(map[int64]bool, 10)
	for _, m := range got {
		seen[m.ChannelID] = true
	}
	assert.Len(t, seen, 10)
}

func TestNilAPIIsNoOp(t *testing.T) {
	st := &fakeMetaStore{channels: []store.Channel{{ChannelID: -1}}}
	r := NewRefresher(nil, st, nil)

	assert.False(t, r.Enabled())
	require.NoError(t, r.RefreshChannel(context.Background(), -1))
	r.RefreshAll(context.Background())
	assert.Empty(t, st.upserts)
}
