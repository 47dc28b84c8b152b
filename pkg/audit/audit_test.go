package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arasverel/tgpanel/pkg/contextkeys"
)

type captureSink struct {
	level   string
	message string
	details *string
	err     error
	calls   int
}

func (c *captureSink) InsertLog(_ context.Context, level, message string, details *string) error {
	c.calls++
	c.level = level
	c.message = message
	c.details = details
	return c.err
}

func TestRecordWritesEventDetails(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(sink, nil)

	rec.Record(context.Background(), EventTypeImpersonationDenied,
		"impersonation attempt rejected", map[string]any{"userId": int64(3)})

	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, "warning", sink.level)
	assert.Equal(t, "impersonation attempt rejected", sink.message)
	require.NotNil(t, sink.details)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(*sink.details), &payload))
	assert.Equal(t, string(EventTypeImpersonationDenied), payload["event"])
	assert.Equal(t, float64(3), payload["userId"])
}

func TestRecordCarriesRequestID(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(sink, nil)

	ctx := contextkeys.WithRequestID(context.Background(), "req-abc123")
	rec.Record(ctx, EventTypeAuthLogin, "login", map[string]any{"userId": int64(7)})

	require.NotNil(t, sink.details)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(*sink.details), &payload))
	assert.Equal(t, "req-abc123", payload["requestId"])
}

func TestRecordLevelByEvent(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(sink, nil)

	rec.Record(context.Background(), EventTypeAuthLogin, "login", nil)
	assert.Equal(t, "info", sink.level)

	rec.Record(context.Background(), EventTypeAuthLoginFailed, "login failed", nil)
	assert.Equal(t, "warning", sink.level)
}

func TestRecordSinkErrorIsSwallowed(t *testing.T) {
	sink := &captureSink{err: errors.New("db down")}
	rec := NewRecorder(sink, nil)

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), EventTypeAuthLogout, "logout", nil)
	})
	assert.Equal(t, 1, sink.calls)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.Record(context.Background(), EventTypeAuthLogin, "login", nil)
	})
}
