package audit

import (
	"context"
	"encoding/json"

	"github.com/arasverel/tgpanel/pkg/contextkeys"
	"github.com/arasverel/tgpanel/pkg/observability"
)

// EventType represents the category of audit event
type EventType string

const (
	// Authentication events
	EventTypeAuthLogin       EventType = "auth.login"
	EventTypeAuthLogout      EventType = "auth.logout"
	EventTypeAuthLoginFailed EventType = "auth.login_failed"
	EventTypeAuthRateLimited EventType = "auth.rate_limited"

	// Impersonation events
	EventTypeImpersonationStart  EventType = "auth.impersonation_start"
	EventTypeImpersonationStop   EventType = "auth.impersonation_stop"
	EventTypeImpersonationDenied EventType = "authz.impersonation_denied"

	// Authorization events
	EventTypeAccessDenied EventType = "authz.access_denied"

	// Administrative events
	EventTypeAdminUserCreate EventType = "admin.user_create"
	EventTypeAdminUserUpdate EventType = "admin.user_update"
	EventTypeAdminUserDelete EventType = "admin.user_delete"
	EventTypeAdminUserBan    EventType = "admin.user_ban"
	EventTypeAdminUserUnban  EventType = "admin.user_unban"
	EventTypeAdminLogsPurge  EventType = "admin.logs_purge"
)

// LogSink persists audit events. The store's bot_logs table is the
// production sink.
type LogSink interface {
	InsertLog(ctx context.Context, level, message string, details *string) error
}

// Recorder writes audit events to a sink. Writes are best-effort: a failed
// audit write is logged and never fails the request that triggered it.
type Recorder struct {
	sink   LogSink
	logger *observability.Logger
}

// NewRecorder creates a Recorder over the given sink
func NewRecorder(sink LogSink, logger *observability.Logger) *Recorder {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Recorder{sink: sink, logger: logger}
}

// Record writes one audit event. Fields are serialized into the details
// column as JSON.
func (r *Recorder) Record(ctx context.Context, event EventType, message string, fields map[string]any) {
	if r == nil || r.sink == nil {
		return
	}

	// Levels match the bot's log rows so the panel's level filter sees both.
	level := "info"
	switch event {
	case EventTypeAuthLoginFailed, EventTypeAuthRateLimited,
		EventTypeAccessDenied, EventTypeImpersonationDenied:
		level = "warning"
	}

	var details *string
	payload := map[string]any{"event": string(event)}
	if rid := contextkeys.GetRequestID(ctx); rid != "" {
		payload["requestId"] = rid
	}
	for k, v := range fields {
		payload[k] = v
	}
	if raw, err := json.Marshal(payload); err == nil {
		s := string(raw)
		details = &s
	}

	if err := r.sink.InsertLog(ctx, level, message, details); err != nil {
		r.logger.WithError(err).WithField("event", string(event)).Warn("failed to write audit event")
	}
}
