package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventSessionCreate         EventType = "session_create"
	EventSessionComplete       EventType = "session_complete"
	EventSessionCompleteFailed EventType = "session_complete_failed"
	EventResetRequest          EventType = "reset_request"
	EventResetComplete         EventType = "reset_complete"
	EventResetFailed           EventType = "reset_failed"
	EventRateLimitExceed       EventType = "rate_limit_exceeded"
	EventAuthFailure           EventType = "auth_failure"
)

type Event struct {
	Type      EventType
	SessionID string
	UserID    string
	IP        string
	UserAgent string
	Details   map[string]any
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.SessionID != "" {
		logger = logger.With().Str("session_id", maskID(event.SessionID)).Logger()
	}
	if event.UserID != "" {
		logger = logger.With().Str("user_id", event.UserID).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}

	logEvent := logger.Info()
	if len(event.Details) > 0 {
		logEvent = logEvent.Fields(map[string]any(event.Details))
	}
	logEvent.Msg("audit event")
}

// FromRequest fills request-scoped fields onto an event before logging it.
func FromRequest(r *http.Request, event Event) Event {
	event.IP = clientIP(r)
	event.UserAgent = r.UserAgent()
	return event
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// session ids are bearer secrets, never log them whole
func maskID(id string) string {
	if len(id) <= 8 {
		return "********"
	}
	return id[:8] + "..."
}
