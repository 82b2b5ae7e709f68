package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionEvent is one immutable audit record of a lifecycle transition.
// The event log is an audit trail, not a recovery/replay mechanism.
type SessionEvent struct {
	ID        uuid.UUID      `json:"id"`
	SessionID uuid.UUID      `json:"session_id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type EventRepository interface {
	Append(ctx context.Context, event *SessionEvent) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*SessionEvent, error)
}
