package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
)

// EventRepo implements domain.EventRepository backed by PostgreSQL.
// The session_events table is append-only; nothing updates or deletes rows.
type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func (r *EventRepo) Append(ctx context.Context, event *domain.SessionEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %w", err)
	}

	query := `INSERT INTO session_events (id, session_id, event_type, payload, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.pool.Exec(ctx, query, event.ID, event.SessionID, event.Type, payload, event.CreatedAt); err != nil {
		return fmt.Errorf("failed to append session event: %w", err)
	}
	return nil
}

func (r *EventRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.SessionEvent, error) {
	query := `SELECT id, session_id, event_type, payload, created_at FROM session_events
	          WHERE session_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session events: %w", err)
	}
	defer rows.Close()

	var events []*domain.SessionEvent
	for rows.Next() {
		var (
			ev      domain.SessionEvent
			payload []byte
		)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Type, &payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session event: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &ev.Payload); err != nil {
				return nil, fmt.Errorf("failed to decode event payload: %w", err)
			}
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}
