package database

import (
	"context"
	"encoding/json"
	"fmt"

	"vaultify/internal/models"
)

func (q *Queries) LogEvent(ctx context.Context, userID string, eventType string, payload interface{}) (*models.Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	query := `
		INSERT INTO event_journal (user_id, event_type, payload)
		VALUES ($1, $2, $3)
		RETURNING id, event_time
	`
	event := models.Event{
		UserID:    userID,
		EventType: eventType,
		Payload:   payloadBytes,
	}
	if err := q.db.QueryRow(ctx, query, userID, eventType, payloadBytes).Scan(&event.ID, &event.EventTime); err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, ErrForeignKey
		}
		return nil, err
	}

	return &event, nil
}

func (q *Queries) GetEventsSince(ctx context.Context, userID string, sinceID int64) ([]models.Event, error) {
	query := `
		SELECT id, user_id, event_type, event_time, payload
		FROM event_journal
		WHERE user_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT 100
	`
	rows, err := q.db.Query(ctx, query, userID, sinceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.EventType,
			&event.EventTime,
			&event.Payload,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if events == nil {
		return []models.Event{}, nil
	}

	return events, nil
}
