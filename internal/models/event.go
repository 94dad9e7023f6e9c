package models

import (
	"encoding/json"
	"time"
)

type Event struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"-"`
	EventType string          `json:"event_type"`
	EventTime time.Time       `json:"event_time"`
	Payload   json.RawMessage `json:"payload"`
}
