package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is one entry of the scoreboard event log.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	OccurredAt time.Time       `json:"timestamp"`
	Kind       LogKind         `json:"log_type"`
	Name       string          `json:"event"`
	Details    json.RawMessage `json:"details,omitempty"`
	User       *string         `json:"user,omitempty"`
}
