package gateway

import (
	"encoding/json"
	"time"

	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/mcdev12/scoreboard/go/internal/render"
)

// Stream names a viewer subscription.
type Stream string

const (
	// StreamState carries JSON state snapshots.
	StreamState Stream = "state"
	// StreamFrames carries PNG frames as binary messages.
	StreamFrames Stream = "frames"
)

func (s Stream) Valid() bool {
	return s == StreamState || s == StreamFrames
}

// MessageType identifies the payload of a JSON viewer message.
type MessageType string

const (
	MessageTypeState MessageType = "state"
)

// Message is the envelope for every JSON message sent to viewers.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// StateView is a snapshot plus the remaining time as shown on the panel.
type StateView struct {
	models.GameState
	GameTime string `json:"game_time"`
}

func NewStateView(s models.GameState) StateView {
	return StateView{GameState: s, GameTime: render.FormatGameTime(s.GameTime)}
}

// NewStateMessage wraps a snapshot in a viewer envelope.
func NewStateMessage(state models.GameState, at time.Time) ([]byte, error) {
	data, err := json.Marshal(NewStateView(state))
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: MessageTypeState, Timestamp: at, Data: data})
}
