package notify

import (
	"time"

	"github.com/mcoot/dinkup/internal/model"
)

// Message is the wire form of an event, shared by the Redis publisher and the SSE stream
type Message struct {
	Type          model.EventType `json:"type"`
	Timestamp     time.Time       `json:"timestamp"`
	PoolID        string          `json:"pool_id,omitempty"`
	SessionID     string          `json:"session_id,omitempty"`
	PlayerID      string          `json:"player_id,omitempty"`
	ParticipantID string          `json:"participant_id,omitempty"`
	Payload       any             `json:"payload,omitempty"`
}

// NewMessage converts an event to its wire form
func NewMessage(event model.Event) Message {
	return Message{
		Type:          event.Type,
		Timestamp:     event.Timestamp,
		PoolID:        string(event.PoolID),
		SessionID:     string(event.SessionID),
		PlayerID:      string(event.PlayerID),
		ParticipantID: string(event.ParticipantID),
		Payload:       event.Payload,
	}
}
