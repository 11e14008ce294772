package model

import "time"

// EventType identifies the type of event, and doubles as the notification template name
type EventType string

const (
	// Roster events
	EventJoinConfirmed      EventType = "join_confirmed"
	EventWaitlisted         EventType = "waitlisted"
	EventWaitlistPromoted   EventType = "waitlist_promoted"
	EventParticipantLeft    EventType = "participant_left"
	EventParticipantRemoved EventType = "participant_removed"

	// Lock and payment events
	EventRosterLocked       EventType = "roster_locked"
	EventPaymentRequested   EventType = "payment_requested"
	EventPaymentReceived    EventType = "payment_received"
	EventPaymentDeadlineDue EventType = "payment_deadline_approaching"

	// Session lifecycle events
	EventSessionCreated   EventType = "session_created"
	EventSessionConfirmed EventType = "session_confirmed"
	EventSessionCompleted EventType = "session_completed"
	EventSessionCancelled EventType = "session_cancelled"
)

// Event is emitted after a committed change and handed to the notifier.
// PlayerID is the recipient, or empty for session-wide broadcasts.
type Event struct {
	Type          EventType
	Timestamp     time.Time
	PoolID        PoolID
	SessionID     SessionID
	PlayerID      PlayerID
	ParticipantID ParticipantID
	Payload       any // Type-specific data
}

// WaitlistPayload contains data for waitlisted and promoted events
type WaitlistPayload struct {
	Position int `json:"position"` // 0 once promoted
}

// PaymentPayload contains data for payment events
type PaymentPayload struct {
	PaymentID PaymentID  `json:"payment_id"`
	Amount    Cents      `json:"amount_cents"`
	Link      string     `json:"link,omitempty"`
	Deadline  *time.Time `json:"deadline,omitempty"`
}

// RosterLockedPayload contains data for roster locked events
type RosterLockedPayload struct {
	GuestCount int   `json:"guest_count"`
	GuestCost  Cents `json:"guest_cost_cents"`
	Total      Cents `json:"total_cents"`
}

// SessionPayload contains data for session lifecycle events
type SessionPayload struct {
	Status   SessionStatus `json:"status"`
	StartsAt time.Time     `json:"starts_at"`
	Location string        `json:"location,omitempty"`
}
