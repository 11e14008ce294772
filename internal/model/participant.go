package model

import "time"

// ParticipantID uniquely identifies a participant row. IDs sort in join order.
type ParticipantID string

// ParticipantStatus is a player's commitment to one session
type ParticipantStatus string

const (
	ParticipantCommitted ParticipantStatus = "committed" // Holds a seat
	ParticipantPaid      ParticipantStatus = "paid"      // Holds a seat and has paid
	ParticipantMaybe     ParticipantStatus = "maybe"     // Waitlisted
	ParticipantDeclined  ParticipantStatus = "declined"  // Not coming
)

// IsSeated reports whether the status occupies one of the session's seats
func (s ParticipantStatus) IsSeated() bool {
	return s == ParticipantCommitted || s == ParticipantPaid
}

// Participant is a player's membership in one session.
// WaitlistPosition is set (>= 1) only while Status is maybe.
type Participant struct {
	ID               ParticipantID
	SessionID        SessionID
	PlayerID         PlayerID
	Name             string
	IsAdmin          bool
	Status           ParticipantStatus
	WaitlistPosition int
	JoinedAt         time.Time
	UpdatedAt        time.Time
}
