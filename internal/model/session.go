package model

import (
	"sort"
	"time"
)

// SessionID uniquely identifies a session
type SessionID string

// SessionStatus is the lifecycle status of a session
type SessionStatus string

const (
	SessionProposed  SessionStatus = "proposed"  // Created, gathering players
	SessionConfirmed SessionStatus = "confirmed" // Court booked
	SessionCompleted SessionStatus = "completed" // Played (terminal)
	SessionCancelled SessionStatus = "cancelled" // Called off (terminal)
)

// sessionTransitions lists the legal moves out of each status
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionProposed:  {SessionConfirmed, SessionCancelled},
	SessionConfirmed: {SessionCompleted, SessionCancelled},
}

// IsValid reports whether s is a known status
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionProposed, SessionConfirmed, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CourtBooking is external court-reservation data recorded on confirm.
// The core stores it but never interprets it.
type CourtBooking struct {
	BookingIDs   []string
	CourtNumbers []string
	Location     string
}

// MaxCourts is the most courts one session may book
const MaxCourts = 100

// SessionSettings are the admin-editable scheduling, capacity and cost parameters
type SessionSettings struct {
	StartsAt          time.Time
	Duration          time.Duration
	MinPlayers        int
	MaxPlayers        int
	CourtsNeeded      int
	CostPerCourt      Cents
	GuestPoolPerCourt Cents
	PaymentDeadline   *time.Time
	Notes             string
}

// Validate checks capacity and cost invariants
func (s SessionSettings) Validate() error {
	if err := ValidateCapacity(s.MinPlayers, s.MaxPlayers); err != nil {
		return err
	}
	if s.CourtsNeeded < 1 || s.CourtsNeeded > MaxCourts {
		return ErrInvalidCourts
	}
	if s.CostPerCourt < 0 || s.GuestPoolPerCourt < 0 || s.CostPerCourt > MaxAmount || s.GuestPoolPerCourt > MaxAmount {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateCapacity enforces max_players >= min_players >= 1
func ValidateCapacity(minPlayers, maxPlayers int) error {
	if minPlayers < 1 || maxPlayers < minPlayers {
		return ErrCapacity
	}
	return nil
}

// Session is one scheduled play event in a pool, together with its roster and payments
type Session struct {
	ID     SessionID
	PoolID PoolID
	SessionSettings

	Status       SessionStatus
	RosterLocked bool
	LockedAt     *time.Time
	Court        CourtBooking

	Participants []Participant
	Payments     []Payment

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOpen reports whether the session still accepts roster changes
func (s *Session) IsOpen() bool {
	return !s.Status.IsTerminal() && !s.RosterLocked
}

// TotalGuestPool returns guest_pool_per_court x courts_needed
func (s *Session) TotalGuestPool() Cents {
	return s.GuestPoolPerCourt * Cents(s.CourtsNeeded)
}

// TotalCourtCost returns cost_per_court x courts_needed
func (s *Session) TotalCourtCost() Cents {
	return s.CostPerCourt * Cents(s.CourtsNeeded)
}

// GetParticipant returns the participant with the given ID, or nil if not found
func (s *Session) GetParticipant(id ParticipantID) *Participant {
	for i := range s.Participants {
		if s.Participants[i].ID == id {
			return &s.Participants[i]
		}
	}
	return nil
}

// ParticipantForPlayer returns the player's participant row, or nil if none
func (s *Session) ParticipantForPlayer(playerID PlayerID) *Participant {
	for i := range s.Participants {
		if s.Participants[i].PlayerID == playerID {
			return &s.Participants[i]
		}
	}
	return nil
}

// RemoveParticipant deletes the participant row with the given ID
func (s *Session) RemoveParticipant(id ParticipantID) {
	for i := range s.Participants {
		if s.Participants[i].ID == id {
			s.Participants = append(s.Participants[:i], s.Participants[i+1:]...)
			return
		}
	}
}

// SeatedCount returns the number of committed or paid participants
func (s *Session) SeatedCount() int {
	n := 0
	for _, p := range s.Participants {
		if p.Status.IsSeated() {
			n++
		}
	}
	return n
}

// CountByStatus returns how many participants have the given status
func (s *Session) CountByStatus(status ParticipantStatus) int {
	n := 0
	for _, p := range s.Participants {
		if p.Status == status {
			n++
		}
	}
	return n
}

// Waitlist returns waitlisted participants ordered by position
func (s *Session) Waitlist() []Participant {
	var waiting []Participant
	for _, p := range s.Participants {
		if p.Status == ParticipantMaybe {
			waiting = append(waiting, p)
		}
	}
	sort.SliceStable(waiting, func(i, j int) bool {
		return waiting[i].WaitlistPosition < waiting[j].WaitlistPosition
	})
	return waiting
}

// MaxWaitlistPosition returns the highest waitlist position, or 0 if the waitlist is empty
func (s *Session) MaxWaitlistPosition() int {
	highest := 0
	for _, p := range s.Participants {
		if p.Status == ParticipantMaybe && p.WaitlistPosition > highest {
			highest = p.WaitlistPosition
		}
	}
	return highest
}

// Guests returns the committed participants who owe a share of the guest pool,
// in participant-id order. Admins are left out when exemptAdmins is set.
func (s *Session) Guests(exemptAdmins bool) []Participant {
	var guests []Participant
	for _, p := range s.Participants {
		if p.Status != ParticipantCommitted {
			continue
		}
		if exemptAdmins && p.IsAdmin {
			continue
		}
		guests = append(guests, p)
	}
	sort.Slice(guests, func(i, j int) bool {
		return guests[i].ID < guests[j].ID
	})
	return guests
}

// GetPayment returns the payment with the given ID, or nil if not found
func (s *Session) GetPayment(id PaymentID) *Payment {
	for i := range s.Payments {
		if s.Payments[i].ID == id {
			return &s.Payments[i]
		}
	}
	return nil
}

// PaymentFor returns the payment owed by the given participant, or nil if none
func (s *Session) PaymentFor(participantID ParticipantID) *Payment {
	for i := range s.Payments {
		if s.Payments[i].ParticipantID == participantID {
			return &s.Payments[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the session, including roster and payments
func (s *Session) Clone() *Session {
	c := *s
	if s.PaymentDeadline != nil {
		d := *s.PaymentDeadline
		c.PaymentDeadline = &d
	}
	if s.LockedAt != nil {
		l := *s.LockedAt
		c.LockedAt = &l
	}
	c.Court = CourtBooking{
		BookingIDs:   append([]string(nil), s.Court.BookingIDs...),
		CourtNumbers: append([]string(nil), s.Court.CourtNumbers...),
		Location:     s.Court.Location,
	}
	c.Participants = append([]Participant(nil), s.Participants...)
	c.Payments = make([]Payment, len(s.Payments))
	for i, p := range s.Payments {
		c.Payments[i] = p
		if p.PaidAt != nil {
			t := *p.PaidAt
			c.Payments[i].PaidAt = &t
		}
	}
	return &c
}
