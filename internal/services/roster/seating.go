package roster

import (
	"time"

	"github.com/mcoot/dinkup/internal/model"
)

// Seat places a participant row in the session: committed if a seat is free,
// otherwise at the end of the waitlist. It reports whether the row was waitlisted.
func Seat(s *model.Session, p *model.Participant, now time.Time) bool {
	p.UpdatedAt = now
	if s.SeatedCount() < s.MaxPlayers {
		p.Status = model.ParticipantCommitted
		p.WaitlistPosition = 0
		return false
	}
	p.Status = model.ParticipantMaybe
	p.WaitlistPosition = s.MaxWaitlistPosition() + 1
	return true
}

// EnrollAdmin adds the player as a committed admin participant unless they already have a row.
// An existing row is flagged admin and keeps its place. It reports whether anything changed.
func EnrollAdmin(s *model.Session, player *model.Player, id model.ParticipantID, now time.Time) bool {
	if existing := s.ParticipantForPlayer(player.ID); existing != nil {
		if existing.IsAdmin {
			return false
		}
		existing.IsAdmin = true
		existing.UpdatedAt = now
		return true
	}

	admin := model.Participant{
		ID:        id,
		SessionID: s.ID,
		PlayerID:  player.ID,
		Name:      player.Name,
		IsAdmin:   true,
		JoinedAt:  now,
	}
	Seat(s, &admin, now)
	s.Participants = append(s.Participants, admin)
	return true
}

// Vacate takes a participant out of the roster. The row is deleted, or kept as
// declined when keep is set. A freed seat goes to the head of the waitlist, and
// the promoted participant (if any) is returned.
func Vacate(s *model.Session, id model.ParticipantID, keep bool, now time.Time) *model.Participant {
	p := s.GetParticipant(id)
	if p == nil {
		return nil
	}
	wasSeated := p.Status.IsSeated()

	if keep {
		p.Status = model.ParticipantDeclined
		p.WaitlistPosition = 0
		p.UpdatedAt = now
	} else {
		s.RemoveParticipant(id)
	}
	CompactWaitlist(s)

	if !wasSeated {
		return nil
	}
	promoted := FillSeats(s, now)
	if len(promoted) == 0 {
		return nil
	}
	return &promoted[0]
}

// FillSeats promotes waitlisted participants in position order while seats are open
// and returns the promoted rows
func FillSeats(s *model.Session, now time.Time) []model.Participant {
	var promoted []model.Participant
	for s.SeatedCount() < s.MaxPlayers {
		waiting := s.Waitlist()
		if len(waiting) == 0 {
			break
		}
		head := s.GetParticipant(waiting[0].ID)
		head.Status = model.ParticipantCommitted
		head.WaitlistPosition = 0
		head.UpdatedAt = now
		CompactWaitlist(s)
		promoted = append(promoted, *head)
	}
	return promoted
}

// CompactWaitlist renumbers waitlist positions 1..n, preserving their order
func CompactWaitlist(s *model.Session) {
	for i, w := range s.Waitlist() {
		s.GetParticipant(w.ID).WaitlistPosition = i + 1
	}
}

// Summary is the session-with-counts view of a roster
type Summary struct {
	Committed  int  `json:"committed"`
	Paid       int  `json:"paid"`
	Seated     int  `json:"seated"`
	Waitlisted int  `json:"waitlisted"`
	Declined   int  `json:"declined"`
	OpenSeats  int  `json:"open_seats"`
	MinPlayers int  `json:"min_players"`
	MaxPlayers int  `json:"max_players"`
	MinReached bool `json:"min_reached"`
}

// Summarize counts the session roster by status
func Summarize(s *model.Session) Summary {
	seated := s.SeatedCount()
	open := s.MaxPlayers - seated
	if open < 0 {
		open = 0
	}
	return Summary{
		Committed:  s.CountByStatus(model.ParticipantCommitted),
		Paid:       s.CountByStatus(model.ParticipantPaid),
		Seated:     seated,
		Waitlisted: s.CountByStatus(model.ParticipantMaybe),
		Declined:   s.CountByStatus(model.ParticipantDeclined),
		OpenSeats:  open,
		MinPlayers: s.MinPlayers,
		MaxPlayers: s.MaxPlayers,
		MinReached: seated >= s.MinPlayers,
	}
}
