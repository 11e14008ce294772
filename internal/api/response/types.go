// Package response holds API response bodies. Amounts are sent both as
// integer cents and as decimal strings.
package response

import (
	"time"

	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/services/auth"
	"github.com/mcoot/dinkup/internal/services/billing"
	"github.com/mcoot/dinkup/internal/services/payment"
	"github.com/mcoot/dinkup/internal/services/roster"
)

// Player represents a player in API responses
type Player struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	PaymentHandle string `json:"payment_handle,omitempty"`
	HasAccount    bool   `json:"has_account"`
	NotifyEmail   bool   `json:"notify_email"`
	NotifySMS     bool   `json:"notify_sms"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:            string(p.ID),
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		PaymentHandle: p.PaymentHandle,
		HasAccount:    p.HasAccount(),
		NotifyEmail:   p.Notifications.Email,
		NotifySMS:     p.Notifications.SMS,
	}
}

// AuthResponse is the response for register and login
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Player    Player    `json:"player"`
}

// AuthResponseFromIdentity creates an AuthResponse from an issued identity
func AuthResponseFromIdentity(id *auth.Identity) AuthResponse {
	return AuthResponse{
		Token:     id.Token,
		ExpiresAt: id.ExpiresAt,
		Player:    PlayerFromModel(id.Player),
	}
}

// PoolMember represents a pool membership
type PoolMember struct {
	PlayerID string    `json:"player_id"`
	Active   bool      `json:"active"`
	JoinedAt time.Time `json:"joined_at"`
}

// Pool represents a pool in API responses
type Pool struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Active      bool         `json:"active"`
	OwnerID     string       `json:"owner_id"`
	InviteCode  string       `json:"invite_code"`
	Members     []PoolMember `json:"members"`
	CreatedAt   time.Time    `json:"created_at"`
}

// PoolFromModel converts model.Pool
func PoolFromModel(p *model.Pool) Pool {
	members := make([]PoolMember, len(p.Members))
	for i, m := range p.Members {
		members[i] = PoolMember{PlayerID: string(m.PlayerID), Active: m.Active, JoinedAt: m.JoinedAt}
	}
	return Pool{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Active:      p.Active,
		OwnerID:     string(p.OwnerID),
		InviteCode:  string(p.InviteCode),
		Members:     members,
		CreatedAt:   p.CreatedAt,
	}
}

// PoolsFromModel converts a list of pools
func PoolsFromModel(pools []*model.Pool) []Pool {
	out := make([]Pool, len(pools))
	for i, p := range pools {
		out[i] = PoolFromModel(p)
	}
	return out
}

// Participant represents a roster row
type Participant struct {
	ID               string    `json:"id"`
	PlayerID         string    `json:"player_id"`
	Name             string    `json:"name"`
	IsAdmin          bool      `json:"is_admin"`
	Status           string    `json:"status"`
	WaitlistPosition int       `json:"waitlist_position,omitempty"`
	JoinedAt         time.Time `json:"joined_at"`
}

// ParticipantFromModel converts model.Participant
func ParticipantFromModel(p model.Participant) Participant {
	return Participant{
		ID:               string(p.ID),
		PlayerID:         string(p.PlayerID),
		Name:             p.Name,
		IsAdmin:          p.IsAdmin,
		Status:           string(p.Status),
		WaitlistPosition: p.WaitlistPosition,
		JoinedAt:         p.JoinedAt,
	}
}

// ParticipantsFromModel converts a list of roster rows
func ParticipantsFromModel(ps []model.Participant) []Participant {
	out := make([]Participant, len(ps))
	for i, p := range ps {
		out[i] = ParticipantFromModel(p)
	}
	return out
}

// Court is the booking recorded when a session is confirmed
type Court struct {
	BookingIDs   []string `json:"booking_ids,omitempty"`
	CourtNumbers []string `json:"court_numbers,omitempty"`
	Location     string   `json:"location,omitempty"`
}

// Session represents a session with its roster and counts
type Session struct {
	ID                     string         `json:"id"`
	PoolID                 string         `json:"pool_id"`
	Status                 string         `json:"status"`
	StartsAt               time.Time      `json:"starts_at"`
	DurationMinutes        int            `json:"duration_minutes"`
	MinPlayers             int            `json:"min_players"`
	MaxPlayers             int            `json:"max_players"`
	CourtsNeeded           int            `json:"courts_needed"`
	CostPerCourtCents      model.Cents    `json:"cost_per_court_cents"`
	CostPerCourt           string         `json:"cost_per_court"`
	GuestPoolPerCourtCents model.Cents    `json:"guest_pool_per_court_cents"`
	GuestPoolPerCourt      string         `json:"guest_pool_per_court"`
	PaymentDeadline        *time.Time     `json:"payment_deadline,omitempty"`
	Notes                  string         `json:"notes,omitempty"`
	RosterLocked           bool           `json:"roster_locked"`
	LockedAt               *time.Time     `json:"locked_at,omitempty"`
	Court                  Court          `json:"court"`
	Participants           []Participant  `json:"participants"`
	Counts                 roster.Summary `json:"counts"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// SessionFromModel converts model.Session
func SessionFromModel(s *model.Session) Session {
	return Session{
		ID:                     string(s.ID),
		PoolID:                 string(s.PoolID),
		Status:                 string(s.Status),
		StartsAt:               s.StartsAt,
		DurationMinutes:        int(s.Duration / time.Minute),
		MinPlayers:             s.MinPlayers,
		MaxPlayers:             s.MaxPlayers,
		CourtsNeeded:           s.CourtsNeeded,
		CostPerCourtCents:      s.CostPerCourt,
		CostPerCourt:           s.CostPerCourt.String(),
		GuestPoolPerCourtCents: s.GuestPoolPerCourt,
		GuestPoolPerCourt:      s.GuestPoolPerCourt.String(),
		PaymentDeadline:        s.PaymentDeadline,
		Notes:                  s.Notes,
		RosterLocked:           s.RosterLocked,
		LockedAt:               s.LockedAt,
		Court: Court{
			BookingIDs:   s.Court.BookingIDs,
			CourtNumbers: s.Court.CourtNumbers,
			Location:     s.Court.Location,
		},
		Participants: ParticipantsFromModel(s.Participants),
		Counts:       roster.Summarize(s),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// SessionsFromModel converts a list of sessions
func SessionsFromModel(sessions []*model.Session) []Session {
	out := make([]Session, len(sessions))
	for i, s := range sessions {
		out[i] = SessionFromModel(s)
	}
	return out
}

// Cost is the cost summary with display amounts
type Cost struct {
	billing.Cost
	PerGuestAmount       string `json:"per_guest"`
	TotalGuestPoolAmount string `json:"total_guest_pool"`
	TotalCourtCostAmount string `json:"total_court_cost"`
	CollectedAmount      string `json:"collected"`
}

// CostFromSummary converts billing.Cost
func CostFromSummary(c billing.Cost) Cost {
	return Cost{
		Cost:                 c,
		PerGuestAmount:       c.PerGuest.String(),
		TotalGuestPoolAmount: c.TotalGuestPool.String(),
		TotalCourtCostAmount: c.TotalCourtCost.String(),
		CollectedAmount:      c.Collected.String(),
	}
}

// Payment represents one guest's payment row
type Payment struct {
	ID            string      `json:"id"`
	ParticipantID string      `json:"participant_id"`
	PlayerID      string      `json:"player_id"`
	Name          string      `json:"name,omitempty"`
	AmountCents   model.Cents `json:"amount_cents"`
	Amount        string      `json:"amount"`
	Status        string      `json:"status"`
	Link          string      `json:"link,omitempty"`
	RequestedAt   time.Time   `json:"requested_at"`
	PaidAt        *time.Time  `json:"paid_at,omitempty"`
}

// PaymentFromModel converts model.Payment
func PaymentFromModel(p *model.Payment) Payment {
	return Payment{
		ID:            string(p.ID),
		ParticipantID: string(p.ParticipantID),
		PlayerID:      string(p.PlayerID),
		AmountCents:   p.Amount,
		Amount:        p.Amount.String(),
		Status:        string(p.Status),
		Link:          p.Link,
		RequestedAt:   p.RequestedAt,
		PaidAt:        p.PaidAt,
	}
}

// PaymentFromRow converts a payment tracker row
func PaymentFromRow(r payment.Row) Payment {
	return Payment{
		ID:            string(r.PaymentID),
		ParticipantID: string(r.ParticipantID),
		PlayerID:      string(r.PlayerID),
		Name:          r.Name,
		AmountCents:   r.Amount,
		Amount:        r.Amount.String(),
		Status:        string(r.Status),
		Link:          r.Link,
		RequestedAt:   r.RequestedAt,
		PaidAt:        r.PaidAt,
	}
}

// PaymentsFromRows converts a list of tracker rows
func PaymentsFromRows(rows []payment.Row) []Payment {
	out := make([]Payment, len(rows))
	for i, r := range rows {
		out[i] = PaymentFromRow(r)
	}
	return out
}

// Dashboard is the per-session payment dashboard
type Dashboard struct {
	SessionID        string      `json:"session_id"`
	Payments         []Payment   `json:"payments"`
	TotalCents       model.Cents `json:"total_cents"`
	Total            string      `json:"total"`
	CollectedCents   model.Cents `json:"collected_cents"`
	Collected        string      `json:"collected"`
	OutstandingCents model.Cents `json:"outstanding_cents"`
	Outstanding      string      `json:"outstanding"`
}

// DashboardFromModel converts payment.Dashboard
func DashboardFromModel(d *payment.Dashboard) Dashboard {
	return Dashboard{
		SessionID:        string(d.SessionID),
		Payments:         PaymentsFromRows(d.Rows),
		TotalCents:       d.Total,
		Total:            d.Total.String(),
		CollectedCents:   d.Collected,
		Collected:        d.Collected.String(),
		OutstandingCents: d.Outstanding,
		Outstanding:      d.Outstanding.String(),
	}
}

// RemindResponse reports how many reminders were sent
type RemindResponse struct {
	Sent int `json:"sent"`
}
