// Package request holds API request bodies.
package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/services/session"
)

// Money accepts either a JSON integer of cents or a decimal string such as "12.50"
type Money model.Cents

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		c, err := model.ParseCents(s)
		if err != nil {
			return err
		}
		*m = Money(c)
		return nil
	}
	var cents int64
	if err := json.Unmarshal(data, &cents); err != nil {
		return fmt.Errorf("amount must be integer cents or a decimal string: %w", err)
	}
	*m = Money(cents)
	return nil
}

// Cents returns the amount as model.Cents
func (m Money) Cents() model.Cents {
	return model.Cents(m)
}

// RegisterRequest is the request body for registering an account
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the request body for editing the caller's profile
type UpdateProfileRequest struct {
	Name          *string `json:"name,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	PaymentHandle *string `json:"payment_handle,omitempty"`
	NotifyEmail   *bool   `json:"notify_email,omitempty"`
	NotifySMS     *bool   `json:"notify_sms,omitempty"`
}

// CreatePoolRequest is the request body for creating a pool
type CreatePoolRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// AddMemberRequest adds an existing player by id, or creates an
// account-less guest player when only a name is given
type AddMemberRequest struct {
	PlayerID string `json:"player_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// JoinPoolRequest is the request body for joining a pool by invite code
type JoinPoolRequest struct {
	InviteCode string `json:"invite_code"`
}

// CreateSessionRequest is the request body for proposing a session
type CreateSessionRequest struct {
	StartsAt          time.Time  `json:"starts_at"`
	DurationMinutes   int        `json:"duration_minutes"`
	MinPlayers        int        `json:"min_players"`
	MaxPlayers        int        `json:"max_players"`
	CourtsNeeded      int        `json:"courts_needed"`
	CostPerCourt      Money      `json:"cost_per_court"`
	GuestPoolPerCourt Money      `json:"guest_pool_per_court"`
	PaymentDeadline   *time.Time `json:"payment_deadline,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

// Settings converts the request to session settings
func (r CreateSessionRequest) Settings() model.SessionSettings {
	return model.SessionSettings{
		StartsAt:          r.StartsAt,
		Duration:          time.Duration(r.DurationMinutes) * time.Minute,
		MinPlayers:        r.MinPlayers,
		MaxPlayers:        r.MaxPlayers,
		CourtsNeeded:      r.CourtsNeeded,
		CostPerCourt:      r.CostPerCourt.Cents(),
		GuestPoolPerCourt: r.GuestPoolPerCourt.Cents(),
		PaymentDeadline:   r.PaymentDeadline,
		Notes:             r.Notes,
	}
}

// UpdateSessionRequest is the request body for editing a session. Absent fields are unchanged.
type UpdateSessionRequest struct {
	StartsAt          *time.Time `json:"starts_at,omitempty"`
	DurationMinutes   *int       `json:"duration_minutes,omitempty"`
	MinPlayers        *int       `json:"min_players,omitempty"`
	MaxPlayers        *int       `json:"max_players,omitempty"`
	CourtsNeeded      *int       `json:"courts_needed,omitempty"`
	CostPerCourt      *Money     `json:"cost_per_court,omitempty"`
	GuestPoolPerCourt *Money     `json:"guest_pool_per_court,omitempty"`
	PaymentDeadline   *time.Time `json:"payment_deadline,omitempty"`
	ClearDeadline     bool       `json:"clear_deadline,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
}

// ConfirmSessionRequest carries the court booking recorded on confirmation
type ConfirmSessionRequest struct {
	BookingIDs   []string `json:"booking_ids,omitempty"`
	CourtNumbers []string `json:"court_numbers,omitempty"`
	Location     string   `json:"location,omitempty"`
}

// Booking converts the request to a court booking
func (r ConfirmSessionRequest) Booking() model.CourtBooking {
	return model.CourtBooking{
		BookingIDs:   r.BookingIDs,
		CourtNumbers: r.CourtNumbers,
		Location:     r.Location,
	}
}

// JoinSessionRequest lets a pool owner add another player; empty means the caller
type JoinSessionRequest struct {
	PlayerID string `json:"player_id,omitempty"`
}

// RemindRequest triggers deadline reminders. Window is a Go duration string such as "24h".
type RemindRequest struct {
	Window string `json:"window,omitempty"`
}

// Changes converts the request to session changes
func (r UpdateSessionRequest) Changes() session.Changes {
	c := session.Changes{
		StartsAt:        r.StartsAt,
		MinPlayers:      r.MinPlayers,
		MaxPlayers:      r.MaxPlayers,
		CourtsNeeded:    r.CourtsNeeded,
		PaymentDeadline: r.PaymentDeadline,
		ClearDeadline:   r.ClearDeadline,
		Notes:           r.Notes,
	}
	if r.DurationMinutes != nil {
		d := time.Duration(*r.DurationMinutes) * time.Minute
		c.Duration = &d
	}
	if r.CostPerCourt != nil {
		v := r.CostPerCourt.Cents()
		c.CostPerCourt = &v
	}
	if r.GuestPoolPerCourt != nil {
		v := r.GuestPoolPerCourt.Cents()
		c.GuestPoolPerCourt = &v
	}
	return c
}
