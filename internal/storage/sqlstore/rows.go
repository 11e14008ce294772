package sqlstore

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mcoot/dinkup/internal/model"
)

// Timestamps are stored as UTC unix milliseconds so both dialects share one schema.

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func toNullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func toStringList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(values)
	return string(data)
}

func fromStringList(raw string) ([]string, error) {
	var values []string
	if raw == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

type accountRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

func (r accountRow) toModel() *model.Account {
	return &model.Account{
		ID:           model.AccountID(r.ID),
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    fromMillis(r.CreatedAt),
		UpdatedAt:    fromMillis(r.UpdatedAt),
	}
}

type playerRow struct {
	ID            string         `db:"id"`
	AccountID     sql.NullString `db:"account_id"`
	Name          string         `db:"name"`
	Email         string         `db:"email"`
	Phone         string         `db:"phone"`
	PaymentHandle string         `db:"payment_handle"`
	NotifyEmail   bool           `db:"notify_email"`
	NotifySMS     bool           `db:"notify_sms"`
	Active        bool           `db:"active"`
	CreatedAt     int64          `db:"created_at"`
}

func newPlayerRow(p *model.Player) playerRow {
	return playerRow{
		ID:            string(p.ID),
		AccountID:     sql.NullString{String: string(p.AccountID), Valid: p.HasAccount()},
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		PaymentHandle: p.PaymentHandle,
		NotifyEmail:   p.Notifications.Email,
		NotifySMS:     p.Notifications.SMS,
		Active:        p.Active,
		CreatedAt:     toMillis(p.CreatedAt),
	}
}

func (r playerRow) toModel() *model.Player {
	return &model.Player{
		ID:            model.PlayerID(r.ID),
		AccountID:     model.AccountID(r.AccountID.String),
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		PaymentHandle: r.PaymentHandle,
		Notifications: model.NotificationPrefs{Email: r.NotifyEmail, SMS: r.NotifySMS},
		Active:        r.Active,
		CreatedAt:     fromMillis(r.CreatedAt),
	}
}

type poolRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Active      bool   `db:"active"`
	OwnerID     string `db:"owner_id"`
	InviteCode  string `db:"invite_code"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func newPoolRow(p *model.Pool) poolRow {
	return poolRow{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Active:      p.Active,
		OwnerID:     string(p.OwnerID),
		InviteCode:  string(p.InviteCode),
		CreatedAt:   toMillis(p.CreatedAt),
		UpdatedAt:   toMillis(p.UpdatedAt),
	}
}

func (r poolRow) toModel() *model.Pool {
	return &model.Pool{
		ID:          model.PoolID(r.ID),
		Name:        r.Name,
		Description: r.Description,
		Active:      r.Active,
		OwnerID:     model.PlayerID(r.OwnerID),
		InviteCode:  model.InviteCode(r.InviteCode),
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
}

type poolMemberRow struct {
	PoolID   string `db:"pool_id"`
	PlayerID string `db:"player_id"`
	Active   bool   `db:"active"`
	JoinedAt int64  `db:"joined_at"`
}

type sessionRow struct {
	ID                string        `db:"id"`
	PoolID            string        `db:"pool_id"`
	StartsAt          int64         `db:"starts_at"`
	DurationMillis    int64         `db:"duration_ms"`
	MinPlayers        int           `db:"min_players"`
	MaxPlayers        int           `db:"max_players"`
	CourtsNeeded      int           `db:"courts_needed"`
	CostPerCourt      int64         `db:"cost_per_court"`
	GuestPoolPerCourt int64         `db:"guest_pool_per_court"`
	PaymentDeadline   sql.NullInt64 `db:"payment_deadline"`
	Notes             string        `db:"notes"`
	Status            string        `db:"status"`
	RosterLocked      bool          `db:"roster_locked"`
	LockedAt          sql.NullInt64 `db:"locked_at"`
	BookingIDs        string        `db:"booking_ids"`
	CourtNumbers      string        `db:"court_numbers"`
	Location          string        `db:"location"`
	CreatedAt         int64         `db:"created_at"`
	UpdatedAt         int64         `db:"updated_at"`
}

func newSessionRow(s *model.Session) sessionRow {
	return sessionRow{
		ID:                string(s.ID),
		PoolID:            string(s.PoolID),
		StartsAt:          toMillis(s.StartsAt),
		DurationMillis:    s.Duration.Milliseconds(),
		MinPlayers:        s.MinPlayers,
		MaxPlayers:        s.MaxPlayers,
		CourtsNeeded:      s.CourtsNeeded,
		CostPerCourt:      int64(s.CostPerCourt),
		GuestPoolPerCourt: int64(s.GuestPoolPerCourt),
		PaymentDeadline:   toNullMillis(s.PaymentDeadline),
		Notes:             s.Notes,
		Status:            string(s.Status),
		RosterLocked:      s.RosterLocked,
		LockedAt:          toNullMillis(s.LockedAt),
		BookingIDs:        toStringList(s.Court.BookingIDs),
		CourtNumbers:      toStringList(s.Court.CourtNumbers),
		Location:          s.Court.Location,
		CreatedAt:         toMillis(s.CreatedAt),
		UpdatedAt:         toMillis(s.UpdatedAt),
	}
}

func (r sessionRow) toModel() (*model.Session, error) {
	bookingIDs, err := fromStringList(r.BookingIDs)
	if err != nil {
		return nil, err
	}
	courtNumbers, err := fromStringList(r.CourtNumbers)
	if err != nil {
		return nil, err
	}
	return &model.Session{
		ID:     model.SessionID(r.ID),
		PoolID: model.PoolID(r.PoolID),
		SessionSettings: model.SessionSettings{
			StartsAt:          fromMillis(r.StartsAt),
			Duration:          time.Duration(r.DurationMillis) * time.Millisecond,
			MinPlayers:        r.MinPlayers,
			MaxPlayers:        r.MaxPlayers,
			CourtsNeeded:      r.CourtsNeeded,
			CostPerCourt:      model.Cents(r.CostPerCourt),
			GuestPoolPerCourt: model.Cents(r.GuestPoolPerCourt),
			PaymentDeadline:   fromNullMillis(r.PaymentDeadline),
			Notes:             r.Notes,
		},
		Status:       model.SessionStatus(r.Status),
		RosterLocked: r.RosterLocked,
		LockedAt:     fromNullMillis(r.LockedAt),
		Court: model.CourtBooking{
			BookingIDs:   bookingIDs,
			CourtNumbers: courtNumbers,
			Location:     r.Location,
		},
		CreatedAt: fromMillis(r.CreatedAt),
		UpdatedAt: fromMillis(r.UpdatedAt),
	}, nil
}

type participantRow struct {
	ID               string `db:"id"`
	SessionID        string `db:"session_id"`
	PlayerID         string `db:"player_id"`
	Name             string `db:"name"`
	IsAdmin          bool   `db:"is_admin"`
	Status           string `db:"status"`
	WaitlistPosition int    `db:"waitlist_position"`
	JoinedAt         int64  `db:"joined_at"`
	UpdatedAt        int64  `db:"updated_at"`
}

func newParticipantRow(p model.Participant) participantRow {
	return participantRow{
		ID:               string(p.ID),
		SessionID:        string(p.SessionID),
		PlayerID:         string(p.PlayerID),
		Name:             p.Name,
		IsAdmin:          p.IsAdmin,
		Status:           string(p.Status),
		WaitlistPosition: p.WaitlistPosition,
		JoinedAt:         toMillis(p.JoinedAt),
		UpdatedAt:        toMillis(p.UpdatedAt),
	}
}

func (r participantRow) toModel() model.Participant {
	return model.Participant{
		ID:               model.ParticipantID(r.ID),
		SessionID:        model.SessionID(r.SessionID),
		PlayerID:         model.PlayerID(r.PlayerID),
		Name:             r.Name,
		IsAdmin:          r.IsAdmin,
		Status:           model.ParticipantStatus(r.Status),
		WaitlistPosition: r.WaitlistPosition,
		JoinedAt:         fromMillis(r.JoinedAt),
		UpdatedAt:        fromMillis(r.UpdatedAt),
	}
}

type paymentRow struct {
	ID            string        `db:"id"`
	SessionID     string        `db:"session_id"`
	ParticipantID string        `db:"participant_id"`
	PlayerID      string        `db:"player_id"`
	Amount        int64         `db:"amount"`
	Status        string        `db:"status"`
	Link          string        `db:"link"`
	RequestedAt   int64         `db:"requested_at"`
	PaidAt        sql.NullInt64 `db:"paid_at"`
}

func newPaymentRow(p model.Payment) paymentRow {
	return paymentRow{
		ID:            string(p.ID),
		SessionID:     string(p.SessionID),
		ParticipantID: string(p.ParticipantID),
		PlayerID:      string(p.PlayerID),
		Amount:        int64(p.Amount),
		Status:        string(p.Status),
		Link:          p.Link,
		RequestedAt:   toMillis(p.RequestedAt),
		PaidAt:        toNullMillis(p.PaidAt),
	}
}

func (r paymentRow) toModel() model.Payment {
	return model.Payment{
		ID:            model.PaymentID(r.ID),
		SessionID:     model.SessionID(r.SessionID),
		ParticipantID: model.ParticipantID(r.ParticipantID),
		PlayerID:      model.PlayerID(r.PlayerID),
		Amount:        model.Cents(r.Amount),
		Status:        model.PaymentStatus(r.Status),
		Link:          r.Link,
		RequestedAt:   fromMillis(r.RequestedAt),
		PaidAt:        fromNullMillis(r.PaidAt),
	}
}
