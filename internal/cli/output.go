package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case Pool:
		o.printPool(v)
	case []Pool:
		o.printPools(v)
	case Session:
		o.printSession(v)
	case []Session:
		o.printSessions(v)
	case Participant:
		o.printParticipant(v)
	case []Participant:
		o.printParticipants(v)
	case Cost:
		o.printCost(v)
	case Payment:
		o.printPayment(v)
	case []Payment:
		o.printPayments(v)
	case Dashboard:
		o.printDashboard(v)
	case RemindResult:
		o.printf("Reminders sent: %d\n", v.Sent)
	case HealthResult:
		o.printf("Status: %s\n", v.Status)
	default:
		o.printJSON(data)
	}
}

// Player response type (matches API)
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

// AuthResult combines player and token
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Player    Player    `json:"player"`
}

// PoolMember response type
type PoolMember struct {
	PlayerID string    `json:"player_id"`
	Active   bool      `json:"active"`
	JoinedAt time.Time `json:"joined_at"`
}

// Pool response type
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

// Participant response type
type Participant struct {
	ID               string    `json:"id"`
	PlayerID         string    `json:"player_id"`
	Name             string    `json:"name"`
	IsAdmin          bool      `json:"is_admin"`
	Status           string    `json:"status"`
	WaitlistPosition int       `json:"waitlist_position,omitempty"`
	JoinedAt         time.Time `json:"joined_at"`
}

// Court response type
type Court struct {
	BookingIDs   []string `json:"booking_ids,omitempty"`
	CourtNumbers []string `json:"court_numbers,omitempty"`
	Location     string   `json:"location,omitempty"`
}

// Counts response type
type Counts struct {
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

// Session response type
type Session struct {
	ID                string        `json:"id"`
	PoolID            string        `json:"pool_id"`
	Status            string        `json:"status"`
	StartsAt          time.Time     `json:"starts_at"`
	DurationMinutes   int           `json:"duration_minutes"`
	MinPlayers        int           `json:"min_players"`
	MaxPlayers        int           `json:"max_players"`
	CourtsNeeded      int           `json:"courts_needed"`
	CostPerCourt      string        `json:"cost_per_court"`
	GuestPoolPerCourt string        `json:"guest_pool_per_court"`
	PaymentDeadline   *time.Time    `json:"payment_deadline,omitempty"`
	Notes             string        `json:"notes,omitempty"`
	RosterLocked      bool          `json:"roster_locked"`
	LockedAt          *time.Time    `json:"locked_at,omitempty"`
	Court             Court         `json:"court"`
	Participants      []Participant `json:"participants"`
	Counts            Counts        `json:"counts"`
}

// Cost response type
type Cost struct {
	TotalPlayers   int    `json:"total_players"`
	GuestCount     int    `json:"guest_count"`
	CourtsNeeded   int    `json:"courts_needed"`
	Locked         bool   `json:"locked"`
	PerGuest       string `json:"per_guest"`
	TotalGuestPool string `json:"total_guest_pool"`
	TotalCourtCost string `json:"total_court_cost"`
	Collected      string `json:"collected"`
}

// Payment response type
type Payment struct {
	ID            string     `json:"id"`
	ParticipantID string     `json:"participant_id"`
	PlayerID      string     `json:"player_id"`
	Name          string     `json:"name,omitempty"`
	Amount        string     `json:"amount"`
	Status        string     `json:"status"`
	Link          string     `json:"link,omitempty"`
	RequestedAt   time.Time  `json:"requested_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// Dashboard response type
type Dashboard struct {
	SessionID   string    `json:"session_id"`
	Payments    []Payment `json:"payments"`
	Total       string    `json:"total"`
	Collected   string    `json:"collected"`
	Outstanding string    `json:"outstanding"`
}

// RemindResult response type
type RemindResult struct {
	Sent int `json:"sent"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) table(header string, rows func(w io.Writer)) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, header)
	rows(tw)
	_ = tw.Flush()
}

func (o *Output) printPlayer(p Player) {
	o.printf("Player: %s (%s)\n", p.Name, p.ID)
	if p.Email != "" {
		o.printf("Email: %s\n", p.Email)
	}
	if p.PaymentHandle != "" {
		o.printf("Payment handle: @%s\n", p.PaymentHandle)
	}
	if !p.HasAccount {
		o.printf("Guest: yes\n")
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	o.printf("Token expires: %s\n", a.ExpiresAt.Local().Format(time.RFC1123))
}

func (o *Output) printPool(p Pool) {
	o.printf("Pool: %s (%s)\n", p.Name, p.ID)
	if p.Description != "" {
		o.printf("%s\n", p.Description)
	}
	o.printf("Owner: %s\n", p.OwnerID)
	o.printf("Invite code: %s\n", p.InviteCode)
	if !p.Active {
		o.printf("Status: inactive\n")
	}
	o.printf("Members (%d):\n", len(p.Members))
	for _, m := range p.Members {
		state := ""
		if !m.Active {
			state = " [inactive]"
		}
		o.printf("  - %s%s\n", m.PlayerID, state)
	}
}

func (o *Output) printPools(pools []Pool) {
	if len(pools) == 0 {
		o.printf("No pools\n")
		return
	}
	o.table("ID\tNAME\tMEMBERS\tINVITE", func(w io.Writer) {
		for _, p := range pools {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.ID, p.Name, len(p.Members), p.InviteCode)
		}
	})
}

func (o *Output) printSession(s Session) {
	o.printf("Session: %s (%s)\n", s.ID, s.Status)
	o.printf("Starts: %s (%d min)\n", s.StartsAt.Local().Format(time.RFC1123), s.DurationMinutes)
	o.printf("Players: %d seated, %d waitlisted (min %d, max %d)\n",
		s.Counts.Seated, s.Counts.Waitlisted, s.MinPlayers, s.MaxPlayers)
	o.printf("Courts: %d at $%s, guest pool $%s per court\n", s.CourtsNeeded, s.CostPerCourt, s.GuestPoolPerCourt)
	if s.Court.Location != "" {
		o.printf("Location: %s", s.Court.Location)
		if len(s.Court.CourtNumbers) > 0 {
			o.printf(" (courts %s)", strings.Join(s.Court.CourtNumbers, ", "))
		}
		o.printf("\n")
	}
	if s.PaymentDeadline != nil {
		o.printf("Payment deadline: %s\n", s.PaymentDeadline.Local().Format(time.RFC1123))
	}
	if s.RosterLocked {
		o.printf("Roster: locked\n")
	}
	if s.Notes != "" {
		o.printf("Notes: %s\n", s.Notes)
	}
	if len(s.Participants) > 0 {
		o.printf("\n")
		o.printParticipants(s.Participants)
	}
}

func (o *Output) printSessions(sessions []Session) {
	if len(sessions) == 0 {
		o.printf("No sessions\n")
		return
	}
	o.table("ID\tSTATUS\tSTARTS\tSEATED\tWAITLIST", func(w io.Writer) {
		for _, s := range sessions {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d\n",
				s.ID, s.Status, s.StartsAt.Local().Format("Mon Jan 2 15:04"),
				s.Counts.Seated, s.MaxPlayers, s.Counts.Waitlisted)
		}
	})
}

func (o *Output) printParticipant(p Participant) {
	o.printf("%s (%s): %s", p.Name, p.ID, p.Status)
	if p.WaitlistPosition > 0 {
		o.printf(" #%d", p.WaitlistPosition)
	}
	o.printf("\n")
}

func (o *Output) printParticipants(participants []Participant) {
	if len(participants) == 0 {
		o.printf("No participants\n")
		return
	}
	o.table("ID\tNAME\tSTATUS\tPOSITION", func(w io.Writer) {
		for _, p := range participants {
			name := p.Name
			if p.IsAdmin {
				name += " [admin]"
			}
			pos := ""
			if p.WaitlistPosition > 0 {
				pos = fmt.Sprintf("%d", p.WaitlistPosition)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, name, p.Status, pos)
		}
	})
}

func (o *Output) printCost(c Cost) {
	o.printf("Courts: %d, total $%s\n", c.CourtsNeeded, c.TotalCourtCost)
	o.printf("Guests: %d of %d players\n", c.GuestCount, c.TotalPlayers)
	o.printf("Guest pool: $%s\n", c.TotalGuestPool)
	o.printf("Per guest: $%s\n", c.PerGuest)
	o.printf("Collected: $%s\n", c.Collected)
	if !c.Locked {
		o.printf("Estimate only: roster not locked\n")
	}
}

func (o *Output) printPayment(p Payment) {
	o.printf("Payment %s: $%s %s\n", p.ID, p.Amount, p.Status)
	if p.Link != "" {
		o.printf("Link: %s\n", p.Link)
	}
}

func (o *Output) printPayments(payments []Payment) {
	if len(payments) == 0 {
		o.printf("No payments\n")
		return
	}
	o.table("ID\tPLAYER\tAMOUNT\tSTATUS", func(w io.Writer) {
		for _, p := range payments {
			who := p.Name
			if who == "" {
				who = p.PlayerID
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t$%s\t%s\n", p.ID, who, p.Amount, p.Status)
		}
	})
}

func (o *Output) printDashboard(d Dashboard) {
	o.printPayments(d.Payments)
	o.printf("\nTotal: $%s  Collected: $%s  Outstanding: $%s\n", d.Total, d.Collected, d.Outstanding)
}
