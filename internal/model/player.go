package model

import "time"

// AccountID identifies an authenticated account issued by the identity layer
type AccountID string

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Account holds login credentials. It is linked to at most one Player.
type Account struct {
	ID           AccountID
	Email        string // lower-cased, unique
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NotificationPrefs selects the channels a player wants to be reached on
type NotificationPrefs struct {
	Email bool
	SMS   bool
}

// Player is a person who can join pools and sessions.
// Players added by a pool owner may have no account.
type Player struct {
	ID            PlayerID
	AccountID     AccountID // empty when not linked
	Name          string
	Email         string
	Phone         string
	PaymentHandle string // e.g. a Venmo username, used as collector handle for pool owners
	Notifications NotificationPrefs
	Active        bool
	CreatedAt     time.Time
}

// HasAccount reports whether the player is linked to a login account
func (p *Player) HasAccount() bool {
	return p.AccountID != ""
}
