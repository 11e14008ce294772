package model

import "time"

// PoolID uniquely identifies a pool
type PoolID string

// InviteCode is a short human-readable code players use to join a pool
type InviteCode string

// PoolMember is a player's membership in a pool (PoolPlayer)
type PoolMember struct {
	PlayerID PlayerID
	Active   bool
	JoinedAt time.Time
}

// Pool is a persistent group of players sharing recurring sessions.
// The owner is always an active member.
type Pool struct {
	ID          PoolID
	Name        string
	Description string
	Active      bool
	OwnerID     PlayerID
	InviteCode  InviteCode
	Members     []PoolMember
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GetMember returns the membership for the given player, or nil if not found
func (p *Pool) GetMember(playerID PlayerID) *PoolMember {
	for i := range p.Members {
		if p.Members[i].PlayerID == playerID {
			return &p.Members[i]
		}
	}
	return nil
}

// IsActiveMember reports whether the player currently belongs to the pool
func (p *Pool) IsActiveMember(playerID PlayerID) bool {
	m := p.GetMember(playerID)
	return m != nil && m.Active
}

// IsOwner reports whether the player owns the pool
func (p *Pool) IsOwner(playerID PlayerID) bool {
	return p.OwnerID == playerID
}

// ActiveMembers returns all active memberships
func (p *Pool) ActiveMembers() []PoolMember {
	var members []PoolMember
	for _, m := range p.Members {
		if m.Active {
			members = append(members, m)
		}
	}
	return members
}

// Clone returns a deep copy of the pool
func (p *Pool) Clone() *Pool {
	c := *p
	c.Members = append([]PoolMember(nil), p.Members...)
	return &c
}
