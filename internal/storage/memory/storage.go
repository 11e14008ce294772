package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Values are copied on the way in and out so callers never share state with the store.
type Storage struct {
	mu sync.RWMutex

	accounts       map[model.AccountID]*model.Account
	emailIndex     map[string]model.AccountID
	players        map[model.PlayerID]*model.Player
	accountPlayers map[model.AccountID]model.PlayerID
	pools          map[model.PoolID]*model.Pool
	inviteIndex    map[model.InviteCode]model.PoolID
	sessions       map[model.SessionID]*model.Session
	paymentIndex   map[model.PaymentID]model.SessionID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:       make(map[model.AccountID]*model.Account),
		emailIndex:     make(map[string]model.AccountID),
		players:        make(map[model.PlayerID]*model.Player),
		accountPlayers: make(map[model.AccountID]model.PlayerID),
		pools:          make(map[model.PoolID]*model.Pool),
		inviteIndex:    make(map[model.InviteCode]model.PoolID),
		sessions:       make(map[model.SessionID]*model.Session),
		paymentIndex:   make(map[model.PaymentID]model.SessionID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := *account
	s.accounts[a.ID] = &a
	s.emailIndex[strings.ToLower(a.Email)] = a.ID
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	a := *account
	return &a, nil
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[strings.ToLower(email)]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	a := *account
	return &a, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *player
	s.players[p.ID] = &p
	if p.HasAccount() {
		s.accountPlayers[p.AccountID] = p.ID
	}
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) GetPlayerByAccount(ctx context.Context, accountID model.AccountID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.accountPlayers[accountID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

// Pool operations

func (s *Storage) CreatePool(ctx context.Context, pool *model.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[pool.ID] = pool.Clone()
	s.inviteIndex[pool.InviteCode] = pool.ID
	return nil
}

func (s *Storage) GetPool(ctx context.Context, id model.PoolID) (*model.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.pools[id]
	if !ok {
		return nil, model.ErrPoolNotFound
	}
	return pool.Clone(), nil
}

func (s *Storage) GetPoolByInviteCode(ctx context.Context, code model.InviteCode) (*model.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.inviteIndex[code]
	if !ok {
		return nil, model.ErrPoolNotFound
	}
	pool, ok := s.pools[id]
	if !ok {
		return nil, model.ErrPoolNotFound
	}
	return pool.Clone(), nil
}

func (s *Storage) InviteCodeExists(ctx context.Context, code model.InviteCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.inviteIndex[code]
	return ok, nil
}

func (s *Storage) ListPoolsForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pools []*model.Pool
	for _, pool := range s.pools {
		if pool.IsActiveMember(playerID) {
			pools = append(pools, pool.Clone())
		}
	}
	sort.Slice(pools, func(i, j int) bool {
		return pools[i].ID < pools[j].ID
	})
	return pools, nil
}

func (s *Storage) UpdatePool(ctx context.Context, id model.PoolID, fn storage.PoolMutator) (*model.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.pools[id]
	if !ok {
		return nil, model.ErrPoolNotFound
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	if working.InviteCode != current.InviteCode {
		delete(s.inviteIndex, current.InviteCode)
		s.inviteIndex[working.InviteCode] = id
	}
	s.pools[id] = working
	return working.Clone(), nil
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := session.Clone()
	s.sessions[stored.ID] = stored
	s.indexPayments(stored)
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *Storage) ListSessionsForPool(ctx context.Context, poolID model.PoolID) ([]*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sessions []*model.Session
	for _, session := range s.sessions {
		if session.PoolID == poolID {
			sessions = append(sessions, session.Clone())
		}
	}
	sortByStart(sessions)
	return sessions, nil
}

func (s *Storage) ListSessionsWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sessions []*model.Session
	for _, session := range s.sessions {
		if !session.RosterLocked || session.PaymentDeadline == nil {
			continue
		}
		d := *session.PaymentDeadline
		if d.Before(from) || d.After(to) {
			continue
		}
		sessions = append(sessions, session.Clone())
	}
	sortByStart(sessions)
	return sessions, nil
}

func (s *Storage) UpdateSession(ctx context.Context, id model.SessionID, fn storage.SessionMutator) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.sessions[id] = working
	s.indexPayments(working)
	return working.Clone(), nil
}

func (s *Storage) SessionForPayment(ctx context.Context, paymentID model.PaymentID) (model.SessionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.paymentIndex[paymentID]
	if !ok {
		return "", model.ErrPaymentNotFound
	}
	return id, nil
}

// indexPayments records the owning session of each payment; caller holds the write lock
func (s *Storage) indexPayments(session *model.Session) {
	for _, p := range session.Payments {
		s.paymentIndex[p.ID] = session.ID
	}
}

func sortByStart(sessions []*model.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].StartsAt.Equal(sessions[j].StartsAt) {
			return sessions[i].StartsAt.Before(sessions[j].StartsAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
}
