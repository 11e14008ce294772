package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mcoot/dinkup/internal/model"
)

// ErrConflict is returned when an atomic update lost a race too many times
var ErrConflict = errors.New("concurrent update conflict")

// SessionMutator changes a session in place. Returning an error aborts the update
// and nothing is written.
type SessionMutator func(session *model.Session) error

// PoolMutator changes a pool in place. Returning an error aborts the update
// and nothing is written.
type PoolMutator func(pool *model.Pool) error

// Storage defines the interface for data persistence
type Storage interface {
	// Account operations
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)

	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByAccount(ctx context.Context, accountID model.AccountID) (*model.Player, error)

	// Pool operations
	CreatePool(ctx context.Context, pool *model.Pool) error
	GetPool(ctx context.Context, id model.PoolID) (*model.Pool, error)
	GetPoolByInviteCode(ctx context.Context, code model.InviteCode) (*model.Pool, error)
	InviteCodeExists(ctx context.Context, code model.InviteCode) (bool, error)
	ListPoolsForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Pool, error)
	// UpdatePool applies fn to the stored pool atomically and returns the result
	UpdatePool(ctx context.Context, id model.PoolID, fn PoolMutator) (*model.Pool, error)

	// Session operations
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	ListSessionsForPool(ctx context.Context, poolID model.PoolID) ([]*model.Session, error)
	// ListSessionsWithDeadlineBetween returns locked sessions whose payment
	// deadline falls in [from, to]
	ListSessionsWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]*model.Session, error)
	// UpdateSession applies fn to the stored session atomically: concurrent
	// updates of the same session are serialized, and a failing fn writes nothing
	UpdateSession(ctx context.Context, id model.SessionID, fn SessionMutator) (*model.Session, error)
	// SessionForPayment returns the ID of the session that owns a payment
	SessionForPayment(ctx context.Context, paymentID model.PaymentID) (model.SessionID, error)
}
