package pool

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mcoot/dinkup/internal/dependencies/clock"
	"github.com/mcoot/dinkup/internal/dependencies/idgen"
	"github.com/mcoot/dinkup/internal/model"
	platformotel "github.com/mcoot/dinkup/internal/platform/otel"
	"github.com/mcoot/dinkup/internal/services/access"
	"github.com/mcoot/dinkup/internal/storage"
)

const (
	// InviteCodeLength is the length of generated invite codes
	InviteCodeLength = 6

	// maxCodeAttempts bounds the search for an unused invite code
	maxCodeAttempts = 20
)

// ErrInviteCodeExhausted is returned when no unused invite code could be generated
var ErrInviteCodeExhausted = errors.New("could not generate a unique invite code")

// Controller manages pools and their memberships
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	ids     idgen.Generator
	logger  *slog.Logger
}

// NewController creates a new pool Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	ids idgen.Generator,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		ids:     ids,
		logger:  logger,
	}
}

// Create creates a pool owned by the given player. The owner is its first active member.
func (c *Controller) Create(ctx context.Context, owner *model.Player, name, description string) (_ *model.Pool, err error) {
	ctx, span := platformotel.Start(ctx, "pool.Create", attribute.String("player_id", string(owner.ID)))
	defer func() { platformotel.End(span, err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.ErrValidation
	}

	code, err := c.newInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	pool := &model.Pool{
		ID:          model.PoolID(c.ids.NewID("pool_")),
		Name:        name,
		Description: strings.TrimSpace(description),
		Active:      true,
		OwnerID:     owner.ID,
		InviteCode:  code,
		Members: []model.PoolMember{
			{PlayerID: owner.ID, Active: true, JoinedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.CreatePool(ctx, pool); err != nil {
		c.logger.Error("failed to save pool",
			slog.String("pool_id", string(pool.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Info("pool created",
		slog.String("pool_id", string(pool.ID)),
		slog.String("owner_id", string(owner.ID)),
	)
	return pool, nil
}

// Get returns a pool visible to the caller
func (c *Controller) Get(ctx context.Context, caller model.PlayerID, poolID model.PoolID) (*model.Pool, error) {
	pool, err := c.storage.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireMember(pool, caller); err != nil {
		return nil, err
	}
	return pool, nil
}

// ListForPlayer returns the pools the player actively belongs to
func (c *Controller) ListForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Pool, error) {
	return c.storage.ListPoolsForPlayer(ctx, playerID)
}

// AddMember adds an existing player to the pool. Owner only.
func (c *Controller) AddMember(ctx context.Context, caller model.PlayerID, poolID model.PoolID, playerID model.PlayerID) (_ *model.Pool, err error) {
	ctx, span := platformotel.Start(ctx, "pool.AddMember",
		attribute.String("pool_id", string(poolID)),
		attribute.String("player_id", string(playerID)),
	)
	defer func() { platformotel.End(span, err) }()

	if _, err := c.storage.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}

	pool, err := c.storage.UpdatePool(ctx, poolID, func(pool *model.Pool) error {
		if err := access.RequireOwner(pool, caller); err != nil {
			return err
		}
		if err := access.RequireActive(pool); err != nil {
			return err
		}
		return c.addMember(pool, playerID)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("pool member added",
		slog.String("pool_id", string(poolID)),
		slog.String("player_id", string(playerID)),
	)
	return pool, nil
}

// AddGuest creates a player without a login account and adds them to the pool. Owner only.
func (c *Controller) AddGuest(ctx context.Context, caller model.PlayerID, poolID model.PoolID, name, email string) (*model.Player, error) {
	pool, err := c.storage.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(pool, caller); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.ErrValidation
	}

	player := &model.Player{
		ID:        model.PlayerID(c.ids.NewID("player_")),
		Name:      name,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Active:    true,
		CreatedAt: c.clock.Now(),
	}
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	if _, err := c.AddMember(ctx, caller, poolID, player.ID); err != nil {
		return nil, err
	}
	return player, nil
}

// JoinByInvite adds the player to the pool holding the invite code
func (c *Controller) JoinByInvite(ctx context.Context, player *model.Player, code model.InviteCode) (_ *model.Pool, err error) {
	ctx, span := platformotel.Start(ctx, "pool.JoinByInvite", attribute.String("player_id", string(player.ID)))
	defer func() { platformotel.End(span, err) }()

	code = model.InviteCode(strings.ToUpper(strings.TrimSpace(string(code))))
	found, err := c.storage.GetPoolByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}

	pool, err := c.storage.UpdatePool(ctx, found.ID, func(pool *model.Pool) error {
		if err := access.RequireActive(pool); err != nil {
			return err
		}
		return c.addMember(pool, player.ID)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("pool joined by invite",
		slog.String("pool_id", string(pool.ID)),
		slog.String("player_id", string(player.ID)),
	)
	return pool, nil
}

// RemoveMember deactivates a membership. Members may remove themselves; the owner may
// remove anyone but themselves.
func (c *Controller) RemoveMember(ctx context.Context, caller model.PlayerID, poolID model.PoolID, playerID model.PlayerID) (_ *model.Pool, err error) {
	ctx, span := platformotel.Start(ctx, "pool.RemoveMember",
		attribute.String("pool_id", string(poolID)),
		attribute.String("player_id", string(playerID)),
	)
	defer func() { platformotel.End(span, err) }()

	pool, err := c.storage.UpdatePool(ctx, poolID, func(pool *model.Pool) error {
		if err := access.RequireSelfOrOwner(pool, caller, playerID); err != nil {
			return err
		}
		if pool.IsOwner(playerID) {
			return model.ErrOwnerRequired
		}
		member := pool.GetMember(playerID)
		if member == nil || !member.Active {
			return model.ErrNotPoolMember
		}
		member.Active = false
		pool.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("pool member removed",
		slog.String("pool_id", string(poolID)),
		slog.String("player_id", string(playerID)),
	)
	return pool, nil
}

// Deactivate marks the pool inactive. Owner only. Existing sessions are untouched.
func (c *Controller) Deactivate(ctx context.Context, caller model.PlayerID, poolID model.PoolID) (*model.Pool, error) {
	pool, err := c.storage.UpdatePool(ctx, poolID, func(pool *model.Pool) error {
		if err := access.RequireOwner(pool, caller); err != nil {
			return err
		}
		pool.Active = false
		pool.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("pool deactivated", slog.String("pool_id", string(poolID)))
	return pool, nil
}

// addMember appends or reactivates a membership
func (c *Controller) addMember(pool *model.Pool, playerID model.PlayerID) error {
	now := c.clock.Now()
	if member := pool.GetMember(playerID); member != nil {
		if member.Active {
			return model.ErrAlreadyMember
		}
		member.Active = true
		member.JoinedAt = now
	} else {
		pool.Members = append(pool.Members, model.PoolMember{PlayerID: playerID, Active: true, JoinedAt: now})
	}
	pool.UpdatedAt = now
	return nil
}

// newInviteCode draws codes until an unused one is found
func (c *Controller) newInviteCode(ctx context.Context) (model.InviteCode, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := model.InviteCode(c.ids.Code(InviteCodeLength))
		exists, err := c.storage.InviteCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrInviteCodeExhausted
}
