// Package session drives the session lifecycle: proposed, confirmed, then completed or cancelled.
package session

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mcoot/dinkup/internal/dependencies/clock"
	"github.com/mcoot/dinkup/internal/dependencies/idgen"
	"github.com/mcoot/dinkup/internal/model"
	platformotel "github.com/mcoot/dinkup/internal/platform/otel"
	"github.com/mcoot/dinkup/internal/services/access"
	"github.com/mcoot/dinkup/internal/services/notify"
	"github.com/mcoot/dinkup/internal/services/roster"
	"github.com/mcoot/dinkup/internal/storage"
)

// Changes holds the settings to edit on a session. Nil fields are left unchanged.
type Changes struct {
	StartsAt          *time.Time
	Duration          *time.Duration
	MinPlayers        *int
	MaxPlayers        *int
	CourtsNeeded      *int
	CostPerCourt      *model.Cents
	GuestPoolPerCourt *model.Cents
	PaymentDeadline   *time.Time
	ClearDeadline     bool
	Notes             *string
}

func (c Changes) apply(settings *model.SessionSettings) {
	if c.StartsAt != nil {
		settings.StartsAt = c.StartsAt.UTC()
	}
	if c.Duration != nil {
		settings.Duration = *c.Duration
	}
	if c.MinPlayers != nil {
		settings.MinPlayers = *c.MinPlayers
	}
	if c.MaxPlayers != nil {
		settings.MaxPlayers = *c.MaxPlayers
	}
	if c.CourtsNeeded != nil {
		settings.CourtsNeeded = *c.CourtsNeeded
	}
	if c.CostPerCourt != nil {
		settings.CostPerCourt = *c.CostPerCourt
	}
	if c.GuestPoolPerCourt != nil {
		settings.GuestPoolPerCourt = *c.GuestPoolPerCourt
	}
	if c.ClearDeadline {
		settings.PaymentDeadline = nil
	} else if c.PaymentDeadline != nil {
		deadline := c.PaymentDeadline.UTC()
		settings.PaymentDeadline = &deadline
	}
	if c.Notes != nil {
		settings.Notes = *c.Notes
	}
}

// Controller manages session creation, edits and status transitions
type Controller struct {
	storage  storage.Storage
	clock    clock.Clock
	ids      idgen.Generator
	notifier *notify.Dispatcher
	logger   *slog.Logger
}

// NewController creates a new session Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	ids idgen.Generator,
	notifier *notify.Dispatcher,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:  storage,
		clock:    clock,
		ids:      ids,
		notifier: notifier,
		logger:   logger,
	}
}

// Create proposes a new session in the pool. The pool owner is enrolled as its admin participant.
func (c *Controller) Create(ctx context.Context, caller model.PlayerID, poolID model.PoolID, settings model.SessionSettings) (_ *model.Session, err error) {
	ctx, span := platformotel.Start(ctx, "session.Create", attribute.String("pool_id", string(poolID)))
	defer func() { platformotel.End(span, err) }()

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	pool, err := c.storage.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(pool, caller); err != nil {
		return nil, err
	}
	if err := access.RequireActive(pool); err != nil {
		return nil, err
	}
	owner, err := c.storage.GetPlayer(ctx, pool.OwnerID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	settings.StartsAt = settings.StartsAt.UTC()
	session := &model.Session{
		ID:              model.SessionID(c.ids.NewID("session_")),
		PoolID:          pool.ID,
		SessionSettings: settings,
		Status:          model.SessionProposed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	roster.EnrollAdmin(session, owner, model.ParticipantID(c.ids.NewID("participant_")), now)

	if err := c.storage.CreateSession(ctx, session); err != nil {
		c.logger.Error("failed to save session",
			slog.String("session_id", string(session.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.notifier.Send(ctx, c.lifecycleEvent(session, model.EventSessionCreated))
	c.logger.Info("session created",
		slog.String("session_id", string(session.ID)),
		slog.String("pool_id", string(pool.ID)),
		slog.Time("starts_at", session.StartsAt),
	)
	return session, nil
}

// Get returns a session visible to the caller
func (c *Controller) Get(ctx context.Context, caller model.PlayerID, sessionID model.SessionID) (*model.Session, error) {
	session, err := c.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	pool, err := c.storage.GetPool(ctx, session.PoolID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireMember(pool, caller); err != nil {
		return nil, err
	}
	return session, nil
}

// ListForPool returns the pool's sessions ordered by start time
func (c *Controller) ListForPool(ctx context.Context, caller model.PlayerID, poolID model.PoolID) ([]*model.Session, error) {
	pool, err := c.storage.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireMember(pool, caller); err != nil {
		return nil, err
	}
	return c.storage.ListSessionsForPool(ctx, poolID)
}

// Update edits the session settings while the roster is still open. Raising
// max players seats waitlisted participants; lowering it below the seated count fails.
func (c *Controller) Update(ctx context.Context, caller model.PlayerID, sessionID model.SessionID, changes Changes) (_ *model.Session, err error) {
	ctx, span := platformotel.Start(ctx, "session.Update", attribute.String("session_id", string(sessionID)))
	defer func() { platformotel.End(span, err) }()

	if err := c.requireOwner(ctx, caller, sessionID); err != nil {
		return nil, err
	}

	var promoted []model.Participant
	session, err := c.storage.UpdateSession(ctx, sessionID, func(s *model.Session) error {
		promoted = nil
		if s.Status.IsTerminal() {
			return model.ErrSessionClosed
		}
		if s.RosterLocked {
			return model.ErrAlreadyLocked
		}

		settings := s.SessionSettings
		changes.apply(&settings)
		if err := settings.Validate(); err != nil {
			return err
		}
		if settings.MaxPlayers < s.SeatedCount() {
			return model.ErrCapacity
		}

		now := c.clock.Now()
		s.SessionSettings = settings
		promoted = roster.FillSeats(s, now)
		s.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(promoted))
	for _, p := range promoted {
		events = append(events, model.Event{
			Type:          model.EventWaitlistPromoted,
			Timestamp:     c.clock.Now(),
			PoolID:        session.PoolID,
			SessionID:     session.ID,
			PlayerID:      p.PlayerID,
			ParticipantID: p.ID,
			Payload:       model.WaitlistPayload{Position: 0},
		})
	}
	c.notifier.Send(ctx, events...)

	c.logger.Info("session updated",
		slog.String("session_id", string(sessionID)),
		slog.Int("promoted", len(promoted)),
	)
	return session, nil
}

// Confirm moves a proposed session to confirmed and records the court booking
func (c *Controller) Confirm(ctx context.Context, caller model.PlayerID, sessionID model.SessionID, booking model.CourtBooking) (*model.Session, error) {
	return c.transition(ctx, caller, sessionID, model.SessionConfirmed, func(s *model.Session) {
		s.Court = booking
	})
}

// Complete marks a confirmed session as played
func (c *Controller) Complete(ctx context.Context, caller model.PlayerID, sessionID model.SessionID) (*model.Session, error) {
	return c.transition(ctx, caller, sessionID, model.SessionCompleted, nil)
}

// Cancel calls off a proposed or confirmed session
func (c *Controller) Cancel(ctx context.Context, caller model.PlayerID, sessionID model.SessionID) (*model.Session, error) {
	return c.transition(ctx, caller, sessionID, model.SessionCancelled, nil)
}

func (c *Controller) transition(
	ctx context.Context,
	caller model.PlayerID,
	sessionID model.SessionID,
	next model.SessionStatus,
	onEnter func(*model.Session),
) (_ *model.Session, err error) {
	ctx, span := platformotel.Start(ctx, "session.Transition",
		attribute.String("session_id", string(sessionID)),
		attribute.String("status", string(next)),
	)
	defer func() { platformotel.End(span, err) }()

	if err := c.requireOwner(ctx, caller, sessionID); err != nil {
		return nil, err
	}

	var previous model.SessionStatus
	session, err := c.storage.UpdateSession(ctx, sessionID, func(s *model.Session) error {
		if !s.Status.CanTransitionTo(next) {
			return model.ErrInvalidTransition
		}
		previous = s.Status
		s.Status = next
		if onEnter != nil {
			onEnter(s)
		}
		s.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.notifier.Send(ctx, c.lifecycleEvent(session, transitionEvents[next]))
	c.logger.Info("session status changed",
		slog.String("session_id", string(sessionID)),
		slog.String("from", string(previous)),
		slog.String("to", string(next)),
	)
	return session, nil
}

var transitionEvents = map[model.SessionStatus]model.EventType{
	model.SessionConfirmed: model.EventSessionConfirmed,
	model.SessionCompleted: model.EventSessionCompleted,
	model.SessionCancelled: model.EventSessionCancelled,
}

func (c *Controller) requireOwner(ctx context.Context, caller model.PlayerID, sessionID model.SessionID) error {
	session, err := c.storage.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	pool, err := c.storage.GetPool(ctx, session.PoolID)
	if err != nil {
		return err
	}
	return access.RequireOwner(pool, caller)
}

func (c *Controller) lifecycleEvent(s *model.Session, eventType model.EventType) model.Event {
	return model.Event{
		Type:      eventType,
		Timestamp: c.clock.Now(),
		PoolID:    s.PoolID,
		SessionID: s.ID,
		Payload: model.SessionPayload{
			Status:   s.Status,
			StartsAt: s.StartsAt,
			Location: s.Court.Location,
		},
	}
}
