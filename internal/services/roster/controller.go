// Package roster seats, waitlists and removes session participants.
package roster

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mcoot/dinkup/internal/dependencies/clock"
	"github.com/mcoot/dinkup/internal/dependencies/idgen"
	"github.com/mcoot/dinkup/internal/model"
	platformotel "github.com/mcoot/dinkup/internal/platform/otel"
	"github.com/mcoot/dinkup/internal/services/access"
	"github.com/mcoot/dinkup/internal/services/notify"
	"github.com/mcoot/dinkup/internal/storage"
)

// Controller manages session rosters and the waitlist
type Controller struct {
	storage  storage.Storage
	clock    clock.Clock
	ids      idgen.Generator
	notifier *notify.Dispatcher
	logger   *slog.Logger
}

// NewController creates a new roster Controller
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

// Join places a player in the session. Players join themselves; the pool owner
// may also add any active pool member.
func (c *Controller) Join(ctx context.Context, caller model.PlayerID, sessionID model.SessionID, playerID model.PlayerID) (_ *model.Participant, err error) {
	ctx, span := platformotel.Start(ctx, "roster.Join",
		attribute.String("session_id", string(sessionID)),
		attribute.String("player_id", string(playerID)),
	)
	defer func() { platformotel.End(span, err) }()

	_, pool, err := c.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireSelfOrOwner(pool, caller, playerID); err != nil {
		return nil, err
	}
	if err := access.RequireMember(pool, playerID); err != nil {
		return nil, err
	}
	player, err := c.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	var joined model.Participant
	var waitlisted bool
	_, err = c.storage.UpdateSession(ctx, sessionID, func(s *model.Session) error {
		if err := requireOpen(s); err != nil {
			return err
		}
		now := c.clock.Now()

		if existing := s.ParticipantForPlayer(playerID); existing != nil {
			if existing.Status != model.ParticipantDeclined {
				return model.ErrDuplicateMembership
			}
			waitlisted = Seat(s, existing, now)
			s.UpdatedAt = now
			joined = *existing
			return nil
		}

		p := model.Participant{
			ID:        model.ParticipantID(c.ids.NewID("participant_")),
			SessionID: s.ID,
			PlayerID:  player.ID,
			Name:      player.Name,
			JoinedAt:  now,
		}
		waitlisted = Seat(s, &p, now)
		s.Participants = append(s.Participants, p)
		s.UpdatedAt = now
		joined = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := c.event(pool.ID, joined, model.EventJoinConfirmed)
	if waitlisted {
		event = c.event(pool.ID, joined, model.EventWaitlisted)
		event.Payload = model.WaitlistPayload{Position: joined.WaitlistPosition}
	}
	c.notifier.Send(ctx, event)

	c.logger.Info("player joined session",
		slog.String("session_id", string(sessionID)),
		slog.String("player_id", string(playerID)),
		slog.String("status", string(joined.Status)),
		slog.Int("waitlist_position", joined.WaitlistPosition),
	)
	return &joined, nil
}

// Leave removes the caller from the session, promoting from the waitlist if a seat frees up
func (c *Controller) Leave(ctx context.Context, caller model.PlayerID, sessionID model.SessionID) (err error) {
	ctx, span := platformotel.Start(ctx, "roster.Leave",
		attribute.String("session_id", string(sessionID)),
		attribute.String("player_id", string(caller)),
	)
	defer func() { platformotel.End(span, err) }()

	var left model.Participant
	var promoted *model.Participant
	session, err := c.storage.UpdateSession(ctx, sessionID, func(s *model.Session) error {
		if err := requireOpen(s); err != nil {
			return err
		}
		p := s.ParticipantForPlayer(caller)
		if p == nil || p.Status == model.ParticipantDeclined {
			return model.ErrParticipantNotFound
		}
		if p.IsAdmin {
			return model.ErrAdminParticipant
		}
		left = *p
		now := c.clock.Now()
		promoted = Vacate(s, p.ID, false, now)
		s.UpdatedAt = now
		return nil
	})
	if err != nil {
		return err
	}

	c.notifyVacated(ctx, session.PoolID, left, promoted, model.EventParticipantLeft)
	c.logger.Info("player left session",
		slog.String("session_id", string(sessionID)),
		slog.String("player_id", string(caller)),
	)
	return nil
}

// Decline records that the caller is not coming. An existing row keeps its history as declined.
func (c *Controller) Decline(ctx context.Context, caller model.PlayerID, sessionID model.SessionID) (_ *model.Participant, err error) {
	ctx, span := platformotel.Start(ctx, "roster.Decline",
		attribute.String("session_id", string(sessionID)),
		attribute.String("player_id", string(caller)),
	)
	defer func() { platformotel.End(span, err) }()

	_, pool, err := c.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireMember(pool, caller); err != nil {
		return nil, err
	}
	player, err := c.storage.GetPlayer(ctx, caller)
	if err != nil {
		return nil, err
	}

	var declined model.Participant
	var vacated bool
	var promoted *model.Participant
	_, err = c.storage.UpdateSession(ctx, sessionID, func(s *model.Session) error {
		vacated, promoted = false, nil
		if err := requireOpen(s); err != nil {
			return err
		}
		now := c.clock.Now()

		p := s.ParticipantForPlayer(caller)
		if p == nil {
			row := model.Participant{
				ID:        model.ParticipantID(c.ids.NewID("participant_")),
				SessionID: s.ID,
				PlayerID:  player.ID,
				Name:      player.Name,
				Status:    model.ParticipantDeclined,
				JoinedAt:  now,
				UpdatedAt: now,
			}
			s.Participants = append(s.Participants, row)
			s.UpdatedAt = now
			declined = row
			return nil
		}
		if p.Status == model.ParticipantDeclined {
			declined = *p
			return nil
		}
		if p.IsAdmin {
			return model.ErrAdminParticipant
		}

		vacated = true
		id := p.ID
		promoted = Vacate(s, id, true, now)
		s.UpdatedAt = now
		declined = *s.GetParticipant(id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if vacated {
		c.notifyVacated(ctx, pool.ID, declined, promoted, model.EventParticipantLeft)
	}
	c.logger.Info("player declined session",
		slog.String("session_id", string(sessionID)),
		slog.String("player_id", string(caller)),
	)
	return &declined, nil
}

// Remove takes a participant off the roster. Owner only; admin participants cannot be removed.
func (c *Controller) Remove(ctx context.Context, caller model.PlayerID, sessionID model.SessionID, participantID model.ParticipantID) (err error) {
	ctx, span := platformotel.Start(ctx, "roster.Remove",
		attribute.String("session_id", string(sessionID)),
		attribute.String("participant_id", string(participantID)),
	)
	defer func() { platformotel.End(span, err) }()

	_, pool, err := c.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := access.RequireOwner(pool, caller); err != nil {
		return err
	}

	var removed model.Participant
	var promoted *model.Participant
	_, err = c.storage.UpdateSession(ctx, sessionID, func(s *model.Session) error {
		if err := requireOpen(s); err != nil {
			return err
		}
		p := s.GetParticipant(participantID)
		if p == nil {
			return model.ErrParticipantNotFound
		}
		if p.IsAdmin {
			return model.ErrAdminParticipant
		}
		removed = *p
		now := c.clock.Now()
		promoted = Vacate(s, participantID, false, now)
		s.UpdatedAt = now
		return nil
	})
	if err != nil {
		return err
	}

	c.notifyVacated(ctx, pool.ID, removed, promoted, model.EventParticipantRemoved)
	c.logger.Info("participant removed",
		slog.String("session_id", string(sessionID)),
		slog.String("participant_id", string(participantID)),
		slog.String("removed_by", string(caller)),
	)
	return nil
}

// Waitlist returns the session's waitlisted participants ordered by position
func (c *Controller) Waitlist(ctx context.Context, caller model.PlayerID, sessionID model.SessionID) ([]model.Participant, error) {
	session, pool, err := c.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireMember(pool, caller); err != nil {
		return nil, err
	}
	return session.Waitlist(), nil
}

// Summary returns roster counts for the session
func (c *Controller) Summary(ctx context.Context, caller model.PlayerID, sessionID model.SessionID) (Summary, error) {
	session, pool, err := c.load(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}
	if err := access.RequireMember(pool, caller); err != nil {
		return Summary{}, err
	}
	return Summarize(session), nil
}

func (c *Controller) load(ctx context.Context, sessionID model.SessionID) (*model.Session, *model.Pool, error) {
	session, err := c.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	pool, err := c.storage.GetPool(ctx, session.PoolID)
	if err != nil {
		return nil, nil, err
	}
	return session, pool, nil
}

func (c *Controller) notifyVacated(ctx context.Context, poolID model.PoolID, vacated model.Participant, promoted *model.Participant, eventType model.EventType) {
	events := []model.Event{c.event(poolID, vacated, eventType)}
	if promoted != nil {
		promotedEvent := c.event(poolID, *promoted, model.EventWaitlistPromoted)
		promotedEvent.Payload = model.WaitlistPayload{Position: 0}
		events = append(events, promotedEvent)

		c.logger.Info("waitlist promoted",
			slog.String("session_id", string(promoted.SessionID)),
			slog.String("player_id", string(promoted.PlayerID)),
		)
	}
	c.notifier.Send(ctx, events...)
}

func (c *Controller) event(poolID model.PoolID, p model.Participant, eventType model.EventType) model.Event {
	return model.Event{
		Type:          eventType,
		Timestamp:     c.clock.Now(),
		PoolID:        poolID,
		SessionID:     p.SessionID,
		PlayerID:      p.PlayerID,
		ParticipantID: p.ID,
	}
}

// requireOpen rejects roster changes on terminal or locked sessions
func requireOpen(s *model.Session) error {
	if s.Status.IsTerminal() {
		return model.ErrSessionClosed
	}
	if s.RosterLocked {
		return model.ErrAlreadyLocked
	}
	return nil
}
