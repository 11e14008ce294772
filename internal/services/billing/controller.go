// Package billing locks session rosters and splits the guest pool into payments.
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mcoot/dinkup/internal/dependencies/clock"
	"github.com/mcoot/dinkup/internal/dependencies/idgen"
	"github.com/mcoot/dinkup/internal/model"
	platformotel "github.com/mcoot/dinkup/internal/platform/otel"
	"github.com/mcoot/dinkup/internal/services/access"
	"github.com/mcoot/dinkup/internal/services/notify"
	"github.com/mcoot/dinkup/internal/services/paylink"
	"github.com/mcoot/dinkup/internal/storage"
)

// noteLayout formats the session start in payment notes
const noteLayout = "2006-01-02 15:04"

// Config holds cost allocation rules
type Config struct {
	// AdminsExempt leaves admin participants out of the guest count and payments
	AdminsExempt bool
	// Location is the zone session start times are shown in on payment notes; nil means UTC
	Location *time.Location
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// DefaultConfig returns the default allocation rules
func DefaultConfig() Config {
	return Config{AdminsExempt: true}
}

// Controller locks rosters and reports session costs
type Controller struct {
	storage  storage.Storage
	links    paylink.Generator
	clock    clock.Clock
	ids      idgen.Generator
	notifier *notify.Dispatcher
	config   Config
	logger   *slog.Logger
}

// NewController creates a new billing Controller
func NewController(
	storage storage.Storage,
	links paylink.Generator,
	clock clock.Clock,
	ids idgen.Generator,
	notifier *notify.Dispatcher,
	config Config,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:  storage,
		links:    links,
		clock:    clock,
		ids:      ids,
		notifier: notifier,
		config:   config,
		logger:   logger,
	}
}

// Lock freezes the roster and issues one pending payment per guest. Owner only.
// Locking is one-way; a second call fails with ErrAlreadyLocked and changes nothing.
func (c *Controller) Lock(ctx context.Context, caller model.PlayerID, sessionID model.SessionID) (_ *model.Session, err error) {
	ctx, span := platformotel.Start(ctx, "billing.Lock", attribute.String("session_id", string(sessionID)))
	defer func() { platformotel.End(span, err) }()

	current, err := c.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	pool, err := c.storage.GetPool(ctx, current.PoolID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(pool, caller); err != nil {
		return nil, err
	}
	collector, err := c.storage.GetPlayer(ctx, pool.OwnerID)
	if err != nil {
		return nil, err
	}

	var guests []model.Participant
	session, err := c.storage.UpdateSession(ctx, sessionID, func(s *model.Session) error {
		if s.Status.IsTerminal() {
			return model.ErrInvalidTransition
		}
		if s.RosterLocked {
			return model.ErrAlreadyLocked
		}
		guests = s.Guests(c.config.AdminsExempt)
		if len(guests) == 0 {
			return model.ErrInsufficientGuests
		}

		now := c.clock.Now()
		note := fmt.Sprintf("%s %s", pool.Name, s.StartsAt.In(c.config.location()).Format(noteLayout))
		shares := Allocate(s.TotalGuestPool(), len(guests))

		s.Payments = make([]model.Payment, 0, len(guests))
		for i, guest := range guests {
			s.Payments = append(s.Payments, model.Payment{
				ID:            model.PaymentID(c.ids.NewID("payment_")),
				SessionID:     s.ID,
				ParticipantID: guest.ID,
				PlayerID:      guest.PlayerID,
				Amount:        shares[i],
				Status:        model.PaymentPending,
				Link:          c.links.Link(collector.PaymentHandle, shares[i], note),
				RequestedAt:   now,
			})
		}
		s.RosterLocked = true
		s.LockedAt = &now
		s.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.notifier.Send(ctx, c.lockEvents(session, len(guests))...)
	c.logger.Info("roster locked",
		slog.String("session_id", string(sessionID)),
		slog.Int("guests", len(guests)),
		slog.String("total", session.TotalGuestPool().String()),
	)
	return session, nil
}

// CostSummary returns the session's cost view for a pool member
func (c *Controller) CostSummary(ctx context.Context, caller model.PlayerID, sessionID model.SessionID) (Cost, error) {
	session, err := c.storage.GetSession(ctx, sessionID)
	if err != nil {
		return Cost{}, err
	}
	pool, err := c.storage.GetPool(ctx, session.PoolID)
	if err != nil {
		return Cost{}, err
	}
	if err := access.RequireMember(pool, caller); err != nil {
		return Cost{}, err
	}
	return Summarize(session, c.config.AdminsExempt), nil
}

func (c *Controller) lockEvents(s *model.Session, guestCount int) []model.Event {
	now := c.clock.Now()
	var events []model.Event
	for _, p := range s.Participants {
		if !p.Status.IsSeated() {
			continue
		}
		events = append(events, model.Event{
			Type:          model.EventRosterLocked,
			Timestamp:     now,
			PoolID:        s.PoolID,
			SessionID:     s.ID,
			PlayerID:      p.PlayerID,
			ParticipantID: p.ID,
			Payload: model.RosterLockedPayload{
				GuestCount: guestCount,
				GuestCost:  s.TotalGuestPool().DivideHalfUp(guestCount),
				Total:      s.TotalGuestPool(),
			},
		})
	}
	for _, payment := range s.Payments {
		events = append(events, model.Event{
			Type:          model.EventPaymentRequested,
			Timestamp:     now,
			PoolID:        s.PoolID,
			SessionID:     s.ID,
			PlayerID:      payment.PlayerID,
			ParticipantID: payment.ParticipantID,
			Payload: model.PaymentPayload{
				PaymentID: payment.ID,
				Amount:    payment.Amount,
				Link:      payment.Link,
				Deadline:  s.PaymentDeadline,
			},
		})
	}
	return events
}
