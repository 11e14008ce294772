// Package payment records payment confirmations and reports what is still owed.
package payment

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mcoot/dinkup/internal/dependencies/clock"
	"github.com/mcoot/dinkup/internal/model"
	platformotel "github.com/mcoot/dinkup/internal/platform/otel"
	"github.com/mcoot/dinkup/internal/services/access"
	"github.com/mcoot/dinkup/internal/services/notify"
	"github.com/mcoot/dinkup/internal/storage"
)

// Row is one line of the payment dashboard
type Row struct {
	PaymentID     model.PaymentID
	ParticipantID model.ParticipantID
	PlayerID      model.PlayerID
	Name          string
	IsAdmin       bool
	Amount        model.Cents
	Status        model.PaymentStatus
	Link          string
	RequestedAt   time.Time
	PaidAt        *time.Time
}

// Dashboard lists every payment of a session with collection totals
type Dashboard struct {
	SessionID   model.SessionID
	Rows        []Row
	Total       model.Cents
	Collected   model.Cents
	Outstanding model.Cents
}

// Tracker confirms payments and answers payment queries
type Tracker struct {
	storage  storage.Storage
	clock    clock.Clock
	notifier *notify.Dispatcher
	logger   *slog.Logger
}

// NewTracker creates a new payment Tracker
func NewTracker(
	storage storage.Storage,
	clock clock.Clock,
	notifier *notify.Dispatcher,
	logger *slog.Logger,
) *Tracker {
	return &Tracker{
		storage:  storage,
		clock:    clock,
		notifier: notifier,
		logger:   logger,
	}
}

// MarkPaid confirms a pending payment. The payer or the pool owner may confirm;
// the confirmation is trusted, not verified against any payment network.
func (t *Tracker) MarkPaid(ctx context.Context, caller model.PlayerID, paymentID model.PaymentID) (_ *model.Payment, err error) {
	ctx, span := platformotel.Start(ctx, "payment.MarkPaid", attribute.String("payment_id", string(paymentID)))
	defer func() { platformotel.End(span, err) }()

	sessionID, err := t.storage.SessionForPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	current, err := t.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	pool, err := t.storage.GetPool(ctx, current.PoolID)
	if err != nil {
		return nil, err
	}

	var paid model.Payment
	session, err := t.storage.UpdateSession(ctx, sessionID, func(s *model.Session) error {
		p := s.GetPayment(paymentID)
		if p == nil {
			return model.ErrPaymentNotFound
		}
		if err := access.RequireSelfOrOwner(pool, caller, p.PlayerID); err != nil {
			return err
		}
		if p.Status == model.PaymentPaid {
			return model.ErrAlreadyPaid
		}

		now := t.clock.Now()
		p.Status = model.PaymentPaid
		p.PaidAt = &now
		if participant := s.GetParticipant(p.ParticipantID); participant != nil {
			participant.Status = model.ParticipantPaid
			participant.UpdatedAt = now
		}
		s.UpdatedAt = now
		paid = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.notifier.Send(ctx, model.Event{
		Type:          model.EventPaymentReceived,
		Timestamp:     t.clock.Now(),
		PoolID:        session.PoolID,
		SessionID:     session.ID,
		PlayerID:      paid.PlayerID,
		ParticipantID: paid.ParticipantID,
		Payload:       model.PaymentPayload{PaymentID: paid.ID, Amount: paid.Amount},
	})
	t.logger.Info("payment marked paid",
		slog.String("payment_id", string(paymentID)),
		slog.String("session_id", string(sessionID)),
		slog.String("confirmed_by", string(caller)),
	)
	return &paid, nil
}

// Outstanding returns participants with pending payments, admins first, then by name
func (t *Tracker) Outstanding(ctx context.Context, caller model.PlayerID, sessionID model.SessionID) ([]Row, error) {
	session, err := t.load(ctx, caller, sessionID)
	if err != nil {
		return nil, err
	}
	var pending []Row
	for _, row := range rows(session) {
		if row.Status == model.PaymentPending {
			pending = append(pending, row)
		}
	}
	return pending, nil
}

// Dashboard returns every payment of the session with totals
func (t *Tracker) Dashboard(ctx context.Context, caller model.PlayerID, sessionID model.SessionID) (*Dashboard, error) {
	session, err := t.load(ctx, caller, sessionID)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{SessionID: session.ID, Rows: rows(session)}
	for _, row := range dashboard.Rows {
		dashboard.Total += row.Amount
		if row.Status == model.PaymentPaid {
			dashboard.Collected += row.Amount
		} else {
			dashboard.Outstanding += row.Amount
		}
	}
	return dashboard, nil
}

// RemindDue notifies pending payers of locked sessions whose payment deadline
// falls within the next window. With a non-empty owner, only that owner's pools
// are considered. It returns the number of reminders sent.
func (t *Tracker) RemindDue(ctx context.Context, owner model.PlayerID, window time.Duration) (_ int, err error) {
	ctx, span := platformotel.Start(ctx, "payment.RemindDue")
	defer func() { platformotel.End(span, err) }()

	now := t.clock.Now()
	sessions, err := t.storage.ListSessionsWithDeadlineBetween(ctx, now, now.Add(window))
	if err != nil {
		return 0, err
	}

	var events []model.Event
	for _, session := range sessions {
		if session.Status.IsTerminal() {
			continue
		}
		if owner != "" {
			pool, err := t.storage.GetPool(ctx, session.PoolID)
			if err != nil {
				return 0, err
			}
			if !pool.IsOwner(owner) {
				continue
			}
		}
		for _, p := range session.Payments {
			if p.Status != model.PaymentPending {
				continue
			}
			events = append(events, model.Event{
				Type:          model.EventPaymentDeadlineDue,
				Timestamp:     now,
				PoolID:        session.PoolID,
				SessionID:     session.ID,
				PlayerID:      p.PlayerID,
				ParticipantID: p.ParticipantID,
				Payload: model.PaymentPayload{
					PaymentID: p.ID,
					Amount:    p.Amount,
					Link:      p.Link,
					Deadline:  session.PaymentDeadline,
				},
			})
		}
	}

	t.notifier.Send(ctx, events...)
	t.logger.Info("payment reminders sent",
		slog.Int("sessions", len(sessions)),
		slog.Int("reminders", len(events)),
	)
	return len(events), nil
}

func (t *Tracker) load(ctx context.Context, caller model.PlayerID, sessionID model.SessionID) (*model.Session, error) {
	session, err := t.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	pool, err := t.storage.GetPool(ctx, session.PoolID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireMember(pool, caller); err != nil {
		return nil, err
	}
	return session, nil
}

// rows joins payments to their participants, ordered admin first then by name
func rows(s *model.Session) []Row {
	out := make([]Row, 0, len(s.Payments))
	for _, p := range s.Payments {
		row := Row{
			PaymentID:     p.ID,
			ParticipantID: p.ParticipantID,
			PlayerID:      p.PlayerID,
			Amount:        p.Amount,
			Status:        p.Status,
			Link:          p.Link,
			RequestedAt:   p.RequestedAt,
			PaidAt:        p.PaidAt,
		}
		if participant := s.GetParticipant(p.ParticipantID); participant != nil {
			row.Name = participant.Name
			row.IsAdmin = participant.IsAdmin
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsAdmin != out[j].IsAdmin {
			return out[i].IsAdmin
		}
		return out[i].Name < out[j].Name
	})
	return out
}
