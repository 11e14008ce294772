package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/dinkup/internal/model"
)

// Notifier delivers events to players. Implementations decide how; callers only decide when.
type Notifier interface {
	Notify(ctx context.Context, event model.Event) error
}

// Multi fans an event out to several notifiers, joining any errors
type Multi []Notifier

// Notify sends the event to every notifier even if one fails
func (m Multi) Notify(ctx context.Context, event model.Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatcher sends events after an operation has committed.
// Delivery failures are logged and never reported to the caller.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher; a nil notifier discards events
func NewDispatcher(notifier Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, logger: logger}
}

// Send delivers each event in order
func (d *Dispatcher) Send(ctx context.Context, events ...model.Event) {
	if d == nil || d.notifier == nil {
		return
	}
	for _, event := range events {
		if err := d.notifier.Notify(ctx, event); err != nil {
			d.logger.Warn("notification delivery failed",
				slog.String("event", string(event.Type)),
				slog.String("session_id", string(event.SessionID)),
				slog.String("player_id", string(event.PlayerID)),
				slog.String("error", err.Error()),
			)
		}
	}
}
