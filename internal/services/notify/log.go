package notify

import (
	"context"
	"log/slog"

	"github.com/mcoot/dinkup/internal/model"
)

// LogNotifier records every event as a structured log line
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event
func (n *LogNotifier) Notify(ctx context.Context, event model.Event) error {
	n.logger.InfoContext(ctx, "notification",
		slog.String("event", string(event.Type)),
		slog.String("pool_id", string(event.PoolID)),
		slog.String("session_id", string(event.SessionID)),
		slog.String("player_id", string(event.PlayerID)),
		slog.String("participant_id", string(event.ParticipantID)),
	)
	return nil
}
