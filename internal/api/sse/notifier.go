package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/services/notify"
)

// rosterEvents are shown to everyone watching the session, whoever they are addressed to
var rosterEvents = map[model.EventType]bool{
	model.EventJoinConfirmed:      true,
	model.EventWaitlisted:         true,
	model.EventWaitlistPromoted:   true,
	model.EventParticipantLeft:    true,
	model.EventParticipantRemoved: true,
}

// Notify implements notify.Notifier. Events for sessions nobody is watching are discarded.
func (m *HubManager) Notify(_ context.Context, event model.Event) error {
	if event.SessionID == "" {
		return nil
	}
	hub := m.GetHub(event.SessionID)
	if hub == nil {
		return nil
	}

	data, err := json.Marshal(notify.NewMessage(event))
	if err != nil {
		return fmt.Errorf("encode sse event: %w", err)
	}

	if event.PlayerID == "" || rosterEvents[event.Type] {
		hub.BroadcastEvent(string(event.Type), string(data))
	} else {
		hub.SendEvent(event.PlayerID, string(event.Type), string(data))
	}
	return nil
}

// RunJanitor removes idle hubs every interval until ctx is cancelled
func (m *HubManager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupEmptyHubs()
		}
	}
}

var _ notify.Notifier = (*HubManager)(nil)
