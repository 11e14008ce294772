package notify

import (
	"context"
	"sync"

	"github.com/mcoot/dinkup/internal/model"
)

// Recorder keeps every event in memory; used by tests to assert on notifications
type Recorder struct {
	mu     sync.Mutex
	events []model.Event

	// Err, when set, is returned from every Notify call
	Err error
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify records the event
func (r *Recorder) Notify(ctx context.Context, event model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Event(nil), r.events...)
}

// OfType returns recorded events of the given type
func (r *Recorder) OfType(t model.EventType) []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears recorded events
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
