package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/testutil"
)

type NotifySuite struct {
	suite.Suite
	ctx context.Context
}

func TestNotifySuite(t *testing.T) {
	suite.Run(t, new(NotifySuite))
}

func (s *NotifySuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *NotifySuite) event() model.Event {
	return model.Event{
		Type:      model.EventWaitlisted,
		Timestamp: time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC),
		PoolID:    "pool-1",
		SessionID: "sess-1",
		PlayerID:  "p1",
		Payload:   model.WaitlistPayload{Position: 2},
	}
}

func (s *NotifySuite) TestMultiDeliversToAllAndJoinsErrors() {
	ok := NewRecorder()
	failing := NewRecorder()
	failing.Err = errors.New("smtp down")

	err := Multi{failing, ok}.Notify(s.ctx, s.event())
	s.ErrorContains(err, "smtp down")
	s.Len(ok.Events(), 1)
	s.Len(failing.Events(), 1)
}

func (s *NotifySuite) TestDispatcherSwallowsFailures() {
	failing := NewRecorder()
	failing.Err = errors.New("boom")
	d := NewDispatcher(failing, testutil.NopLogger())

	s.NotPanics(func() {
		d.Send(s.ctx, s.event(), s.event())
	})
	s.Len(failing.Events(), 2)
}

func (s *NotifySuite) TestNilDispatcherIsNoop() {
	var d *Dispatcher
	s.NotPanics(func() { d.Send(s.ctx, s.event()) })

	NewDispatcher(nil, testutil.NopLogger()).Send(s.ctx, s.event())
}

func (s *NotifySuite) TestLogNotifier() {
	s.NoError(NewLogNotifier(testutil.NopLogger()).Notify(s.ctx, s.event()))
}

func (s *NotifySuite) TestRecorderOfType() {
	r := NewRecorder()
	_ = r.Notify(s.ctx, s.event())
	_ = r.Notify(s.ctx, model.Event{Type: model.EventJoinConfirmed})

	s.Len(r.OfType(model.EventJoinConfirmed), 1)
	r.Reset()
	s.Empty(r.Events())
}

func (s *NotifySuite) TestRedisNotifierPublishes() {
	mini := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()

	n := NewRedisNotifier(client, "")
	sub := client.Subscribe(s.ctx, n.SessionChannel("sess-1"))
	defer sub.Close()
	_, err := sub.Receive(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(n.Notify(s.ctx, s.event()))

	select {
	case msg := <-sub.Channel():
		var decoded struct {
			Type      string `json:"type"`
			SessionID string `json:"session_id"`
			PlayerID  string `json:"player_id"`
			Payload   struct {
				Position int `json:"position"`
			} `json:"payload"`
		}
		s.Require().NoError(json.Unmarshal([]byte(msg.Payload), &decoded))
		s.Equal("waitlisted", decoded.Type)
		s.Equal("sess-1", decoded.SessionID)
		s.Equal("p1", decoded.PlayerID)
		s.Equal(2, decoded.Payload.Position)
	case <-time.After(2 * time.Second):
		s.Fail("no message received")
	}
}
