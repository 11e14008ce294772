package roster

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dinkup/internal/dependencies/mocks"
	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/services/notify"
	"github.com/mcoot/dinkup/internal/storage/memory"
	"github.com/mcoot/dinkup/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	ids        *mocks.MockIDs
	recorder   *notify.Recorder
	controller *Controller
	ctx        context.Context

	owner   *model.Player
	pool    *model.Pool
	players []*model.Player
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ids = mocks.NewMockIDs()
	s.recorder = notify.NewRecorder()
	logger := testutil.NopLogger()
	s.controller = NewController(s.storage, s.clock, s.ids, notify.NewDispatcher(s.recorder, logger), logger)
	s.ctx = context.Background()

	s.owner = s.savePlayer("player-owner", "Olive")
	s.pool = &model.Pool{
		ID:         "pool-1",
		Name:       "Tuesday Dinks",
		Active:     true,
		OwnerID:    s.owner.ID,
		InviteCode: "ABC234",
		Members:    []model.PoolMember{{PlayerID: s.owner.ID, Active: true}},
	}
	s.players = nil
	for i := 1; i <= 10; i++ {
		p := s.savePlayer(fmt.Sprintf("player-%02d", i), fmt.Sprintf("Player %02d", i))
		s.pool.Members = append(s.pool.Members, model.PoolMember{PlayerID: p.ID, Active: true})
		s.players = append(s.players, p)
	}
	s.Require().NoError(s.storage.CreatePool(s.ctx, s.pool))
}

func (s *ControllerSuite) savePlayer(id, name string) *model.Player {
	p := &model.Player{ID: model.PlayerID(id), Name: name, Active: true}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, p))
	return p
}

func (s *ControllerSuite) createSession(maxPlayers int) *model.Session {
	session := &model.Session{
		ID:     "session-1",
		PoolID: s.pool.ID,
		SessionSettings: model.SessionSettings{
			StartsAt:     s.clock.Now().Add(48 * time.Hour),
			Duration:     2 * time.Hour,
			MinPlayers:   1,
			MaxPlayers:   maxPlayers,
			CourtsNeeded: 1,
		},
		Status: model.SessionProposed,
	}
	EnrollAdmin(session, s.owner, "participant-000000", s.clock.Now())
	s.Require().NoError(s.storage.CreateSession(s.ctx, session))
	return session
}

func (s *ControllerSuite) join(p *model.Player) *model.Participant {
	participant, err := s.controller.Join(s.ctx, p.ID, "session-1", p.ID)
	s.Require().NoError(err)
	return participant
}

func (s *ControllerSuite) session() *model.Session {
	session, err := s.storage.GetSession(s.ctx, "session-1")
	s.Require().NoError(err)
	return session
}

func (s *ControllerSuite) assertInvariants() {
	session := s.session()
	s.LessOrEqual(session.SeatedCount(), session.MaxPlayers)
	for i, w := range session.Waitlist() {
		s.Equal(i+1, w.WaitlistPosition)
	}
}

// Join tests

func (s *ControllerSuite) TestSevenSeatScenario() {
	s.createSession(7)

	for _, p := range s.players[:6] {
		s.Equal(model.ParticipantCommitted, s.join(p).Status)
	}
	seventh := s.join(s.players[6])
	eighth := s.join(s.players[7])
	s.Equal(model.ParticipantMaybe, seventh.Status)
	s.Equal(1, seventh.WaitlistPosition)
	s.Equal(model.ParticipantMaybe, eighth.Status)
	s.Equal(2, eighth.WaitlistPosition)

	s.Require().NoError(s.controller.Leave(s.ctx, s.players[0].ID, "session-1"))

	session := s.session()
	s.Equal(model.ParticipantCommitted, session.GetParticipant(seventh.ID).Status)
	s.Zero(session.GetParticipant(seventh.ID).WaitlistPosition)
	s.Equal(1, session.GetParticipant(eighth.ID).WaitlistPosition)
	s.Equal(7, session.SeatedCount())
	s.assertInvariants()

	promoted := s.recorder.OfType(model.EventWaitlistPromoted)
	s.Require().Len(promoted, 1)
	s.Equal(s.players[6].ID, promoted[0].PlayerID)
}

func (s *ControllerSuite) TestJoinSendsNotifications() {
	s.createSession(2)
	s.join(s.players[0])
	s.join(s.players[1])

	s.Len(s.recorder.OfType(model.EventJoinConfirmed), 1)
	waitlisted := s.recorder.OfType(model.EventWaitlisted)
	s.Require().Len(waitlisted, 1)
	s.Equal(model.WaitlistPayload{Position: 1}, waitlisted[0].Payload)
	s.Equal(s.pool.ID, waitlisted[0].PoolID)
}

func (s *ControllerSuite) TestJoinTwiceFails() {
	s.createSession(4)
	s.join(s.players[0])

	_, err := s.controller.Join(s.ctx, s.players[0].ID, "session-1", s.players[0].ID)
	s.ErrorIs(err, model.ErrDuplicateMembership)
}

func (s *ControllerSuite) TestJoinAfterDeclineReusesRow() {
	s.createSession(4)
	first := s.join(s.players[0])
	_, err := s.controller.Decline(s.ctx, s.players[0].ID, "session-1")
	s.Require().NoError(err)

	again := s.join(s.players[0])
	s.Equal(first.ID, again.ID)
	s.Equal(model.ParticipantCommitted, again.Status)
	s.Len(s.session().Participants, 2)
}

func (s *ControllerSuite) TestJoinRequiresMembership() {
	s.createSession(4)
	outsider := s.savePlayer("player-outsider", "Outsider")

	_, err := s.controller.Join(s.ctx, outsider.ID, "session-1", outsider.ID)
	s.ErrorIs(err, model.ErrNotPoolMember)
}

func (s *ControllerSuite) TestJoinOnBehalfOfOthersRequiresOwner() {
	s.createSession(4)

	_, err := s.controller.Join(s.ctx, s.players[0].ID, "session-1", s.players[1].ID)
	s.ErrorIs(err, model.ErrForbidden)

	p, err := s.controller.Join(s.ctx, s.owner.ID, "session-1", s.players[1].ID)
	s.Require().NoError(err)
	s.Equal(s.players[1].ID, p.PlayerID)
}

func (s *ControllerSuite) TestOwnerCannotSeatPlayerOutsidePool() {
	s.createSession(4)
	outsider := s.savePlayer("player-outsider", "Outsider")

	_, err := s.controller.Join(s.ctx, s.owner.ID, "session-1", outsider.ID)
	s.ErrorIs(err, model.ErrNotPoolMember)
	s.Nil(s.session().ParticipantForPlayer(outsider.ID))
}

func (s *ControllerSuite) TestJoinLockedSessionFails() {
	s.createSession(4)
	_, err := s.storage.UpdateSession(s.ctx, "session-1", func(session *model.Session) error {
		session.RosterLocked = true
		return nil
	})
	s.Require().NoError(err)

	_, err = s.controller.Join(s.ctx, s.players[0].ID, "session-1", s.players[0].ID)
	s.ErrorIs(err, model.ErrAlreadyLocked)
}

func (s *ControllerSuite) TestJoinCancelledSessionFails() {
	s.createSession(4)
	_, err := s.storage.UpdateSession(s.ctx, "session-1", func(session *model.Session) error {
		session.Status = model.SessionCancelled
		return nil
	})
	s.Require().NoError(err)

	_, err = s.controller.Join(s.ctx, s.players[0].ID, "session-1", s.players[0].ID)
	s.ErrorIs(err, model.ErrSessionClosed)
}

func (s *ControllerSuite) TestJoinUnknownSessionFails() {
	_, err := s.controller.Join(s.ctx, s.players[0].ID, "session-missing", s.players[0].ID)
	s.ErrorIs(err, model.ErrSessionNotFound)
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *ControllerSuite) TestConcurrentJoinsNeverOverfill() {
	s.createSession(5)

	var wg sync.WaitGroup
	for _, p := range s.players {
		wg.Add(1)
		go func(p *model.Player) {
			defer wg.Done()
			_, err := s.controller.Join(s.ctx, p.ID, "session-1", p.ID)
			s.NoError(err)
		}(p)
	}
	wg.Wait()

	session := s.session()
	s.Equal(5, session.SeatedCount())
	s.Len(session.Waitlist(), 6)
	s.assertInvariants()
}

func (s *ControllerSuite) TestRandomRosterChangesKeepInvariants() {
	s.createSession(4)
	rng := rand.New(rand.NewSource(42))

	for step := 0; step < 500; step++ {
		p := s.players[rng.Intn(len(s.players))]
		var err error
		switch rng.Intn(3) {
		case 0:
			_, err = s.controller.Join(s.ctx, p.ID, "session-1", p.ID)
			if errors.Is(err, model.ErrDuplicateMembership) {
				err = nil
			}
		case 1:
			err = s.controller.Leave(s.ctx, p.ID, "session-1")
			if errors.Is(err, model.ErrParticipantNotFound) {
				err = nil
			}
		case 2:
			_, err = s.controller.Decline(s.ctx, p.ID, "session-1")
		}
		s.Require().NoError(err, "step %d", step)

		s.assertInvariants()
		session := s.session()
		if len(session.Waitlist()) > 0 {
			s.Equal(session.MaxPlayers, session.SeatedCount(), "step %d: seat free while players wait", step)
		}
	}
}

// Leave, decline and remove tests

func (s *ControllerSuite) TestLeaveWaitlistedShiftsPositions() {
	s.createSession(2)
	s.join(s.players[0])
	s.join(s.players[1])
	second := s.join(s.players[2])
	third := s.join(s.players[3])
	s.Equal(3, third.WaitlistPosition)

	s.Require().NoError(s.controller.Leave(s.ctx, s.players[1].ID, "session-1"))

	session := s.session()
	s.Equal(1, session.GetParticipant(second.ID).WaitlistPosition)
	s.Equal(2, session.GetParticipant(third.ID).WaitlistPosition)
	s.Nil(session.ParticipantForPlayer(s.players[1].ID))
	s.Empty(s.recorder.OfType(model.EventWaitlistPromoted))
	s.assertInvariants()
}

func (s *ControllerSuite) TestAdminCannotLeave() {
	s.createSession(4)
	err := s.controller.Leave(s.ctx, s.owner.ID, "session-1")
	s.ErrorIs(err, model.ErrAdminParticipant)
}

func (s *ControllerSuite) TestLeaveWithoutRowFails() {
	s.createSession(4)
	err := s.controller.Leave(s.ctx, s.players[0].ID, "session-1")
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

func (s *ControllerSuite) TestDeclinePromotesAndKeepsRow() {
	s.createSession(2)
	s.join(s.players[0])
	waiting := s.join(s.players[1])

	declined, err := s.controller.Decline(s.ctx, s.players[0].ID, "session-1")
	s.Require().NoError(err)
	s.Equal(model.ParticipantDeclined, declined.Status)

	session := s.session()
	s.Equal(model.ParticipantCommitted, session.GetParticipant(waiting.ID).Status)
	s.Equal(model.ParticipantDeclined, session.ParticipantForPlayer(s.players[0].ID).Status)
	s.assertInvariants()
}

func (s *ControllerSuite) TestDeclineWithoutRowRecordsDeclined() {
	s.createSession(2)

	declined, err := s.controller.Decline(s.ctx, s.players[0].ID, "session-1")
	s.Require().NoError(err)
	s.Equal(model.ParticipantDeclined, declined.Status)

	again, err := s.controller.Decline(s.ctx, s.players[0].ID, "session-1")
	s.Require().NoError(err)
	s.Equal(declined.ID, again.ID)
	s.Equal(1, s.session().CountByStatus(model.ParticipantDeclined))
}

func (s *ControllerSuite) TestRemoveByOwner() {
	s.createSession(2)
	seated := s.join(s.players[0])
	waiting := s.join(s.players[1])

	err := s.controller.Remove(s.ctx, s.players[1].ID, "session-1", seated.ID)
	s.ErrorIs(err, model.ErrForbidden)

	s.Require().NoError(s.controller.Remove(s.ctx, s.owner.ID, "session-1", seated.ID))
	session := s.session()
	s.Nil(session.GetParticipant(seated.ID))
	s.Equal(model.ParticipantCommitted, session.GetParticipant(waiting.ID).Status)
	s.Len(s.recorder.OfType(model.EventParticipantRemoved), 1)
}

func (s *ControllerSuite) TestRemoveAdminFails() {
	s.createSession(2)
	err := s.controller.Remove(s.ctx, s.owner.ID, "session-1", "participant-000000")
	s.ErrorIs(err, model.ErrAdminParticipant)
}

func (s *ControllerSuite) TestRemoveUnknownParticipantFails() {
	s.createSession(2)
	err := s.controller.Remove(s.ctx, s.owner.ID, "session-1", "participant-missing")
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

// Query tests

func (s *ControllerSuite) TestWaitlistAndSummary() {
	s.createSession(2)
	for _, p := range s.players[:4] {
		s.join(p)
	}

	waitlist, err := s.controller.Waitlist(s.ctx, s.players[0].ID, "session-1")
	s.Require().NoError(err)
	s.Require().Len(waitlist, 3)
	s.Equal(s.players[1].ID, waitlist[0].PlayerID)

	summary, err := s.controller.Summary(s.ctx, s.owner.ID, "session-1")
	s.Require().NoError(err)
	s.Equal(2, summary.Seated)
	s.Equal(3, summary.Waitlisted)
	s.Equal(0, summary.OpenSeats)
}

func (s *ControllerSuite) TestQueriesRequireMembership() {
	s.createSession(2)
	outsider := s.savePlayer("player-outsider", "Outsider")

	_, err := s.controller.Waitlist(s.ctx, outsider.ID, "session-1")
	s.ErrorIs(err, model.ErrNotPoolMember)
	_, err = s.controller.Summary(s.ctx, outsider.ID, "session-1")
	s.ErrorIs(err, model.ErrNotPoolMember)
}
