package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dinkup/internal/dependencies/mocks"
	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/services/notify"
	"github.com/mcoot/dinkup/internal/services/roster"
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
	roster     *roster.Controller
	ctx        context.Context

	owner  *model.Player
	member *model.Player
	pool   *model.Pool
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
	dispatcher := notify.NewDispatcher(s.recorder, logger)
	s.controller = NewController(s.storage, s.clock, s.ids, dispatcher, logger)
	s.roster = roster.NewController(s.storage, s.clock, s.ids, dispatcher, logger)
	s.ctx = context.Background()

	s.owner = s.savePlayer("player-owner", "Olive")
	s.member = s.savePlayer("player-member", "Mel")
	s.pool = &model.Pool{
		ID:      "pool-1",
		Name:    "Tuesday Dinks",
		Active:  true,
		OwnerID: s.owner.ID,
		Members: []model.PoolMember{
			{PlayerID: s.owner.ID, Active: true},
			{PlayerID: s.member.ID, Active: true},
		},
	}
	s.Require().NoError(s.storage.CreatePool(s.ctx, s.pool))
}

func (s *ControllerSuite) savePlayer(id, name string) *model.Player {
	p := &model.Player{ID: model.PlayerID(id), Name: name, Active: true}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, p))
	return p
}

func (s *ControllerSuite) settings() model.SessionSettings {
	return model.SessionSettings{
		StartsAt:          time.Date(2024, 1, 3, 18, 0, 0, 0, time.UTC),
		Duration:          2 * time.Hour,
		MinPlayers:        1,
		MaxPlayers:        4,
		CourtsNeeded:      1,
		CostPerCourt:      4800,
		GuestPoolPerCourt: 4800,
	}
}

func (s *ControllerSuite) create() *model.Session {
	session, err := s.controller.Create(s.ctx, s.owner.ID, s.pool.ID, s.settings())
	s.Require().NoError(err)
	return session
}

// Create tests

func (s *ControllerSuite) TestCreateEnrollsOwnerAsAdmin() {
	session := s.create()

	s.Equal(model.SessionProposed, session.Status)
	s.Require().Len(session.Participants, 1)
	admin := session.Participants[0]
	s.Equal(s.owner.ID, admin.PlayerID)
	s.True(admin.IsAdmin)
	s.Equal(model.ParticipantCommitted, admin.Status)

	stored, err := s.storage.GetSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Len(stored.Participants, 1)
	s.Len(s.recorder.OfType(model.EventSessionCreated), 1)
}

func (s *ControllerSuite) TestCreateRejectsInvalidCapacity() {
	settings := s.settings()
	settings.MinPlayers = 5
	settings.MaxPlayers = 4
	_, err := s.controller.Create(s.ctx, s.owner.ID, s.pool.ID, settings)
	s.ErrorIs(err, model.ErrCapacity)

	settings.MinPlayers = 0
	_, err = s.controller.Create(s.ctx, s.owner.ID, s.pool.ID, settings)
	s.ErrorIs(err, model.ErrCapacity)
}

func (s *ControllerSuite) TestCreateRejectsZeroCourts() {
	settings := s.settings()
	settings.CourtsNeeded = 0
	_, err := s.controller.Create(s.ctx, s.owner.ID, s.pool.ID, settings)
	s.ErrorIs(err, model.ErrInvalidCourts)
}

func (s *ControllerSuite) TestCreateRequiresOwner() {
	_, err := s.controller.Create(s.ctx, s.member.ID, s.pool.ID, s.settings())
	s.ErrorIs(err, model.ErrForbidden)
}

func (s *ControllerSuite) TestCreateInInactivePoolFails() {
	_, err := s.storage.UpdatePool(s.ctx, s.pool.ID, func(p *model.Pool) error {
		p.Active = false
		return nil
	})
	s.Require().NoError(err)

	_, err = s.controller.Create(s.ctx, s.owner.ID, s.pool.ID, s.settings())
	s.ErrorIs(err, model.ErrPoolInactive)
}

// Query tests

func (s *ControllerSuite) TestGetAndListRequireMembership() {
	session := s.create()
	outsider := s.savePlayer("player-outsider", "Outsider")

	_, err := s.controller.Get(s.ctx, outsider.ID, session.ID)
	s.ErrorIs(err, model.ErrNotPoolMember)
	_, err = s.controller.ListForPool(s.ctx, outsider.ID, s.pool.ID)
	s.ErrorIs(err, model.ErrNotPoolMember)

	got, err := s.controller.Get(s.ctx, s.member.ID, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, got.ID)

	list, err := s.controller.ListForPool(s.ctx, s.member.ID, s.pool.ID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

// State machine tests

func (s *ControllerSuite) TestConfirmRecordsCourtBooking() {
	session := s.create()

	confirmed, err := s.controller.Confirm(s.ctx, s.owner.ID, session.ID, model.CourtBooking{
		BookingIDs:   []string{"BK-1"},
		CourtNumbers: []string{"3"},
		Location:     "Rec Center",
	})
	s.Require().NoError(err)
	s.Equal(model.SessionConfirmed, confirmed.Status)
	s.Equal("Rec Center", confirmed.Court.Location)
	s.Equal([]string{"BK-1"}, confirmed.Court.BookingIDs)

	events := s.recorder.OfType(model.EventSessionConfirmed)
	s.Require().Len(events, 1)
	s.Empty(events[0].PlayerID)
}

func (s *ControllerSuite) TestFullLifecycle() {
	session := s.create()
	_, err := s.controller.Confirm(s.ctx, s.owner.ID, session.ID, model.CourtBooking{})
	s.Require().NoError(err)

	completed, err := s.controller.Complete(s.ctx, s.owner.ID, session.ID)
	s.Require().NoError(err)
	s.Equal(model.SessionCompleted, completed.Status)

	_, err = s.controller.Cancel(s.ctx, s.owner.ID, session.ID)
	s.ErrorIs(err, model.ErrInvalidTransition)
}

func (s *ControllerSuite) TestCompleteProposedFails() {
	session := s.create()
	_, err := s.controller.Complete(s.ctx, s.owner.ID, session.ID)
	s.ErrorIs(err, model.ErrInvalidTransition)

	stored, err := s.storage.GetSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(model.SessionProposed, stored.Status)
}

func (s *ControllerSuite) TestCancelFromProposedAndConfirmed() {
	first := s.create()
	cancelled, err := s.controller.Cancel(s.ctx, s.owner.ID, first.ID)
	s.Require().NoError(err)
	s.Equal(model.SessionCancelled, cancelled.Status)

	second := s.create()
	_, err = s.controller.Confirm(s.ctx, s.owner.ID, second.ID, model.CourtBooking{})
	s.Require().NoError(err)
	cancelled, err = s.controller.Cancel(s.ctx, s.owner.ID, second.ID)
	s.Require().NoError(err)
	s.Equal(model.SessionCancelled, cancelled.Status)
}

func (s *ControllerSuite) TestTransitionsRequireOwner() {
	session := s.create()
	_, err := s.controller.Confirm(s.ctx, s.member.ID, session.ID, model.CourtBooking{})
	s.ErrorIs(err, model.ErrForbidden)
	_, err = s.controller.Cancel(s.ctx, s.member.ID, session.ID)
	s.ErrorIs(err, model.ErrForbidden)
}

// Update tests

func (s *ControllerSuite) TestUpdateRaisingMaxPromotesWaitlist() {
	settings := s.settings()
	settings.MaxPlayers = 1
	session, err := s.controller.Create(s.ctx, s.owner.ID, s.pool.ID, settings)
	s.Require().NoError(err)

	waiting, err := s.roster.Join(s.ctx, s.member.ID, session.ID, s.member.ID)
	s.Require().NoError(err)
	s.Equal(model.ParticipantMaybe, waiting.Status)

	maxPlayers := 2
	updated, err := s.controller.Update(s.ctx, s.owner.ID, session.ID, Changes{MaxPlayers: &maxPlayers})
	s.Require().NoError(err)
	s.Equal(2, updated.MaxPlayers)
	s.Equal(model.ParticipantCommitted, updated.GetParticipant(waiting.ID).Status)
	s.Len(s.recorder.OfType(model.EventWaitlistPromoted), 1)
}

func (s *ControllerSuite) TestUpdateBelowSeatedFails() {
	session := s.create()
	_, err := s.roster.Join(s.ctx, s.member.ID, session.ID, s.member.ID)
	s.Require().NoError(err)

	minPlayers, maxPlayers := 1, 1
	_, err = s.controller.Update(s.ctx, s.owner.ID, session.ID, Changes{MinPlayers: &minPlayers, MaxPlayers: &maxPlayers})
	s.ErrorIs(err, model.ErrCapacity)
}

func (s *ControllerSuite) TestUpdateEditsSettings() {
	session := s.create()
	notes := "bring balls"
	deadline := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)
	pool := model.Cents(6000)

	updated, err := s.controller.Update(s.ctx, s.owner.ID, session.ID, Changes{
		Notes:             &notes,
		PaymentDeadline:   &deadline,
		GuestPoolPerCourt: &pool,
	})
	s.Require().NoError(err)
	s.Equal("bring balls", updated.Notes)
	s.Require().NotNil(updated.PaymentDeadline)
	s.True(deadline.Equal(*updated.PaymentDeadline))
	s.Equal(model.Cents(6000), updated.GuestPoolPerCourt)

	cleared, err := s.controller.Update(s.ctx, s.owner.ID, session.ID, Changes{ClearDeadline: true})
	s.Require().NoError(err)
	s.Nil(cleared.PaymentDeadline)
}

func (s *ControllerSuite) TestUpdateClosedSessionFails() {
	session := s.create()
	_, err := s.controller.Cancel(s.ctx, s.owner.ID, session.ID)
	s.Require().NoError(err)

	notes := "late"
	_, err = s.controller.Update(s.ctx, s.owner.ID, session.ID, Changes{Notes: &notes})
	s.ErrorIs(err, model.ErrSessionClosed)
}

func (s *ControllerSuite) TestUpdateRequiresOwner() {
	session := s.create()
	notes := "mine"
	_, err := s.controller.Update(s.ctx, s.member.ID, session.ID, Changes{Notes: &notes})
	s.ErrorIs(err, model.ErrForbidden)
}
