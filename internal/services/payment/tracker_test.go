package payment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dinkup/internal/dependencies/mocks"
	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/services/billing"
	"github.com/mcoot/dinkup/internal/services/notify"
	"github.com/mcoot/dinkup/internal/services/paylink"
	"github.com/mcoot/dinkup/internal/services/roster"
	"github.com/mcoot/dinkup/internal/storage/memory"
	"github.com/mcoot/dinkup/internal/testutil"
)

type TrackerSuite struct {
	suite.Suite
	storage  *memory.Storage
	clock    *mocks.MockClock
	ids      *mocks.MockIDs
	recorder *notify.Recorder
	tracker  *Tracker
	roster   *roster.Controller
	billing  *billing.Controller
	ctx      context.Context

	owner    *model.Player
	players  []*model.Player
	deadline time.Time
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerSuite))
}

func (s *TrackerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ids = mocks.NewMockIDs()
	s.recorder = notify.NewRecorder()
	logger := testutil.NopLogger()
	dispatcher := notify.NewDispatcher(s.recorder, logger)
	s.tracker = NewTracker(s.storage, s.clock, dispatcher, logger)
	s.roster = roster.NewController(s.storage, s.clock, s.ids, dispatcher, logger)
	s.billing = billing.NewController(s.storage, paylink.NewVenmo(""), s.clock, s.ids, dispatcher, billing.DefaultConfig(), logger)
	s.ctx = context.Background()

	s.owner = &model.Player{ID: "player-owner", Name: "Olive", PaymentHandle: "olive", Active: true}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, s.owner))

	pool := &model.Pool{
		ID:      "pool-1",
		Name:    "Tuesday Dinks",
		Active:  true,
		OwnerID: s.owner.ID,
		Members: []model.PoolMember{{PlayerID: s.owner.ID, Active: true}},
	}
	names := []string{"Zed", "Amy", "Kim"}
	s.players = nil
	for i, name := range names {
		p := &model.Player{ID: model.PlayerID(fmt.Sprintf("player-%02d", i+1)), Name: name, Active: true}
		s.Require().NoError(s.storage.SavePlayer(s.ctx, p))
		pool.Members = append(pool.Members, model.PoolMember{PlayerID: p.ID, Active: true})
		s.players = append(s.players, p)
	}
	s.Require().NoError(s.storage.CreatePool(s.ctx, pool))

	s.deadline = time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	session := &model.Session{
		ID:     "session-1",
		PoolID: pool.ID,
		SessionSettings: model.SessionSettings{
			StartsAt:          time.Date(2024, 1, 3, 18, 0, 0, 0, time.UTC),
			Duration:          2 * time.Hour,
			MinPlayers:        1,
			MaxPlayers:        8,
			CourtsNeeded:      1,
			CostPerCourt:      4500,
			GuestPoolPerCourt: 4500,
			PaymentDeadline:   &s.deadline,
		},
		Status: model.SessionProposed,
	}
	roster.EnrollAdmin(session, s.owner, "participant-000000", s.clock.Now())
	s.Require().NoError(s.storage.CreateSession(s.ctx, session))

	for _, p := range s.players {
		_, err := s.roster.Join(s.ctx, p.ID, "session-1", p.ID)
		s.Require().NoError(err)
	}
	_, err := s.billing.Lock(s.ctx, s.owner.ID, "session-1")
	s.Require().NoError(err)
	s.recorder.Reset()
}

func (s *TrackerSuite) paymentOf(player *model.Player) model.Payment {
	session, err := s.storage.GetSession(s.ctx, "session-1")
	s.Require().NoError(err)
	participant := session.ParticipantForPlayer(player.ID)
	s.Require().NotNil(participant)
	payment := session.PaymentFor(participant.ID)
	s.Require().NotNil(payment)
	return *payment
}

// MarkPaid tests

func (s *TrackerSuite) TestMarkPaidByPayer() {
	pending := s.paymentOf(s.players[0])

	paid, err := s.tracker.MarkPaid(s.ctx, s.players[0].ID, pending.ID)
	s.Require().NoError(err)
	s.Equal(model.PaymentPaid, paid.Status)
	s.Require().NotNil(paid.PaidAt)
	s.True(s.clock.Now().Equal(*paid.PaidAt))

	session, err := s.storage.GetSession(s.ctx, "session-1")
	s.Require().NoError(err)
	s.Equal(model.ParticipantPaid, session.GetParticipant(pending.ParticipantID).Status)
	s.Len(s.recorder.OfType(model.EventPaymentReceived), 1)
}

func (s *TrackerSuite) TestMarkPaidTwiceKeepsFirstTimestamp() {
	pending := s.paymentOf(s.players[0])
	first, err := s.tracker.MarkPaid(s.ctx, s.players[0].ID, pending.ID)
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)
	_, err = s.tracker.MarkPaid(s.ctx, s.owner.ID, pending.ID)
	s.ErrorIs(err, model.ErrAlreadyPaid)

	stored := s.paymentOf(s.players[0])
	s.Require().NotNil(stored.PaidAt)
	s.True(first.PaidAt.Equal(*stored.PaidAt))
}

func (s *TrackerSuite) TestMarkPaidByOwner() {
	pending := s.paymentOf(s.players[1])
	_, err := s.tracker.MarkPaid(s.ctx, s.owner.ID, pending.ID)
	s.Require().NoError(err)
}

func (s *TrackerSuite) TestMarkPaidByOtherPlayerFails() {
	pending := s.paymentOf(s.players[1])
	_, err := s.tracker.MarkPaid(s.ctx, s.players[0].ID, pending.ID)
	s.ErrorIs(err, model.ErrForbidden)
	s.Equal(model.PaymentPending, s.paymentOf(s.players[1]).Status)
}

func (s *TrackerSuite) TestMarkPaidUnknownPayment() {
	_, err := s.tracker.MarkPaid(s.ctx, s.owner.ID, "payment-missing")
	s.ErrorIs(err, model.ErrPaymentNotFound)
	s.ErrorIs(err, model.ErrNotFound)
}

// Query tests

func (s *TrackerSuite) TestOutstandingOrderedByName() {
	_, err := s.tracker.MarkPaid(s.ctx, s.players[2].ID, s.paymentOf(s.players[2]).ID)
	s.Require().NoError(err)

	rows, err := s.tracker.Outstanding(s.ctx, s.players[0].ID, "session-1")
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal("Amy", rows[0].Name)
	s.Equal("Zed", rows[1].Name)
}

func (s *TrackerSuite) TestOutstandingPutsAdminsFirst() {
	session := &model.Session{
		Participants: []model.Participant{
			{ID: "p1", Name: "Bea"},
			{ID: "p2", Name: "Zoe", IsAdmin: true},
			{ID: "p3", Name: "Al"},
		},
		Payments: []model.Payment{
			{ID: "pay1", ParticipantID: "p1", Status: model.PaymentPending},
			{ID: "pay2", ParticipantID: "p2", Status: model.PaymentPending},
			{ID: "pay3", ParticipantID: "p3", Status: model.PaymentPending},
		},
	}

	ordered := rows(session)
	s.Require().Len(ordered, 3)
	s.Equal("Zoe", ordered[0].Name)
	s.Equal("Al", ordered[1].Name)
	s.Equal("Bea", ordered[2].Name)
}

func (s *TrackerSuite) TestDashboardTotals() {
	_, err := s.tracker.MarkPaid(s.ctx, s.players[0].ID, s.paymentOf(s.players[0]).ID)
	s.Require().NoError(err)

	dashboard, err := s.tracker.Dashboard(s.ctx, s.owner.ID, "session-1")
	s.Require().NoError(err)
	s.Len(dashboard.Rows, 3)
	s.Equal(model.Cents(4500), dashboard.Total)
	s.Equal(model.Cents(1500), dashboard.Collected)
	s.Equal(model.Cents(3000), dashboard.Outstanding)
}

func (s *TrackerSuite) TestQueriesRequireMembership() {
	outsider := &model.Player{ID: "player-outsider", Name: "Outsider"}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, outsider))

	_, err := s.tracker.Outstanding(s.ctx, outsider.ID, "session-1")
	s.ErrorIs(err, model.ErrNotPoolMember)
	_, err = s.tracker.Dashboard(s.ctx, outsider.ID, "session-1")
	s.ErrorIs(err, model.ErrNotPoolMember)
}

// Reminder tests

func (s *TrackerSuite) TestRemindDueNotifiesPendingPayers() {
	_, err := s.tracker.MarkPaid(s.ctx, s.players[0].ID, s.paymentOf(s.players[0]).ID)
	s.Require().NoError(err)
	s.recorder.Reset()

	sent, err := s.tracker.RemindDue(s.ctx, "", 48*time.Hour)
	s.Require().NoError(err)
	s.Equal(2, sent)

	reminders := s.recorder.OfType(model.EventPaymentDeadlineDue)
	s.Require().Len(reminders, 2)
	payload, ok := reminders[0].Payload.(model.PaymentPayload)
	s.Require().True(ok)
	s.Require().NotNil(payload.Deadline)
	s.True(s.deadline.Equal(*payload.Deadline))
}

func (s *TrackerSuite) TestRemindDueOutsideWindow() {
	sent, err := s.tracker.RemindDue(s.ctx, "", time.Hour)
	s.Require().NoError(err)
	s.Zero(sent)
	s.Empty(s.recorder.Events())
}

func (s *TrackerSuite) TestRemindDueFiltersByOwner() {
	sent, err := s.tracker.RemindDue(s.ctx, s.players[0].ID, 48*time.Hour)
	s.Require().NoError(err)
	s.Zero(sent)

	sent, err = s.tracker.RemindDue(s.ctx, s.owner.ID, 48*time.Hour)
	s.Require().NoError(err)
	s.Equal(3, sent)
}
