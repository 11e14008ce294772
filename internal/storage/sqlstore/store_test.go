package sqlstore

import (
	"context"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/storage/sqlstore/migrations"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
	now   time.Time
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

	store, err := Open(s.ctx, Config{Driver: DriverSQLite, DSN: SQLiteDSN(":memory:")})
	s.Require().NoError(err)
	s.store = store
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *StoreSuite) createPool(id model.PoolID, code model.InviteCode, members ...model.PlayerID) {
	pool := &model.Pool{
		ID:         id,
		Name:       "Pool " + string(id),
		Active:     true,
		InviteCode: code,
		CreatedAt:  s.now,
		UpdatedAt:  s.now,
	}
	for i, m := range members {
		if i == 0 {
			pool.OwnerID = m
		}
		pool.Members = append(pool.Members, model.PoolMember{PlayerID: m, Active: true, JoinedAt: s.now})
	}
	s.Require().NoError(s.store.CreatePool(s.ctx, pool))
}

func (s *StoreSuite) newSession(id model.SessionID, poolID model.PoolID, startsAt time.Time) *model.Session {
	return &model.Session{
		ID:     id,
		PoolID: poolID,
		SessionSettings: model.SessionSettings{
			StartsAt:          startsAt,
			Duration:          2 * time.Hour,
			MinPlayers:        4,
			MaxPlayers:        8,
			CourtsNeeded:      2,
			CostPerCourt:      5000,
			GuestPoolPerCourt: 2400,
			Notes:             "bring water",
		},
		Status:    model.SessionProposed,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
}

func (s *StoreSuite) TestMigrationsAreIdempotent() {
	s.Require().NoError(ApplyMigrations(s.ctx, s.store.DB(), migrations.FS))

	var n int
	s.Require().NoError(s.store.DB().Get(&n, "SELECT COUNT(*) FROM schema_migrations"))
	s.Equal(1, n)
}

func (s *StoreSuite) TestMigrationRunsOnlyUpSection() {
	fsys := fstest.MapFS{
		"900_extra.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE extra (id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE extra;"),
		},
	}
	s.Require().NoError(ApplyMigrations(s.ctx, s.store.DB(), fsys))

	var n int
	s.Require().NoError(s.store.DB().Get(&n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'extra'"))
	s.Equal(1, n)
}

func (s *StoreSuite) TestOpenRejectsUnknownDriver() {
	_, err := Open(s.ctx, Config{Driver: "oracle", DSN: "x"})
	s.Error(err)
}

// Account and player tests

func (s *StoreSuite) TestSaveAndGetAccount() {
	account := &model.Account{ID: "acc-1", Email: "Alice@Example.com", PasswordHash: "hash", CreatedAt: s.now, UpdatedAt: s.now}
	s.Require().NoError(s.store.SaveAccount(s.ctx, account))

	byEmail, err := s.store.GetAccountByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(model.AccountID("acc-1"), byEmail.ID)
	s.True(s.now.Equal(byEmail.CreatedAt))

	_, err = s.store.GetAccount(s.ctx, "acc-missing")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StoreSuite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:            "p1",
		AccountID:     "acc-1",
		Name:          "Alice",
		PaymentHandle: "alice-v",
		Notifications: model.NotificationPrefs{Email: true, SMS: false},
		Active:        true,
		CreatedAt:     s.now,
	}
	s.Require().NoError(s.store.SavePlayer(s.ctx, player))
	s.Require().NoError(s.store.SavePlayer(s.ctx, &model.Player{ID: "p2", Name: "Bob", Active: true, CreatedAt: s.now}))
	s.Require().NoError(s.store.SavePlayer(s.ctx, &model.Player{ID: "p3", Name: "Cara", Active: true, CreatedAt: s.now}))

	retrieved, err := s.store.GetPlayerByAccount(s.ctx, "acc-1")
	s.Require().NoError(err)
	s.Equal("alice-v", retrieved.PaymentHandle)
	s.True(retrieved.Notifications.Email)
	s.True(retrieved.Active)

	bob, err := s.store.GetPlayer(s.ctx, "p2")
	s.Require().NoError(err)
	s.False(bob.HasAccount())

	_, err = s.store.GetPlayer(s.ctx, "p-missing")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Pool tests

func (s *StoreSuite) TestCreateAndGetPool() {
	s.createPool("pool-1", "ABCD2345", "p1", "p2")

	pool, err := s.store.GetPool(s.ctx, "pool-1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), pool.OwnerID)
	s.Len(pool.Members, 2)

	byCode, err := s.store.GetPoolByInviteCode(s.ctx, "ABCD2345")
	s.Require().NoError(err)
	s.Equal(model.PoolID("pool-1"), byCode.ID)

	exists, err := s.store.InviteCodeExists(s.ctx, "ABCD2345")
	s.Require().NoError(err)
	s.True(exists)

	_, err = s.store.GetPool(s.ctx, "pool-missing")
	s.ErrorIs(err, model.ErrPoolNotFound)
}

func (s *StoreSuite) TestListPoolsForPlayerAndUpdateMembership() {
	s.createPool("pool-1", "AAAA2222", "p1", "p2")
	s.createPool("pool-2", "BBBB3333", "p2")

	pools, err := s.store.ListPoolsForPlayer(s.ctx, "p2")
	s.Require().NoError(err)
	s.Len(pools, 2)

	_, err = s.store.UpdatePool(s.ctx, "pool-1", func(p *model.Pool) error {
		p.GetMember("p2").Active = false
		p.Members = append(p.Members, model.PoolMember{PlayerID: "p3", Active: true, JoinedAt: s.now})
		return nil
	})
	s.Require().NoError(err)

	pools, err = s.store.ListPoolsForPlayer(s.ctx, "p2")
	s.Require().NoError(err)
	s.Require().Len(pools, 1)
	s.Equal(model.PoolID("pool-2"), pools[0].ID)

	pool, err := s.store.GetPool(s.ctx, "pool-1")
	s.Require().NoError(err)
	s.Len(pool.Members, 3)
	s.False(pool.IsActiveMember("p2"))
	s.True(pool.IsActiveMember("p3"))
}

func (s *StoreSuite) TestUpdatePoolErrorRollsBack() {
	s.createPool("pool-1", "AAAA2222", "p1")

	_, err := s.store.UpdatePool(s.ctx, "pool-1", func(p *model.Pool) error {
		p.Active = false
		return model.ErrForbidden
	})
	s.ErrorIs(err, model.ErrForbidden)

	pool, err := s.store.GetPool(s.ctx, "pool-1")
	s.Require().NoError(err)
	s.True(pool.Active)
}

// Session tests

func (s *StoreSuite) TestCreateAndGetSessionWithRoster() {
	s.createPool("pool-1", "AAAA2222", "p1")
	deadline := s.now.Add(24 * time.Hour)
	session := s.newSession("sess-1", "pool-1", s.now.Add(48*time.Hour))
	session.PaymentDeadline = &deadline
	session.Court = model.CourtBooking{BookingIDs: []string{"bk-9"}, CourtNumbers: []string{"1", "2"}, Location: "Courts"}
	session.Participants = []model.Participant{
		{ID: "part-1", PlayerID: "p1", IsAdmin: true, Status: model.ParticipantCommitted, JoinedAt: s.now, UpdatedAt: s.now},
		{ID: "part-2", PlayerID: "p2", Status: model.ParticipantMaybe, WaitlistPosition: 1, JoinedAt: s.now, UpdatedAt: s.now},
	}
	s.Require().NoError(s.store.CreateSession(s.ctx, session))

	got, err := s.store.GetSession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(2*time.Hour, got.Duration)
	s.Equal(model.Cents(5000), got.CostPerCourt)
	s.Equal("bring water", got.Notes)
	s.Require().NotNil(got.PaymentDeadline)
	s.True(deadline.Equal(*got.PaymentDeadline))
	s.Nil(got.LockedAt)
	s.Equal([]string{"1", "2"}, got.Court.CourtNumbers)
	s.Require().Len(got.Participants, 2)
	s.Equal(model.SessionID("sess-1"), got.Participants[0].SessionID)
	s.True(got.Participants[0].IsAdmin)
	s.Equal(1, got.Participants[1].WaitlistPosition)
}

func (s *StoreSuite) TestGetSessionNotFound() {
	_, err := s.store.GetSession(s.ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StoreSuite) TestUpdateSessionRewritesRosterAndPayments() {
	s.createPool("pool-1", "AAAA2222", "p1")
	session := s.newSession("sess-1", "pool-1", s.now)
	session.Participants = []model.Participant{
		{ID: "part-1", PlayerID: "p1", Status: model.ParticipantCommitted, JoinedAt: s.now, UpdatedAt: s.now},
		{ID: "part-2", PlayerID: "p2", Status: model.ParticipantCommitted, JoinedAt: s.now, UpdatedAt: s.now},
	}
	s.Require().NoError(s.store.CreateSession(s.ctx, session))

	lockedAt := s.now.Add(time.Hour)
	_, err := s.store.UpdateSession(s.ctx, "sess-1", func(sess *model.Session) error {
		sess.RemoveParticipant("part-2")
		sess.RosterLocked = true
		sess.LockedAt = &lockedAt
		sess.Payments = []model.Payment{{
			ID: "pay-1", ParticipantID: "part-1", PlayerID: "p1",
			Amount: 4800, Status: model.PaymentPending, RequestedAt: lockedAt,
		}}
		return nil
	})
	s.Require().NoError(err)

	got, err := s.store.GetSession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.True(got.RosterLocked)
	s.Require().NotNil(got.LockedAt)
	s.Require().Len(got.Participants, 1)
	s.Equal(model.ParticipantID("part-1"), got.Participants[0].ID)
	s.Require().Len(got.Payments, 1)
	s.Equal(model.Cents(4800), got.Payments[0].Amount)
	s.Nil(got.Payments[0].PaidAt)

	sessionID, err := s.store.SessionForPayment(s.ctx, "pay-1")
	s.Require().NoError(err)
	s.Equal(model.SessionID("sess-1"), sessionID)

	paidAt := s.now.Add(2 * time.Hour)
	_, err = s.store.UpdateSession(s.ctx, "sess-1", func(sess *model.Session) error {
		p := sess.GetPayment("pay-1")
		p.Status = model.PaymentPaid
		p.PaidAt = &paidAt
		return nil
	})
	s.Require().NoError(err)

	got, err = s.store.GetSession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(model.PaymentPaid, got.Payments[0].Status)
	s.Require().NotNil(got.Payments[0].PaidAt)
	s.True(paidAt.Equal(*got.Payments[0].PaidAt))
}

func (s *StoreSuite) TestUpdateSessionErrorRollsBack() {
	s.createPool("pool-1", "AAAA2222", "p1")
	s.Require().NoError(s.store.CreateSession(s.ctx, s.newSession("sess-1", "pool-1", s.now)))

	_, err := s.store.UpdateSession(s.ctx, "sess-1", func(sess *model.Session) error {
		sess.Participants = append(sess.Participants, model.Participant{ID: "part-x", PlayerID: "p9", Status: model.ParticipantCommitted})
		return model.ErrAlreadyLocked
	})
	s.ErrorIs(err, model.ErrAlreadyLocked)

	got, err := s.store.GetSession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Empty(got.Participants)
}

func (s *StoreSuite) TestListSessions() {
	s.createPool("pool-1", "AAAA2222", "p1")
	s.createPool("pool-2", "BBBB3333", "p1")
	deadline := s.now.Add(6 * time.Hour)

	late := s.newSession("sess-late", "pool-1", s.now.Add(72*time.Hour))
	early := s.newSession("sess-early", "pool-1", s.now.Add(24*time.Hour))
	early.RosterLocked = true
	early.PaymentDeadline = &deadline
	other := s.newSession("sess-other", "pool-2", s.now)
	other.PaymentDeadline = &deadline
	for _, sess := range []*model.Session{late, early, other} {
		s.Require().NoError(s.store.CreateSession(s.ctx, sess))
	}

	sessions, err := s.store.ListSessionsForPool(s.ctx, "pool-1")
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	s.Equal(model.SessionID("sess-early"), sessions[0].ID)

	due, err := s.store.ListSessionsWithDeadlineBetween(s.ctx, s.now, s.now.Add(12*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(due, 1)
	s.Equal(model.SessionID("sess-early"), due[0].ID)
}

func (s *StoreSuite) TestConcurrentUpdatesAreSerialized() {
	s.createPool("pool-1", "AAAA2222", "p1")
	s.Require().NoError(s.store.CreateSession(s.ctx, s.newSession("sess-1", "pool-1", s.now)))

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := s.store.UpdateSession(s.ctx, "sess-1", func(sess *model.Session) error {
				id := model.ParticipantID("part-" + string(rune('a'+n)))
				sess.Participants = append(sess.Participants, model.Participant{
					ID: id, PlayerID: model.PlayerID("p-" + string(rune('a'+n))), Status: model.ParticipantCommitted,
				})
				return nil
			})
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	got, err := s.store.GetSession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Len(got.Participants, writers)
}
