package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/dinkup/internal/model"
)

func sum(shares []model.Cents) model.Cents {
	var total model.Cents
	for _, s := range shares {
		total += s
	}
	return total
}

func TestAllocateEvenSplit(t *testing.T) {
	shares := Allocate(4800, 5)
	assert.Equal(t, []model.Cents{960, 960, 960, 960, 960}, shares)
	assert.Equal(t, model.Cents(4800), sum(shares))
}

func TestAllocateResidualGoesToFirstGuests(t *testing.T) {
	// 10.00 / 3 = 3.33 each, one cent left over
	assert.Equal(t, []model.Cents{334, 333, 333}, Allocate(1000, 3))

	// 10.00 / 6 rounds up to 1.67 each, two cents over
	assert.Equal(t, []model.Cents{166, 166, 167, 167, 167, 167}, Allocate(1000, 6))
}

func TestAllocateAlwaysSumsToTotal(t *testing.T) {
	for total := model.Cents(0); total <= 2500; total += 37 {
		for n := 1; n <= 13; n++ {
			shares := Allocate(total, n)
			assert.Len(t, shares, n)
			assert.Equal(t, total, sum(shares), "total=%d n=%d", total, n)
			for _, s := range shares {
				assert.InDelta(t, float64(total)/float64(n), float64(s), 1.0)
			}
		}
	}
}

func TestAllocateNoGuests(t *testing.T) {
	assert.Nil(t, Allocate(4800, 0))
}

func TestSummarizeProjectsBeforeLock(t *testing.T) {
	s := &model.Session{
		SessionSettings: model.SessionSettings{
			MinPlayers: 1, MaxPlayers: 8, CourtsNeeded: 2, CostPerCourt: 3000, GuestPoolPerCourt: 2400,
		},
		Participants: []model.Participant{
			{ID: "p1", IsAdmin: true, Status: model.ParticipantCommitted},
			{ID: "p2", Status: model.ParticipantCommitted},
			{ID: "p3", Status: model.ParticipantCommitted},
			{ID: "p4", Status: model.ParticipantMaybe, WaitlistPosition: 1},
		},
	}

	cost := Summarize(s, true)
	assert.Equal(t, 3, cost.TotalPlayers)
	assert.Equal(t, 2, cost.GuestCount)
	assert.Equal(t, model.Cents(4800), cost.TotalGuestPool)
	assert.Equal(t, model.Cents(6000), cost.TotalCourtCost)
	assert.Equal(t, model.Cents(2400), cost.PerGuest)
	assert.False(t, cost.Locked)

	assert.Equal(t, 3, Summarize(s, false).GuestCount)
	assert.Equal(t, model.Cents(1600), Summarize(s, false).PerGuest)
}
