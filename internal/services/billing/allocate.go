package billing

import "github.com/mcoot/dinkup/internal/model"

// Allocate splits total across n guests. Each share is total/n rounded half up to
// the cent; the leftover cents are applied one at a time from the first guest on,
// so the shares always sum to total.
func Allocate(total model.Cents, n int) []model.Cents {
	if n <= 0 {
		return nil
	}
	share := total.DivideHalfUp(n)
	shares := make([]model.Cents, n)
	for i := range shares {
		shares[i] = share
	}

	residual := total - share*model.Cents(n)
	step := model.Cents(1)
	if residual < 0 {
		step = -1
	}
	for i := 0; residual != 0; i = (i + 1) % n {
		shares[i] += step
		residual -= step
	}
	return shares
}

// Cost is the cost view of a session. Before lock the per-guest figure is a
// projection from the current roster; after lock it reflects the issued payments.
type Cost struct {
	TotalPlayers   int         `json:"total_players"`
	GuestCount     int         `json:"guest_count"`
	CourtsNeeded   int         `json:"courts_needed"`
	CostPerCourt   model.Cents `json:"cost_per_court_cents"`
	TotalCourtCost model.Cents `json:"total_court_cost_cents"`
	TotalGuestPool model.Cents `json:"total_guest_pool_cents"`
	PerGuest       model.Cents `json:"per_guest_cents"`
	Collected      model.Cents `json:"collected_cents"`
	Locked         bool        `json:"locked"`
}

// Summarize computes the cost view of a session
func Summarize(s *model.Session, exemptAdmins bool) Cost {
	cost := Cost{
		TotalPlayers:   s.SeatedCount(),
		CourtsNeeded:   s.CourtsNeeded,
		CostPerCourt:   s.CostPerCourt,
		TotalCourtCost: s.TotalCourtCost(),
		TotalGuestPool: s.TotalGuestPool(),
		Locked:         s.RosterLocked,
	}

	if s.RosterLocked {
		cost.GuestCount = len(s.Payments)
		for _, p := range s.Payments {
			if p.Status == model.PaymentPaid {
				cost.Collected += p.Amount
			}
		}
	} else {
		cost.GuestCount = len(s.Guests(exemptAdmins))
	}
	if cost.GuestCount > 0 {
		cost.PerGuest = cost.TotalGuestPool.DivideHalfUp(cost.GuestCount)
	}
	return cost
}
