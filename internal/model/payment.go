package model

import "time"

// PaymentID uniquely identifies a payment
type PaymentID string

// PaymentStatus tracks whether a payment has been settled
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Payment is a guest's share of the court cost, created when the roster locks.
// Status only ever moves pending -> paid, confirmed manually.
type Payment struct {
	ID            PaymentID
	SessionID     SessionID
	ParticipantID ParticipantID
	PlayerID      PlayerID
	Amount        Cents
	Status        PaymentStatus
	Link          string
	RequestedAt   time.Time
	PaidAt        *time.Time
}
