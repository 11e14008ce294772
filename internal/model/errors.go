package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by every lookup failure so callers can match on it generically
var ErrNotFound = errors.New("not found")

// Common errors used across the application
var (
	// Lookup errors
	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrPlayerNotFound      = fmt.Errorf("player %w", ErrNotFound)
	ErrPoolNotFound        = fmt.Errorf("pool %w", ErrNotFound)
	ErrSessionNotFound     = fmt.Errorf("session %w", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("participant %w", ErrNotFound)
	ErrPaymentNotFound     = fmt.Errorf("payment %w", ErrNotFound)

	// Pool errors
	ErrAlreadyMember = errors.New("player is already a pool member")
	ErrNotPoolMember = errors.New("player is not an active pool member")
	ErrOwnerRequired = errors.New("pool owner must remain an active member")
	ErrPoolInactive  = errors.New("pool is not active")

	// Authorization errors
	ErrForbidden = errors.New("operation not permitted for this player")

	// Input errors
	ErrValidation = errors.New("invalid input")

	// Roster errors
	ErrCapacity            = errors.New("max players must be at least min players, and min players at least 1")
	ErrDuplicateMembership = errors.New("player already has a place in this session")
	ErrAdminParticipant    = errors.New("admin participant cannot be removed")
	ErrSessionClosed       = errors.New("session is completed or cancelled")

	// Lock and cost errors
	ErrAlreadyLocked      = errors.New("session roster is already locked")
	ErrInsufficientGuests = errors.New("roster lock requires at least one guest")
	ErrInvalidCourts      = errors.New("courts needed must be between 1 and 100")
	ErrInvalidAmount      = errors.New("amount must be between 0 and 1000000000.00")

	// Payment errors
	ErrAlreadyPaid = errors.New("payment is already marked paid")

	// State machine errors
	ErrInvalidTransition = errors.New("invalid session status transition")
)
