// Package apierr maps domain errors to HTTP status codes and JSON error bodies.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/services/auth"
	"github.com/mcoot/dinkup/internal/services/pool"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeValidation          = "VALIDATION_FAILED"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotPoolMember       = "NOT_POOL_MEMBER"
	CodeNotFound            = "NOT_FOUND"
	CodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodePoolNotFound        = "POOL_NOT_FOUND"
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeParticipantNotFound = "PARTICIPANT_NOT_FOUND"
	CodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	CodeAlreadyMember       = "ALREADY_MEMBER"
	CodeOwnerRequired       = "OWNER_REQUIRED"
	CodePoolInactive        = "POOL_INACTIVE"
	CodeCapacity            = "INVALID_CAPACITY"
	CodeInvalidCourts       = "INVALID_COURTS"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeDuplicateMembership = "DUPLICATE_MEMBERSHIP"
	CodeAdminParticipant    = "ADMIN_PARTICIPANT"
	CodeSessionClosed       = "SESSION_CLOSED"
	CodeAlreadyLocked       = "ALREADY_LOCKED"
	CodeInsufficientGuests  = "INSUFFICIENT_GUESTS"
	CodeAlreadyPaid         = "ALREADY_PAID"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeEmailTaken          = "EMAIL_TAKEN"
	CodeWeakPassword        = "WEAK_PASSWORD"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeUnavailable         = "UNAVAILABLE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// mapping pairs a sentinel with its response. Order matters: specific
// not-found errors come before the generic ErrNotFound.
type mapping struct {
	target error
	status int
	code   string
}

var mappings = []mapping{
	{model.ErrValidation, http.StatusBadRequest, CodeValidation},
	{model.ErrCapacity, http.StatusBadRequest, CodeCapacity},
	{model.ErrInvalidCourts, http.StatusBadRequest, CodeInvalidCourts},
	{model.ErrInvalidAmount, http.StatusBadRequest, CodeInvalidAmount},
	{auth.ErrWeakPassword, http.StatusBadRequest, CodeWeakPassword},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
	{auth.ErrInvalidToken, http.StatusUnauthorized, CodeUnauthorized},

	{model.ErrForbidden, http.StatusForbidden, CodeForbidden},
	{model.ErrNotPoolMember, http.StatusForbidden, CodeNotPoolMember},

	{model.ErrAccountNotFound, http.StatusNotFound, CodeAccountNotFound},
	{model.ErrPlayerNotFound, http.StatusNotFound, CodePlayerNotFound},
	{model.ErrPoolNotFound, http.StatusNotFound, CodePoolNotFound},
	{model.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound},
	{model.ErrParticipantNotFound, http.StatusNotFound, CodeParticipantNotFound},
	{model.ErrPaymentNotFound, http.StatusNotFound, CodePaymentNotFound},
	{model.ErrNotFound, http.StatusNotFound, CodeNotFound},

	{model.ErrAlreadyMember, http.StatusConflict, CodeAlreadyMember},
	{model.ErrOwnerRequired, http.StatusConflict, CodeOwnerRequired},
	{model.ErrPoolInactive, http.StatusConflict, CodePoolInactive},
	{model.ErrDuplicateMembership, http.StatusConflict, CodeDuplicateMembership},
	{model.ErrAdminParticipant, http.StatusConflict, CodeAdminParticipant},
	{model.ErrSessionClosed, http.StatusConflict, CodeSessionClosed},
	{model.ErrAlreadyLocked, http.StatusConflict, CodeAlreadyLocked},
	{model.ErrInsufficientGuests, http.StatusConflict, CodeInsufficientGuests},
	{model.ErrAlreadyPaid, http.StatusConflict, CodeAlreadyPaid},
	{model.ErrInvalidTransition, http.StatusConflict, CodeInvalidTransition},
	{auth.ErrEmailTaken, http.StatusConflict, CodeEmailTaken},

	{pool.ErrInviteCodeExhausted, http.StatusServiceUnavailable, CodeUnavailable},
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return &httpError{m.status, APIError{m.code, m.target.Error()}}
		}
	}
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
