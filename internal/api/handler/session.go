package handler

import (
	"net/http"

	"github.com/mcoot/dinkup/internal/api/request"
	"github.com/mcoot/dinkup/internal/api/response"
	"github.com/mcoot/dinkup/internal/api/sse"
	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/services/session"
)

// SessionHandler handles session lifecycle endpoints and the event stream
type SessionHandler struct {
	sessionController *session.Controller
	hubManager        *sse.HubManager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionController *session.Controller, hubManager *sse.HubManager) *SessionHandler {
	return &SessionHandler{
		sessionController: sessionController,
		hubManager:        hubManager,
	}
}

// Create handles POST /api/v1/pools/{pool_id}/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSessionRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	if req.StartsAt.IsZero() {
		WriteError(w, NewInvalidRequestError("starts_at is required"))
		return
	}

	s, err := h.sessionController.Create(r.Context(), caller(r).ID, poolID(r), req.Settings())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SessionFromModel(s))
}

// List handles GET /api/v1/pools/{pool_id}/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionController.ListForPool(r.Context(), caller(r).ID, poolID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionsFromModel(sessions))
}

// Get handles GET /api/v1/sessions/{session_id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessionController.Get(r.Context(), caller(r).ID, sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(s))
}

// Update handles PATCH /api/v1/sessions/{session_id}
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateSessionRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	s, err := h.sessionController.Update(r.Context(), caller(r).ID, sessionID(r), req.Changes())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(s))
}

// Confirm handles POST /api/v1/sessions/{session_id}/confirm
func (h *SessionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req request.ConfirmSessionRequest
	if err := decode(r, &req, true); err != nil {
		WriteError(w, err)
		return
	}

	s, err := h.sessionController.Confirm(r.Context(), caller(r).ID, sessionID(r), req.Booking())
	h.writeSession(w, s, err)
}

// Complete handles POST /api/v1/sessions/{session_id}/complete
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessionController.Complete(r.Context(), caller(r).ID, sessionID(r))
	h.writeSession(w, s, err)
}

// Cancel handles POST /api/v1/sessions/{session_id}/cancel
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessionController.Cancel(r.Context(), caller(r).ID, sessionID(r))
	h.writeSession(w, s, err)
}

// Events handles GET /api/v1/sessions/{session_id}/events as a server-sent event stream
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	id := sessionID(r)

	// Only pool members may watch
	if _, err := h.sessionController.Get(r.Context(), me.ID, id); err != nil {
		WriteError(w, err)
		return
	}

	sse.ServeSSE(w, r, h.hubManager, id, me.ID)
}

func (h *SessionHandler) writeSession(w http.ResponseWriter, s *model.Session, err error) {
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromModel(s))
}
