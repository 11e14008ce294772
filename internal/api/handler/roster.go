package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/dinkup/internal/api/request"
	"github.com/mcoot/dinkup/internal/api/response"
	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/services/roster"
)

// RosterHandler handles joining, leaving and the waitlist
type RosterHandler struct {
	rosterController *roster.Controller
}

// NewRosterHandler creates a new roster handler
func NewRosterHandler(rosterController *roster.Controller) *RosterHandler {
	return &RosterHandler{rosterController: rosterController}
}

// Join handles POST /api/v1/sessions/{session_id}/join.
// The pool owner may name another player in the body.
func (h *RosterHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinSessionRequest
	if err := decode(r, &req, true); err != nil {
		WriteError(w, err)
		return
	}

	me := caller(r)
	target := me.ID
	if req.PlayerID != "" {
		target = model.PlayerID(req.PlayerID)
	}

	p, err := h.rosterController.Join(r.Context(), me.ID, sessionID(r), target)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ParticipantFromModel(*p))
}

// Leave handles POST /api/v1/sessions/{session_id}/leave
func (h *RosterHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.rosterController.Leave(r.Context(), caller(r).ID, sessionID(r)); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Decline handles POST /api/v1/sessions/{session_id}/decline
func (h *RosterHandler) Decline(w http.ResponseWriter, r *http.Request) {
	p, err := h.rosterController.Decline(r.Context(), caller(r).ID, sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ParticipantFromModel(*p))
}

// Remove handles DELETE /api/v1/sessions/{session_id}/participants/{participant_id}
func (h *RosterHandler) Remove(w http.ResponseWriter, r *http.Request) {
	participantID := model.ParticipantID(mux.Vars(r)["participant_id"])

	if err := h.rosterController.Remove(r.Context(), caller(r).ID, sessionID(r), participantID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Waitlist handles GET /api/v1/sessions/{session_id}/waitlist
func (h *RosterHandler) Waitlist(w http.ResponseWriter, r *http.Request) {
	waiting, err := h.rosterController.Waitlist(r.Context(), caller(r).ID, sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ParticipantsFromModel(waiting))
}
