package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/dinkup/internal/api/request"
	"github.com/mcoot/dinkup/internal/api/response"
	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/services/pool"
)

// PoolHandler handles pool endpoints
type PoolHandler struct {
	poolController *pool.Controller
}

// NewPoolHandler creates a new pool handler
func NewPoolHandler(poolController *pool.Controller) *PoolHandler {
	return &PoolHandler{poolController: poolController}
}

// Create handles POST /api/v1/pools
func (h *PoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePoolRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.poolController.Create(r.Context(), caller(r), req.Name, req.Description)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PoolFromModel(p))
}

// List handles GET /api/v1/pools
func (h *PoolHandler) List(w http.ResponseWriter, r *http.Request) {
	pools, err := h.poolController.ListForPlayer(r.Context(), caller(r).ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PoolsFromModel(pools))
}

// Get handles GET /api/v1/pools/{pool_id}
func (h *PoolHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.poolController.Get(r.Context(), caller(r).ID, poolID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PoolFromModel(p))
}

// Deactivate handles DELETE /api/v1/pools/{pool_id}
func (h *PoolHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	p, err := h.poolController.Deactivate(r.Context(), caller(r).ID, poolID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PoolFromModel(p))
}

// AddMember handles POST /api/v1/pools/{pool_id}/members.
// With a player_id it adds that player; with only a name it creates a guest player.
func (h *PoolHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req request.AddMemberRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	me := caller(r)
	if req.PlayerID == "" {
		if strings.TrimSpace(req.Name) == "" {
			WriteError(w, NewInvalidRequestError("player_id or name is required"))
			return
		}
		guest, err := h.poolController.AddGuest(r.Context(), me.ID, poolID(r), req.Name, req.Email)
		if err != nil {
			WriteError(w, err)
			return
		}
		response.JSON(w, http.StatusCreated, response.PlayerFromModel(guest))
		return
	}

	p, err := h.poolController.AddMember(r.Context(), me.ID, poolID(r), model.PlayerID(req.PlayerID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PoolFromModel(p))
}

// RemoveMember handles DELETE /api/v1/pools/{pool_id}/members/{player_id}
func (h *PoolHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	target := model.PlayerID(mux.Vars(r)["player_id"])

	if _, err := h.poolController.RemoveMember(r.Context(), caller(r).ID, poolID(r), target); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Join handles POST /api/v1/pools/join
func (h *PoolHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinPoolRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.InviteCode) == "" {
		WriteError(w, NewInvalidRequestError("invite_code is required"))
		return
	}

	p, err := h.poolController.JoinByInvite(r.Context(), caller(r), model.InviteCode(strings.TrimSpace(req.InviteCode)))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PoolFromModel(p))
}
