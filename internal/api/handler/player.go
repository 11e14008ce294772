package handler

import (
	"net/http"

	"github.com/mcoot/dinkup/internal/api/request"
	"github.com/mcoot/dinkup/internal/api/response"
	"github.com/mcoot/dinkup/internal/services/auth"
	"github.com/mcoot/dinkup/internal/services/player"
)

// PlayerHandler handles account and profile endpoints
type PlayerHandler struct {
	authService   *auth.Service
	playerService *player.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(authService *auth.Service, playerService *player.Service) *PlayerHandler {
	return &PlayerHandler{
		authService:   authService,
		playerService: playerService,
	}
}

// Register handles POST /api/v1/accounts/register
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		WriteError(w, NewInvalidRequestError("email, password and name are required"))
		return
	}

	identity, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFromIdentity(identity))
}

// Login handles POST /api/v1/accounts/login
func (h *PlayerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, NewInvalidRequestError("email and password are required"))
		return
	}

	identity, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromIdentity(identity))
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.PlayerFromModel(caller(r)))
}

// UpdateMe handles PATCH /api/v1/players/me
func (h *PlayerHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateProfileRequest
	if err := decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	updated, err := h.playerService.UpdateProfile(r.Context(), caller(r).ID, player.ProfileChanges{
		Name:          req.Name,
		Phone:         req.Phone,
		PaymentHandle: req.PaymentHandle,
		NotifyEmail:   req.NotifyEmail,
		NotifySMS:     req.NotifySMS,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(updated))
}
