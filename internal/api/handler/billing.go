package handler

import (
	"net/http"

	"github.com/mcoot/dinkup/internal/api/response"
	"github.com/mcoot/dinkup/internal/services/billing"
)

// BillingHandler handles roster lock and cost summary endpoints
type BillingHandler struct {
	billingController *billing.Controller
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingController *billing.Controller) *BillingHandler {
	return &BillingHandler{billingController: billingController}
}

// Lock handles POST /api/v1/sessions/{session_id}/lock
func (h *BillingHandler) Lock(w http.ResponseWriter, r *http.Request) {
	s, err := h.billingController.Lock(r.Context(), caller(r).ID, sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(s))
}

// Cost handles GET /api/v1/sessions/{session_id}/cost
func (h *BillingHandler) Cost(w http.ResponseWriter, r *http.Request) {
	cost, err := h.billingController.CostSummary(r.Context(), caller(r).ID, sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CostFromSummary(cost))
}
