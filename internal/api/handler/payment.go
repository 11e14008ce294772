package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/dinkup/internal/api/request"
	"github.com/mcoot/dinkup/internal/api/response"
	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/services/payment"
)

// PaymentHandler handles payment tracking endpoints
type PaymentHandler struct {
	tracker        *payment.Tracker
	reminderWindow time.Duration
}

// NewPaymentHandler creates a new payment handler. reminderWindow is used
// when a reminder request does not name its own window.
func NewPaymentHandler(tracker *payment.Tracker, reminderWindow time.Duration) *PaymentHandler {
	return &PaymentHandler{tracker: tracker, reminderWindow: reminderWindow}
}

// Dashboard handles GET /api/v1/sessions/{session_id}/payments
func (h *PaymentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.tracker.Dashboard(r.Context(), caller(r).ID, sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.DashboardFromModel(d))
}

// Outstanding handles GET /api/v1/sessions/{session_id}/payments/outstanding
func (h *PaymentHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	rows, err := h.tracker.Outstanding(r.Context(), caller(r).ID, sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PaymentsFromRows(rows))
}

// MarkPaid handles POST /api/v1/payments/{payment_id}/paid
func (h *PaymentHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id := model.PaymentID(mux.Vars(r)["payment_id"])

	p, err := h.tracker.MarkPaid(r.Context(), caller(r).ID, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PaymentFromModel(p))
}

// Remind handles POST /api/v1/payments/reminders. Reminders go out for
// sessions in pools the caller owns whose deadline falls inside the window.
func (h *PaymentHandler) Remind(w http.ResponseWriter, r *http.Request) {
	var req request.RemindRequest
	if err := decode(r, &req, true); err != nil {
		WriteError(w, err)
		return
	}

	window := h.reminderWindow
	if req.Window != "" {
		d, err := time.ParseDuration(req.Window)
		if err != nil || d <= 0 {
			WriteError(w, NewInvalidRequestError("window must be a positive duration such as 24h"))
			return
		}
		window = d
	}

	sent, err := h.tracker.RemindDue(r.Context(), caller(r).ID, window)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RemindResponse{Sent: sent})
}
