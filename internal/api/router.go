// Package api exposes the HTTP API under /api/v1.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/dinkup/internal/api/handler"
	"github.com/mcoot/dinkup/internal/api/middleware"
	"github.com/mcoot/dinkup/internal/api/sse"
	"github.com/mcoot/dinkup/internal/services/auth"
	"github.com/mcoot/dinkup/internal/services/billing"
	"github.com/mcoot/dinkup/internal/services/payment"
	"github.com/mcoot/dinkup/internal/services/player"
	"github.com/mcoot/dinkup/internal/services/pool"
	"github.com/mcoot/dinkup/internal/services/roster"
	"github.com/mcoot/dinkup/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	AuthService       *auth.Service
	PlayerService     *player.Service
	PoolController    *pool.Controller
	SessionController *session.Controller
	RosterController  *roster.Controller
	BillingController *billing.Controller
	PaymentTracker    *payment.Tracker
	HubManager        *sse.HubManager
	ReminderWindow    time.Duration
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	playerHandler := handler.NewPlayerHandler(cfg.AuthService, cfg.PlayerService)
	poolHandler := handler.NewPoolHandler(cfg.PoolController)
	sessionHandler := handler.NewSessionHandler(cfg.SessionController, cfg.HubManager)
	rosterHandler := handler.NewRosterHandler(cfg.RosterController)
	billingHandler := handler.NewBillingHandler(cfg.BillingController)
	paymentHandler := handler.NewPaymentHandler(cfg.PaymentTracker, cfg.ReminderWindow)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	// Unauthenticated routes
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/accounts/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/accounts/login", playerHandler.Login).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Auth(cfg.AuthService))

	protected.HandleFunc("/players/me", playerHandler.GetMe).Methods(http.MethodGet)
	protected.HandleFunc("/players/me", playerHandler.UpdateMe).Methods(http.MethodPatch)

	// Pool routes; /pools/join is registered before /pools/{pool_id}
	protected.HandleFunc("/pools", poolHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/pools", poolHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/pools/join", poolHandler.Join).Methods(http.MethodPost)
	protected.HandleFunc("/pools/{pool_id}", poolHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/pools/{pool_id}", poolHandler.Deactivate).Methods(http.MethodDelete)
	protected.HandleFunc("/pools/{pool_id}/members", poolHandler.AddMember).Methods(http.MethodPost)
	protected.HandleFunc("/pools/{pool_id}/members/{player_id}", poolHandler.RemoveMember).Methods(http.MethodDelete)
	protected.HandleFunc("/pools/{pool_id}/sessions", sessionHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/pools/{pool_id}/sessions", sessionHandler.List).Methods(http.MethodGet)

	// Session routes
	sessions := protected.PathPrefix("/sessions/{session_id}").Subrouter()
	sessions.HandleFunc("", sessionHandler.Get).Methods(http.MethodGet)
	sessions.HandleFunc("", sessionHandler.Update).Methods(http.MethodPatch)
	sessions.HandleFunc("/confirm", sessionHandler.Confirm).Methods(http.MethodPost)
	sessions.HandleFunc("/complete", sessionHandler.Complete).Methods(http.MethodPost)
	sessions.HandleFunc("/cancel", sessionHandler.Cancel).Methods(http.MethodPost)
	sessions.HandleFunc("/events", sessionHandler.Events).Methods(http.MethodGet)

	sessions.HandleFunc("/join", rosterHandler.Join).Methods(http.MethodPost)
	sessions.HandleFunc("/leave", rosterHandler.Leave).Methods(http.MethodPost)
	sessions.HandleFunc("/decline", rosterHandler.Decline).Methods(http.MethodPost)
	sessions.HandleFunc("/participants/{participant_id}", rosterHandler.Remove).Methods(http.MethodDelete)
	sessions.HandleFunc("/waitlist", rosterHandler.Waitlist).Methods(http.MethodGet)

	sessions.HandleFunc("/lock", billingHandler.Lock).Methods(http.MethodPost)
	sessions.HandleFunc("/cost", billingHandler.Cost).Methods(http.MethodGet)

	sessions.HandleFunc("/payments", paymentHandler.Dashboard).Methods(http.MethodGet)
	sessions.HandleFunc("/payments/outstanding", paymentHandler.Outstanding).Methods(http.MethodGet)

	// Payment routes; /payments/reminders is registered before /payments/{payment_id}
	protected.HandleFunc("/payments/reminders", paymentHandler.Remind).Methods(http.MethodPost)
	protected.HandleFunc("/payments/{payment_id}/paid", paymentHandler.MarkPaid).Methods(http.MethodPost)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
