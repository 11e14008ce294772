package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/dinkup/internal/api/apierr"
	"github.com/mcoot/dinkup/internal/model"
)

type contextKey string

const playerContextKey contextKey = "player"

// Authenticator resolves a bearer token to the player linked to its account
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Player, error)
}

// Auth creates authentication middleware
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			player, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPlayer(r.Context(), player)))
		})
	}
}

// extractToken reads the bearer token. EventSource cannot set headers, so the
// access_token query parameter is accepted as a fallback.
func extractToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("access_token")
}

// WithPlayer returns a context carrying the authenticated player
func WithPlayer(ctx context.Context, player *model.Player) context.Context {
	return context.WithValue(ctx, playerContextKey, player)
}

// GetPlayer returns the authenticated player from the request context
func GetPlayer(ctx context.Context) *model.Player {
	player, _ := ctx.Value(playerContextKey).(*model.Player)
	return player
}

// MustGetPlayer returns the authenticated player or panics
func MustGetPlayer(ctx context.Context) *model.Player {
	player := GetPlayer(ctx)
	if player == nil {
		panic("no player in context - auth middleware not applied?")
	}
	return player
}
