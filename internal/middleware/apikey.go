package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"whisperd/internal/domain"
	"whisperd/internal/infra"
)

// APIKeyHeader carries the caller's credential. Validation of how keys are
// issued lives outside this module; the middleware only resolves a key to an
// owner and trusts the store's answer.
const APIKeyHeader = "X-API-Key"

type userKey string

const userIDKey userKey = "user_id"

// UserResolver is the slice of the user store the middleware needs.
type UserResolver interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.User, error)
}

// APIKeyAuth rejects requests without a valid API key and installs the
// resolved owner id into the request context.
func APIKeyAuth(users UserResolver, logger infra.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if key == "" {
				http.Error(w, "missing api key", http.StatusForbidden)
				return
			}
			user, err := users.GetByAPIKey(r.Context(), key)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					http.Error(w, "invalid api key", http.StatusUnauthorized)
					return
				}
				logger.Error().Err(err).Msg("auth: user lookup failed")
				http.Error(w, "authentication unavailable", http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), user.ID)))
		})
	}
}

// UserIDFromContext returns the authenticated owner id, or "".
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithUserID installs an owner id; used by the middleware and by tests.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if strings.TrimSpace(userID) == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, userID)
}
