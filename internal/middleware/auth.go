package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/swarupplay/backend/internal/auth"
	"github.com/swarupplay/backend/internal/logging"
	"github.com/swarupplay/backend/internal/models"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// RequireAuth rejects requests without a valid, unexpired bearer token before
// the wrapped handler runs. A missing token yields 401, an invalid or expired
// one 403. The verified identity is stored on the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.FromContext(r.Context())

			token := auth.BearerToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "No token provided")
				return
			}
			if verifier == nil {
				logger.Error("token verifier unavailable")
				writeAuthError(w, http.StatusInternalServerError, "Server error")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, auth.ErrTokenExpired) {
					reason = "expired"
				}
				logger.Warn("token rejected", slog.String("reason", reason), slog.String("error", err.Error()))
				writeAuthError(w, http.StatusForbidden, "Invalid token")
				return
			}

			identity := models.Identity{ID: claims.Identity.ID, Name: claims.Name, Email: claims.Email}
			ctx := auth.WithIdentity(r.Context(), identity)
			ctx = logging.WithLogger(ctx, logger.With(slog.String("user_id", identity.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
