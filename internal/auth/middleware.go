package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/sentriom/sentriom-api/internal/httputil"
	"github.com/sentriom/sentriom-api/internal/logging"
)

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
	sessions     SessionStore
}

func NewMiddleware(tokenService TokenService, sessions SessionStore) *Middleware {
	return &Middleware{tokenService: tokenService, sessions: sessions}
}

// RequireAuth validates the bearer token. Both checks are mandatory: the
// token must verify cryptographically and a matching non-expired session
// row must still exist. The second check is what makes server-side logout
// effective despite the token being self-contained.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httputil.RespondErrorWithCode(w, "access token required", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokenService.VerifyToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		if claims.Role != RoleUser {
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		if _, err := m.sessions.GetSession(r.Context(), token); err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				httputil.RespondErrorWithCode(w, "invalid or expired session", httputil.CodeSessionRevoked, http.StatusUnauthorized)
				return
			}
			logger := logging.GetLoggerFromContext(r.Context())
			logger.Error("failed to look up session", "error", err.Error())
			httputil.RespondErrorWithCode(w, "authentication failed", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid user ID in token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		ctx := httputil.WithUser(r.Context(), userID, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	return httputil.UserIDFromContext(ctx)
}

// GetUserEmailFromContext extracts the user email from the request context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	return httputil.UserEmailFromContext(ctx)
}
