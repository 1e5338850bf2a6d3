package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sentriom/sentriom-api/internal/auth"
	"github.com/sentriom/sentriom-api/internal/httputil"
	"github.com/sentriom/sentriom-api/internal/logging"
)

// Middleware guards the admin routes
type Middleware struct {
	tokens auth.TokenService
}

func NewMiddleware(tokens auth.TokenService) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequireAdmin validates the bearer token and checks the admin role.
// Unlike user sessions, admin tokens are not backed by a sessions row.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "authorization header required", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokens.VerifyToken(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, "token expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			logger.Warn("admin token verification failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		if claims.Role != auth.RoleAdmin {
			logger.Warn("non-admin token used on admin route")
			httputil.RespondErrorWithCode(w, "admin access required", httputil.CodeAdminRequired, http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
