package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/musicengine/auth-server-go/internal/audit"
	"github.com/musicengine/auth-server-go/internal/util"
)

// AdminAuthMiddleware guards the user directory endpoints with a bearer
// password checked against a bcrypt hash.
type AdminAuthMiddleware struct {
	passwordHash string
}

func NewAdminAuthMiddleware(passwordHash string) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{passwordHash: passwordHash}
}

func (m *AdminAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.passwordHash == "" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "Admin not configured",
			})
			return
		}

		secret := extractBearer(r)
		if secret == "" || !util.CheckPasswordHash(secret, m.passwordHash) {
			log.Warn().Msg("admin auth: invalid credentials")
			audit.Log(r.Context(), audit.FromRequest(r, audit.Event{Type: audit.EventAuthFailure}))
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
