package gateway

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authMiddleware wraps a handler with Bearer token authentication.
// If cfg.Gateway.AuthToken is empty, authentication is skipped.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := s.cfg.Gateway.AuthToken
		if token == "" {
			next(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			writeJSONError(w, http.StatusUnauthorized, "invalid Authorization format")
			return
		}

		presented := authHeader[len(prefix):]
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			writeJSONError(w, http.StatusForbidden, "invalid token")
			return
		}

		next(w, r)
	}
}
