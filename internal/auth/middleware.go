// Package auth guards the MCP HTTP transport with a static bearer token.
package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

const (
	bearerPrefix = "Bearer "
	challenge    = `Bearer realm="grimoire-mcp"`
)

// RequireBearer returns middleware that admits only requests carrying
//
//	Authorization: Bearer <token>
//
// The scheme is matched case-sensitively and tokens are compared in constant
// time. Rejected requests get 401 with a WWW-Authenticate challenge and never
// reach next. An empty token disables the check. A nil logger defaults to
// slog.Default().
func RequireBearer(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	want := []byte(token)

	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || provided == "" {
				reject(w, r, logger, "missing bearer token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), want) != 1 {
				reject(w, r, logger, "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, logger *slog.Logger, reason string) {
	logger.Debug("auth rejected", "reason", reason, "remote", r.RemoteAddr, "path", r.URL.Path)
	w.Header().Set("WWW-Authenticate", challenge)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
