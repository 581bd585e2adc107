package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/r1shah/deskai-go/internal/logging"
)

// authMiddleware guards the API with a single shared Bearer token. An empty
// apiKey disables the check entirely; the startup path logs a warning in
// that case so an open server is never silent.
//
// Clients authenticate with:
//
//	Authorization: Bearer <apiKey>
//
// Failures get 401 with a WWW-Authenticate challenge. Presented token
// values are never logged.
func authMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		token := bearerToken(r)
		switch {
		case token == "":
			log.Warn("auth: missing bearer token",
				slog.String("path", r.URL.Path),
			)
			unauthorized(w, `Bearer realm="deskai"`, "authorization required")
		case subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1:
			log.Warn("auth: invalid token",
				slog.String("path", r.URL.Path),
			)
			unauthorized(w, `Bearer realm="deskai" error="invalid_token"`, "invalid token")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func unauthorized(w http.ResponseWriter, challenge, msg string) {
	w.Header().Set("WWW-Authenticate", challenge)
	http.Error(w, msg, http.StatusUnauthorized)
}

// bearerToken extracts the token from the Authorization header, accepting
// any casing of the "Bearer" scheme. It returns "" for absent or malformed
// headers.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
