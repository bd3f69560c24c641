package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/cleanse/internal/config"
	"github.com/JonMunkholm/cleanse/internal/logging"
)

// Auth error codes returned in the JSON body.
const (
	CodeMissingKey = "AUTH_MISSING_KEY"
	CodeInvalidKey = "AUTH_INVALID_KEY"
)

// APIKeyAuth guards the /api routes. A key is read from X-API-Key or an
// "Authorization: Bearer" header and compared against every configured key.
// With RequireAPIKey off, requests pass through untouched.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	keys := make([][]byte, len(cfg.APIKeys))
	for i, k := range cfg.APIKeys {
		keys[i] = []byte(k)
	}

	return func(next http.Handler) http.Handler {
		if !cfg.RequireAPIKey {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := requestAPIKey(r)
			switch {
			case key == "":
				logging.FromContext(r.Context()).Warn("auth: missing API key", "ip", r.RemoteAddr)
				denyJSON(w, http.StatusUnauthorized, "missing API key", CodeMissingKey)
			case !matchesAny([]byte(key), keys):
				logging.FromContext(r.Context()).Warn("auth: invalid API key", "ip", r.RemoteAddr)
				denyJSON(w, http.StatusForbidden, "invalid API key", CodeInvalidKey)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// requestAPIKey reads X-API-Key, falling back to a bearer token.
func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// matchesAny compares key with every candidate in constant time, so the
// duration does not reveal which key (if any) matched.
func matchesAny(key []byte, candidates [][]byte) bool {
	match := 0
	for _, c := range candidates {
		match |= subtle.ConstantTimeCompare(key, c)
	}
	return match == 1
}

func denyJSON(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
