package mw

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/opphub/internal/logger"
	"github.com/MrSnakeDoc/opphub/internal/utils"
)

type authError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// RequireBearer gates admin routes on a shared secret sent as
// "Authorization: Bearer <secret>". The comparison is constant-time.
// With an empty secret every request gets 503 so admin routes can never be
// reached without configuration.
func RequireBearer(secret string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	want := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(want) == 0 {
				deny(w, http.StatusServiceUnavailable, "admin endpoints disabled")
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || subtle.ConstantTimeCompare([]byte(token), want) != 1 {
				log.Warn("admin request rejected",
					logger.String("path", r.URL.Path),
					logger.String("ip", utils.ClientIP(r, trustProxy)))
				w.Header().Set("WWW-Authenticate", `Bearer realm="opphub"`)
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(authError{Success: false, Error: msg})
}
