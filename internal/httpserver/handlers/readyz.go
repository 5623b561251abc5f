package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/opphub/internal/httpserver/deps"
)

const pingTimeout = 2 * time.Second

type readyzResponse struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// Readyz reports ready only when the store (and redis, when configured)
// answer a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"store": checkErr(pingStore(r.Context(), d)),
		}
		if d.RedisClient != nil {
			checks["redis"] = checkErr(pingRedis(r.Context(), d))
		}

		ready := true
		for _, c := range checks {
			if c != "ok" {
				ready = false
			}
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, status, readyzResponse{Ready: ready, Checks: checks})
	}
}

func pingStore(ctx context.Context, d deps.Deps) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return d.Store.Ping(ctx)
}

func pingRedis(ctx context.Context, d deps.Deps) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return d.RedisClient.Ping(ctx).Err()
}

func checkErr(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}
