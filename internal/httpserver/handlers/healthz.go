package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/opphub/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Build         build   `json:"build"`
	StoreDriver   string  `json:"store_driver,omitempty"`
	Sources       int     `json:"sources"`
}

type build struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

// Healthz is a liveness probe; it touches no dependency.
func Healthz(d deps.Deps) http.HandlerFunc {
	info := build{Version: d.Version, Commit: d.Commit, BuildDate: d.BuildDate, GoVersion: d.GoVersion}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: d.Now().Sub(d.StartTime).Seconds(),
			Build:         info,
			StoreDriver:   d.StoreDriver,
			Sources:       len(d.Sources),
		})
	}
}
