package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/opphub/internal/store"
)

type componentStatus struct {
	OK      bool     `json:"ok"`
	Mode    string   `json:"mode,omitempty"`
	Records *int64   `json:"records,omitempty"`
	State   string   `json:"state,omitempty"`
	Last    string   `json:"last_fetch,omitempty"`
	Sources []string `json:"sources,omitempty"`
	Impact  string   `json:"impact,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of every component the pipeline depends on.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"store":   storeStatus(r, d),
			"redis":   redisStatus(r, d),
			"refresh": refreshStatus(r, d),
			"sources": {OK: len(d.Sources) > 0, Sources: d.Sources},
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, infraResponse{
			Status:     overallStatus(components),
			Components: components,
		})
	}
}

// overallStatus is critical without a store, degraded when anything else
// is off, operational otherwise.
func overallStatus(components map[string]componentStatus) string {
	if s, ok := components["store"]; ok && !s.OK {
		return "critical"
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "operational"
}

func storeStatus(r *http.Request, d deps.Deps) componentStatus {
	if err := pingStore(r.Context(), d); err != nil {
		return componentStatus{OK: false, Mode: d.StoreDriver, Impact: "listing-unavailable", Error: err.Error()}
	}

	page, err := d.Store.List(r.Context(), store.Query{Limit: 1}.Normalize())
	if err != nil {
		return componentStatus{OK: false, Mode: d.StoreDriver, Error: err.Error()}
	}
	total := page.Pagination.TotalItems
	return componentStatus{OK: true, Mode: d.StoreDriver, Records: &total}
}

func redisStatus(r *http.Request, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: false, Mode: "disabled", Impact: "refresh-lock-disabled", Error: "client not initialized"}
	}
	if err := pingRedis(r.Context(), d); err != nil {
		return componentStatus{OK: false, Mode: "degraded", Impact: "fetch-log-unavailable", Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: "optimal"}
}

func refreshStatus(r *http.Request, d deps.Deps) componentStatus {
	state, latest, err := d.Refresh.State(r.Context())
	if err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}

	c := componentStatus{OK: state != domain.NeverFetched, State: string(state), Last: "never"}
	if latest != nil {
		c.Last = latest.FetchedAt.Format(time.RFC3339)
		c.Mode = string(latest.Status)
		if latest.Status == domain.FetchFailed {
			c.OK = false
			c.Error = latest.Error
		}
	}
	return c
}
