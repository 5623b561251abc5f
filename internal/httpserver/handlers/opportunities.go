package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/opphub/internal/logger"
	"github.com/MrSnakeDoc/opphub/internal/store"
)

// statusHistory is the number of runs shown by the status endpoint.
const statusHistory = 10

type listingItem struct {
	domain.Opportunity
	DaysUntilExpiration *int `json:"daysUntilExpiration"`
}

type listingData struct {
	Opportunities []listingItem    `json:"opportunities"`
	Pagination    store.Pagination `json:"pagination"`
	Filters       store.Filters    `json:"filters"`
}

type listingMeta struct {
	LastFetch  *time.Time         `json:"lastFetch"`
	LastStatus domain.FetchStatus `json:"lastStatus,omitempty"`
	State      domain.Freshness   `json:"state"`
}

// ListOpportunities serves the paginated listing. A stale store queues a
// background refresh; the response never waits for it.
func ListOpportunities(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		state, latest := d.Refresh.EnsureFresh(ctx)

		page, err := d.Store.List(ctx, ParseQuery(r.URL.Query()))
		if err != nil {
			d.Logger.Error("failed to list opportunities", logger.Error(err))
			fail(w, http.StatusInternalServerError, "failed to load opportunities")
			return
		}

		now := d.Now()
		items := make([]listingItem, 0, len(page.Items))
		for _, o := range page.Items {
			items = append(items, listingItem{
				Opportunity:         o,
				DaysUntilExpiration: d.Policy.DaysUntilExpiration(o.CreatedAt, o.Deadline, now),
			})
		}

		meta := listingMeta{State: state}
		if latest != nil {
			fetchedAt := latest.FetchedAt
			meta.LastFetch = &fetchedAt
			meta.LastStatus = latest.Status
		}

		w.Header().Set("Cache-Control", "no-store")
		ok(w, listingData{
			Opportunities: items,
			Pagination:    page.Pagination,
			Filters:       page.Filters,
		}, meta)
	}
}

// ParseQuery reads the listing parameters. "type" and "region" are
// accepted as aliases of "category" and "location".
func ParseQuery(v url.Values) store.Query {
	return store.Query{
		Page:      atoi(v.Get("page")),
		Limit:     atoi(v.Get("limit")),
		Search:    v.Get("search"),
		Category:  firstNonEmpty(v.Get("category"), v.Get("type")),
		Location:  firstNonEmpty(v.Get("location"), v.Get("region")),
		SortBy:    v.Get("sortBy"),
		SortOrder: strings.ToLower(strings.TrimSpace(v.Get("sortOrder"))),
	}.Normalize()
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// RefreshStatus exposes the freshness gate and the recent runs.
func RefreshStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := d.Refresh.Status(r.Context(), statusHistory)
		if err != nil {
			d.Logger.Error("failed to read refresh status", logger.Error(err))
			fail(w, http.StatusInternalServerError, "failed to read refresh status")
			return
		}
		ok(w, status, nil)
	}
}
