package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/opphub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/opphub/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/opphub/internal/httpserver/mw"
)

const publicTimeout = 10 * time.Second

func init() { Register("public", registerOpportunities) }

func registerOpportunities(r chi.Router, d deps.Deps) {
	public := r.With(
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.PublicRateBurst,
			RefillPerIPPerMin: d.PublicRatePerMinute,
			MaxEntries:        10000,
			TrustProxy:        d.TrustProxy,
		}),
		middleware.Timeout(publicTimeout),
	)

	public.Get("/api/opportunities", handlers.ListOpportunities(d))
	public.Get("/api/opportunities/status", handlers.RefreshStatus(d))
}
