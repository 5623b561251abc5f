package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/logger"
	"github.com/MrSnakeDoc/opphub/internal/metrics"
	"github.com/MrSnakeDoc/opphub/internal/refresh"
	"github.com/MrSnakeDoc/opphub/internal/retention"
	"github.com/MrSnakeDoc/opphub/internal/store"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts   []string // Host headers allowed on admin endpoints
	AllowedCIDRS   []string // IPs allowed on healthz/readyz/infra/metrics
	AllowedOrigins []string // CORS origins for the public listing
	TrustProxy     bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)
	AdminSecret    string   // bearer token for admin endpoints; empty disables them

	PublicRateBurst     int // per-IP burst on public routes
	PublicRatePerMinute int // per-IP refill on public routes

	Store       store.OpportunityStore
	Refresh     *refresh.Controller
	Cleaner     *retention.Cleaner
	Policy      domain.RetentionPolicy
	Metrics     *metrics.Metrics
	RedisClient *redis.Client // nil when redis is not configured
	StoreDriver string
	Sources     []string // enabled adapters, in precedence order
}

// Now returns the injected clock or time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
