package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

const redacted = "***REDACTED***"

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Pipeline
	SourcesFile     string        // per-source adapter settings (YAML); missing => built-in defaults
	CacheDuration   time.Duration // data older than this is stale (default: 24h)
	RefreshSchedule string        // cron spec of the staleness check (default: @every 1h)
	CleanupSchedule string        // cron spec of the retention cleanup (default: @every 24h)
	RefreshLockTTL  time.Duration // lease of the cross-replica refresh lock
	DeadlineGrace   time.Duration // records are kept this long past their deadline (default: 7 days)
	RetentionWindow time.Duration // deadline-less records are kept this long (default: 30 days)
	HTTPTimeout     time.Duration // outbound timeout for source APIs
	RequestDelay    time.Duration // spacing between requests to the same API

	// Source credentials
	AdzunaAppID      string
	AdzunaAppKey     string
	ReliefWebAppName string

	// Store
	StoreDriver   string        // "mongo" | "memory"
	MongoURI      string        // required when StoreDriver is mongo
	MongoDatabase string        // ex: "opportunities_hub"
	MongoTimeout  time.Duration // total time to retry connecting

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Access
	AdminSecret      string   // bearer token of admin endpoints; empty disables them
	AllowedOrigins   []string // CORS origins of the public listing
	AllowedHosts     []string // optional, restrict admin endpoints to specific Host headers
	AllowedCIDRS     []string // optional, restrict ops endpoints to specific IPs/CIDRs
	TrustProxy       bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	PublicRateBurst  int      // per-IP burst on the public listing
	PublicRatePerMin int      // per-IP refill per minute on the public listing
}

// Load reads the configuration from the environment. A .env file (or
// HUB_ENV_FILE) is loaded first; it never overrides variables already set.
// Missing required values panic.
func Load() *Config {
	loadDotEnv(getenv("HUB_ENV_FILE", ".env"))

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("HUB_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("HUB_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("HUB_LOG_LEVEL", "info"),
		PrettyLog: mustBool("HUB_PRETTY_LOG", true),

		// Pipeline
		SourcesFile:     getenv("HUB_SOURCES_FILE", "/app/sources.yaml"),
		CacheDuration:   mustDuration("HUB_CACHE_DURATION", 24*time.Hour),
		RefreshSchedule: getenv("HUB_REFRESH_SCHEDULE", "@every 1h"),
		CleanupSchedule: getenv("HUB_CLEANUP_SCHEDULE", "@every 24h"),
		RefreshLockTTL:  mustDuration("HUB_REFRESH_LOCK_TTL", 10*time.Minute),
		DeadlineGrace:   mustDuration("HUB_DEADLINE_GRACE", 7*24*time.Hour),
		RetentionWindow: mustDuration("HUB_RETENTION_WINDOW", 30*24*time.Hour),
		HTTPTimeout:     mustDuration("HUB_HTTP_TIMEOUT", 20*time.Second),
		RequestDelay:    mustDuration("HUB_REQUEST_DELAY", 500*time.Millisecond),

		// Source credentials
		AdzunaAppID:      getenv("ADZUNA_APP_ID", ""),
		AdzunaAppKey:     getenv("ADZUNA_APP_KEY", ""),
		ReliefWebAppName: getenv("RELIEFWEB_APPNAME", ""),

		// Store
		StoreDriver:   strings.ToLower(getenv("HUB_STORE_DRIVER", DriverMongo)),
		MongoDatabase: getenv("HUB_MONGO_DATABASE", "opportunities_hub"),
		MongoTimeout:  mustDuration("HUB_MONGO_TIMEOUT", 10*time.Second),

		// Redis settings
		RedisAddr:             requireEnv("HUB_REDIS_ADDR"),
		RedisUser:             getenv("HUB_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("HUB_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("HUB_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("HUB_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AdminSecret:      getenv("HUB_ADMIN_SECRET", ""),
		AllowedOrigins:   splitAndTrim(getenv("HUB_ALLOWED_ORIGINS", "*")),
		AllowedHosts:     splitAndTrim(getenv("HUB_ALLOWED_HOSTS", "")),
		AllowedCIDRS:     splitAndTrim(getenv("HUB_OPS_CIDRS", "")),
		TrustProxy:       mustBool("HUB_TRUST_PROXY", true),
		PublicRateBurst:  getenvInt("HUB_PUBLIC_RATE_BURST", 30),
		PublicRatePerMin: getenvInt("HUB_PUBLIC_RATE_PER_MIN", 120),
	}

	switch cfg.StoreDriver {
	case DriverMongo:
		cfg.MongoURI = requireEnv("HUB_MONGO_URI")
	case DriverMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: HUB_STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverMemory, cfg.StoreDriver))
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: HUB_REDIS_PASSWORD is required when HUB_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	for _, s := range []*string{&c.RedisPassword, &c.AdminSecret, &c.MongoURI, &c.AdzunaAppKey} {
		if *s != "" {
			*s = redacted
		}
	}
	if c.RedisUser != "" {
		c.RedisUser = redacted
	}
	return c
}

func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Sprintf("❌ FATAL: cannot read env file %s: %v", path, err))
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
