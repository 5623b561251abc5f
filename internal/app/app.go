package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/opphub/internal/aggregator"
	"github.com/MrSnakeDoc/opphub/internal/config"
	"github.com/MrSnakeDoc/opphub/internal/connect"
	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/httpserver"
	"github.com/MrSnakeDoc/opphub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/opphub/internal/logger"
	"github.com/MrSnakeDoc/opphub/internal/metrics"
	"github.com/MrSnakeDoc/opphub/internal/redis"
	"github.com/MrSnakeDoc/opphub/internal/refresh"
	"github.com/MrSnakeDoc/opphub/internal/retention"
	"github.com/MrSnakeDoc/opphub/internal/scheduler"
	"github.com/MrSnakeDoc/opphub/internal/sources"
	"github.com/MrSnakeDoc/opphub/internal/store"
	"github.com/MrSnakeDoc/opphub/internal/store/memory"
	mongostore "github.com/MrSnakeDoc/opphub/internal/store/mongo"
	redisstore "github.com/MrSnakeDoc/opphub/internal/store/redis"
	"github.com/MrSnakeDoc/opphub/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	mongo       *mongostore.Store
	controller  *refresh.Controller
	scheduler   *scheduler.Scheduler
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	opps, mongo, err := openStore(cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s store: %v", cfg.StoreDriver, err)
		closeConnections(loggerClient, nil, redisClient)
		os.Exit(1)
	}

	srcCfg, err := loadSources(cfg)
	if err != nil {
		loggerClient.Errorf("Failed to load source configuration: %v", err)
		closeConnections(loggerClient, mongo, redisClient)
		os.Exit(1)
	}

	m := metrics.New()

	adapters := sources.Build(srcCfg, sources.Deps{
		Client:       &http.Client{Timeout: cfg.HTTPTimeout},
		Log:          loggerClient.Named("sources"),
		Metrics:      m,
		RequestDelay: cfg.RequestDelay,
	})
	agg := aggregator.New(adapters, loggerClient)

	controller := refresh.New(
		agg,
		opps,
		redisstore.NewFetchLogStore(redisClient),
		redisstore.NewLocker(redisClient),
		m,
		loggerClient.Named("refresh"),
		refresh.Options{CacheDuration: cfg.CacheDuration, LockTTL: cfg.RefreshLockTTL},
	)

	policy := domain.RetentionPolicy{DeadlineGrace: cfg.DeadlineGrace, RetentionWindow: cfg.RetentionWindow}
	cleaner := retention.NewCleaner(opps, policy, m, loggerClient)

	sched := scheduler.New(controller, cleaner, loggerClient.Named("scheduler"), cfg.RefreshSchedule, cfg.CleanupSchedule)

	d := deps.Deps{
		Logger:              loggerClient,
		StartTime:           time.Now(),
		Version:             version.Version,
		Commit:              version.Commit,
		BuildDate:           version.BuildDate,
		GoVersion:           version.GoVersion,
		TimeNow:             time.Now,
		AllowedHosts:        cfg.AllowedHosts,
		AllowedCIDRS:        cfg.AllowedCIDRS,
		AllowedOrigins:      cfg.AllowedOrigins,
		TrustProxy:          cfg.TrustProxy,
		AdminSecret:         cfg.AdminSecret,
		PublicRateBurst:     cfg.PublicRateBurst,
		PublicRatePerMinute: cfg.PublicRatePerMin,
		Store:               opps,
		Refresh:             controller,
		Cleaner:             cleaner,
		Policy:              cleaner.Policy(),
		Metrics:             m,
		RedisClient:         redisClient,
		StoreDriver:         cfg.StoreDriver,
		Sources:             agg.Sources(),
	}

	if cfg.AdminSecret == "" {
		loggerClient.Warn("HUB_ADMIN_SECRET not set, admin endpoints disabled")
	}

	server := httpserver.New(cfg.ListenPort, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		mongo:       mongo,
		controller:  controller,
		scheduler:   sched,
	}
}

// openStore returns the opportunity store of the configured driver. The
// mongo handle is returned separately so it can be closed on shutdown.
func openStore(cfg *config.Config, log logger.Logger) (store.OpportunityStore, *mongostore.Store, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout+5*time.Second)
	defer cancel()

	s, err := mongostore.Open(ctx, mongostore.Options{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
		Retry: connect.Options{
			Timeout:       cfg.MongoTimeout,
			RetryInterval: time.Second,
			MaxWait:       5 * time.Second,
			PingTimeout:   3 * time.Second,
			WarnThreshold: 3,
		},
	}, log)
	if err != nil {
		return nil, nil, err
	}
	log.Info("MongoDB initialized successfully", logger.String("database", cfg.MongoDatabase))
	return s, s, nil
}

// closeConnections releases the backends opened by New when startup
// aborts. Either handle may be nil.
func closeConnections(log logger.Logger, mongo *mongostore.Store, redisClient *goredis.Client) {
	if mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongo.Close(ctx); err != nil {
			log.Warnf("failed to close mongo: %v", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warnf("failed to close redis: %v", err)
		}
	}
}

// loadSources reads sources.yaml and overlays credentials from the environment.
func loadSources(cfg *config.Config) (sources.Config, error) {
	srcCfg, err := sources.LoadConfig(cfg.SourcesFile)
	if err != nil {
		return srcCfg, err
	}
	return srcCfg.Merge(sources.Config{Sources: map[string]sources.Settings{
		sources.KeyAdzuna:    {AppID: cfg.AdzunaAppID, AppKey: cfg.AdzunaAppKey},
		sources.KeyReliefWeb: {AppName: cfg.ReliefWebAppName},
	}}), nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting opphub v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("opphub %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background refresh worker, fed by the listing route and the scheduler
	a.controller.Start(ctx)

	if err := a.scheduler.Start(ctx); err != nil {
		a.controller.Stop()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	// Stop producers before the stores they write to
	stop()
	a.scheduler.Stop()
	a.controller.Stop()

	if a.mongo != nil {
		if err := a.mongo.Close(shutdownCtx); err != nil {
			a.logger.Warnf("failed to close mongo: %v", err)
		} else {
			a.logger.Info("✅ MongoDB closed cleanly")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ opphub stopped cleanly")
	return nil
}
