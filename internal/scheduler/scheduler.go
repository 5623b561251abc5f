// Package scheduler runs the periodic staleness check and retention cleanup
// on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/logger"
	"github.com/MrSnakeDoc/opphub/internal/retention"
)

const (
	DefaultRefreshSchedule = "@every 1h"
	DefaultCleanupSchedule = "@every 24h"
)

// Refresher queues a background refresh when the data is not fresh.
type Refresher interface {
	EnsureFresh(ctx context.Context) (domain.Freshness, *domain.FetchLog)
}

// Cleaner deletes expired records.
type Cleaner interface {
	Cleanup(ctx context.Context) (retention.Report, error)
}

type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	cleaner   Cleaner
	logger    logger.Logger

	refreshSpec string
	cleanupSpec string

	wg sync.WaitGroup
}

// New creates a scheduler. Empty specs fall back to the defaults.
func New(refresher Refresher, cleaner Cleaner, log logger.Logger, refreshSpec, cleanupSpec string) *Scheduler {
	if refreshSpec == "" {
		refreshSpec = DefaultRefreshSchedule
	}
	if cleanupSpec == "" {
		cleanupSpec = DefaultCleanupSchedule
	}
	if log == nil {
		log = logger.NewNop()
	}

	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		refresher:   refresher,
		cleaner:     cleaner,
		logger:      log,
		refreshSpec: refreshSpec,
		cleanupSpec: cleanupSpec,
	}
}

// Start registers both jobs, starts the cron and runs each job once
// immediately without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.refreshSpec, func() { s.checkFreshness(ctx) }); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.refreshSpec, err)
	}
	if _, err := s.cron.AddFunc(s.cleanupSpec, func() { s.cleanup(ctx) }); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.cleanupSpec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		logger.String("refresh_schedule", s.refreshSpec),
		logger.String("cleanup_schedule", s.cleanupSpec))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.cleanup(ctx)
		s.checkFreshness(ctx)
	}()

	return nil
}

// Stop stops the cron and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) checkFreshness(ctx context.Context) {
	state, latest := s.refresher.EnsureFresh(ctx)

	fields := []logger.Field{logger.String("state", string(state))}
	if latest != nil {
		fields = append(fields,
			logger.Time("last_fetch", latest.FetchedAt),
			logger.String("last_status", string(latest.Status)))
	}
	s.logger.Debug("staleness check", fields...)
}

func (s *Scheduler) cleanup(ctx context.Context) {
	if _, err := s.cleaner.Cleanup(ctx); err != nil {
		s.logger.Error("retention cleanup failed", logger.Error(err))
	}
}

// cronLogger routes cron's own messages through the service logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, logger.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, logger.Error(err), logger.Any("details", keysAndValues))
}
