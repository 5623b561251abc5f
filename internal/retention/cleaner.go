// Package retention deletes stored opportunities once the retention policy
// says they have expired.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/logger"
	"github.com/MrSnakeDoc/opphub/internal/metrics"
	"github.com/MrSnakeDoc/opphub/internal/store"
)

// Report summarizes one cleanup pass.
type Report struct {
	TotalChecked      int `json:"totalChecked"`
	DeletedByAge      int `json:"deletedByAge"`
	DeletedByDeadline int `json:"deletedByDeadline"`
	TotalDeleted      int `json:"totalDeleted"`
}

// Cleaner scans every stored record and deletes the expired ones one by one
type Cleaner struct {
	store   store.OpportunityStore
	policy  domain.RetentionPolicy
	metrics *metrics.Metrics
	logger  logger.Logger
	now     func() time.Time
}

// NewCleaner creates a cleaner. Zero policy durations fall back to the defaults.
func NewCleaner(s store.OpportunityStore, policy domain.RetentionPolicy, m *metrics.Metrics, log logger.Logger) *Cleaner {
	def := domain.DefaultRetentionPolicy()
	if policy.DeadlineGrace <= 0 {
		policy.DeadlineGrace = def.DeadlineGrace
	}
	if policy.RetentionWindow <= 0 {
		policy.RetentionWindow = def.RetentionWindow
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Cleaner{
		store:   s,
		policy:  policy,
		metrics: m,
		logger:  log,
		now:     time.Now,
	}
}

// Policy returns the effective retention policy.
func (c *Cleaner) Policy() domain.RetentionPolicy { return c.policy }

// Cleanup deletes every expired record. A failed delete is logged and the
// record is retried on the next pass; only a failed scan is returned.
func (c *Cleaner) Cleanup(ctx context.Context) (Report, error) {
	c.logger.Info("running retention cleanup")

	records, err := c.store.All(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list opportunities: %w", err)
	}

	now := c.now()
	var report Report

	for _, rec := range records {
		report.TotalChecked++

		expired, reason := c.policy.Expired(rec, now)
		if !expired {
			continue
		}

		if err := c.store.Delete(ctx, rec.ID); err != nil {
			c.logger.Warn("failed to delete expired opportunity",
				logger.String("id", rec.ID),
				logger.Error(err))
			continue
		}

		c.logger.Info("deleted expired opportunity",
			logger.String("id", rec.ID),
			logger.String("title", rec.Title),
			logger.String("reason", string(reason)))
		c.metrics.CleanupDeletedInc(string(reason))

		switch reason {
		case domain.DeadlineExpired:
			report.DeletedByDeadline++
		case domain.AgeExpired:
			report.DeletedByAge++
		}
		report.TotalDeleted++
	}

	if report.TotalDeleted > 0 {
		c.logger.Info("retention cleanup completed",
			logger.Int("checked", report.TotalChecked),
			logger.Int("deleted_by_deadline", report.DeletedByDeadline),
			logger.Int("deleted_by_age", report.DeletedByAge),
			logger.Int("total_deleted", report.TotalDeleted))
	} else {
		c.logger.Debug("no expired opportunities", logger.Int("checked", report.TotalChecked))
	}

	return report, nil
}
