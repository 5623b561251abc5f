// Package refresh decides when the stored opportunities are refreshed and
// upserts the aggregated batch by natural key. Every run records one
// FetchLog per source plus an aggregate entry that gates the next refresh.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/opphub/internal/aggregator"
	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/logger"
	"github.com/MrSnakeDoc/opphub/internal/metrics"
	"github.com/MrSnakeDoc/opphub/internal/store"
)

const (
	DefaultCacheDuration = 24 * time.Hour
	DefaultLockTTL       = 10 * time.Minute
	// LockKey guards background refreshes across replicas.
	LockKey = "refresh"
)

// Fetcher produces one deduplicated batch. *aggregator.Aggregator is the
// production implementation.
type Fetcher interface {
	FetchAll(ctx context.Context) aggregator.Result
}

// sourceLister is implemented by fetchers that know their source names
// ahead of a run; Status uses it to report every source.
type sourceLister interface {
	Sources() []string
}

type Options struct {
	CacheDuration time.Duration
	LockTTL       time.Duration
}

// Report is the outcome of one refresh run.
type Report struct {
	RunID      string             `json:"runId"`
	Fetched    int                `json:"fetched"`
	Duplicates int                `json:"duplicates"`
	Added      int                `json:"added"`
	Updated    int                `json:"updated"`
	Skipped    int                `json:"skipped"`
	Status     domain.FetchStatus `json:"status"`
	Duration   time.Duration      `json:"duration"`
}

// Status is the diagnostic view of the refresh gate.
type Status struct {
	State       domain.Freshness  `json:"state"`
	Latest      *domain.FetchLog  `json:"latest"`
	LastSuccess *domain.FetchLog  `json:"lastSuccess"`
	History     []domain.FetchLog `json:"history"`
	// Sources holds the latest run of each source, in precedence order.
	Sources []domain.FetchLog `json:"sources"`
}

type Controller struct {
	fetcher Fetcher
	store   store.OpportunityStore
	logs    store.FetchLogStore
	locker  store.Locker
	metrics *metrics.Metrics
	log     logger.Logger
	opts    Options
	now     func() time.Time

	trigger  chan struct{}
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New builds a controller. locker and m may be nil.
func New(
	fetcher Fetcher,
	opps store.OpportunityStore,
	logs store.FetchLogStore,
	locker store.Locker,
	m *metrics.Metrics,
	log logger.Logger,
	opts Options,
) *Controller {
	if opts.CacheDuration <= 0 {
		opts.CacheDuration = DefaultCacheDuration
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = DefaultLockTTL
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Controller{
		fetcher: fetcher,
		store:   opps,
		logs:    logs,
		locker:  locker,
		metrics: m,
		log:     log,
		opts:    opts,
		now:     time.Now,
		trigger: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// State classifies the last non-failed run against the cache duration and
// returns the latest run, failed or not.
func (c *Controller) State(ctx context.Context) (domain.Freshness, *domain.FetchLog, error) {
	last, err := c.logs.LastSuccess(ctx, domain.AggregateSource)
	if err != nil {
		return domain.NeverFetched, nil, fmt.Errorf("failed to read last successful run: %w", err)
	}
	latest, err := c.logs.Latest(ctx, domain.AggregateSource)
	if err != nil {
		return domain.NeverFetched, nil, fmt.Errorf("failed to read latest run: %w", err)
	}
	return domain.FreshnessOf(last, c.opts.CacheDuration, c.now()), latest, nil
}

// Status returns the gate state plus up to historyLimit recent runs.
func (c *Controller) Status(ctx context.Context, historyLimit int) (Status, error) {
	state, latest, err := c.State(ctx)
	if err != nil {
		return Status{}, err
	}
	last, err := c.logs.LastSuccess(ctx, domain.AggregateSource)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read last successful run: %w", err)
	}
	history, err := c.logs.History(ctx, domain.AggregateSource, historyLimit)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read run history: %w", err)
	}

	perSource := make([]domain.FetchLog, 0)
	if lister, ok := c.fetcher.(sourceLister); ok {
		for _, name := range lister.Sources() {
			l, err := c.logs.Latest(ctx, name)
			if err != nil {
				return Status{}, fmt.Errorf("failed to read latest run of %s: %w", name, err)
			}
			if l != nil {
				perSource = append(perSource, *l)
			}
		}
	}

	return Status{State: state, Latest: latest, LastSuccess: last, History: history, Sources: perSource}, nil
}

// EnsureFresh queues a background refresh when the data is stale or was
// never fetched. It never waits for the refresh and never blocks on a full
// queue. The returned state is the one observed before queuing.
func (c *Controller) EnsureFresh(ctx context.Context) (domain.Freshness, *domain.FetchLog) {
	state, latest, err := c.State(ctx)
	if err != nil {
		c.log.Warn("freshness check failed", logger.Error(err))
		return state, latest
	}
	if state != domain.Fresh {
		c.Trigger()
	}
	return state, latest
}

// Trigger queues a background refresh. It reports false when one is
// already queued.
func (c *Controller) Trigger() bool {
	select {
	case c.trigger <- struct{}{}:
		c.log.Debug("background refresh queued")
		return true
	default:
		return false
	}
}

// Start runs the background worker until Stop or ctx is done.
func (c *Controller) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case <-c.trigger:
				c.background(ctx)
			case <-c.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the worker and waits for an in-flight run to finish.
// Must only be called after Start.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	<-c.done
}

func (c *Controller) background(ctx context.Context) {
	if c.locker != nil {
		unlock, ok, err := c.locker.TryLock(ctx, LockKey, c.opts.LockTTL)
		if err != nil {
			c.log.Warn("failed to take refresh lock", logger.Error(err))
			return
		}
		if !ok {
			c.log.Debug("refresh already running elsewhere")
			return
		}
		defer unlock()
	}

	// another replica may have finished while this trigger waited
	if state, _, err := c.State(ctx); err == nil && state == domain.Fresh {
		return
	}

	if _, err := c.Refresh(ctx); err != nil {
		c.log.Error("background refresh failed", logger.Error(err))
	}
}

// Refresh runs one synchronous aggregate-then-persist cycle. Per-record
// failures are counted as skipped. A fatal error is returned after a
// failed FetchLog has been written.
func (c *Controller) Refresh(ctx context.Context) (Report, error) {
	start := c.now()
	report := Report{RunID: uuid.NewString()}
	log := c.log.With(logger.String("run_id", report.RunID))

	if err := c.store.Ping(ctx); err != nil {
		return c.fail(ctx, log, report, start, fmt.Errorf("store unreachable: %w", err))
	}

	res, err := c.fetch(ctx)
	if err != nil {
		return c.fail(ctx, log, report, start, err)
	}

	report.Fetched = len(res.Records)
	report.Duplicates = max(res.Fetched-len(res.Records), 0)

	tallies := make(map[string]*tally, len(res.Sources))
	for i := range res.Records {
		t := tallies[res.Records[i].SourceName]
		if t == nil {
			t = &tally{}
			tallies[res.Records[i].SourceName] = t
		}
		switch c.upsert(ctx, log, res.Records[i]) {
		case outcomeAdded:
			report.Added++
			t.added++
		case outcomeUpdated:
			report.Updated++
			t.updated++
		default:
			report.Skipped++
			t.skipped++
		}
	}

	report.Status = domain.StatusFor(report.Fetched, report.Skipped)
	report.Duration = c.now().Sub(start)
	c.recordSources(ctx, log, report.RunID, start, res.Sources, tallies)
	c.record(ctx, log, report, start, "")

	log.Info("refresh completed",
		logger.String("status", string(report.Status)),
		logger.Int("fetched", report.Fetched),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("added", report.Added),
		logger.Int("updated", report.Updated),
		logger.Int("skipped", report.Skipped),
		logger.Duration("took", report.Duration))

	return report, nil
}

func (c *Controller) fetch(ctx context.Context) (res aggregator.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("aggregation panicked: %v", r)
		}
	}()
	return c.fetcher.FetchAll(ctx), nil
}

func (c *Controller) fail(ctx context.Context, log logger.Logger, report Report, start time.Time, cause error) (Report, error) {
	report.Status = domain.FetchFailed
	report.Duration = c.now().Sub(start)
	c.record(ctx, log, report, start, cause.Error())

	log.Error("refresh failed", logger.Error(cause))
	return report, cause
}

func (c *Controller) record(ctx context.Context, log logger.Logger, r Report, start time.Time, errMsg string) {
	entry := domain.FetchLog{
		RunID:      r.RunID,
		Source:     domain.AggregateSource,
		FetchedAt:  start,
		ItemCount:  r.Fetched,
		Duplicates: r.Duplicates,
		Added:      r.Added,
		Updated:    r.Updated,
		Skipped:    r.Skipped,
		Status:     r.Status,
		Error:      errMsg,
		Duration:   r.Duration,
	}
	// the caller's context may already be cancelled on the fatal path
	if err := c.logs.Record(context.WithoutCancel(ctx), entry); err != nil {
		log.Warn("failed to record fetch log", logger.Error(err))
	}
	c.metrics.ObserveRefresh(string(r.Status), r.Added, r.Updated, r.Skipped)
}

// tally counts the upsert outcomes of one source's records.
type tally struct {
	added, updated, skipped int
}

// recordSources writes one FetchLog per adapter of the run. A source that
// returned nothing is a success with zero items; only a contract breach
// (panic) marks it failed.
func (c *Controller) recordSources(ctx context.Context, log logger.Logger, runID string, start time.Time, outcomes []aggregator.SourceOutcome, tallies map[string]*tally) {
	ctx = context.WithoutCancel(ctx)
	for _, o := range outcomes {
		entry := domain.FetchLog{
			RunID:     runID,
			Source:    o.Source,
			FetchedAt: start,
			ItemCount: o.Count,
			Status:    domain.FetchSuccess,
			Duration:  o.Duration,
		}
		if o.Err != nil {
			entry.Status = domain.FetchFailed
			entry.Error = o.Err.Error()
		}
		if t := tallies[o.Source]; t != nil {
			entry.Added, entry.Updated, entry.Skipped = t.added, t.updated, t.skipped
		}
		if err := c.logs.Record(ctx, entry); err != nil {
			log.Warn("failed to record source fetch log", logger.String("source", o.Source), logger.Error(err))
		}
	}
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeAdded
	outcomeUpdated
)

func (c *Controller) upsert(ctx context.Context, log logger.Logger, rec domain.Opportunity) outcome {
	now := c.now()

	existing, err := c.store.FindByNaturalKey(ctx, rec.Key())
	switch {
	case err == nil:
		rec.MergeInto(existing, now)
		if err := c.store.Update(ctx, existing); err != nil {
			c.skip(log, rec, err)
			return outcomeSkipped
		}
		return outcomeUpdated

	case errors.Is(err, store.ErrNotFound):
		rec.ID = ""
		rec.CreatedAt = now
		rec.UpdatedAt = now
		if err := c.store.Insert(ctx, &rec); err != nil {
			c.skip(log, rec, err)
			return outcomeSkipped
		}
		return outcomeAdded

	default:
		c.skip(log, rec, err)
		return outcomeSkipped
	}
}

func (c *Controller) skip(log logger.Logger, rec domain.Opportunity, err error) {
	if errors.Is(err, store.ErrDuplicate) {
		log.Debug("duplicate natural key skipped", logger.String("title", rec.Title))
		return
	}
	log.Warn("failed to persist opportunity",
		logger.String("title", rec.Title),
		logger.String("source", rec.SourceName),
		logger.Error(err))
}
