// Package aggregator fans out to every source adapter and merges their
// output into one deduplicated batch.
package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/logger"
	"github.com/MrSnakeDoc/opphub/internal/normalize"
	"github.com/MrSnakeDoc/opphub/internal/sources"
)

// SourceOutcome is the per-adapter result of one aggregation pass.
type SourceOutcome struct {
	Source   string
	Count    int
	Duration time.Duration
	// Err is set only if the adapter broke its contract and panicked.
	Err error
}

// Result is the deduplicated batch plus per-source bookkeeping.
type Result struct {
	Records []domain.Opportunity
	Sources []SourceOutcome
	// Fetched is the record count before deduplication.
	Fetched int
}

type Aggregator struct {
	adapters []sources.Adapter
	log      logger.Logger
}

// New keeps adapters in the given order; it decides dedup precedence.
func New(adapters []sources.Adapter, log logger.Logger) *Aggregator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Aggregator{adapters: adapters, log: log}
}

// Sources lists the adapter names in precedence order.
func (a *Aggregator) Sources() []string {
	names := make([]string, 0, len(a.adapters))
	for _, ad := range a.adapters {
		names = append(names, ad.Name())
	}
	return names
}

// FetchAll runs every adapter concurrently, waits for all of them and
// deduplicates the concatenation in adapter order. It never fails: a
// broken adapter contributes nothing.
func (a *Aggregator) FetchAll(ctx context.Context) Result {
	batches := make([][]domain.Opportunity, len(a.adapters))
	outcomes := make([]SourceOutcome, len(a.adapters))

	var wg sync.WaitGroup
	for i, ad := range a.adapters {
		wg.Add(1)
		go func(i int, ad sources.Adapter) {
			defer wg.Done()
			batches[i], outcomes[i] = a.fetchOne(ctx, ad)
		}(i, ad)
	}
	wg.Wait()

	var all []domain.Opportunity
	for i, batch := range batches {
		all = append(all, batch...)

		o := outcomes[i]
		if o.Err != nil {
			a.log.Warn("source failed",
				logger.String("source", o.Source),
				logger.Duration("took", o.Duration),
				logger.Error(o.Err),
			)
			continue
		}
		a.log.Info("source fetched",
			logger.String("source", o.Source),
			logger.Int("count", o.Count),
			logger.Duration("took", o.Duration),
		)
	}

	records := Dedup(all)
	a.log.Info("aggregation complete",
		logger.Int("fetched", len(all)),
		logger.Int("unique", len(records)),
		logger.Int("sources", len(a.adapters)),
	)

	return Result{Records: records, Sources: outcomes, Fetched: len(all)}
}

func (a *Aggregator) fetchOne(ctx context.Context, ad sources.Adapter) (out []domain.Opportunity, outcome SourceOutcome) {
	start := time.Now()
	outcome.Source = ad.Name()

	defer func() {
		if r := recover(); r != nil {
			out = nil
			outcome.Err = fmt.Errorf("adapter panicked: %v", r)
		}
		outcome.Count = len(out)
		outcome.Duration = time.Since(start)
	}()

	out = ad.Fetch(ctx)
	return out, outcome
}

// Dedup keeps the first record of every dedup key, preserving order.
func Dedup(records []domain.Opportunity) []domain.Opportunity {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.Opportunity, 0, len(records))

	for _, r := range records {
		key := normalize.DedupKey(r.Title, r.Organization, r.Link)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
