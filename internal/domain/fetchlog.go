package domain

import "time"

// FetchStatus is the outcome of one refresh run.
type FetchStatus string

const (
	FetchSuccess FetchStatus = "success"
	FetchPartial FetchStatus = "partial"
	FetchFailed  FetchStatus = "failed"
)

// AggregateSource is the FetchLog source name of a full multi-adapter refresh.
const AggregateSource = "aggregate"

// FetchLog records provenance of one refresh run for one source. The
// AggregateSource entry gates how often the whole batch is refreshed; the
// per-adapter entries are diagnostics.
type FetchLog struct {
	RunID     string    `json:"runId"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetchedAt"`
	ItemCount int       `json:"itemCount"`
	// Duplicates is the number of records dropped by dedup; aggregate only.
	Duplicates int           `json:"duplicates,omitempty"`
	Added      int           `json:"added"`
	Updated    int           `json:"updated"`
	Skipped    int           `json:"skipped"`
	Status     FetchStatus   `json:"status"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// StatusFor derives the status of a run that produced fetched records and
// hit skipped per-record errors. Runs that failed before producing records
// are recorded as FetchFailed by the caller.
func StatusFor(fetched, skipped int) FetchStatus {
	if skipped*2 > fetched {
		return FetchPartial
	}
	return FetchSuccess
}

// Freshness is the refresh gate state of a source.
type Freshness string

const (
	NeverFetched Freshness = "never_fetched"
	Fresh        Freshness = "fresh"
	Stale        Freshness = "stale"
)

// FreshnessOf classifies the last successful (or partial) run against the
// cache duration. Failed runs never make a source fresh.
func FreshnessOf(lastSuccess *FetchLog, cacheDuration time.Duration, now time.Time) Freshness {
	if lastSuccess == nil || lastSuccess.Status == FetchFailed {
		return NeverFetched
	}
	if now.Sub(lastSuccess.FetchedAt) >= cacheDuration {
		return Stale
	}
	return Fresh
}
