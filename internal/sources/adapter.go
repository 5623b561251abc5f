// Package sources holds one adapter per external job API. Every adapter
// maps its payload into domain.Opportunity and swallows its own failures.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/logger"
	"github.com/MrSnakeDoc/opphub/internal/metrics"
	"github.com/MrSnakeDoc/opphub/internal/normalize"
	"github.com/MrSnakeDoc/opphub/internal/utils"
	"github.com/MrSnakeDoc/opphub/internal/version"
)

// maxBodySize caps how much of a response body is decoded.
const maxBodySize = 16 << 20

// Adapter fetches and normalizes listings from exactly one API.
// Fetch never returns an error and never panics; failures yield an empty
// slice and a warning log.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) []domain.Opportunity
}

// Deps are the collaborators shared by every adapter.
type Deps struct {
	Client       *http.Client
	Log          logger.Logger
	Metrics      *metrics.Metrics
	RequestDelay time.Duration

	Relevance *normalize.KeywordFilter
	Language  *normalize.LanguageDetector

	// DefaultCategory is the categorizer fallback.
	DefaultCategory string
}

// base carries the machinery every adapter embeds: pacing, decoding,
// filtering, capping and failure recovery.
type base struct {
	name        string
	settings    Settings
	client      *http.Client
	limiter     *rate.Limiter
	log         logger.Logger
	metrics     *metrics.Metrics
	relevance   *normalize.KeywordFilter
	language    *normalize.LanguageDetector
	categorizer *normalize.Categorizer
}

func newBase(name string, s Settings, d Deps) base {
	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	log := d.Log
	if log == nil {
		log = logger.NewNop()
	}

	limit := rate.Inf
	if d.RequestDelay > 0 {
		limit = rate.Every(d.RequestDelay)
	}

	relevance := d.Relevance
	if relevance == nil {
		relevance = normalize.NewKeywordFilter(normalize.DefaultRelevanceKeywords)
	}
	language := d.Language
	if language == nil {
		language = normalize.NewLanguageDetector(normalize.GermanStopwords, normalize.DefaultForeignThreshold)
	}

	return base{
		name:        name,
		settings:    s,
		client:      client,
		limiter:     rate.NewLimiter(limit, 1),
		log:         log.With(logger.String("source", name)),
		metrics:     d.Metrics,
		relevance:   relevance,
		language:    language,
		categorizer: normalize.NewCategorizer(s.CategoryRules, d.DefaultCategory),
	}
}

func (b *base) Name() string { return b.name }

// Enabled reports whether the source is switched on. Adapters needing
// credentials add their own check.
func (b *base) Enabled() bool { return on(b.settings.Enabled) }

// run executes fetch under the adapter contract: errors and panics become
// a warning and an empty result, the output is capped, metrics recorded.
func (b *base) run(ctx context.Context, fetch func(context.Context) ([]domain.Opportunity, error)) (out []domain.Opportunity) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			b.log.Warn("source adapter panicked", logger.Any("panic", r))
			b.metrics.SourceFailed(b.name)
			out = []domain.Opportunity{}
		}
		b.metrics.ObserveSource(b.name, len(out), time.Since(start))
	}()

	records, err := fetch(ctx)
	if err != nil {
		b.log.Warn("source fetch failed", logger.Error(err), logger.Int("recovered", len(records)))
		b.metrics.SourceFailed(b.name)
	}

	out = b.capped(records)
	b.log.Debug("source fetched",
		logger.Int("count", len(out)),
		logger.Duration("took", time.Since(start)),
	)
	return out
}

func (b *base) capped(records []domain.Opportunity) []domain.Opportunity {
	if records == nil {
		return []domain.Opportunity{}
	}
	if limit := b.settings.MaxResults; limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

// full reports whether n records already reach the cap.
func (b *base) full(n int) bool {
	return b.settings.MaxResults > 0 && n >= b.settings.MaxResults
}

// keep applies the relevance and language filters the source opted into.
func (b *base) keep(fields ...string) bool {
	if on(b.settings.RelevanceFilter) && !b.relevance.Relevant(fields...) {
		return false
	}
	if on(b.settings.LanguageFilter) && b.language.IsForeign(fields...) {
		return false
	}
	return true
}

// listing is the adapter-neutral intermediate every mapper fills in.
type listing struct {
	Title        string
	Organization string
	Location     string
	Link         string
	Description  string
	Deadline     *time.Time
	Tags         []string
	Hints        []string
}

// opportunity normalizes a listing. ok is false when the listing has no
// title or no link.
func (b *base) opportunity(l listing) (domain.Opportunity, bool) {
	title := normalize.CleanText(l.Title)
	link := strings.TrimSpace(l.Link)
	if title == "" || link == "" {
		return domain.Opportunity{}, false
	}

	hints := append(append([]string{}, l.Tags...), l.Hints...)

	var deadline *time.Time
	if l.Deadline != nil {
		deadline = domain.DateOnly(*l.Deadline)
	}

	return domain.Opportunity{
		Title:        title,
		Organization: normalize.OrDefault(l.Organization, domain.UnknownOrganization),
		Deadline:     deadline,
		Category:     b.categorizer.Categorize(title, hints...),
		Location:     normalize.OrDefault(l.Location, b.settings.DefaultLocation),
		Link:         link,
		Description:  normalize.CleanDescription(l.Description),
		Tags:         cleanTags(l.Tags),
		SourceName:   b.name,
	}, true
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = normalize.CleanText(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// getJSON waits for the limiter, issues a GET and decodes a 2xx JSON body
// into v.
func (b *base) getJSON(ctx context.Context, rawURL string, v any) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("http GET: %w", err)
	}
	defer utils.DrainClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned %d: %s", b.name, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// collect runs one request per item and merges the results. A failed
// request is logged and skipped; the error is returned only when every
// request failed.
func collect[T any](ctx context.Context, b *base, items []T, one func(context.Context, T) ([]domain.Opportunity, error)) ([]domain.Opportunity, error) {
	var (
		out     []domain.Opportunity
		lastErr error
		failed  int
	)

	for _, item := range items {
		if b.full(len(out)) || ctx.Err() != nil {
			break
		}
		batch, err := one(ctx, item)
		if err != nil {
			failed++
			lastErr = err
			b.log.Warn("source request failed", logger.String("query", fmt.Sprint(item)), logger.Error(err))
			continue
		}
		out = append(out, batch...)
	}

	if failed > 0 && failed == len(items) {
		return out, fmt.Errorf("all %d requests failed: %w", failed, lastErr)
	}
	return out, ctx.Err()
}

// named is the {"name": "..."} object several APIs use for taxonomies.
type named struct {
	Name string `json:"name"`
}

func names(items []named) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it.Name != "" {
			out = append(out, it.Name)
		}
	}
	return out
}

func firstName(items []named) string {
	if n := names(items); len(n) > 0 {
		return n[0]
	}
	return ""
}

// flexTime decodes the date shapes seen across the APIs: unix seconds or
// milliseconds (number or string), RFC 3339 and plain dates. Anything else
// decodes to the zero value instead of failing the whole payload.
type flexTime struct {
	time.Time
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" || raw == "0" {
		return nil
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			f.Time = time.UnixMilli(n).UTC()
		} else {
			f.Time = time.Unix(n, 0).UTC()
		}
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			f.Time = t.UTC()
			return nil
		}
	}
	return nil
}

// Ptr returns nil for the zero time.
func (f flexTime) Ptr() *time.Time {
	if f.IsZero() {
		return nil
	}
	t := f.Time
	return &t
}
