// Package store defines the persistence contracts of the pipeline. The
// opportunity document store, the fetch log and the refresh lock each have
// their own interface so they can live in different backends.
package store

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/MrSnakeDoc/opphub/internal/domain"
)

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when an insert collides with an existing
	// natural key, typically because two refreshes raced.
	ErrDuplicate = errors.New("store: duplicate natural key")
)

// OpportunityStore persists normalized opportunities.
type OpportunityStore interface {
	FindByNaturalKey(ctx context.Context, key domain.NaturalKey) (*domain.Opportunity, error)
	// Insert assigns ID when empty.
	Insert(ctx context.Context, o *domain.Opportunity) error
	// Update replaces the record with o.ID.
	Update(ctx context.Context, o *domain.Opportunity) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
	All(ctx context.Context) ([]domain.Opportunity, error)
	List(ctx context.Context, q Query) (Page, error)
	// Distinct returns the sorted distinct non-empty values of a field
	// (FieldCategory or FieldLocation).
	Distinct(ctx context.Context, field string) ([]string, error)
	Ping(ctx context.Context) error
}

// FetchLogStore keeps the provenance of refresh runs.
type FetchLogStore interface {
	Record(ctx context.Context, log domain.FetchLog) error
	// Latest returns nil, nil when the source was never fetched.
	Latest(ctx context.Context, source string) (*domain.FetchLog, error)
	// LastSuccess is the latest non-failed run, nil when there is none.
	LastSuccess(ctx context.Context, source string) (*domain.FetchLog, error)
	// History returns up to limit runs, newest first.
	History(ctx context.Context, source string, limit int) ([]domain.FetchLog, error)
}

// Locker is a best-effort mutual exclusion across replicas.
type Locker interface {
	// TryLock never blocks. ok is false when someone else holds key.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}

// Filterable fields.
const (
	FieldCategory = "category"
	FieldLocation = "location"
)

// Sortable fields.
const (
	SortCreatedAt    = "createdAt"
	SortUpdatedAt    = "updatedAt"
	SortDeadline     = "deadline"
	SortTitle        = "title"
	SortOrganization = "organization"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit inside int32 on every platform.
	MaxPage = math.MaxInt32 / MaxLimit
)

// Query is the listing request of the read side.
type Query struct {
	Page      int
	Limit     int
	Search    string
	Category  string
	Location  string
	SortBy    string
	SortOrder string // "asc" or "desc"
}

// Normalize applies defaults and bounds: page in 1..MaxPage, limit in
// 1..MaxLimit, a known sort field, and "all" treated as no filter.
func (q Query) Normalize() Query {
	switch {
	case q.Page < 1:
		q.Page = 1
	case q.Page > MaxPage:
		q.Page = MaxPage
	}
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}

	q.Search = strings.TrimSpace(q.Search)
	q.Category = noFilter(q.Category)
	q.Location = noFilter(q.Location)

	switch q.SortBy {
	case SortCreatedAt, SortUpdatedAt, SortDeadline, SortTitle, SortOrganization:
	default:
		q.SortBy = SortCreatedAt
	}
	if q.SortOrder != "asc" {
		q.SortOrder = "desc"
	}
	return q
}

// Ascending reports the sort direction.
func (q Query) Ascending() bool { return q.SortOrder == "asc" }

// Skip is the number of items before the requested page. It is never
// negative, even on a query that was not normalized.
func (q Query) Skip() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

func noFilter(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

// Pagination is the page metadata returned with every listing.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
	Limit       int   `json:"limit"`
}

// NewPagination derives the metadata of a normalized query over total items.
func NewPagination(q Query, total int64) Pagination {
	pages := int(math.Ceil(float64(total) / float64(q.Limit)))
	return Pagination{
		CurrentPage: q.Page,
		TotalPages:  pages,
		TotalItems:  total,
		HasNext:     q.Page < pages,
		HasPrev:     q.Page > 1,
		Limit:       q.Limit,
	}
}

// Filters lists the values available for the category and location filters.
type Filters struct {
	Categories []string `json:"categories"`
	Locations  []string `json:"locations"`
}

// Page is one page of a listing.
type Page struct {
	Items      []domain.Opportunity `json:"opportunities"`
	Pagination Pagination           `json:"pagination"`
	Filters    Filters              `json:"filters"`
}
