// Package memory is an in-process implementation of the store contracts.
// It backs HUB_STORE_DRIVER=memory and the tests of the upper layers.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/store"
)

// Store holds opportunities keyed by ID.
type Store struct {
	mu    sync.RWMutex
	items map[string]domain.Opportunity // ID -> Opportunity

	// FailInsert, when set, is consulted before every insert.
	FailInsert func(o *domain.Opportunity) error
}

func New() *Store {
	return &Store{
		items: make(map[string]domain.Opportunity),
	}
}

var _ store.OpportunityStore = (*Store)(nil)

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) FindByNaturalKey(_ context.Context, key domain.NaturalKey) (*domain.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.items {
		if key.Matches(o) {
			found := clone(o)
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

// Insert enforces the natural-key uniqueness a unique index would.
func (s *Store) Insert(_ context.Context, o *domain.Opportunity) error {
	if s.FailInsert != nil {
		if err := s.FailInsert(o); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := o.Key()
	for _, existing := range s.items {
		if key.Matches(existing) {
			return store.ErrDuplicate
		}
	}

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if _, taken := s.items[o.ID]; taken {
		return store.ErrDuplicate
	}
	s.items[o.ID] = clone(*o)
	return nil
}

func (s *Store) Update(_ context.Context, o *domain.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[o.ID]; !ok {
		return fmt.Errorf("update %s: %w", o.ID, store.ErrNotFound)
	}
	s.items[o.ID] = clone(*o)
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, store.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

func (s *Store) DeleteAll(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.items))
	s.items = make(map[string]domain.Opportunity)
	return n, nil
}

// All returns every record ordered by creation time.
func (s *Store) All(context.Context) ([]domain.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Opportunity, 0, len(s.items))
	for _, o := range s.items {
		out = append(out, clone(o))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Count is the number of stored records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

func (s *Store) List(ctx context.Context, q store.Query) (store.Page, error) {
	q = q.Normalize()

	all, err := s.All(ctx)
	if err != nil {
		return store.Page{}, err
	}

	matched := make([]domain.Opportunity, 0, len(all))
	for _, o := range all {
		if matches(o, q) {
			matched = append(matched, o)
		}
	}
	sortOpportunities(matched, q.SortBy, q.Ascending())

	total := int64(len(matched))
	start := min(q.Skip(), len(matched))
	end := start + min(q.Limit, len(matched)-start)

	filters, err := s.filters(ctx)
	if err != nil {
		return store.Page{}, err
	}

	return store.Page{
		Items:      matched[start:end],
		Pagination: store.NewPagination(q, total),
		Filters:    filters,
	}, nil
}

func (s *Store) filters(ctx context.Context) (store.Filters, error) {
	categories, err := s.Distinct(ctx, store.FieldCategory)
	if err != nil {
		return store.Filters{}, err
	}
	locations, err := s.Distinct(ctx, store.FieldLocation)
	if err != nil {
		return store.Filters{}, err
	}
	return store.Filters{Categories: categories, Locations: locations}, nil
}

func (s *Store) Distinct(_ context.Context, field string) ([]string, error) {
	var get func(domain.Opportunity) string
	switch field {
	case store.FieldCategory:
		get = func(o domain.Opportunity) string { return o.Category }
	case store.FieldLocation:
		get = func(o domain.Opportunity) string { return o.Location }
	default:
		return nil, fmt.Errorf("distinct: unsupported field %q", field)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, o := range s.items {
		v := get(o)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// matches mirrors the document store semantics: search is a
// case-insensitive substring over title, organization, description and
// category; category is an exact case-insensitive match; location is a
// case-insensitive substring.
func matches(o domain.Opportunity, q store.Query) bool {
	if q.Category != "" && !strings.EqualFold(o.Category, q.Category) {
		return false
	}
	if q.Location != "" && !containsFold(o.Location, q.Location) {
		return false
	}
	if q.Search != "" {
		return containsFold(o.Title, q.Search) ||
			containsFold(o.Organization, q.Search) ||
			containsFold(o.Description, q.Search) ||
			containsFold(o.Category, q.Search)
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// sortOpportunities orders by field; nil deadlines always go last.
func sortOpportunities(items []domain.Opportunity, field string, asc bool) {
	compare := func(a, b domain.Opportunity) int {
		switch field {
		case store.SortTitle:
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case store.SortOrganization:
			return strings.Compare(strings.ToLower(a.Organization), strings.ToLower(b.Organization))
		case store.SortUpdatedAt:
			return a.UpdatedAt.Compare(b.UpdatedAt)
		case store.SortDeadline:
			return a.Deadline.Compare(*b.Deadline)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if field == store.SortDeadline && (a.Deadline == nil || b.Deadline == nil) {
			return a.Deadline != nil && b.Deadline == nil
		}
		c := compare(a, b)
		if asc {
			return c < 0
		}
		return c > 0
	})
}

func clone(o domain.Opportunity) domain.Opportunity {
	if o.Deadline != nil {
		d := *o.Deadline
		o.Deadline = &d
	}
	if o.Tags != nil {
		o.Tags = append([]string(nil), o.Tags...)
	}
	return o
}
