package domain

import "time"

// Sentinel values substituted when a source omits a field.
const (
	UnknownOrganization = "Unknown Organization"
	NoDescription       = "No description available."
	DefaultCategory     = "Global Opportunities"

	LocationRemote  = "Remote"
	LocationGlobal  = "Global"
	LocationUnknown = "Unknown"
)

// Opportunity is the canonical, normalized listing shared by every source.
//
// It is NOT tied to any job API or to the store. Adapters map their payloads
// into it; stores map it into their own document shape.
//
// Across refresh cycles a listing is identified by its NaturalKey.
// Within one aggregation pass it is identified by its dedup key (see normalize.DedupKey).
type Opportunity struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is assigned by the store on insert and never changes afterwards.
	ID string `json:"id,omitempty"`

	// Title is required and non-empty.
	Title string `json:"title"`

	// Organization falls back to UnknownOrganization.
	Organization string `json:"organization"`

	// Deadline has date precision (UTC midnight). Nil when the source
	// does not publish one.
	Deadline *time.Time `json:"deadline"`

	// ─────────────────────────────
	// Description
	// ─────────────────────────────

	// Category is never empty; unmapped listings get DefaultCategory.
	Category string `json:"category"`

	// Location is "Remote", "Global", "Unknown" or whatever the source says.
	Location string `json:"location"`

	// Link points at the original listing.
	Link string `json:"link"`

	// Description is tag-free, entity-decoded and truncated. Never empty.
	Description string `json:"description"`

	// Tags keeps source-provided hints used for categorization.
	Tags []string `json:"tags,omitempty"`

	// ─────────────────────────────
	// Provenance
	// ─────────────────────────────

	// SourceName names the adapter that produced the record (e.g. "Adzuna").
	SourceName string `json:"sourceName"`

	// CreatedAt is set once, on first insert.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is set on every insert or update.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NaturalKey identifies "the same listing" across refresh cycles.
type NaturalKey struct {
	Title        string
	Organization string
	Deadline     *time.Time
}

// Key returns the natural key of the opportunity.
func (o Opportunity) Key() NaturalKey {
	return NaturalKey{
		Title:        o.Title,
		Organization: o.Organization,
		Deadline:     o.Deadline,
	}
}

// Matches reports whether the opportunity carries the given natural key.
func (k NaturalKey) Matches(o Opportunity) bool {
	return o.Title == k.Title &&
		o.Organization == k.Organization &&
		SameDate(o.Deadline, k.Deadline)
}

// SameDate compares two optional dates at day precision.
func SameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// DateOnly truncates t to UTC midnight and returns a pointer to it.
func DateOnly(t time.Time) *time.Time {
	y, m, d := t.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day
}

// MergeInto copies the mutable fields of o onto existing, keeping identity
// and creation time, and stamps UpdatedAt.
func (o Opportunity) MergeInto(existing *Opportunity, now time.Time) {
	existing.Category = o.Category
	existing.Location = o.Location
	existing.Link = o.Link
	existing.Description = o.Description
	existing.Tags = o.Tags
	existing.SourceName = o.SourceName
	existing.UpdatedAt = now
}
