package domain

import (
	"math"
	"time"
)

const (
	// DefaultDeadlineGrace keeps a listing this long after its deadline.
	DefaultDeadlineGrace = 7 * 24 * time.Hour
	// DefaultRetentionWindow keeps a deadline-less listing this long after creation.
	DefaultRetentionWindow = 30 * 24 * time.Hour
)

// ExpiryReason explains why a record became eligible for deletion.
type ExpiryReason string

const (
	NotExpired      ExpiryReason = ""
	DeadlineExpired ExpiryReason = "deadline expired"
	AgeExpired      ExpiryReason = "age expired"
)

// RetentionPolicy is the two-branch expiration rule:
// deadline + grace when a deadline exists, createdAt + window otherwise.
type RetentionPolicy struct {
	DeadlineGrace   time.Duration
	RetentionWindow time.Duration
}

func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		DeadlineGrace:   DefaultDeadlineGrace,
		RetentionWindow: DefaultRetentionWindow,
	}
}

// Expired reports whether o is eligible for deletion at now, and why.
func (p RetentionPolicy) Expired(o Opportunity, now time.Time) (bool, ExpiryReason) {
	if o.Deadline != nil {
		if o.Deadline.Before(now.Add(-p.DeadlineGrace)) {
			return true, DeadlineExpired
		}
		return false, NotExpired
	}

	if !o.CreatedAt.IsZero() && o.CreatedAt.Before(now.Add(-p.RetentionWindow)) {
		return true, AgeExpired
	}
	return false, NotExpired
}

// ExpiresAt returns the instant a record becomes eligible for deletion.
// ok is false when neither a deadline nor a creation time is known.
func (p RetentionPolicy) ExpiresAt(createdAt time.Time, deadline *time.Time) (time.Time, bool) {
	if deadline != nil {
		return deadline.Add(p.DeadlineGrace), true
	}
	if createdAt.IsZero() {
		return time.Time{}, false
	}
	return createdAt.Add(p.RetentionWindow), true
}

// DaysUntilExpiration counts whole days (rounded up) left before the record
// becomes eligible for deletion. Already-eligible records report 0.
// Nil when expiry cannot be computed. No I/O, no side effects.
func (p RetentionPolicy) DaysUntilExpiration(createdAt time.Time, deadline *time.Time, now time.Time) *int {
	expiresAt, ok := p.ExpiresAt(createdAt, deadline)
	if !ok {
		return nil
	}

	days := int(math.Ceil(expiresAt.Sub(now).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return &days
}

// DaysUntilExpiration applies the default policy at the current time.
func DaysUntilExpiration(createdAt time.Time, deadline *time.Time) *int {
	return DefaultRetentionPolicy().DaysUntilExpiration(createdAt, deadline, time.Now())
}
