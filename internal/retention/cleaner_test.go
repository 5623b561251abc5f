package retention

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/logger"
	"github.com/MrSnakeDoc/opphub/internal/metrics"
	"github.com/MrSnakeDoc/opphub/internal/store/memory"
)

func TestCleaner_Cleanup(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	s := memory.New()

	day := func(offset int) *time.Time { return domain.DateOnly(now.AddDate(0, 0, offset)) }

	records := []domain.Opportunity{
		{Title: "deadline long gone", Deadline: day(-10), CreatedAt: now},
		{Title: "deadline within grace", Deadline: day(-3), CreatedAt: now},
		{Title: "deadline ahead, old record", Deadline: day(5), CreatedAt: now.AddDate(0, 0, -90)},
		{Title: "no deadline, 31 days old", CreatedAt: now.AddDate(0, 0, -31)},
		{Title: "no deadline, 29 days old", CreatedAt: now.AddDate(0, 0, -29)},
	}
	for i := range records {
		if err := s.Insert(ctx, &records[i]); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	m := metrics.New()
	c := NewCleaner(s, domain.RetentionPolicy{}, m, logger.NewNop())
	c.now = func() time.Time { return now }

	report, err := c.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	want := Report{TotalChecked: 5, DeletedByAge: 1, DeletedByDeadline: 1, TotalDeleted: 2}
	if report != want {
		t.Errorf("report = %+v, want %+v", report, want)
	}

	left, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(left) != 3 {
		t.Fatalf("expected 3 records after cleanup, got %d", len(left))
	}
	for _, o := range left {
		if o.Title == "deadline long gone" || o.Title == "no deadline, 31 days old" {
			t.Errorf("expired record %q was retained", o.Title)
		}
	}

	if got := testutil.ToFloat64(m.CleanupDeleted.WithLabelValues(string(domain.AgeExpired))); got != 1 {
		t.Errorf("age deletions metric = %v, want 1", got)
	}

	// a second pass has nothing left to do
	report, err = c.Cleanup(ctx)
	if err != nil {
		t.Fatalf("second Cleanup failed: %v", err)
	}
	if report.TotalDeleted != 0 || report.TotalChecked != 3 {
		t.Errorf("second pass report = %+v", report)
	}
}

func TestNewCleanerDefaults(t *testing.T) {
	c := NewCleaner(memory.New(), domain.RetentionPolicy{DeadlineGrace: time.Hour}, nil, nil)

	if c.Policy().DeadlineGrace != time.Hour {
		t.Errorf("grace = %v, want 1h", c.Policy().DeadlineGrace)
	}
	if c.Policy().RetentionWindow != domain.DefaultRetentionWindow {
		t.Errorf("window = %v, want default", c.Policy().RetentionWindow)
	}
}
