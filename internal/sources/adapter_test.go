package sources

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/metrics"
)

func TestRunRecoversPanics(t *testing.T) {
	m := metrics.New()
	d := testDeps()
	d.Metrics = m
	b := newBase("Test", Settings{}, d)

	var out []domain.Opportunity
	require.NotPanics(t, func() {
		out = b.run(context.Background(), func(context.Context) ([]domain.Opportunity, error) {
			panic("unexpected payload")
		})
	})

	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFailures.WithLabelValues("Test")))
}

func TestRunTurnsErrorsIntoEmptyResult(t *testing.T) {
	b := newBase("Test", Settings{}, testDeps())

	out := b.run(context.Background(), func(context.Context) ([]domain.Opportunity, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestRunCapsOutput(t *testing.T) {
	b := newBase("Test", Settings{MaxResults: 2}, testDeps())

	out := b.run(context.Background(), func(context.Context) ([]domain.Opportunity, error) {
		return make([]domain.Opportunity, 5), nil
	})

	assert.Len(t, out, 2)
}

func TestOpportunityMapping(t *testing.T) {
	b := newBase("Test", Settings{DefaultLocation: domain.LocationGlobal}, testDeps())
	deadline := time.Date(2026, 6, 1, 15, 4, 5, 0, time.UTC)

	opp, ok := b.opportunity(listing{
		Title:       "  Programme   Manager ",
		Link:        "https://example.org/1",
		Description: "",
		Deadline:    &deadline,
		Tags:        []string{" ngo ", ""},
	})
	require.True(t, ok)

	assert.Equal(t, "Programme Manager", opp.Title)
	assert.Equal(t, domain.UnknownOrganization, opp.Organization)
	assert.Equal(t, domain.LocationGlobal, opp.Location)
	assert.Equal(t, domain.NoDescription, opp.Description)
	assert.Equal(t, "Project Management", opp.Category)
	assert.Equal(t, []string{"ngo"}, opp.Tags)
	assert.Equal(t, "Test", opp.SourceName)
	require.NotNil(t, opp.Deadline)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), *opp.Deadline)

	_, ok = b.opportunity(listing{Title: " ", Link: "https://example.org/2"})
	assert.False(t, ok)
	_, ok = b.opportunity(listing{Title: "Lead", Link: ""})
	assert.False(t, ok)
}

func TestKeepHonorsSettings(t *testing.T) {
	german := "Projektmanager gesucht, wir suchen dich für unser Team und die Zukunft"

	filtered := newBase("Test", Settings{RelevanceFilter: ptr(true), LanguageFilter: ptr(true)}, testDeps())
	assert.True(t, filtered.keep("Project Manager"))
	assert.False(t, filtered.keep("Barista"))
	assert.False(t, filtered.keep(german))

	open := newBase("Test", Settings{}, testDeps())
	assert.True(t, open.keep("Barista"))
	assert.True(t, open.keep(german))
}

func TestGetJSONRejectsNon2xx(t *testing.T) {
	srv := serveStatus(t, http.StatusTooManyRequests)
	b := newBase("Test", Settings{}, testDeps())

	var v any
	err := b.getJSON(context.Background(), srv.URL, &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestRequestDelaySpacesRequests(t *testing.T) {
	srv := serveJSON(t, `{}`)
	d := testDeps()
	d.RequestDelay = 50 * time.Millisecond
	b := newBase("Test", Settings{}, d)

	start := time.Now()
	for i := 0; i < 3; i++ {
		var v map[string]any
		require.NoError(t, b.getJSON(context.Background(), srv.URL, &v))
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestFlexTime(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *time.Time
	}{
		{"unix seconds", `1767225600`, ptrTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))},
		{"unix milliseconds", `1767225600000`, ptrTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))},
		{"numeric string", `"1767225600"`, ptrTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))},
		{"rfc3339 with offset", `"2026-05-01T00:00:00+00:00"`, ptrTime(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))},
		{"plain date", `"2026-05-01"`, ptrTime(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))},
		{"null", `null`, nil},
		{"garbage", `"soon"`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f flexTime
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &f))
			got := f.Ptr()
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v", got)
		})
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
