package aggregator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/sources"
)

type fakeAdapter struct {
	name    string
	records []domain.Opportunity
	delay   time.Duration
	panics  bool
	running *atomic.Int32
	peak    *atomic.Int32
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Fetch(ctx context.Context) []domain.Opportunity {
	if f.running != nil {
		n := f.running.Add(1)
		defer f.running.Add(-1)
		for {
			p := f.peak.Load()
			if n <= p || f.peak.CompareAndSwap(p, n) {
				break
			}
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics {
		panic("adapter bug")
	}
	return f.records
}

func opp(title, org, link string) domain.Opportunity {
	return domain.Opportunity{Title: title, Organization: org, Link: link}
}

func TestFetchAllDedupsAcrossSourcesInAdapterOrder(t *testing.T) {
	a := &fakeAdapter{name: "A", records: []domain.Opportunity{opp("Project Manager", "Acme", "https://a/1")}, delay: 30 * time.Millisecond}
	b := &fakeAdapter{name: "B", records: []domain.Opportunity{opp("project  manager", "ACME", "https://b/2")}}

	res := New([]sources.Adapter{a, b}, nil).FetchAll(context.Background())

	require.Len(t, res.Records, 1)
	assert.Equal(t, "https://a/1", res.Records[0].Link)
	assert.Equal(t, 2, res.Fetched)
}

func TestFetchAllKeepsEmptyTitledRecordsWithDistinctLinks(t *testing.T) {
	a := &fakeAdapter{name: "A", records: []domain.Opportunity{
		opp("", "", "https://a/1"),
		opp("", "", "https://a/2"),
		opp("", "", "https://a/1"),
	}}

	res := New([]sources.Adapter{a}, nil).FetchAll(context.Background())

	require.Len(t, res.Records, 2)
	assert.Equal(t, "https://a/1", res.Records[0].Link)
	assert.Equal(t, "https://a/2", res.Records[1].Link)
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	ok := &fakeAdapter{name: "OK", records: []domain.Opportunity{opp("Program Lead", "UNDP", "https://ok/1")}}
	empty := &fakeAdapter{name: "Empty"}
	broken := &fakeAdapter{name: "Broken", panics: true}

	var res Result
	require.NotPanics(t, func() {
		res = New([]sources.Adapter{broken, empty, ok}, nil).FetchAll(context.Background())
	})

	require.Len(t, res.Records, 1)
	require.Len(t, res.Sources, 3)
	assert.Equal(t, "Broken", res.Sources[0].Source)
	assert.Error(t, res.Sources[0].Err)
	assert.Zero(t, res.Sources[0].Count)
	assert.NoError(t, res.Sources[1].Err)
	assert.Equal(t, 1, res.Sources[2].Count)
}

func TestFetchAllRunsAdaptersConcurrently(t *testing.T) {
	var running, peak atomic.Int32
	adapters := make([]sources.Adapter, 0, 4)
	for _, name := range []string{"A", "B", "C", "D"} {
		adapters = append(adapters, &fakeAdapter{name: name, delay: 40 * time.Millisecond, running: &running, peak: &peak})
	}

	start := time.Now()
	New(adapters, nil).FetchAll(context.Background())

	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Greater(t, peak.Load(), int32(1))
}

func TestSourcesOrder(t *testing.T) {
	agg := New([]sources.Adapter{&fakeAdapter{name: "Z"}, &fakeAdapter{name: "A"}}, nil)
	assert.Equal(t, []string{"Z", "A"}, agg.Sources())
}
