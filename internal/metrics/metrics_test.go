package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveSource("RemoteOK", 3, time.Second)
		m.SourceFailed("RemoteOK")
		m.ObserveRefresh("success", 1, 2, 3)
		m.CleanupDeletedInc("age expired")
	})
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveSource("RemoteOK", 3, 200*time.Millisecond)
	m.ObserveSource("RemoteOK", 2, 100*time.Millisecond)
	m.SourceFailed("Adzuna")
	m.ObserveRefresh("partial", 1, 2, 4)
	m.CleanupDeletedInc("deadline expired")

	assert.Equal(t, 5.0, testutil.ToFloat64(m.SourceRecords.WithLabelValues("RemoteOK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFailures.WithLabelValues("Adzuna")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshRuns.WithLabelValues("partial")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RefreshRecords.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CleanupDeleted.WithLabelValues("deadline expired")))
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New()
	m.SourceFailed("Jobicy")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `opphub_source_failures_total{source="Jobicy"} 1`))
}

func TestInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
