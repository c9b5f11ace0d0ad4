package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyukimin/tabitenki/internal/application/contextstore"
	"github.com/Nyukimin/tabitenki/internal/domain/session"
	"github.com/Nyukimin/tabitenki/internal/infrastructure/weather/openweather"
)

var (
	_ contextstore.Observer = (*Metrics)(nil)
	_ openweather.Observer  = (*Metrics)(nil)
)

func TestMetrics_SessionGauge(t *testing.T) {
	m := New()

	m.SessionCreated()
	m.SessionCreated()
	m.SessionCreated()
	m.SessionsRemoved("expired", 2)
	m.SessionsRemoved("cleared", 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.liveSessions))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.sessionsRemoved.WithLabelValues("expired")))
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.CacheLookup(session.CacheHit)
	m.CacheLookup(session.CacheHit)
	m.CacheLookup(session.CacheExpired)
	m.FetchObserved("weather", "ok", 120*time.Millisecond)
	m.FetchObserved("forecast", "not_found", 80*time.Millisecond)
	m.ChatCompleted("success", time.Second)
	m.LocationResolved("pattern_match")
	m.RecordHTTPRequest(http.MethodPost, "/api/chat", 200, 10*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheLookups.WithLabelValues("expired")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.weatherFetches.WithLabelValues("forecast", "not_found")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.chatRequests.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.locationResolved.WithLabelValues("pattern_match")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/chat", "200")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ChatCompleted("error", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tabitenki_chat_requests_total{status="error"} 1`)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.SessionCreated()
		m.SessionsRemoved("expired", 1)
		m.CacheLookup(session.CacheMiss)
		m.FetchObserved("weather", "ok", time.Millisecond)
		m.ChatCompleted("success", time.Millisecond)
		m.LocationResolved("none")
		m.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
