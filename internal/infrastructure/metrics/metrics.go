package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nyukimin/tabitenki/internal/domain/session"
)

const namespace = "tabitenki"

// Metrics はアプリケーションのPrometheusコレクター群
// nil レシーバでも全メソッドが安全に呼べる（メトリクス無効時）
type Metrics struct {
	registry *prometheus.Registry

	chatRequests     *prometheus.CounterVec
	chatDuration     prometheus.Histogram
	locationResolved *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	weatherFetches   *prometheus.CounterVec
	weatherDuration  *prometheus.HistogramVec
	liveSessions     prometheus.Gauge
	sessionsRemoved  *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New は専用レジストリにコレクターを登録したMetricsを作成
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Total number of chat pipeline runs by status",
		}, []string{"status"}),
		chatDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_duration_seconds",
			Help:      "Chat pipeline duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		locationResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_extractions_total",
			Help:      "Location extractions by method",
		}, []string{"method"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_lookups_total",
			Help:      "Weather cache lookups by result",
		}, []string{"result"}),
		weatherFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_fetches_total",
			Help:      "Weather provider requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		weatherDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_fetch_duration_seconds",
			Help:      "Weather provider request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_live",
			Help:      "Number of live session contexts",
		}),
		sessionsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_removed_total",
			Help:      "Session contexts removed by reason",
		}, []string{"reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.chatRequests,
		m.chatDuration,
		m.locationResolved,
		m.cacheLookups,
		m.weatherFetches,
		m.weatherDuration,
		m.liveSessions,
		m.sessionsRemoved,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// Registry はレジストリを返す
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler は /metrics 用のハンドラを返す
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ChatCompleted はパイプライン1回分の結果を記録
func (m *Metrics) ChatCompleted(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(status).Inc()
	m.chatDuration.Observe(elapsed.Seconds())
}

// LocationResolved は地名抽出の方式を記録（none は未検出）
func (m *Metrics) LocationResolved(method string) {
	if m == nil {
		return
	}
	m.locationResolved.WithLabelValues(method).Inc()
}

// CacheLookup は天気キャッシュ参照結果を記録
func (m *Metrics) CacheLookup(status session.CacheStatus) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(string(status)).Inc()
}

// SessionCreated は新規セッションを記録
func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.liveSessions.Inc()
}

// SessionsRemoved はセッション削除を記録
func (m *Metrics) SessionsRemoved(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.liveSessions.Sub(float64(n))
	m.sessionsRemoved.WithLabelValues(reason).Add(float64(n))
}

// FetchObserved は天気プロバイダーへのリクエストを記録
func (m *Metrics) FetchObserved(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.weatherFetches.WithLabelValues(endpoint, outcome).Inc()
	m.weatherDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordHTTPRequest はHTTPリクエストを記録
func (m *Metrics) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
