// Package metrics holds the Prometheus collectors for the HTTP surface,
// the ranking engines and the background workers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricHTTPRequestsTotal   = "gig_http_requests_total"
	MetricHTTPRequestDuration = "gig_http_request_duration_seconds"
	MetricRankingDuration     = "gig_ranking_duration_seconds"
	MetricRankingCandidates   = "gig_ranking_candidates"
	MetricSuggestionCache     = "gig_suggestion_cache_total"
	MetricOutboxRelayed       = "gig_outbox_relayed_total"
	MetricReconcileFixed      = "gig_follow_counts_fixed_total"
)

// Ranking engines, used as the "engine" label.
const (
	EngineBasic    = "basic_suggestions"
	EngineAdvanced = "advanced_suggestions"
	EngineSearch   = "search"
	EngineFeed     = "feed"
)

const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"

	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics is safe for concurrent use. A nil *Metrics is a no-op so that
// services can be built without instrumentation in tests.
type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	rankDuration  *prometheus.HistogramVec
	rankScored    *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	outboxRelayed *prometheus.CounterVec
	countsFixed   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request latency in seconds by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		rankDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRankingDuration,
				Help:    "Time spent scoring and ordering candidates by engine",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"engine"},
		),
		rankScored: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRankingCandidates,
				Help:    "Number of candidates scored per ranking call",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"engine"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSuggestionCache,
				Help: "Advanced suggestion cache lookups by result",
			},
			[]string{"result"},
		),
		outboxRelayed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricOutboxRelayed,
				Help: "Social outbox events relayed by status",
			},
			[]string{"status"},
		),
		countsFixed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricReconcileFixed,
			Help: "Accounts whose cached follow counters were corrected",
		}),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.httpRequests,
		m.httpDuration,
		m.rankDuration,
		m.rankScored,
		m.cacheLookups,
		m.outboxRelayed,
		m.countsFixed,
	}
}

func (m *Metrics) ObserveHTTP(route, method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, code).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveRanking records one ranking pass over n candidates.
func (m *Metrics) ObserveRanking(engine string, n int, d time.Duration) {
	if m == nil {
		return
	}
	m.rankDuration.WithLabelValues(engine).Observe(d.Seconds())
	m.rankScored.WithLabelValues(engine).Observe(float64(n))
}

func (m *Metrics) IncCache(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) IncOutbox(status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.outboxRelayed.WithLabelValues(status).Add(float64(n))
}

func (m *Metrics) AddCountsFixed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.countsFixed.Add(float64(n))
}
