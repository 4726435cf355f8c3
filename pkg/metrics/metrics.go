package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/d60-Lab/networkqy/internal/optimistic"
)

// Metrics 服务端 HTTP 指标与客户端乐观更新结果指标
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RateLimitedTotal    *prometheus.CounterVec

	LikesTotal    *prometheus.CounterVec
	CommentsTotal prometheus.Counter

	MutationsTotal  *prometheus.CounterVec
	MutationLatency *prometheus.HistogramVec

	reg prometheus.Registerer
}

// New 把所有指标注册到 reg；reg 为 nil 时使用默认 registry
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimitedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"route"}),
		LikesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_like_toggles_total",
			Help: "Like toggles by target and resulting state",
		}, []string{"target", "liked"}),
		CommentsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "feed_comments_created_total",
			Help: "Comments created",
		}),
		MutationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "optimistic_mutations_total",
			Help: "Optimistic mutations by kind and outcome",
		}, []string{"kind", "outcome"}),
		MutationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "optimistic_mutation_duration_seconds",
			Help:    "Time from optimistic apply to reconcile",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		reg: reg,
	}
}

// Observer 返回可交给 optimistic.WithObserver 的回调
func (m *Metrics) Observer() optimistic.Observer {
	return func(kind optimistic.Kind, outcome optimistic.OutcomeKind, latency time.Duration) {
		m.MutationsTotal.WithLabelValues(string(kind), outcome.String()).Inc()
		m.MutationLatency.WithLabelValues(string(kind)).Observe(latency.Seconds())
	}
}

// RegisterCacheCounters 以 CounterFunc 暴露 feed 缓存命中/未命中
func (m *Metrics) RegisterCacheCounters(hits, misses func() int64) {
	f := promauto.With(m.reg)
	f.NewCounterFunc(prometheus.CounterOpts{
		Name: "feed_cache_hits_total",
		Help: "Feed page cache hits",
	}, func() float64 { return float64(hits()) })
	f.NewCounterFunc(prometheus.CounterOpts{
		Name: "feed_cache_misses_total",
		Help: "Feed page cache misses",
	}, func() float64 { return float64(misses()) })
}
