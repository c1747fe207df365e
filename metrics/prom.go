package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromMetrics holds the application's Prometheus collectors. Its methods are
// no-ops on a nil receiver.
type PromMetrics struct {
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	taskMutations *prometheus.CounterVec
	listCache     *prometheus.CounterVec
	notifications *prometheus.CounterVec
	rateLimited   prometheus.Counter
}

func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_http_requests_total",
			Help: "Number of HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "todo_http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		taskMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_task_mutations_total",
			Help: "Number of task mutations by operation",
		}, []string{"op"}),
		listCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_task_list_cache_total",
			Help: "Task list cache lookups by result",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_notifications_total",
			Help: "Share notifications by outcome",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todo_rate_limited_total",
			Help: "Number of requests rejected by the rate limiter",
		}),
	}
	reg.MustRegister(m.httpRequests, m.httpLatency, m.taskMutations, m.listCache, m.notifications, m.rateLimited)
	return m
}

// Nop returns collectors registered against a throwaway registry, for tests
// and modules constructed without metrics.
func Nop() *PromMetrics {
	return NewPromMetrics(prometheus.NewRegistry())
}

func (m *PromMetrics) HTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *PromMetrics) TaskMutation(op string) {
	if m == nil {
		return
	}
	m.taskMutations.WithLabelValues(op).Inc()
}

func (m *PromMetrics) CacheHit() {
	if m == nil {
		return
	}
	m.listCache.WithLabelValues("hit").Inc()
}

func (m *PromMetrics) CacheMiss() {
	if m == nil {
		return
	}
	m.listCache.WithLabelValues("miss").Inc()
}

func (m *PromMetrics) NotificationSent() {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues("sent").Inc()
}

func (m *PromMetrics) NotificationFailed() {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues("failed").Inc()
}

func (m *PromMetrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
