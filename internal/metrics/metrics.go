package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stable_dashboard"

var connectionStates = []string{"disconnected", "connecting", "live"}

// Metrics groups the service collectors on a private registry. All methods
// are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	evaluations   *prometheus.CounterVec
	triggered     prometheus.Counter
	serviceCalls  *prometheus.CounterVec
	notifications *prometheus.CounterVec
	connection    *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_evaluations_total",
			Help:      "Alert evaluation passes by result.",
		}, []string{"result"}),
		triggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_triggered_total",
			Help:      "Alerts that transitioned to triggered.",
		}),
		serviceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ha_service_calls_total",
			Help:      "Home Assistant service calls by domain and result.",
		}, []string{"domain", "result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_notifications_total",
			Help:      "Alert notification batches by result.",
		}, []string{"result"}),
		connection: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ha_connection_state",
			Help:      "1 for the current Home Assistant connection state, 0 otherwise.",
		}, []string{"state"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.evaluations,
		m.triggered,
		m.serviceCalls,
		m.notifications,
		m.connection,
	)
	m.ObserveConnectionState("disconnected")
	return m
}

// Registry exposes the underlying registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RegisterEntityCount exports a gauge reading n on every scrape.
func (m *Metrics) RegisterEntityCount(n func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ha_cached_entities",
		Help:      "Entities currently held in the state cache.",
	}, func() float64 { return float64(n()) }))
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency by route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// ObserveEvaluation counts one pass and the alerts it triggered.
func (m *Metrics) ObserveEvaluation(triggered int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.evaluations.WithLabelValues("error").Inc()
		return
	}
	m.evaluations.WithLabelValues("ok").Inc()
	m.triggered.Add(float64(triggered))
}

func (m *Metrics) ObserveServiceCall(domain string, err error) {
	if m == nil {
		return
	}
	m.serviceCalls.WithLabelValues(domain, resultLabel(err)).Inc()
}

func (m *Metrics) ObserveNotification(err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(resultLabel(err)).Inc()
}

// ObserveConnectionState sets the gauge for state to 1 and the others to 0.
func (m *Metrics) ObserveConnectionState(state string) {
	if m == nil {
		return
	}
	for _, s := range connectionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.connection.WithLabelValues(s).Set(v)
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
