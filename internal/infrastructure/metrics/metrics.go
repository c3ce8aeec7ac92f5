package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "focuswin"

// Metrics owns a private registry with the HTTP and domain collectors
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	TasksCreated       prometheus.Counter
	TasksCompleted     prometheus.Counter
	TasksDeleted       prometheus.Counter
	GroupsCreated      prometheus.Counter
	GroupsDeleted      prometheus.Counter
	CascadeFailures    prometheus.Counter
	AuthAttempts       *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
}

// New creates and registers every collector
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		TasksCreated:    counter("tasks_created_total", "Tasks created"),
		TasksCompleted:  counter("tasks_completed_total", "Tasks moved to completed"),
		TasksDeleted:    counter("tasks_deleted_total", "Tasks deleted"),
		GroupsCreated:   counter("groups_created_total", "Groups created"),
		GroupsDeleted:   counter("groups_deleted_total", "Groups deleted"),
		CascadeFailures: counter("group_cascade_failures_total", "Group deletions whose task unassignment failed"),
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Signup and login attempts by outcome",
			},
			[]string{"kind", "result"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Reminder deliveries by outcome",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.TasksCreated,
		m.TasksCompleted,
		m.TasksDeleted,
		m.GroupsCreated,
		m.GroupsDeleted,
		m.CascadeFailures,
		m.AuthAttempts,
		m.NotificationsTotal,
	)
	return m
}

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request count and latency per route template
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Handle the error here so the recorded status is the one written.
			if err := next(c); err != nil {
				c.Error(err)
			}

			status := strconv.Itoa(c.Response().Status)
			m.requestsTotal.WithLabelValues(c.Request().Method, c.Path(), status).Inc()
			m.requestDuration.WithLabelValues(c.Request().Method, c.Path()).Observe(time.Since(start).Seconds())

			return nil
		}
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
