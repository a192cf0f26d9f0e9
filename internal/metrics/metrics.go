// Package metrics expone las métricas Prometheus del servicio de facturación.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agency_invoicing"

// Recorder agrupa los collectors. Un *Recorder nil no registra nada.
type Recorder struct {
	issued         *prometheus.CounterVec
	stageFailures  *prometheus.CounterVec
	issueDuration  prometheus.Histogram
	notifyFailures prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewRecorder crea y registra los collectors en reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		issued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_issued_total",
			Help:      "Invoice issuance attempts by final state.",
		}, []string{"state"}),
		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issue_stage_failures_total",
			Help:      "Failures per issuance stage and error kind, including tolerated ones.",
		}, []string{"stage", "kind"}),
		issueDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "issue_duration_seconds",
			Help:      "Time spent in the synchronous part of invoice issuance.",
			Buckets:   prometheus.DefBuckets,
		}),
		notifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Invoice notifications that could not be dispatched.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveIssue registra el estado final y la duración de una emisión
func (r *Recorder) ObserveIssue(state string, d time.Duration) {
	if r == nil {
		return
	}
	r.issued.WithLabelValues(state).Inc()
	r.issueDuration.Observe(d.Seconds())
}

// StageFailed registra un fallo en una etapa
func (r *Recorder) StageFailed(stage, kind string) {
	if r == nil {
		return
	}
	r.stageFailures.WithLabelValues(stage, kind).Inc()
}

// NotificationFailed registra un aviso fallido
func (r *Recorder) NotificationFailed() {
	if r == nil {
		return
	}
	r.notifyFailures.Inc()
}

// GinMiddleware mide las peticiones HTTP por ruta
func (r *Recorder) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		r.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler expone las métricas de g en formato Prometheus
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
