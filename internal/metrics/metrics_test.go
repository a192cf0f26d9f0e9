package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.ObserveIssue("done", 20*time.Millisecond)
	r.ObserveIssue("done", 30*time.Millisecond)
	r.ObserveIssue("failed(uploading)", time.Millisecond)
	r.StageFailed("uploading", "storage_failure")
	r.NotificationFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.issued.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.issued.WithLabelValues("failed(uploading)")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stageFailures.WithLabelValues("uploading", "storage_failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notifyFailures))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveIssue("done", time.Second)
		r.StageFailed("draft", "invalid_input")
		r.NotificationFailed()
	})
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	router := gin.New()
	router.Use(r.GinMiddleware())
	router.GET("/v1/invoices/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/metrics", gin.WrapH(Handler(reg)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/invoices/abc", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/v1/invoices/:id", "204")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "agency_invoicing_http_requests_total"))
}
