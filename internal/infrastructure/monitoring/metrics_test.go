package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsAreIsolated(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordFileOp("delete", "success", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.FileOps.WithLabelValues("delete", "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FileOps.WithLabelValues("delete", "success")))
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/api/files/*path", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, p := range []string{"/api/files/a", "/api/files/b/c", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/files/*path", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}

func TestUploadMetrics(t *testing.T) {
	m := NewMetrics()
	active := 2
	m.TrackActiveUploads(func() int { return active })

	m.RecordChunk("success", 100)
	m.RecordChunk("error", 0)
	m.IncUploadsAssembled()
	m.IncUploadsReclaimed()

	assert.Equal(t, 100.0, testutil.ToFloat64(m.UploadBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadsAssembled))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "qfm_upload_sessions_active 2")
	assert.Contains(t, body, `qfm_upload_chunks_total{status="error"} 1`)
	assert.True(t, strings.Contains(body, "qfm_uptime_seconds"))
}

func TestTimer(t *testing.T) {
	m := NewMetrics()

	NewTimer(m, "zip").Stop("error")
	var nilTimer *Timer
	nilTimer.Stop("success")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FileOps.WithLabelValues("zip", "error")))
}
