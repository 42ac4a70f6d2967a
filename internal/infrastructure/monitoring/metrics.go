package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// File operation metrics
	FileOps        *prometheus.CounterVec
	FileOpDuration *prometheus.HistogramVec

	// Upload metrics
	UploadChunks     *prometheus.CounterVec
	UploadBytes      prometheus.Counter
	UploadsAssembled prometheus.Counter
	UploadsReclaimed prometheus.Counter

	// Archive metrics
	ArchiveListings *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for the health endpoint
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for JSON responses
type Snapshot struct {
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	AvgLatencyMS  float64 `json:"avg_latency_ms"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	totalDuration float64
}

// NewMetrics creates a metrics collector on its own registry, so several
// servers can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qfm_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qfm_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qfm_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000, 100000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qfm_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000, 100000000},
			},
			[]string{"method", "path"},
		),

		// File operation metrics
		FileOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qfm_file_operations_total",
				Help: "Total number of file operations by outcome",
			},
			[]string{"op", "status"},
		),
		FileOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qfm_file_operation_duration_seconds",
				Help:    "File operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"op"},
		),

		// Upload metrics
		UploadChunks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qfm_upload_chunks_total",
				Help: "Total number of upload chunks received by outcome",
			},
			[]string{"status"},
		),
		UploadBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "qfm_upload_bytes_total",
				Help: "Total number of bytes accepted by uploads",
			},
		),
		UploadsAssembled: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "qfm_uploads_assembled_total",
				Help: "Total number of chunked uploads assembled",
			},
		),
		UploadsReclaimed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "qfm_uploads_reclaimed_total",
				Help: "Total number of idle upload sessions reclaimed",
			},
		),

		// Archive metrics
		ArchiveListings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qfm_archive_listings_total",
				Help: "Total number of archive listings by archive type",
			},
			[]string{"type"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "qfm_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qfm_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "qfm_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TrackActiveUploads registers a gauge reading the live session count from fn
func (m *Metrics) TrackActiveUploads(fn func() int) {
	promauto.With(m.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "qfm_upload_sessions_active",
			Help: "Number of chunked upload sessions in progress",
		},
		func() float64 { return float64(fn()) },
	)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordFileOp records the outcome of one file operation
func (m *Metrics) RecordFileOp(op, status string, duration time.Duration) {
	m.FileOps.WithLabelValues(op, status).Inc()
	m.FileOpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordChunk records one received upload chunk
func (m *Metrics) RecordChunk(status string, size int64) {
	m.UploadChunks.WithLabelValues(status).Inc()
	if size > 0 {
		m.UploadBytes.Add(float64(size))
	}
}

// IncUploadsAssembled increments the assembled uploads counter
func (m *Metrics) IncUploadsAssembled() {
	m.UploadsAssembled.Inc()
}

// IncUploadsReclaimed increments the reclaimed sessions counter
func (m *Metrics) IncUploadsReclaimed() {
	m.UploadsReclaimed.Inc()
}

// RecordArchiveListing records an archive listing by type
func (m *Metrics) RecordArchiveListing(archiveType string) {
	m.ArchiveListings.WithLabelValues(archiveType).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns the current request counters
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()

	if s.TotalRequests > 0 {
		s.AvgLatencyMS = s.totalDuration / float64(s.TotalRequests) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
