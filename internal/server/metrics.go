package server

import (
	"sync"
	"time"
)

// Metrics counts uploads and requests for /metrics.
type Metrics struct {
	mu sync.Mutex

	uploads          map[string]int64 // stored videos by MIME type
	uploadBytes      int64
	uploadTime       time.Duration
	uploadRejections map[int]int64 // by HTTP status

	requests    int64
	requests4xx int64
	requests5xx int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		uploads:          make(map[string]int64),
		uploadRejections: make(map[int]int64),
	}
}

// RecordUpload counts a stored video.
func (m *Metrics) RecordUpload(mimeType string, bytes int64, took time.Duration) {
	m.mu.Lock()
	m.uploads[mimeType]++
	m.uploadBytes += bytes
	m.uploadTime += took
	m.mu.Unlock()
}

// RecordUploadError counts an upload answered with status.
func (m *Metrics) RecordUploadError(status int) {
	m.mu.Lock()
	m.uploadRejections[status]++
	m.mu.Unlock()
}

func (m *Metrics) RecordRequest(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	switch {
	case status >= 500:
		m.requests5xx++
	case status >= 400:
		m.requests4xx++
	}
}

// MetricsSnapshot is a consistent copy of the counters.
type MetricsSnapshot struct {
	UploadsTotal        int64            `json:"uploads_total"`
	UploadsByType       map[string]int64 `json:"uploads_by_type"`
	UploadBytesTotal    int64            `json:"upload_bytes_total"`
	UploadErrorsTotal   int64            `json:"upload_errors_total"`
	UploadErrorsBy      map[int]int64    `json:"upload_errors_by_status"`
	UploadAvgDurationMs float64          `json:"upload_avg_duration_ms"`

	RequestsTotal    int64 `json:"requests_total"`
	RequestErrors4xx int64 `json:"request_errors_4xx"`
	RequestErrors5xx int64 `json:"request_errors_5xx"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		UploadsByType:    make(map[string]int64, len(m.uploads)),
		UploadBytesTotal: m.uploadBytes,
		UploadErrorsBy:   make(map[int]int64, len(m.uploadRejections)),
		RequestsTotal:    m.requests,
		RequestErrors4xx: m.requests4xx,
		RequestErrors5xx: m.requests5xx,
	}
	for mt, n := range m.uploads {
		snap.UploadsByType[mt] = n
		snap.UploadsTotal += n
	}
	for status, n := range m.uploadRejections {
		snap.UploadErrorsBy[status] = n
		snap.UploadErrorsTotal += n
	}
	if snap.UploadsTotal > 0 {
		snap.UploadAvgDurationMs = float64(m.uploadTime.Milliseconds()) / float64(snap.UploadsTotal)
	}
	return snap
}
