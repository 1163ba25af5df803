package server

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
)

// PrometheusHandler exports the counters in the Prometheus text format.
func (m *Metrics) PrometheusHandler(build BuildInfo, started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		snap := m.Snapshot()
		var out strings.Builder

		out.WriteString("# HELP videohub_info Build information\n")
		out.WriteString("# TYPE videohub_info gauge\n")
		fmt.Fprintf(&out, "videohub_info{version=\"%s\",commit=\"%s\"} 1\n\n",
			prometheusLabel(build.Version), prometheusLabel(build.Commit))

		out.WriteString("# HELP videohub_requests_total Total number of HTTP requests\n")
		out.WriteString("# TYPE videohub_requests_total counter\n")
		fmt.Fprintf(&out, "videohub_requests_total %d\n\n", snap.RequestsTotal)

		out.WriteString("# HELP videohub_request_errors_total HTTP responses by error class\n")
		out.WriteString("# TYPE videohub_request_errors_total counter\n")
		fmt.Fprintf(&out, "videohub_request_errors_total{class=\"4xx\"} %d\n", snap.RequestErrors4xx)
		fmt.Fprintf(&out, "videohub_request_errors_total{class=\"5xx\"} %d\n\n", snap.RequestErrors5xx)

		out.WriteString("# HELP videohub_uploads_total Stored videos by MIME type\n")
		out.WriteString("# TYPE videohub_uploads_total counter\n")
		for _, mt := range sortedKeys(snap.UploadsByType) {
			fmt.Fprintf(&out, "videohub_uploads_total{mime_type=\"%s\"} %d\n", prometheusLabel(mt), snap.UploadsByType[mt])
		}
		out.WriteString("\n")

		out.WriteString("# HELP videohub_upload_bytes_total Total bytes of stored videos\n")
		out.WriteString("# TYPE videohub_upload_bytes_total counter\n")
		fmt.Fprintf(&out, "videohub_upload_bytes_total %d\n\n", snap.UploadBytesTotal)

		out.WriteString("# HELP videohub_upload_errors_total Rejected or failed uploads by HTTP status\n")
		out.WriteString("# TYPE videohub_upload_errors_total counter\n")
		for _, status := range sortedKeys(snap.UploadErrorsBy) {
			fmt.Fprintf(&out, "videohub_upload_errors_total{status=\"%d\"} %d\n", status, snap.UploadErrorsBy[status])
		}
		out.WriteString("\n")

		out.WriteString("# HELP videohub_uptime_seconds Seconds since the server started\n")
		out.WriteString("# TYPE videohub_uptime_seconds counter\n")
		fmt.Fprintf(&out, "videohub_uptime_seconds %.0f\n", time.Since(started).Seconds())

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out.String()))
	}
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func prometheusLabel(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	return value
}
