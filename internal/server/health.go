package server

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus represents the overall health of the receiver
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentStatus represents the health of an individual component
type ComponentStatus string

const (
	ComponentStatusUp       ComponentStatus = "up"
	ComponentStatusDown     ComponentStatus = "down"
	ComponentStatusDegraded ComponentStatus = "degraded"
)

type Health struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Commit     string                     `json:"commit,omitempty"`
	Components map[string]ComponentHealth `json:"components"`
}

type ComponentHealth struct {
	Status    ComponentStatus `json:"status"`
	Message   string          `json:"message,omitempty"`
	LatencyMs float64         `json:"latency_ms,omitempty"`
}

// slowCheck is the latency above which a reachable component is reported
// as degraded.
const slowCheck = time.Second

// HandleHealth reports the metadata store and blob store status.
// Degraded still answers 200; unhealthy answers 503.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	health := s.checkHealth(r.Context())

	statusCode := http.StatusOK
	if health.Status == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, health)
}

// HandleLive is the liveness probe: the process is up.
func (s *Server) HandleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) checkHealth(ctx context.Context) Health {
	health := Health{
		Timestamp:  s.cfg.Now(),
		Version:    s.cfg.Build.Version,
		Commit:     s.cfg.Build.Commit,
		Components: make(map[string]ComponentHealth),
	}

	health.Components["metadata"] = probe(ctx, "metadata store", s.cfg.Store.Ping)
	health.Components["storage"] = probe(ctx, "video storage", s.cfg.Blobs.Check)
	health.Status = determineOverallHealth(health.Components)
	return health
}

func probe(parent context.Context, name string, check func(context.Context) error) ComponentHealth {
	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := check(ctx); err != nil {
		return ComponentHealth{Status: ComponentStatusDown, Message: name + " check failed: " + err.Error()}
	}
	latency := time.Since(start)

	status, message := ComponentStatusUp, name+" healthy"
	if latency > slowCheck {
		status, message = ComponentStatusDegraded, name+" latency high"
	}
	return ComponentHealth{
		Status:    status,
		Message:   message,
		LatencyMs: float64(latency.Microseconds()) / 1000,
	}
}

func determineOverallHealth(components map[string]ComponentHealth) HealthStatus {
	var downCount, degradedCount int
	for _, c := range components {
		switch c.Status {
		case ComponentStatusDown:
			downCount++
		case ComponentStatusDegraded:
			degradedCount++
		}
	}
	switch {
	case downCount > 0:
		return HealthStatusUnhealthy
	case degradedCount > 0:
		return HealthStatusDegraded
	default:
		return HealthStatusHealthy
	}
}
