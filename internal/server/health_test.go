package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealth_Healthy(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var h Health
	if err := json.Unmarshal(rr.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Status != HealthStatusHealthy || h.Version != "test" {
		t.Errorf("unexpected health: %+v", h)
	}
	if h.Components["metadata"].Status != ComponentStatusUp || h.Components["storage"].Status != ComponentStatusUp {
		t.Errorf("unexpected components: %+v", h.Components)
	}
}

func TestHealth_StoreDownIsUnhealthy(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Store = failingStore{err: errors.New("connection refused")}
	})

	rr := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "connection refused") {
		t.Errorf("expected cause in body: %s", rr.Body.String())
	}
}

func TestDetermineOverallHealth(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]ComponentHealth
		want HealthStatus
	}{
		{"all up", map[string]ComponentHealth{"a": {Status: ComponentStatusUp}}, HealthStatusHealthy},
		{"one degraded", map[string]ComponentHealth{"a": {Status: ComponentStatusUp}, "b": {Status: ComponentStatusDegraded}}, HealthStatusDegraded},
		{"one down", map[string]ComponentHealth{"a": {Status: ComponentStatusDegraded}, "b": {Status: ComponentStatusDown}}, HealthStatusUnhealthy},
	}
	for _, tt := range tests {
		if got := determineOverallHealth(tt.in); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestLive(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "alive") {
		t.Fatalf("unexpected live response: %d %s", rr.Code, rr.Body.String())
	}
}
