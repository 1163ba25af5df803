package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type manualClock struct{ t time.Time }

func (c *manualClock) now() time.Time { return c.t }

func TestUploadLimiter_Allow(t *testing.T) {
	clock := &manualClock{t: fixedNow}
	l := newUploadLimiter(3, time.Minute, clock.now)

	for i := 0; i < 3; i++ {
		if ok, _ := l.allow("192.168.1.1"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
		clock.t = clock.t.Add(10 * time.Second)
	}

	ok, wait := l.allow("192.168.1.1")
	if ok {
		t.Fatal("4th request should be denied")
	}
	if wait != 30*time.Second {
		t.Errorf("wait = %v, want 30s", wait)
	}

	if ok, _ := l.allow("192.168.1.2"); !ok {
		t.Error("request from a different IP should be allowed")
	}

	clock.t = clock.t.Add(31 * time.Second)
	if ok, _ := l.allow("192.168.1.1"); !ok {
		t.Error("request after the oldest aged out should be allowed")
	}
}

func TestUploadLimiter_Prunes(t *testing.T) {
	clock := &manualClock{t: fixedNow}
	l := newUploadLimiter(1, time.Minute, clock.now)

	l.allow("10.0.0.1")
	clock.t = clock.t.Add(2 * time.Minute)
	l.allow("10.0.0.2")

	if _, ok := l.visitors["10.0.0.1"]; ok {
		t.Error("expected idle visitor to be pruned")
	}
}

func TestUploadLimiter_Middleware(t *testing.T) {
	l := newUploadLimiter(1, time.Hour, func() time.Time { return fixedNow })
	h := l.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/upload.php", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(http.MethodPost); rec.Code != http.StatusCreated {
		t.Fatalf("first upload: %d", rec.Code)
	}
	rec := send(http.MethodPost)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload: expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "3600" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected JSON error body, got %q", rec.Header().Get("Content-Type"))
	}

	// Preflight and wrong-method requests are not counted.
	if rec := send(http.MethodGet); rec.Code != http.StatusCreated {
		t.Errorf("GET should pass through, got %d", rec.Code)
	}
}

func TestServer_UploadRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.UploadRateLimit = 1 })

	first := env.do(uploadRequest(t, videoPart("a.mp4", mp4Bytes(64)), titlePart("A")))
	if first.Code != http.StatusCreated {
		t.Fatalf("first upload: %d %s", first.Code, first.Body.String())
	}
	second := env.do(uploadRequest(t, videoPart("b.mp4", mp4Bytes(64)), titlePart("B")))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload: expected 429, got %d", second.Code)
	}
}
