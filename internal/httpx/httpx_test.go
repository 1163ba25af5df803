package httpx

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Options{})
	if c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v", c.Timeout)
	}
	tr, ok := c.Transport.(*Transport)
	if !ok {
		t.Fatalf("expected *Transport, got %T", c.Transport)
	}
	if tr.RetryMax != DefaultRetryMax || tr.UserAgent != DefaultUserAgent {
		t.Errorf("unexpected transport: %+v", tr)
	}
}

func TestNewClient_NegativeTimeoutDisablesIt(t *testing.T) {
	if c := NewClient(Options{Timeout: -1}); c.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", c.Timeout)
	}
}

func TestTransport_SetsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.UserAgent()
	}))
	defer srv.Close()

	c := NewClient(Options{UserAgent: "videohub/test", Timeout: 5 * time.Second})
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()

	if got != "videohub/test" {
		t.Errorf("User-Agent = %q", got)
	}
}

// flakyListener drops the first n accepted connections.
type flakyListener struct {
	net.Listener
	drop atomic.Int32
}

func (l *flakyListener) Accept() (net.Conn, error) {
	for {
		c, err := l.Listener.Accept()
		if err != nil {
			return nil, err
		}
		if l.drop.Add(-1) >= 0 {
			c.Close()
			continue
		}
		return c, nil
	}
}

func newFlakyServer(t *testing.T, drops int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("ok"))
	}))
	fl := &flakyListener{Listener: srv.Listener}
	fl.drop.Store(drops)
	srv.Listener = fl
	srv.Start()
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestTransport_RetriesGET(t *testing.T) {
	srv, hits := newFlakyServer(t, 1)

	c := NewClient(Options{Timeout: 5 * time.Second, RetryMax: 2})
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	resp.Body.Close()
	if hits.Load() != 1 {
		t.Errorf("handler hits = %d", hits.Load())
	}
}

func TestTransport_DoesNotRetryPOST(t *testing.T) {
	srv, hits := newFlakyServer(t, 1)

	c := NewClient(Options{Timeout: 5 * time.Second, RetryMax: 2})
	_, err := c.Post(srv.URL, "text/plain", strings.NewReader("body"))
	if err == nil {
		t.Fatal("expected POST to fail without retry")
	}
	if hits.Load() != 0 {
		t.Errorf("handler hits = %d", hits.Load())
	}
}
