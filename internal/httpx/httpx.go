// Package httpx builds the HTTP clients the videohub CLI talks to endpoints
// with: fixed dial and header timeouts, a User-Agent, and bounded retries
// for requests that can be replayed.
package httpx

import (
	"errors"
	"net"
	"net/http"
	"time"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultRetryMax = 2
)

// DefaultUserAgent is sent when the request does not set one.
var DefaultUserAgent = "videohub/dev"

// Transport retries failed round trips of replayable requests.
type Transport struct {
	Base *http.Transport

	// RetryMax is the number of retries after the first attempt.
	RetryMax  int
	UserAgent string
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// Only GET/HEAD without a body are safe to send twice. Uploads are not.
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) &&
		(req.Body == nil || req.Body == http.NoBody)
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		r := req
		if r.Header.Get("User-Agent") == "" && t.UserAgent != "" {
			r = req.Clone(req.Context())
			r.Header.Set("User-Agent", t.UserAgent)
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// Options configures NewClient. Zero values pick the defaults, except
// Timeout: a negative Timeout disables the overall client timeout so that
// long uploads are bounded only by the caller's context.
type Options struct {
	Timeout   time.Duration
	RetryMax  int
	UserAgent string
}

func NewClient(opts Options) *http.Client {
	timeout := opts.Timeout
	switch {
	case timeout == 0:
		timeout = DefaultTimeout
	case timeout < 0:
		timeout = 0
	}
	retry := opts.RetryMax
	if retry == 0 {
		retry = DefaultRetryMax
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		MaxIdleConnsPerHost:   4,
	}

	return &http.Client{
		Transport: &Transport{Base: base, RetryMax: retry, UserAgent: ua},
		Timeout:   timeout,
	}
}
