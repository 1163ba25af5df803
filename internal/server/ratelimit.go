package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// uploadLimiter caps POST /upload.php per client IP over a sliding window.
// It answers 429 with a Retry-After header once the budget is spent.
type uploadLimiter struct {
	mu        sync.Mutex
	visitors  map[string][]time.Time
	rate      int
	window    time.Duration
	now       func() time.Time
	lastPrune time.Time
}

func newUploadLimiter(rate int, window time.Duration, now func() time.Time) *uploadLimiter {
	return &uploadLimiter{
		visitors: make(map[string][]time.Time),
		rate:     rate,
		window:   window,
		now:      now,
	}
}

// allow records a request from ip and reports whether it fits the budget.
// When it does not, it also returns how long until the oldest request ages out.
func (l *uploadLimiter) allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	if now.Sub(l.lastPrune) > l.window {
		l.prune(cutoff)
		l.lastPrune = now
	}

	recent := l.visitors[ip][:0]
	for _, t := range l.visitors[ip] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.rate {
		l.visitors[ip] = recent
		return false, recent[0].Sub(cutoff)
	}
	l.visitors[ip] = append(recent, now)
	return true, 0
}

// prune drops visitors with no request inside the window.
func (l *uploadLimiter) prune(cutoff time.Time) {
	for ip, reqs := range l.visitors {
		if len(reqs) == 0 || !reqs[len(reqs)-1].After(cutoff) {
			delete(l.visitors, ip)
		}
	}
}

func (l *uploadLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		ok, wait := l.allow(clientIP(r))
		if !ok {
			secs := int(wait.Round(time.Second) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			writeError(w, http.StatusTooManyRequests, "too many uploads, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
