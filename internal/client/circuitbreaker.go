package client

import (
	"errors"
	"sync"
	"time"

	"videohub/internal/logging"
)

// CircuitState is the state of one endpoint's breaker.
type CircuitState int

const (
	// StateClosed: requests flow normally
	StateClosed CircuitState = iota
	// StateOpen: requests are skipped until the cooldown elapses
	StateOpen
	// StateHalfOpen: one probe request decides whether to close again
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned while an endpoint is being skipped.
	ErrCircuitOpen = errors.New("endpoint skipped after repeated failures")

	// ErrProbeInFlight is returned when a half-open breaker is already probing.
	ErrProbeInFlight = errors.New("endpoint probe already in flight")
)

// CircuitBreaker stops calling an endpoint after maxFailures consecutive
// failures and lets one probe through once cooldown has passed.
type CircuitBreaker struct {
	mu sync.Mutex

	name        string
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time
	log         *logging.Logger

	state       CircuitState
	failures    int
	lastFailure time.Time
	probing     bool
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) < cb.cooldown {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probing = false
		cb.log.Info("circuit_half_open", map[string]any{"endpoint": cb.name})
		fallthrough
	case StateHalfOpen:
		if cb.probing {
			cb.mu.Unlock()
			return ErrProbeInFlight
		}
		cb.probing = true
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.probing = false
	if err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) onSuccess() {
	if cb.state == StateHalfOpen {
		cb.log.Info("circuit_closed", map[string]any{"endpoint": cb.name})
	}
	cb.state = StateClosed
	cb.failures = 0
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailure = cb.now()

	if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
		if cb.state != StateOpen {
			cb.log.Warn("circuit_opened", map[string]any{
				"endpoint": cb.name,
				"failures": cb.failures,
				"cooldown": cb.cooldown.String(),
			})
		}
		cb.state = StateOpen
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Breakers holds one CircuitBreaker per endpoint.
type Breakers struct {
	MaxFailures int
	Cooldown    time.Duration
	Now         func() time.Time
	Logger      *logging.Logger

	mu         sync.Mutex
	byEndpoint map[string]*CircuitBreaker
}

// NewBreakers opens an endpoint's circuit after maxFailures consecutive
// failures and retries it after cooldown.
func NewBreakers(maxFailures int, cooldown time.Duration, log *logging.Logger) *Breakers {
	return &Breakers{MaxFailures: maxFailures, Cooldown: cooldown, Now: time.Now, Logger: log}
}

// For returns the breaker of endpoint, creating it on first use.
func (b *Breakers) For(endpoint string) *CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.byEndpoint == nil {
		b.byEndpoint = make(map[string]*CircuitBreaker)
	}
	if cb, ok := b.byEndpoint[endpoint]; ok {
		return cb
	}

	now := b.Now
	if now == nil {
		now = time.Now
	}
	max := b.MaxFailures
	if max <= 0 {
		max = 3
	}
	cb := &CircuitBreaker{
		name:        endpoint,
		maxFailures: max,
		cooldown:    b.Cooldown,
		now:         now,
		log:         b.Logger,
	}
	b.byEndpoint[endpoint] = cb
	return cb
}

// States reports every known endpoint's state.
func (b *Breakers) States() map[string]CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]CircuitState, len(b.byEndpoint))
	for name, cb := range b.byEndpoint {
		out[name] = cb.State()
	}
	return out
}
