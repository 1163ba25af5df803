package client

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreakers(2, 30*time.Second, nil)
	b.Now = func() time.Time { return now }
	cb := b.For("http://a")

	fail := errors.New("down")
	_ = cb.Execute(func() error { return fail })
	if cb.State() != StateClosed {
		t.Fatalf("one failure should not open, state = %s", cb.State())
	}
	_ = cb.Execute(func() error { return fail })
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	called := false
	if err := cb.Execute(func() error { called = true; return nil }); !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("open circuit must skip the call, err = %v", err)
	}

	now = now.Add(31 * time.Second)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe after cooldown: %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("successful probe should close, got %s", cb.State())
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreakers(1, time.Minute, nil)
	b.Now = func() time.Time { return now }
	cb := b.For("http://a")

	_ = cb.Execute(func() error { return errors.New("down") })
	now = now.Add(2 * time.Minute)
	_ = cb.Execute(func() error { return errors.New("still down") })

	if cb.State() != StateOpen {
		t.Fatalf("failed probe should reopen, got %s", cb.State())
	}
}

func TestBreakers_PerEndpoint(t *testing.T) {
	b := NewBreakers(1, time.Minute, nil)
	_ = b.For("http://a").Execute(func() error { return errors.New("x") })

	states := b.States()
	if states["http://a"] != StateOpen {
		t.Errorf("a = %s", states["http://a"])
	}
	if b.For("http://b").State() != StateClosed {
		t.Error("b should be unaffected")
	}
	if b.For("http://a") != b.For("http://a") {
		t.Error("For must return the same breaker")
	}
}
