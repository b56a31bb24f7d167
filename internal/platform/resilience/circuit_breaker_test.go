package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewCircuitBreaker(3, 10*time.Second)
	current := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("call %d should be allowed: %v", i, err)
		}
		b.RecordFailure()
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if got := b.State(); got != StateOpen {
		t.Fatalf("expected open state, got %s", got)
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := NewCircuitBreaker(1, 10*time.Second)
	current := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return current }

	_ = b.Allow()
	b.RecordFailure()

	current = current.Add(11 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("probe should be allowed: %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatal("second call during probe should be rejected")
	}

	b.RecordSuccess()
	if got := b.State(); got != StateClosed {
		t.Fatalf("expected closed after successful probe, got %s", got)
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("closed breaker should allow: %v", err)
	}
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	b := NewCircuitBreaker(1, 10*time.Second)
	current := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return current }

	_ = b.Allow()
	b.RecordFailure()
	current = current.Add(11 * time.Second)
	_ = b.Allow()
	b.RecordFailure()

	if got := b.State(); got != StateOpen {
		t.Fatalf("expected reopened breaker, got %s", got)
	}
}
