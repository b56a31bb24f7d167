package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinTTL(t *testing.T) {
	limiter := New(time.Minute)
	current := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	if !limiter.Allow("203.0.113.9") {
		t.Fatal("first hit should be allowed")
	}
	if limiter.Allow("203.0.113.9") {
		t.Fatal("second hit inside TTL should be blocked")
	}
	if !limiter.Allow("203.0.113.10") {
		t.Fatal("different IP should be allowed")
	}

	current = current.Add(61 * time.Second)
	if !limiter.Allow("203.0.113.9") {
		t.Fatal("hit after TTL should be allowed")
	}
}

func TestEmptyIPAlwaysAllowed(t *testing.T) {
	limiter := New(time.Minute)
	for i := 0; i < 3; i++ {
		if !limiter.Allow("") {
			t.Fatal("empty IP must not be limited")
		}
	}
}
