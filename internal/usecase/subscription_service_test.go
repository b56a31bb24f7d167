package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/ausmasters/carnivalhub/internal/platform/ratelimit"
)

func TestSubscriptionService_Subscribe(t *testing.T) {
	st := newStores()
	svc := st.subscriptionService(nil)

	sub, err := svc.Subscribe(t.Context(), "203.0.113.1", " Fan@Example.Test ", []string{"NSW", "QLD"})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if sub.Email != "fan@example.test" {
		t.Fatalf("expected normalized email, got %s", sub.Email)
	}
	if !sub.IsActive || sub.UnsubscribeToken == "" {
		t.Fatalf("expected active subscription with token, got %+v", sub)
	}

	listed, err := st.subscriptions.ListActiveByState(t.Context(), "QLD")
	if err != nil {
		t.Fatalf("list by state: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 QLD subscriber, got %d", len(listed))
	}
}

func TestSubscriptionService_SubscribeInvalidState(t *testing.T) {
	st := newStores()
	svc := st.subscriptionService(nil)

	if _, err := svc.Subscribe(t.Context(), "", "fan@example.test", []string{"NSW", "ZZ"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Subscribe(t.Context(), "", "fan@example.test", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty states, got %v", err)
	}
}

func TestSubscriptionService_ResubscribeReplacesStates(t *testing.T) {
	st := newStores()
	svc := st.subscriptionService(nil)

	first, err := svc.Subscribe(t.Context(), "", "fan@example.test", []string{"NSW"})
	if err != nil {
		t.Fatalf("first subscribe failed: %v", err)
	}
	second, err := svc.Subscribe(t.Context(), "", "fan@example.test", []string{"WA"})
	if err != nil {
		t.Fatalf("second subscribe failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("resubscribe should reuse row %d, got %d", first.ID, second.ID)
	}

	if listed, _ := st.subscriptions.ListActiveByState(t.Context(), "NSW"); len(listed) != 0 {
		t.Fatalf("old state should be replaced, got %d NSW subscribers", len(listed))
	}
	if listed, _ := st.subscriptions.ListActiveByState(t.Context(), "WA"); len(listed) != 1 {
		t.Fatalf("expected 1 WA subscriber, got %d", len(listed))
	}
}

func TestSubscriptionService_Unsubscribe(t *testing.T) {
	st := newStores()
	svc := st.subscriptionService(nil)

	sub, err := svc.Subscribe(t.Context(), "", "fan@example.test", []string{"NSW"})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	if err := svc.Unsubscribe(t.Context(), sub.UnsubscribeToken); err != nil {
		t.Fatalf("unsubscribe failed: %v", err)
	}
	if listed, _ := st.subscriptions.ListActiveByState(t.Context(), "NSW"); len(listed) != 0 {
		t.Fatalf("expected no active subscribers, got %d", len(listed))
	}

	// Repeating the same link is a quiet success.
	if err := svc.Unsubscribe(t.Context(), sub.UnsubscribeToken); err != nil {
		t.Fatalf("repeat unsubscribe should succeed: %v", err)
	}

	if err := svc.Unsubscribe(t.Context(), "no-such-token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Subscribing again reactivates the same row with a fresh token.
	again, err := svc.Subscribe(t.Context(), "", "fan@example.test", []string{"NSW"})
	if err != nil {
		t.Fatalf("resubscribe failed: %v", err)
	}
	if again.ID != sub.ID || !again.IsActive {
		t.Fatalf("expected reactivated row, got %+v", again)
	}
	if again.UnsubscribeToken == sub.UnsubscribeToken {
		t.Fatalf("expected a fresh unsubscribe token")
	}
}

func TestSubscriptionService_RateLimit(t *testing.T) {
	st := newStores()
	svc := st.subscriptionService(ratelimit.New(time.Hour))

	if _, err := svc.Subscribe(t.Context(), "203.0.113.9", "one@example.test", []string{"NSW"}); err != nil {
		t.Fatalf("first subscribe failed: %v", err)
	}
	if _, err := svc.Subscribe(t.Context(), "203.0.113.9", "two@example.test", []string{"NSW"}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	// A different client is unaffected.
	if _, err := svc.Subscribe(t.Context(), "203.0.113.10", "two@example.test", []string{"NSW"}); err != nil {
		t.Fatalf("other client blocked: %v", err)
	}
}
