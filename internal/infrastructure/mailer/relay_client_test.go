package mailer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRelayClientSend_PostsMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/v1/messages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer relay-secret" {
			t.Fatalf("unexpected authorization header: %s", got)
		}

		var msg map[string]string
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if msg["to"] != "delegate@club.example" {
			t.Fatalf("unexpected recipient: %s", msg["to"])
		}
		if msg["emailType"] != "registration_approved" {
			t.Fatalf("unexpected email type: %s", msg["emailType"])
		}

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewRelayClient(RelayClientConfig{
		BaseURL: srv.URL,
		Token:   "relay-secret",
	}, discardLogger())

	err := client.Send(context.Background(), "delegate@club.example", "Registration approved", "Your team is in.", "registration_approved")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
}

func TestRelayClientSend_NonRetryableStatusDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad recipient", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewRelayClient(RelayClientConfig{
		BaseURL:          srv.URL,
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
	}, discardLogger())

	for i := 0; i < 3; i++ {
		if err := client.Send(context.Background(), "bad@example.com", "s", "b", "test"); err == nil {
			t.Fatal("expected error for 422 response")
		}
	}

	if got := client.breaker.State(); got != "closed" {
		t.Fatalf("breaker should stay closed on client errors, got %s", got)
	}
}

func TestRelayClientSend_ServerErrorsOpenBreaker(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "relay down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewRelayClient(RelayClientConfig{
		BaseURL:          srv.URL,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	}, discardLogger())

	for i := 0; i < 2; i++ {
		if err := client.Send(context.Background(), "x@example.com", "s", "b", "test"); err == nil {
			t.Fatal("expected error for 502 response")
		}
	}

	if err := client.Send(context.Background(), "x@example.com", "s", "b", "test"); err == nil {
		t.Fatal("expected circuit breaker rejection")
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("breaker should block the third call, server saw %d requests", got)
	}
}
