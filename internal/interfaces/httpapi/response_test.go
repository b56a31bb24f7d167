package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/domain/registration"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
	"github.com/ausmasters/carnivalhub/internal/usecase"
)

func TestWriteSuccess_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if got, _ := body["success"].(bool); !got {
		t.Fatalf("expected success=true, got %v", body["success"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
}

func TestWriteError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body errorEnvelope
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if body.Success {
		t.Fatalf("expected success=false")
	}
	if body.ErrorKind != kindValidation {
		t.Fatalf("expected kind %q, got %q", kindValidation, body.ErrorKind)
	}
}

func TestWriteError_MasksUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}

	var body errorEnvelope
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if body.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", body.Message)
	}
	if body.ErrorKind != kindInternal {
		t.Fatalf("expected kind %q, got %q", kindInternal, body.ErrorKind)
	}
}

func TestMapError_DomainStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"unauthorized", usecase.ErrUnauthorized, http.StatusForbidden, kindNotAuthorized},
		{"not found", usecase.ErrNotFound, http.StatusNotFound, kindNotFound},
		{"duplicate registration", registration.ErrDuplicateActive, http.StatusConflict, kindDuplicateActive},
		{"capacity", registration.ErrCapacityExceeded, http.StatusConflict, kindCapacityExceeded},
		{"closed", carnival.ErrRegistrationClosed, http.StatusConflict, kindRegistrationClosed},
		{"claimed", carnival.ErrAlreadyClaimed, http.StatusConflict, kindAlreadyClaimed},
		{"transition", registration.ErrIllegalTransition, http.StatusConflict, kindIllegalTransition},
		{"credentials", user.ErrInvalidCredentials, http.StatusUnauthorized, kindInvalidCredentials},
		{"session", user.ErrInvalidSessionToken, http.StatusUnauthorized, kindInvalidOrExpired},
		{"rate limited", usecase.ErrRateLimited, http.StatusTooManyRequests, kindRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapError(context.Background(), fmt.Errorf("wrapped: %w", tt.err))
			if mapped.HTTPStatus != tt.status || mapped.Kind != tt.kind {
				t.Fatalf("mapError(%v)=%+v, want status %d kind %q", tt.err, mapped, tt.status, tt.kind)
			}
		})
	}
}
