package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/ausmasters/carnivalhub/internal/domain/carnival"
	"github.com/ausmasters/carnivalhub/internal/domain/club"
	"github.com/ausmasters/carnivalhub/internal/domain/registration"
	"github.com/ausmasters/carnivalhub/internal/domain/roster"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
	"github.com/ausmasters/carnivalhub/internal/usecase"
)

// Error kinds carried in the failure envelope. Clients branch on the kind,
// never on the message.
const (
	kindValidation            = "Validation"
	kindNotAuthorized         = "NotAuthorized"
	kindNotFound              = "NotFound"
	kindDuplicateActive       = "DuplicateActiveRegistration"
	kindDuplicateEmail        = "DuplicateEmail"
	kindInvalidCredentials    = "InvalidCredentials"
	kindInvalidOrExpired      = "InvalidOrExpiredToken"
	kindIllegalTransition     = "IllegalTransition"
	kindCapacityExceeded      = "CapacityExceeded"
	kindRegistrationClosed    = "RegistrationClosed"
	kindPaidCannotWithdraw    = "PaidCannotWithdraw"
	kindAlreadyClaimed        = "AlreadyClaimed"
	kindRateLimited           = "RateLimited"
	kindDependencyUnavailable = "DependencyUnavailable"
	kindInternal              = "Internal"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorEnvelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ErrorKind string `json:"errorKind"`
}

type mappedError struct {
	HTTPStatus int
	Kind       string
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	ctx, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(ctx, w, status, successEnvelope{Success: true, Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	if mapped.Kind == kindInternal {
		writeInternalError(ctx, w)
		return
	}
	writeJSON(ctx, w, mapped.HTTPStatus, errorEnvelope{
		Success:   false,
		Message:   err.Error(),
		ErrorKind: mapped.Kind,
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	ctx, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	writeJSON(ctx, w, http.StatusInternalServerError, errorEnvelope{
		Success:   false,
		Message:   "internal server error",
		ErrorKind: kindInternal,
	})
}

func mapError(ctx context.Context, err error) mappedError {
	ctx, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	switch {
	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, registration.ErrPlayerWrongClub),
		errors.Is(err, roster.ErrAgeOutOfRange),
		errors.Is(err, club.ErrDuplicateName):
		return mappedError{HTTPStatus: http.StatusBadRequest, Kind: kindValidation}
	case errors.Is(err, user.ErrInvalidCredentials):
		return mappedError{HTTPStatus: http.StatusUnauthorized, Kind: kindInvalidCredentials}
	case errors.Is(err, user.ErrInvalidInviteToken),
		errors.Is(err, user.ErrInvalidSessionToken):
		return mappedError{HTTPStatus: http.StatusUnauthorized, Kind: kindInvalidOrExpired}
	case errors.Is(err, usecase.ErrUnauthorized):
		return mappedError{HTTPStatus: http.StatusForbidden, Kind: kindNotAuthorized}
	case errors.Is(err, usecase.ErrNotFound):
		return mappedError{HTTPStatus: http.StatusNotFound, Kind: kindNotFound}
	case errors.Is(err, registration.ErrDuplicateActive):
		return mappedError{HTTPStatus: http.StatusConflict, Kind: kindDuplicateActive}
	case errors.Is(err, user.ErrDuplicateEmail),
		errors.Is(err, roster.ErrDuplicateEmail):
		return mappedError{HTTPStatus: http.StatusConflict, Kind: kindDuplicateEmail}
	case errors.Is(err, registration.ErrIllegalTransition),
		errors.Is(err, registration.ErrDuplicateAssignment),
		errors.Is(err, user.ErrTargetAlreadyPrimary):
		return mappedError{HTTPStatus: http.StatusConflict, Kind: kindIllegalTransition}
	case errors.Is(err, registration.ErrCapacityExceeded):
		return mappedError{HTTPStatus: http.StatusConflict, Kind: kindCapacityExceeded}
	case errors.Is(err, carnival.ErrRegistrationClosed):
		return mappedError{HTTPStatus: http.StatusConflict, Kind: kindRegistrationClosed}
	case errors.Is(err, registration.ErrPaidCannotWithdraw):
		return mappedError{HTTPStatus: http.StatusConflict, Kind: kindPaidCannotWithdraw}
	case errors.Is(err, carnival.ErrAlreadyClaimed):
		return mappedError{HTTPStatus: http.StatusConflict, Kind: kindAlreadyClaimed}
	case errors.Is(err, usecase.ErrRateLimited):
		return mappedError{HTTPStatus: http.StatusTooManyRequests, Kind: kindRateLimited}
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return mappedError{HTTPStatus: http.StatusServiceUnavailable, Kind: kindDependencyUnavailable}
	default:
		return mappedError{HTTPStatus: http.StatusInternalServerError, Kind: kindInternal}
	}
}
