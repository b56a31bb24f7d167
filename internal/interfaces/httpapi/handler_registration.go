package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/ausmasters/carnivalhub/internal/usecase"
)

func (h *Handler) RegisterClub(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RegisterClub")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	carnivalID, err := parseIDPathValue(r, "carnivalID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req registerClubRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.registrationService.Register(ctx, carnivalID, principal.UserID, req.toInput())
	if err != nil {
		h.logger.WarnContext(ctx, "register club failed", "user_id", principal.UserID, "carnival_id", carnivalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, registrationToDTO(ctx, created))
}

func (h *Handler) HostAddClub(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.HostAddClub")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	carnivalID, err := parseIDPathValue(r, "carnivalID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req hostAddClubRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.registrationService.HostAddClub(ctx, carnivalID, principal.UserID, req.ClubID, req.toInput())
	if err != nil {
		h.logger.WarnContext(ctx, "host add club failed", "user_id", principal.UserID, "carnival_id", carnivalID, "club_id", req.ClubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, registrationToDTO(ctx, created))
}

func (h *Handler) ListRegistrationsByCarnival(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRegistrationsByCarnival")
	defer span.End()

	carnivalID, err := parseIDPathValue(r, "carnivalID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	registrations, err := h.registrationService.ListByCarnival(ctx, carnivalID)
	if err != nil {
		h.logger.WarnContext(ctx, "list registrations failed", "carnival_id", carnivalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]registrationDTO, 0, len(registrations))
	for _, reg := range registrations {
		items = append(items, registrationToDTO(ctx, reg))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ApproveRegistration(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApproveRegistration")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	registrationID, err := parseIDPathValue(r, "registrationID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	approved, err := h.registrationService.Approve(ctx, registrationID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "approve registration failed", "user_id", principal.UserID, "registration_id", registrationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, registrationToDTO(ctx, approved))
}

func (h *Handler) RejectRegistration(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RejectRegistration")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	registrationID, err := parseIDPathValue(r, "registrationID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req rejectRegistrationRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	rejected, err := h.registrationService.Reject(ctx, registrationID, principal.UserID, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "reject registration failed", "user_id", principal.UserID, "registration_id", registrationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, registrationToDTO(ctx, rejected))
}

func (h *Handler) ResubmitRegistration(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResubmitRegistration")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	registrationID, err := parseIDPathValue(r, "registrationID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	resubmitted, err := h.registrationService.Resubmit(ctx, registrationID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "resubmit registration failed", "user_id", principal.UserID, "registration_id", registrationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, registrationToDTO(ctx, resubmitted))
}

func (h *Handler) WithdrawRegistration(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WithdrawRegistration")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	registrationID, err := parseIDPathValue(r, "registrationID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.registrationService.Withdraw(ctx, registrationID, principal.UserID); err != nil {
		h.logger.WarnContext(ctx, "withdraw registration failed", "user_id", principal.UserID, "registration_id", registrationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"withdrawn": true})
}

func (h *Handler) ReorderRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReorderRegistrations")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	carnivalID, err := parseIDPathValue(r, "carnivalID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req reorderRegistrationsRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.registrationService.Reorder(ctx, carnivalID, principal.UserID, req.OrderedIDs); err != nil {
		h.logger.WarnContext(ctx, "reorder registrations failed", "user_id", principal.UserID, "carnival_id", carnivalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"reordered": true})
}

type registerClubRequest struct {
	TeamName            string `json:"teamName" validate:"max=200"`
	PlayerCount         int    `json:"playerCount" validate:"min=0,max=100"`
	ContactName         string `json:"contactName" validate:"max=200"`
	ContactEmail        string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone        string `json:"contactPhone" validate:"max=30"`
	SpecialRequirements string `json:"specialRequirements" validate:"max=1000"`
	Notes               string `json:"notes" validate:"max=1000"`
}

type hostAddClubRequest struct {
	ClubID              int64  `json:"clubId" validate:"required,min=1"`
	TeamName            string `json:"teamName" validate:"max=200"`
	PlayerCount         int    `json:"playerCount" validate:"min=0,max=100"`
	ContactName         string `json:"contactName" validate:"max=200"`
	ContactEmail        string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone        string `json:"contactPhone" validate:"max=30"`
	SpecialRequirements string `json:"specialRequirements" validate:"max=1000"`
	Notes               string `json:"notes" validate:"max=1000"`
}

type rejectRegistrationRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type reorderRegistrationsRequest struct {
	OrderedIDs []int64 `json:"orderedIds" validate:"required,min=1,dive,min=1"`
}

func (req registerClubRequest) toInput() usecase.RegisterClubInput {
	return usecase.RegisterClubInput{
		TeamName:            req.TeamName,
		PlayerCount:         req.PlayerCount,
		ContactName:         req.ContactName,
		ContactEmail:        req.ContactEmail,
		ContactPhone:        req.ContactPhone,
		SpecialRequirements: req.SpecialRequirements,
		Notes:               req.Notes,
	}
}

func (req hostAddClubRequest) toInput() usecase.RegisterClubInput {
	return usecase.RegisterClubInput{
		TeamName:            req.TeamName,
		PlayerCount:         req.PlayerCount,
		ContactName:         req.ContactName,
		ContactEmail:        req.ContactEmail,
		ContactPhone:        req.ContactPhone,
		SpecialRequirements: req.SpecialRequirements,
		Notes:               req.Notes,
	}
}
