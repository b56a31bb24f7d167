package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/ausmasters/carnivalhub/internal/domain/registration"
	"github.com/ausmasters/carnivalhub/internal/usecase"
)

func (h *Handler) AttachPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AttachPlayers")
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

	var req attachPlayersRequest
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

	added, err := h.assignmentService.AttachPlayers(ctx, principal.UserID, registrationID, req.PlayerIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "attach players failed", "user_id", principal.UserID, "registration_id", registrationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, attachPlayersResponse{
		Requested: len(req.PlayerIDs),
		Added:     added,
	})
}

func (h *Handler) DetachPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DetachPlayer")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	assignmentID, err := parseIDPathValue(r, "assignmentID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.assignmentService.DetachPlayer(ctx, principal.UserID, assignmentID); err != nil {
		h.logger.WarnContext(ctx, "detach player failed", "user_id", principal.UserID, "assignment_id", assignmentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"detached": true})
}

func (h *Handler) SetAttendance(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetAttendance")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	assignmentID, err := parseIDPathValue(r, "assignmentID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req setAttendanceRequest
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

	status, err := registration.ParseAttendanceStatus(req.AttendanceStatus)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %s", usecase.ErrInvalidInput, err))
		return
	}

	updated, err := h.assignmentService.SetAttendance(ctx, principal.UserID, assignmentID, status, req.Notes)
	if err != nil {
		h.logger.WarnContext(ctx, "set attendance failed", "user_id", principal.UserID, "assignment_id", assignmentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, assignmentToDTO(ctx, updated))
}

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAssignments")
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

	assignments, err := h.assignmentService.ListAssignments(ctx, principal.UserID, registrationID)
	if err != nil {
		h.logger.WarnContext(ctx, "list assignments failed", "user_id", principal.UserID, "registration_id", registrationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]assignmentDTO, 0, len(assignments))
	for _, a := range assignments {
		items = append(items, assignmentToDTO(ctx, a))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetAttendanceSummary")
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

	counts, err := h.assignmentService.AttendanceSummary(ctx, principal.UserID, registrationID)
	if err != nil {
		h.logger.WarnContext(ctx, "attendance summary failed", "user_id", principal.UserID, "registration_id", registrationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, attendanceCountsDTO{
		Confirmed:   counts.Confirmed,
		Tentative:   counts.Tentative,
		Unavailable: counts.Unavailable,
		Total:       counts.Total,
	})
}

type attachPlayersRequest struct {
	PlayerIDs []int64 `json:"playerIds" validate:"required,min=1,dive,min=1"`
}

type attachPlayersResponse struct {
	Requested int `json:"requested"`
	Added     int `json:"added"`
}

type setAttendanceRequest struct {
	AttendanceStatus string `json:"attendanceStatus" validate:"required"`
	Notes            string `json:"notes" validate:"max=1000"`
}
