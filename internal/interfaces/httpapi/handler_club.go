package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/ausmasters/carnivalhub/internal/usecase"
)

func (h *Handler) ListClubs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListClubs")
	defer span.End()

	clubs, err := h.membershipService.ListPublicClubs(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list clubs failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]clubDTO, 0, len(clubs))
	for _, c := range clubs {
		items = append(items, clubToDTO(ctx, c))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetClub(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetClub")
	defer span.End()

	clubID, err := parseIDPathValue(r, "clubID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	c, err := h.membershipService.GetClub(ctx, clubID)
	if err != nil {
		h.logger.WarnContext(ctx, "get club failed", "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, clubToDTO(ctx, c))
}

func (h *Handler) CreateClub(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateClub")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req createClubRequest
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

	created, err := h.membershipService.CreateClub(ctx, principal.UserID, usecase.CreateClubInput{
		Name:             req.Name,
		StateCode:        req.StateCode,
		Location:         req.Location,
		ContactPerson:    req.ContactPerson,
		ContactEmail:     req.ContactEmail,
		ContactPhone:     req.ContactPhone,
		IsPubliclyListed: req.IsPubliclyListed,
		IsProxy:          req.IsProxy,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create club failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, clubToDTO(ctx, created))
}

func (h *Handler) UpdateClub(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateClub")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	clubID, err := parseIDPathValue(r, "clubID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req updateClubRequest
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

	existing, err := h.membershipService.GetClub(ctx, clubID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	updated := existing
	updated.Name = req.Name
	updated.StateCode = req.StateCode
	updated.Location = req.Location
	updated.ContactPerson = req.ContactPerson
	updated.ContactEmail = req.ContactEmail
	updated.ContactPhone = req.ContactPhone
	updated.LogoURL = req.LogoURL
	updated.AlternateNames = req.AlternateNames
	updated.IsPubliclyListed = req.IsPubliclyListed
	updated.IsActive = req.IsActive

	saved, err := h.membershipService.UpdateClub(ctx, principal.UserID, updated)
	if err != nil {
		h.logger.WarnContext(ctx, "update club failed", "user_id", principal.UserID, "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, clubToDTO(ctx, saved))
}

type createClubRequest struct {
	Name             string `json:"name" validate:"required,max=200"`
	StateCode        string `json:"stateCode" validate:"required,len=2|len=3"`
	Location         string `json:"location" validate:"max=300"`
	ContactPerson    string `json:"contactPerson" validate:"max=200"`
	ContactEmail     string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone     string `json:"contactPhone" validate:"max=30"`
	IsPubliclyListed bool   `json:"isPubliclyListed"`
	IsProxy          bool   `json:"isProxy"`
}

type updateClubRequest struct {
	Name             string   `json:"name" validate:"required,max=200"`
	StateCode        string   `json:"stateCode" validate:"required,len=2|len=3"`
	Location         string   `json:"location" validate:"max=300"`
	ContactPerson    string   `json:"contactPerson" validate:"max=200"`
	ContactEmail     string   `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone     string   `json:"contactPhone" validate:"max=30"`
	LogoURL          string   `json:"logoUrl" validate:"omitempty,url"`
	AlternateNames   []string `json:"alternateNames" validate:"max=20,dive,max=200"`
	IsPubliclyListed bool     `json:"isPubliclyListed"`
	IsActive         bool     `json:"isActive"`
}
