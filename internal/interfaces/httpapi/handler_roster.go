package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/ausmasters/carnivalhub/internal/domain/roster"
	"github.com/ausmasters/carnivalhub/internal/usecase"
)

func (h *Handler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddPlayer")
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

	var req playerRequest
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

	input, err := req.toInput()
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.rosterService.AddPlayer(ctx, principal.UserID, clubID, input)
	if err != nil {
		h.logger.WarnContext(ctx, "add player failed", "user_id", principal.UserID, "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, playerToDTO(ctx, created))
}

func (h *Handler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdatePlayer")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	playerID, err := parseIDPathValue(r, "playerID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req playerRequest
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

	input, err := req.toInput()
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.rosterService.UpdatePlayer(ctx, principal.UserID, playerID, input)
	if err != nil {
		h.logger.WarnContext(ctx, "update player failed", "user_id", principal.UserID, "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerToDTO(ctx, updated))
}

func (h *Handler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemovePlayer")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	playerID, err := parseIDPathValue(r, "playerID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.rosterService.RemovePlayer(ctx, principal.UserID, playerID); err != nil {
		h.logger.WarnContext(ctx, "remove player failed", "user_id", principal.UserID, "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"removed": true})
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayer")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	playerID, err := parseIDPathValue(r, "playerID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	p, err := h.rosterService.GetPlayer(ctx, principal.UserID, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get player failed", "user_id", principal.UserID, "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerToDTO(ctx, p))
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
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

	filter, err := rosterFilterFromQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	page, err := h.rosterService.ListPlayers(ctx, principal.UserID, clubID, filter)
	if err != nil {
		h.logger.WarnContext(ctx, "list players failed", "user_id", principal.UserID, "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerDTO, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, playerToDTO(ctx, p))
	}
	writeSuccess(ctx, w, http.StatusOK, rosterPageDTO{
		Items:    items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

func rosterFilterFromQuery(r *http.Request) (roster.ListFilter, error) {
	filter := roster.ListFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		SortBy: strings.TrimSpace(r.URL.Query().Get("sortBy")),
	}
	for name, target := range map[string]*int{
		"page":     &filter.Page,
		"pageSize": &filter.PageSize,
	} {
		raw := strings.TrimSpace(r.URL.Query().Get(name))
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return roster.ListFilter{}, fmt.Errorf("%w: invalid %s %q", usecase.ErrInvalidInput, name, raw)
		}
		*target = value
	}
	return filter, nil
}

type playerRequest struct {
	FirstName    string `json:"firstName" validate:"required,max=100"`
	LastName     string `json:"lastName" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email"`
	DateOfBirth  string `json:"dateOfBirth" validate:"required"`
	ShortsColour string `json:"shortsColour"`
	Notes        string `json:"notes" validate:"max=1000"`
}

func (req playerRequest) toInput() (usecase.PlayerInput, error) {
	dob, err := parseRequiredTime(req.DateOfBirth, "dateOfBirth")
	if err != nil {
		return usecase.PlayerInput{}, err
	}

	var colour *roster.ShortsColour
	if strings.TrimSpace(req.ShortsColour) != "" {
		parsed, err := roster.ParseShortsColour(req.ShortsColour)
		if err != nil {
			return usecase.PlayerInput{}, fmt.Errorf("%w: %s", usecase.ErrInvalidInput, err)
		}
		colour = &parsed
	}

	return usecase.PlayerInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		DateOfBirth:  dob,
		ShortsColour: colour,
		Notes:        req.Notes,
	}, nil
}
