package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/ausmasters/carnivalhub/internal/usecase"
)

func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RegisterUser")
	defer span.End()

	var req registerUserRequest
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

	created, err := h.membershipService.RegisterUser(ctx, usecase.RegisterUserInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "register user failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, userToDTO(ctx, created))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Login")
	defer span.End()

	var req loginRequest
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

	authenticated, err := h.membershipService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	token, err := h.tokenIssuer.Issue(authenticated)
	if err != nil {
		h.logger.ErrorContext(ctx, "issue session token failed", "user_id", authenticated.ID, "error", err)
		writeInternalError(ctx, w)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, loginResponse{
		Token: token,
		User:  userToDTO(ctx, authenticated),
	})
}

func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AcceptInvitation")
	defer span.End()

	var req acceptInvitationRequest
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

	activated, err := h.membershipService.AcceptInvitation(ctx, usecase.AcceptInvitationInput{
		Token:     req.Token,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "accept invitation failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	token, err := h.tokenIssuer.Issue(activated)
	if err != nil {
		h.logger.ErrorContext(ctx, "issue session token failed", "user_id", activated.ID, "error", err)
		writeInternalError(ctx, w)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, loginResponse{
		Token: token,
		User:  userToDTO(ctx, activated),
	})
}

func (h *Handler) InviteDelegate(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.InviteDelegate")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req inviteDelegateRequest
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

	invited, err := h.membershipService.InviteDelegate(ctx, principal.UserID, req.Email)
	if err != nil {
		h.logger.WarnContext(ctx, "invite delegate failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, userToDTO(ctx, invited))
}

func (h *Handler) ListDelegates(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDelegates")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	delegates, err := h.membershipService.ListDelegates(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list delegates failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]userDTO, 0, len(delegates))
	for _, d := range delegates {
		items = append(items, userToDTO(ctx, d))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) TransferPrimaryDelegate(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TransferPrimaryDelegate")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	targetID, err := parseIDPathValue(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.membershipService.TransferPrimaryDelegate(ctx, principal.UserID, targetID); err != nil {
		h.logger.WarnContext(ctx, "transfer primary delegate failed", "user_id", principal.UserID, "target_id", targetID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"transferred": true})
}

func parseIDPathValue(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid %s %q", usecase.ErrInvalidInput, name, raw)
	}
	return id, nil
}

type registerUserRequest struct {
	FirstName   string `json:"firstName" validate:"required,max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	PhoneNumber string `json:"phoneNumber" validate:"max=30"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type acceptInvitationRequest struct {
	Token     string `json:"token" validate:"required"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Password  string `json:"password" validate:"required,min=8"`
}

type inviteDelegateRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}
