package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/ausmasters/carnivalhub/internal/usecase"
)

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Subscribe")
	defer span.End()

	var req subscribeRequest
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

	clientIP := resolveClientIP(r)
	saved, err := h.subscriptionService.Subscribe(ctx, clientIP, req.Email, req.StateCodes)
	if err != nil {
		h.logger.WarnContext(ctx, "subscribe failed", "client_ip", clientIP, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, subscriptionToDTO(ctx, saved))
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Unsubscribe")
	defer span.End()

	token := strings.TrimSpace(r.PathValue("token"))
	if err := h.subscriptionService.Unsubscribe(ctx, token); err != nil {
		h.logger.WarnContext(ctx, "unsubscribe failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"unsubscribed": true})
}

type subscribeRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	StateCodes []string `json:"stateCodes" validate:"required,min=1,max=8,dive,len=2|len=3"`
}
