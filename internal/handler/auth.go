package handler

import (
	"log/slog"
	"net/http"

	"github.com/userdesk/userdesk/internal/handler/dto"
	"github.com/userdesk/userdesk/internal/service"
)

// AuthHandler issues access tokens.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Login handles POST /api/auth.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	result, err := h.svc.Login(r.Context(), service.LoginInput{Email: req.Email})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.logger.Info("login_succeeded",
		slog.String("user_id", result.User.ID.String()),
		slog.Time("expires_at", result.ExpiresAt),
	)

	writeJSON(w, http.StatusOK, dto.ToLoginResponse(result))
}
