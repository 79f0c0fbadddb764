package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/userdesk/userdesk/internal/auth"
	"github.com/userdesk/userdesk/internal/handler/dto"
	"github.com/userdesk/userdesk/internal/service"
)

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.GetAll(r.Context())
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserListResponse(users))
}

// Get handles GET /api/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	user, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// Create handles POST /api/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.UserRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	user, err := h.svc.Save(r.Context(), req.ToSaveInput())
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user_created",
		slog.String("user_id", user.ID.String()),
		slog.String("actor_id", auth.UserIDFromContext(r.Context())),
	)

	w.Header().Set("Location", "/api/users/"+user.ID.String())
	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Update handles PUT /api/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	var req dto.UserRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	user, err := h.svc.Update(r.Context(), id, req.ToUpdateInput())
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user_updated",
		slog.String("user_id", user.ID.String()),
		slog.String("actor_id", auth.UserIDFromContext(r.Context())),
	)

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// Delete handles DELETE /api/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user_deleted",
		slog.String("user_id", id.String()),
		slog.String("actor_id", auth.UserIDFromContext(r.Context())),
	)

	w.WriteHeader(http.StatusOK)
}
