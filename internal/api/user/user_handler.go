package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ecostep/walk-and-win/internal/api"
	"github.com/ecostep/walk-and-win/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ListUsers(w http.ResponseWriter, r *http.Request)
	ToggleActive(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers godoc
// @Summary      List users
// @Description  Admin-only listing of all user accounts.
// @Tags         Users
// @Produce      json
// @Success      200 {array} types.AdminUserRow
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Admin access required"
// @Security     BearerAuth
// @Router       /users [get]
func (h *HandlerImpl) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.userService.ListUsers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list users", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list users")
		return
	}
	if users == nil {
		users = []types.AdminUserRow{}
	}

	api.WriteJSONResponse(w, r, http.StatusOK, users)
}

// ToggleActive godoc
// @Summary      Toggle user active flag
// @Description  Admin-only flip of a user's isActive flag.
// @Tags         Users
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} map[string]interface{}
// @Failure      404 {object} types.Response "User not found"
// @Security     BearerAuth
// @Router       /users/{id}/toggle [patch]
func (h *HandlerImpl) ToggleActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "ToggleActive"))

	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	isActive, err := h.userService.ToggleActive(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
			return
		}
		l.ErrorContext(ctx, "Failed to toggle user", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to toggle user")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"id":       userID,
		"isActive": isActive,
	})
}
