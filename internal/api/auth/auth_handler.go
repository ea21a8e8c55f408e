package auth

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
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
	ForgotPassword(w http.ResponseWriter, r *http.Request)
	ValidateResetToken(w http.ResponseWriter, r *http.Request)
	ResetPassword(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
}

func NewHandlerImpl(authService AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		authService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary      Register
// @Description  Creates a user account and returns the profile plus a session token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body RegisterRequest true "Registration fields"
// @Success      201 {object} AuthResponse
// @Failure      400 {object} types.Response "Missing fields"
// @Failure      409 {object} types.Response "Email already registered"
// @Router       /auth/register [post]
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Register"))

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	user, token, err := h.authService.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			api.ErrorResponse(w, r, http.StatusConflict, "Email already registered")
			return
		}
		l.ErrorContext(ctx, "Registration failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to register user")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, AuthResponse{User: user, Token: token})
}

// Login godoc
// @Summary      Login
// @Description  Authenticates by email and password and returns a session token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body LoginRequest true "Credentials"
// @Success      200 {object} AuthResponse
// @Failure      400 {object} types.Response "Missing fields"
// @Failure      401 {object} types.Response "Invalid credentials"
// @Router       /auth/login [post]
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, types.ErrUnauthenticated) {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to login")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, AuthResponse{User: user, Token: token})
}

// Me godoc
// @Summary      Current user profile
// @Description  Returns the authenticated user's profile.
// @Tags         Auth
// @Produce      json
// @Success      200 {object} types.UserProfile
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "User not found"
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *HandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Me"))

	userIDStr, ok := GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token subject")
		return
	}

	profile, err := h.authService.GetMe(ctx, userID)
	if err != nil {
		// The token can outlive the record it was issued for.
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
			return
		}
		l.ErrorContext(ctx, "Failed to fetch profile", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve profile")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// ForgotPassword godoc
// @Summary      Request password reset
// @Description  Sends a reset link if the email is registered. The response is identical either way.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body ForgotPasswordRequest true "Account email"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response "Missing email"
// @Router       /auth/forgot-password [post]
func (h *HandlerImpl) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "ForgotPassword"))

	var req ForgotPasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.authService.ForgotPassword(ctx, req.Email); err != nil {
		l.ErrorContext(ctx, "Forgot password failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to process request")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "If that email exists, a reset link was sent",
	})
}

// ValidateResetToken godoc
// @Summary      Validate reset token
// @Description  Checks whether a password-reset token is still valid without consuming it.
// @Tags         Auth
// @Produce      json
// @Param        token path string true "Reset token"
// @Success      200 {object} ValidateResetTokenResponse
// @Failure      400 {object} types.Response "Invalid or expired token"
// @Router       /auth/reset-password/{token} [get]
func (h *HandlerImpl) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")

	if err := h.authService.ValidateResetToken(ctx, token); err != nil {
		if errors.Is(err, types.ErrInvalidResetToken) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		h.logger.ErrorContext(ctx, "Reset token validation failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to validate token")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, ValidateResetTokenResponse{Valid: true})
}

// ResetPassword godoc
// @Summary      Reset password
// @Description  Consumes a reset token and installs a new password.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        token path string true "Reset token"
// @Param        body body ResetPasswordRequest true "New password"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response "Invalid token or missing password"
// @Router       /auth/reset-password/{token} [post]
func (h *HandlerImpl) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "ResetPassword"))
	token := chi.URLParam(r, "token")

	var req ResetPasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Password is required")
		return
	}

	if err := h.authService.ResetPassword(ctx, token, req.Password); err != nil {
		if errors.Is(err, types.ErrInvalidResetToken) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		l.ErrorContext(ctx, "Password reset failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Password reset successful",
	})
}
