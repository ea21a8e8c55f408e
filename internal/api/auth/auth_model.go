package auth

import "github.com/ecostep/walk-and-win/internal/types"

// RegisterRequest is the register request body.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login: the public user
// projection plus a bearer token.
type AuthResponse struct {
	User  *types.PublicUser `json:"user"`
	Token string            `json:"token"`
}

// ForgotPasswordRequest is the forgot-password request body.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the reset-password request body.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// ValidateResetTokenResponse acknowledges a still-valid reset token.
type ValidateResetTokenResponse struct {
	Valid bool `json:"valid"`
}
