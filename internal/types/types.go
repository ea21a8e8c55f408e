package types

import "errors"

// Sentinel domain errors. Services wrap these with context via
// fmt.Errorf("...: %w", err); handlers map them to HTTP statuses with
// errors.Is so the client-facing message stays stable.
var (
	ErrNotFound          = errors.New("requested item not found")
	ErrConflict          = errors.New("item already exists or conflict")
	ErrUnauthenticated   = errors.New("authentication required or invalid credentials")
	ErrForbidden         = errors.New("action forbidden")
	ErrBadRequest        = errors.New("invalid input")
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrCorruptHash means a stored password hash is unreadable. This is
	// fatal for that record and worth an operator alert, never a 401.
	ErrCorruptHash = errors.New("stored credential is corrupt")
)

// Response is the generic envelope for simple success/error messages.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
