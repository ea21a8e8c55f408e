package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserAuth is the secrets-included read of a user record. It exists only
// for the auth flows; everything client-facing uses PublicUser,
// UserProfile or AdminUserRow, which cannot carry the secret columns at
// all. Keeping the two reads as distinct types makes the confidentiality
// boundary a compile-time guarantee rather than a field-selection flag.
type UserAuth struct {
	ID                   uuid.UUID
	Name                 string
	Email                string
	Role                 string
	IsActive             bool
	PasswordHash         string
	ResetPasswordToken   *string
	ResetPasswordExpires *time.Time
	Points               int
	Badges               []string
	LastLogin            *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PublicUser is the projection returned by register and login.
type PublicUser struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// UserProfile is the projection returned by the /me endpoint.
type UserProfile struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	Points int       `json:"points"`
	Badges []string  `json:"badges"`
}

// AdminUserRow is the projection the admin user listing returns.
type AdminUserRow struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	Points    int       `json:"points"`
	Badges    []string  `json:"badges"`
	CreatedAt time.Time `json:"createdAt"`
}

// Claims is the session token payload: identity plus role, alongside
// the registered issued-at/expiry/issuer claims.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
