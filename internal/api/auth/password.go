package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ecostep/walk-and-win/internal/types"
)

// DefaultBcryptCost matches the work factor the mobile backend has
// always used for stored hashes.
const DefaultBcryptCost = 10

// Hasher performs one-way salted password hashing and verification.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// Verify compares a plaintext password against a stored hash. A
// mismatch surfaces as ErrUnauthenticated; an unreadable stored hash
// surfaces as ErrCorruptHash so callers can alert instead of returning
// a misleading 401.
func (h *Hasher) Verify(plain, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return fmt.Errorf("password mismatch: %w", types.ErrUnauthenticated)
	default:
		return fmt.Errorf("unreadable password hash: %w", types.ErrCorruptHash)
	}
}
