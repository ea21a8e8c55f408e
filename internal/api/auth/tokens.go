package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ecostep/walk-and-win/config"
	"github.com/ecostep/walk-and-win/internal/types"
)

// resetTokenBytes gives 256 bits of entropy per reset token.
const resetTokenBytes = 32

// TokenIssuer creates and validates signed session tokens. The secret
// is fixed at construction; rotating it invalidates every outstanding
// token, which is the accepted tradeoff for not keeping a revocation
// list.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewTokenIssuer(cfg config.JWTConfig) *TokenIssuer {
	if cfg.SecretKey == "" {
		panic("JWT secret key cannot be empty")
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenIssuer{
		secret: []byte(cfg.SecretKey),
		ttl:    ttl,
		issuer: cfg.Issuer,
	}
}

// Issue signs a self-contained token embedding id, email and role.
func (t *TokenIssuer) Issue(userID uuid.UUID, email, role string) (string, error) {
	now := time.Now()
	claims := &types.Claims{
		UserID: userID.String(),
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token. Malformed tokens, bad
// signatures and elapsed expiries all collapse into ErrUnauthenticated.
func (t *TokenIssuer) Verify(tokenString string) (*types.Claims, error) {
	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w: %w", types.ErrUnauthenticated, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", types.ErrUnauthenticated)
	}
	if t.issuer != "" && claims.Issuer != t.issuer {
		return nil, fmt.Errorf("token issuer mismatch: %w", types.ErrUnauthenticated)
	}
	return claims, nil
}

// NewResetToken returns a cryptographically random, hex-encoded
// password-reset token.
func NewResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
