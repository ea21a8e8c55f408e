package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecostep/walk-and-win/config"
	"github.com/ecostep/walk-and-win/internal/types"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey: "test-secret-key",
		TokenTTL:  time.Hour,
		Issuer:    "ecostep-api",
	}
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer(testJWTConfig())
	userID := uuid.New()

	token, err := issuer.Issue(userID, "ana@example.com", types.RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, types.RoleUser, claims.Role)
	assert.Equal(t, "ecostep-api", claims.Issuer)
}

func TestTokenIssuer_Verify_TamperedSignature(t *testing.T) {
	issuer := NewTokenIssuer(testJWTConfig())

	token, err := issuer.Issue(uuid.New(), "ana@example.com", types.RoleUser)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = issuer.Verify(tampered)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
}

func TestTokenIssuer_Verify_WrongSecret(t *testing.T) {
	issuer := NewTokenIssuer(testJWTConfig())
	other := NewTokenIssuer(config.JWTConfig{SecretKey: "a-different-secret", Issuer: "ecostep-api"})

	token, err := other.Issue(uuid.New(), "ana@example.com", types.RoleUser)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
}

func TestTokenIssuer_Verify_Expired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.TokenTTL = -time.Minute
	issuer := NewTokenIssuer(cfg)

	token, err := issuer.Issue(uuid.New(), "ana@example.com", types.RoleUser)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
}

func TestTokenIssuer_Verify_IssuerMismatch(t *testing.T) {
	issuer := NewTokenIssuer(testJWTConfig())
	foreign := NewTokenIssuer(config.JWTConfig{SecretKey: "test-secret-key", Issuer: "someone-else"})

	token, err := foreign.Issue(uuid.New(), "ana@example.com", types.RoleUser)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
}

func TestNewTokenIssuer_PanicsOnEmptySecret(t *testing.T) {
	assert.Panics(t, func() {
		NewTokenIssuer(config.JWTConfig{})
	})
}

func TestNewResetToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 32; i++ {
		token, err := NewResetToken()
		require.NoError(t, err)
		assert.Len(t, token, resetTokenBytes*2, "token should be hex of %d bytes", resetTokenBytes)
		assert.Regexp(t, "^[0-9a-f]+$", token)

		_, dup := seen[token]
		assert.False(t, dup, "reset tokens must not repeat")
		seen[token] = struct{}{}
	}
}
