package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ecostep/walk-and-win/app/mail"
	"github.com/ecostep/walk-and-win/app/observability/metrics"
	"github.com/ecostep/walk-and-win/config"
	"github.com/ecostep/walk-and-win/internal/types"
)

// notifierTimeout bounds the external mail delivery call so a slow SMTP
// server cannot hold a request open indefinitely.
const notifierTimeout = 10 * time.Second

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService orchestrates the credential store, password hasher,
// token issuer and reset-token lifecycle.
type AuthService interface {
	// Register creates a user and returns the public projection plus a
	// session token. Returns types.ErrConflict for a taken email.
	Register(ctx context.Context, name, email, password string) (*types.PublicUser, string, error)

	// Login authenticates by email and password. Unknown email and
	// wrong password are indistinguishable to the caller: both return
	// types.ErrUnauthenticated.
	Login(ctx context.Context, email, password string) (*types.PublicUser, string, error)

	// GetMe returns the profile for an authenticated user ID.
	GetMe(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)

	// ForgotPassword starts a reset flow. It reveals nothing about
	// whether the email exists: a nil error only means the generic
	// acknowledgement can be returned.
	ForgotPassword(ctx context.Context, email string) error

	// ValidateResetToken checks a pending reset token without
	// consuming it.
	ValidateResetToken(ctx context.Context, token string) error

	// ResetPassword consumes a reset token and installs the new
	// password. Exactly one consumption per token can ever succeed.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type AuthServiceImpl struct {
	logger   *slog.Logger
	repo     AuthRepo
	hasher   *Hasher
	issuer   *TokenIssuer
	notifier mail.Notifier
	resetCfg config.ResetConfig
	metrics  *metrics.AppMetrics
}

// NewAuthService wires the auth orchestrator. The metrics argument may
// be nil (tests run without a meter provider).
func NewAuthService(repo AuthRepo, hasher *Hasher, issuer *TokenIssuer, notifier mail.Notifier,
	resetCfg config.ResetConfig, m *metrics.AppMetrics, logger *slog.Logger) *AuthServiceImpl {
	if resetCfg.TokenTTL == 0 {
		resetCfg.TokenTTL = 30 * time.Minute
	}
	return &AuthServiceImpl{
		logger:   logger,
		repo:     repo,
		hasher:   hasher,
		issuer:   issuer,
		notifier: notifier,
		resetCfg: resetCfg,
		metrics:  m,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password string) (*types.PublicUser, string, error) {
	start := time.Now()
	l := s.logger.With(slog.String("method", "Register"))

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.repo.CreateUser(ctx, strings.TrimSpace(name), strings.ToLower(email), hash)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issuer.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		l.ErrorContext(ctx, "Failed to issue session token after registration", slog.Any("error", err))
		return nil, "", err
	}

	if s.metrics != nil {
		s.metrics.RegisterRequestsTotal.Add(ctx, 1)
		s.metrics.AuthDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}
	l.InfoContext(ctx, "User registered", slog.String("userID", user.ID.String()))

	return &types.PublicUser{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}, token, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*types.PublicUser, string, error) {
	start := time.Now()
	l := s.logger.With(slog.String("method", "Login"))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			// Same failure as a wrong password so the response cannot be
			// used to enumerate registered emails.
			l.DebugContext(ctx, "Login attempt for unknown email")
			return nil, "", fmt.Errorf("invalid credentials: %w", types.ErrUnauthenticated)
		}
		return nil, "", err
	}

	if err = s.hasher.Verify(password, user.PasswordHash); err != nil {
		if errors.Is(err, types.ErrCorruptHash) {
			l.ErrorContext(ctx, "Stored password hash is unreadable",
				slog.String("userID", user.ID.String()), slog.Any("error", err))
			return nil, "", err
		}
		return nil, "", fmt.Errorf("invalid credentials: %w", types.ErrUnauthenticated)
	}

	lastLogin, err := s.repo.UpdateLastLogin(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issuer.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", err
	}

	if s.metrics != nil {
		s.metrics.LoginRequestsTotal.Add(ctx, 1)
		s.metrics.AuthDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}

	return &types.PublicUser{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		LastLogin: &lastLogin,
	}, token, nil
}

func (s *AuthServiceImpl) GetMe(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	l := s.logger.With(slog.String("method", "ForgotPassword"))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			// The caller still gets the generic acknowledgement.
			l.DebugContext(ctx, "Password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := NewResetToken()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(s.resetCfg.TokenTTL)
	if err = s.repo.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ResetRequestsTotal.Add(ctx, 1)
	}

	// Delivery failures are logged and swallowed: returning an error
	// here would let an attacker distinguish registered emails, which
	// defeats the whole point of the generic acknowledgement.
	sendCtx, cancel := context.WithTimeout(ctx, notifierTimeout)
	defer cancel()
	if err = s.notifier.Send(sendCtx, s.resetMessage(user.Email, token)); err != nil {
		l.ErrorContext(ctx, "Failed to deliver password reset email",
			slog.String("userID", user.ID.String()), slog.Any("error", err))
	}
	return nil
}

func (s *AuthServiceImpl) ValidateResetToken(ctx context.Context, token string) error {
	_, err := s.repo.UserIDByValidResetToken(ctx, token)
	return err
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err = s.repo.ConsumeResetToken(ctx, token, hash); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Password reset completed")
	return nil
}

// resetMessage builds the reset email. The raw token appears alongside
// the link because the mobile app cannot always handle deep links; the
// user pastes the token into the Reset Password screen instead.
func (s *AuthServiceImpl) resetMessage(to, token string) mail.Message {
	baseURL := s.resetCfg.AppBaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8085"
	}
	resetURL := fmt.Sprintf("%s/reset?token=%s", baseURL, token)

	return mail.Message{
		To:      to,
		Subject: "EcoStep Password Reset",
		Text:    fmt.Sprintf("Reset your password: %s", resetURL),
		HTML: fmt.Sprintf(`<h2>EcoStep Password Reset</h2>
<p>Click the link below to reset your password:</p>
<p><a href=%q style="background: #16a34a; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px;">Reset Password</a></p>
<p>Or copy this link: %s</p>
<p><strong>Note:</strong> If you're using the EcoStep mobile app, please copy the token from the URL and use it in the app's Reset Password screen.</p>
<p>Token: <code style="background: #f3f4f6; padding: 4px 8px; border-radius: 4px;">%s</code></p>
<p>This link expires in %d minutes.</p>`,
			resetURL, resetURL, token, int(s.resetCfg.TokenTTL.Minutes())),
	}
}
