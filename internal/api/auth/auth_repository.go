package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/ecostep/walk-and-win/internal/types"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// PGXPool is the slice of pgxpool.Pool the repository needs. Narrowed
// to an interface so tests can drive it with pgxmock.
type PGXPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AuthRepo is the credential store contract. The secrets-included read
// (GetUserByEmail → UserAuth) and the public read (GetUserByID →
// UserProfile) are separate methods returning separate types; there is
// no flag that can accidentally leak a password hash.
type AuthRepo interface {
	// CreateUser inserts a new user with the default role. Returns
	// types.ErrConflict when the email is already registered.
	CreateUser(ctx context.Context, name, email, passwordHash string) (*types.UserAuth, error)

	// GetUserByEmail fetches a user including secret columns. Lookup is
	// case-insensitive. Returns types.ErrNotFound when absent.
	GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error)

	// GetUserByID fetches the public profile projection.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)

	// UpdateLastLogin stamps last_login and returns the new value.
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) (time.Time, error)

	// SetResetToken stores a pending reset token and its expiry on the
	// user row, overwriting any prior pending token.
	SetResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error

	// UserIDByValidResetToken resolves an unexpired reset token to a
	// user ID. Wrong, unknown and expired tokens all return
	// types.ErrInvalidResetToken.
	UserIDByValidResetToken(ctx context.Context, token string) (uuid.UUID, error)

	// ConsumeResetToken atomically sets the new password hash and clears
	// both reset columns, conditioned on the token still matching and
	// being unexpired. Of two concurrent consumers at most one wins; the
	// loser gets types.ErrInvalidResetToken.
	ConsumeResetToken(ctx context.Context, token, newPasswordHash string) error
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool PGXPool
}

func NewPostgresAuthRepo(pgpool PGXPool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const userAuthColumns = `id, name, email, role, is_active, password_hash,
       reset_password_token, reset_password_expires,
       points, badges, last_login, created_at, updated_at`

func scanUserAuth(row pgx.Row) (*types.UserAuth, error) {
	var u types.UserAuth
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Role, &u.IsActive, &u.PasswordHash,
		&u.ResetPasswordToken, &u.ResetPasswordExpires,
		&u.Points, &u.Badges, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, name, email, passwordHash string) (*types.UserAuth, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	query := `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, lower($2), $3)
		RETURNING ` + userAuthColumns

	user, err := scanUserAuth(r.pgpool.QueryRow(ctx, query, name, email, passwordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique violation
			r.logger.WarnContext(ctx, "Attempted to register duplicate email", slog.Any("error", err))
			span.SetStatus(codes.Error, "Duplicate email")
			return nil, fmt.Errorf("email already registered: %w", types.ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		return nil, fmt.Errorf("database error creating user: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error) {
	query := `SELECT ` + userAuthColumns + ` FROM users WHERE email = lower($1)`

	user, err := scanUserAuth(r.pgpool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email not found: %w", types.ErrNotFound)
		}
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	query := `SELECT id, name, email, role, points, badges FROM users WHERE id = $1`

	var p types.UserProfile
	err := r.pgpool.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.Name, &p.Email, &p.Role, &p.Points, &p.Badges,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s not found: %w", userID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("database error fetching user by id: %w", err)
	}
	return &p, nil
}

func (r *PostgresAuthRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	query := `UPDATE users SET last_login = now(), updated_at = now() WHERE id = $1 RETURNING last_login`

	var lastLogin time.Time
	if err := r.pgpool.QueryRow(ctx, query, userID).Scan(&lastLogin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, fmt.Errorf("user %s not found: %w", userID, types.ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("database error updating last login: %w", err)
	}
	return lastLogin, nil
}

func (r *PostgresAuthRepo) SetResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "SetResetToken", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	query := `
		UPDATE users
		SET reset_password_token = $1, reset_password_expires = $2, updated_at = now()
		WHERE id = $3`

	tag, err := r.pgpool.Exec(ctx, query, token, expiresAt, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Update failed")
		return fmt.Errorf("database error storing reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found: %w", userID, types.ErrNotFound)
	}
	return nil
}

func (r *PostgresAuthRepo) UserIDByValidResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	// Wrong token and expired token deliberately produce the same
	// error so the response does not reveal which branch failed.
	query := `
		SELECT id FROM users
		WHERE reset_password_token = $1 AND reset_password_expires > now()`

	var userID uuid.UUID
	if err := r.pgpool.QueryRow(ctx, query, token).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, types.ErrInvalidResetToken
		}
		return uuid.Nil, fmt.Errorf("database error validating reset token: %w", err)
	}
	return userID, nil
}

func (r *PostgresAuthRepo) ConsumeResetToken(ctx context.Context, token, newPasswordHash string) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "ConsumeResetToken", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	// Single compare-and-clear statement: the WHERE clause re-validates
	// token and expiry, so two concurrent consumers cannot both succeed.
	query := `
		UPDATE users
		SET password_hash = $1,
		    reset_password_token = NULL,
		    reset_password_expires = NULL,
		    updated_at = now()
		WHERE reset_password_token = $2 AND reset_password_expires > now()`

	tag, err := r.pgpool.Exec(ctx, query, newPasswordHash, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Update failed")
		return fmt.Errorf("database error consuming reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Token invalid or expired")
		return types.ErrInvalidResetToken
	}
	return nil
}
