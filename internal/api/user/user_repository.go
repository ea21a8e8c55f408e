package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/ecostep/walk-and-win/internal/api/auth"
	"github.com/ecostep/walk-and-win/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo is the admin-facing read/update contract. It never touches
// the secret columns.
type UserRepo interface {
	ListUsers(ctx context.Context) ([]types.AdminUserRow, error)
	// ToggleActive flips is_active and returns the new value. Returns
	// types.ErrNotFound for an unknown user.
	ToggleActive(ctx context.Context, userID uuid.UUID) (bool, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool auth.PGXPool
}

func NewPostgresUserRepo(pgpool auth.PGXPool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresUserRepo) ListUsers(ctx context.Context) ([]types.AdminUserRow, error) {
	query := `
		SELECT id, name, email, role, is_active, points, badges, created_at
		FROM users
		ORDER BY created_at DESC`

	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("database error listing users: %w", err)
	}
	defer rows.Close()

	var users []types.AdminUserRow
	for rows.Next() {
		var u types.AdminUserRow
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsActive, &u.Points, &u.Badges, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepo) ToggleActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "ToggleActive", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	query := `
		UPDATE users
		SET is_active = NOT is_active, updated_at = now()
		WHERE id = $1
		RETURNING is_active`

	var isActive bool
	if err := r.pgpool.QueryRow(ctx, query, userID).Scan(&isActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return false, fmt.Errorf("user %s not found: %w", userID, types.ErrNotFound)
		}
		span.RecordError(err)
		return false, fmt.Errorf("database error toggling user: %w", err)
	}
	return isActive, nil
}
