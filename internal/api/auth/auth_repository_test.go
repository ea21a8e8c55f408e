package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecostep/walk-and-win/internal/types"
)

var userAuthRowColumns = []string{
	"id", "name", "email", "role", "is_active", "password_hash",
	"reset_password_token", "reset_password_expires",
	"points", "badges", "last_login", "created_at", "updated_at",
}

func newRepoTest(t *testing.T) (pgxmock.PgxPoolIface, *PostgresAuthRepo) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return mock, NewPostgresAuthRepo(mock, logger)
}

func userAuthRow(id uuid.UUID, email string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(userAuthRowColumns).AddRow(
		id, "Ana", email, types.RoleUser, true, "$2a$10$hash",
		(*string)(nil), (*time.Time)(nil),
		0, []string{}, (*time.Time)(nil), now, now,
	)
}

func TestPostgresAuthRepo_CreateUser(t *testing.T) {
	mock, repo := newRepoTest(t)
	id := uuid.New()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ana", "ana@example.com", "$2a$10$hash").
		WillReturnRows(userAuthRow(id, "ana@example.com"))

	user, err := repo.CreateUser(context.Background(), "Ana", "ana@example.com", "$2a$10$hash")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, types.RoleUser, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuthRepo_CreateUser_DuplicateEmail(t *testing.T) {
	mock, repo := newRepoTest(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ana", "ana@example.com", "$2a$10$hash").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_idx"})

	_, err := repo.CreateUser(context.Background(), "Ana", "ana@example.com", "$2a$10$hash")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuthRepo_GetUserByEmail_NotFound(t *testing.T) {
	mock, repo := newRepoTest(t)

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("ghost@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetUserByEmail(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuthRepo_GetUserByID_NotFound(t *testing.T) {
	mock, repo := newRepoTest(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, name, email, role, points, badges FROM users").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetUserByID(context.Background(), id)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuthRepo_SetResetToken(t *testing.T) {
	mock, repo := newRepoTest(t)
	id := uuid.New()
	expires := time.Now().Add(30 * time.Minute)

	mock.ExpectExec("UPDATE users").
		WithArgs("sometoken", expires, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.SetResetToken(context.Background(), id, "sometoken", expires)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuthRepo_SetResetToken_UnknownUser(t *testing.T) {
	mock, repo := newRepoTest(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE users").
		WithArgs("sometoken", pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SetResetToken(context.Background(), id, "sometoken", time.Now().Add(time.Minute))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPostgresAuthRepo_UserIDByValidResetToken(t *testing.T) {
	mock, repo := newRepoTest(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT id FROM users").
		WithArgs("validtoken").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))

	got, err := repo.UserIDByValidResetToken(context.Background(), "validtoken")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestPostgresAuthRepo_UserIDByValidResetToken_Invalid(t *testing.T) {
	mock, repo := newRepoTest(t)

	mock.ExpectQuery("SELECT id FROM users").
		WithArgs("expired-or-bogus").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.UserIDByValidResetToken(context.Background(), "expired-or-bogus")
	assert.ErrorIs(t, err, types.ErrInvalidResetToken)
}

func TestPostgresAuthRepo_ConsumeResetToken(t *testing.T) {
	mock, repo := newRepoTest(t)

	mock.ExpectExec("UPDATE users").
		WithArgs("$2a$10$newhash", "validtoken").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.ConsumeResetToken(context.Background(), "validtoken", "$2a$10$newhash")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuthRepo_ConsumeResetToken_NoMatch(t *testing.T) {
	mock, repo := newRepoTest(t)

	// Zero rows means the token never existed, already expired, or a
	// concurrent consumer cleared it first. All collapse to the same error.
	mock.ExpectExec("UPDATE users").
		WithArgs("$2a$10$newhash", "alreadyused").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.ConsumeResetToken(context.Background(), "alreadyused", "$2a$10$newhash")
	assert.ErrorIs(t, err, types.ErrInvalidResetToken)
}

func TestPostgresAuthRepo_UpdateLastLogin(t *testing.T) {
	mock, repo := newRepoTest(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery("UPDATE users SET last_login").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"last_login"}).AddRow(now))

	got, err := repo.UpdateLastLogin(context.Background(), id)
	require.NoError(t, err)
	assert.WithinDuration(t, now, got, time.Second)
}
