package user

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ecostep/walk-and-win/internal/types"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) ListUsers(ctx context.Context) ([]types.AdminUserRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]types.AdminUserRow)
	return rows, args.Error(1)
}

func (m *MockUserRepo) ToggleActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func newUserServiceTest(t *testing.T) (*MockUserRepo, *UserServiceImpl) {
	t.Helper()
	repo := new(MockUserRepo)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return repo, NewUserService(repo, logger)
}

func sampleRows() []types.AdminUserRow {
	return []types.AdminUserRow{
		{ID: uuid.New(), Name: "Ana", Email: "ana@example.com", Role: types.RoleUser, IsActive: true, Points: 120, CreatedAt: time.Now()},
		{ID: uuid.New(), Name: "Root", Email: "root@example.com", Role: types.RoleAdmin, IsActive: true, CreatedAt: time.Now()},
	}
}

func TestUserService_ListUsers_Caches(t *testing.T) {
	repo, svc := newUserServiceTest(t)
	rows := sampleRows()

	repo.On("ListUsers", mock.Anything).Return(rows, nil).Once()

	first, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	second, err := svc.ListUsers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, rows, first)
	assert.Equal(t, rows, second)
	repo.AssertNumberOfCalls(t, "ListUsers", 1)
}

func TestUserService_ToggleActive_InvalidatesCache(t *testing.T) {
	repo, svc := newUserServiceTest(t)
	rows := sampleRows()
	target := rows[0].ID

	repo.On("ListUsers", mock.Anything).Return(rows, nil)
	repo.On("ToggleActive", mock.Anything, target).Return(false, nil)

	_, err := svc.ListUsers(context.Background())
	require.NoError(t, err)

	isActive, err := svc.ToggleActive(context.Background(), target)
	require.NoError(t, err)
	assert.False(t, isActive)

	_, err = svc.ListUsers(context.Background())
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "ListUsers", 2)
}

func TestUserService_ToggleActive_NotFound(t *testing.T) {
	repo, svc := newUserServiceTest(t)
	id := uuid.New()

	repo.On("ToggleActive", mock.Anything, id).Return(false, types.ErrNotFound)

	_, err := svc.ToggleActive(context.Background(), id)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
