package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/ecostep/walk-and-win/internal/types"
)

const userListCacheKey = "users:list"

var _ UserService = (*UserServiceImpl)(nil)

// UserService backs the admin endpoints.
type UserService interface {
	ListUsers(ctx context.Context) ([]types.AdminUserRow, error)
	ToggleActive(ctx context.Context, userID uuid.UUID) (bool, error)
}

type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
	cache  *gocache.Cache
}

func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
		// The admin dashboard polls this list; a short TTL keeps the
		// query off the hot path without serving stale data for long.
		cache: gocache.New(30*time.Second, time.Minute),
	}
}

func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]types.AdminUserRow, error) {
	if cached, found := s.cache.Get(userListCacheKey); found {
		return cached.([]types.AdminUserRow), nil
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(userListCacheKey, users, gocache.DefaultExpiration)
	return users, nil
}

func (s *UserServiceImpl) ToggleActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	isActive, err := s.repo.ToggleActive(ctx, userID)
	if err != nil {
		return false, err
	}
	s.cache.Delete(userListCacheKey)
	s.logger.InfoContext(ctx, "User active flag toggled",
		slog.String("userID", userID.String()), slog.Bool("is_active", isActive))
	return isActive, nil
}
