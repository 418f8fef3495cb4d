package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	CreateUser(ctx context.Context, u User) (User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (s *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	u, err := CurrentUser(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u, nil
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *UserServiceImpl) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.GetUserByUsername(ctx, username)
}

func (s *UserServiceImpl) CreateUser(ctx context.Context, u User) (User, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return User{}, err
	}
	if !u.Role.IsValid() {
		return User{}, fmt.Errorf("invalid role %q", u.Role)
	}
	if u.Role == RoleUserCSS && u.CSSID == nil {
		return User{}, fmt.Errorf("a CSS user must be bound to a CSS")
	}
	return s.repo.CreateUser(ctx, u)
}

func (s *UserServiceImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetAllUsers(ctx)
}
