package css

import (
	"context"
	"fmt"

	"github.com/cgtsim/cgtsim/pkg/user"
	"github.com/google/uuid"
)

type Service interface {
	Get(ctx context.Context, id uuid.UUID) (CSS, error)
	List(ctx context.Context, activeOnly bool) ([]CSS, error)
	Create(ctx context.Context, c CSS) (CSS, error)
}

type ServiceImpl struct {
	repo Repo
}

func NewService(repo Repo) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (CSS, error) {
	if _, err := user.CurrentUser(ctx); err != nil {
		return CSS{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context, activeOnly bool) ([]CSS, error) {
	if _, err := user.CurrentUser(ctx); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.List(ctx, activeOnly)
}

// Create registers a new CSS. Only CGTSIM administrators can do this.
func (s *ServiceImpl) Create(ctx context.Context, c CSS) (CSS, error) {
	if _, err := user.RequireAdmin(ctx); err != nil {
		return CSS{}, err
	}
	if c.Code == "" {
		return CSS{}, fmt.Errorf("css code is required")
	}
	if c.Name == "" {
		return CSS{}, fmt.Errorf("css name is required")
	}
	return s.repo.Store(ctx, c)
}
