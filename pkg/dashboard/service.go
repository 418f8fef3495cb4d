package dashboard

import (
	"context"
	"fmt"

	"github.com/cgtsim/cgtsim/internal/utils"
	"github.com/cgtsim/cgtsim/pkg/advance"
	"github.com/cgtsim/cgtsim/pkg/css"
	"github.com/cgtsim/cgtsim/pkg/fundrequest"
	"github.com/cgtsim/cgtsim/pkg/user"
)

type Service interface {
	// StatsCSS summarizes the requests visible to the caller, typically a
	// CSS user's own unit.
	StatsCSS(ctx context.Context) (CSSStats, error)
	// StatsCGTSIM is the central overview (admins and viewers only).
	StatsCGTSIM(ctx context.Context) (GlobalStats, error)
	// Treasury is the upcoming liquidity need (admins and viewers only).
	Treasury(ctx context.Context) (Treasury, error)
}

type ServiceImpl struct {
	requestService fundrequest.Service
	advanceService advance.Service
	cssService     css.Service
	clock          utils.Clock
}

func NewService(requestService fundrequest.Service, advanceService advance.Service, cssService css.Service, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{
		requestService: requestService,
		advanceService: advanceService,
		cssService:     cssService,
		clock:          clock,
	}
}

func (s *ServiceImpl) StatsCSS(ctx context.Context) (CSSStats, error) {
	requests, err := s.requestService.List(ctx)
	if err != nil {
		return CSSStats{}, err
	}
	return BuildCSSStats(requests), nil
}

func (s *ServiceImpl) StatsCGTSIM(ctx context.Context) (GlobalStats, error) {
	if err := requireCentralRole(ctx); err != nil {
		return GlobalStats{}, err
	}
	requests, err := s.requestService.List(ctx)
	if err != nil {
		return GlobalStats{}, err
	}
	advances, err := s.advanceService.List(ctx, false)
	if err != nil {
		return GlobalStats{}, err
	}
	units, err := s.cssService.List(ctx, false)
	if err != nil {
		return GlobalStats{}, err
	}
	return BuildGlobalStats(requests, advances, units), nil
}

func (s *ServiceImpl) Treasury(ctx context.Context) (Treasury, error) {
	if err := requireCentralRole(ctx); err != nil {
		return Treasury{}, err
	}
	requests, err := s.requestService.List(ctx)
	if err != nil {
		return Treasury{}, err
	}
	return BuildTreasury(requests, s.clock.Now()), nil
}

func requireCentralRole(ctx context.Context) error {
	u, err := user.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	if u.Role != user.RoleAdminCGTSIM {
		return user.ErrUnauthorized
	}
	return nil
}
