package fundrequest

import (
	"context"
	"fmt"
	"time"

	"github.com/cgtsim/cgtsim/internal/event_bus"
	"github.com/cgtsim/cgtsim/internal/utils"
	"github.com/cgtsim/cgtsim/pkg/user"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// Submit validates a draft and persists it as a pending request on
	// behalf of the current CSS user.
	Submit(ctx context.Context, draft *Draft) (FundRequest, error)
	// List returns the requests visible to the caller: all of them for a
	// CGTSIM admin, their own CSS's for a CSS user.
	List(ctx context.Context) ([]FundRequest, error)
	Get(ctx context.Context, id uuid.UUID) (FundRequest, error)
	// Review approves or rejects a pending request (admin only).
	Review(ctx context.Context, id uuid.UUID, action Action, notes string) (FundRequest, error)
	// MarkVersed marks an approved request as disbursed on the given date
	// (admin only).
	MarkVersed(ctx context.Context, id uuid.UUID, date time.Time) (FundRequest, error)
	// Stats summarizes the requests visible to the caller.
	Stats(ctx context.Context) (Stats, error)
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
	clock    utils.Clock
}

func NewService(repo Repository, eventBus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus, clock: clock}
}

func (s *ServiceImpl) Submit(ctx context.Context, draft *Draft) (FundRequest, error) {
	u, err := user.CurrentUser(ctx)
	if err != nil {
		return FundRequest{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if u.Role != user.RoleUserCSS || u.CSSID == nil {
		return FundRequest{}, user.ErrUnauthorized
	}
	if err := draft.ValidateForSubmission(); err != nil {
		return FundRequest{}, err
	}

	now := s.clock.Now()
	seq, err := s.repo.NextReferenceSeq(ctx, now.Year())
	if err != nil {
		return FundRequest{}, fmt.Errorf("failed to allocate reference: %w", err)
	}

	payload := draft.Payload()
	request := FundRequest{
		ID:            uuid.New(),
		Reference:     fmt.Sprintf("DEM-%d-%03d", now.Year(), seq),
		CSSID:         *u.CSSID,
		CSSCode:       u.CSSCode,
		CSSName:       u.CSSName,
		Description:   payload.Description,
		Days:          payload.Days,
		Status:        StatusPending,
		DateRequested: now,
		RequestedBy:   u.ID,
	}

	stored, err := s.repo.Store(ctx, request)
	if err != nil {
		return FundRequest{}, fmt.Errorf("failed to store fund request: %w", err)
	}
	log.Infof("fund request %s submitted by %s for %s", stored.Reference, u.Username, stored.CSSCode)
	return stored, nil
}

func (s *ServiceImpl) List(ctx context.Context) ([]FundRequest, error) {
	scope, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scope)
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (FundRequest, error) {
	u, err := user.CurrentUser(ctx)
	if err != nil {
		return FundRequest{}, fmt.Errorf("failed to get current user: %w", err)
	}
	request, err := s.repo.Get(ctx, id)
	if err != nil {
		return FundRequest{}, err
	}
	// CSS users may only see their own unit's requests.
	if u.Role == user.RoleUserCSS && (u.CSSID == nil || *u.CSSID != request.CSSID) {
		return FundRequest{}, ErrNotFound
	}
	return request, nil
}

func (s *ServiceImpl) Review(ctx context.Context, id uuid.UUID, action Action, notes string) (FundRequest, error) {
	reviewer, err := user.RequireAdmin(ctx)
	if err != nil {
		return FundRequest{}, err
	}

	request, err := s.repo.Get(ctx, id)
	if err != nil {
		return FundRequest{}, err
	}
	previous := request.Status
	if err := request.ApplyReview(action, reviewer.ID, notes, s.clock.Now()); err != nil {
		return FundRequest{}, err
	}

	updated, err := s.repo.UpdateStatus(ctx, request, previous)
	if err != nil {
		return FundRequest{}, err
	}
	if !updated {
		// Someone else moved the request since we loaded it.
		return FundRequest{}, fmt.Errorf("%w: request %s is no longer %s", ErrIllegalTransition, request.Reference, previous)
	}
	log.Infof("fund request %s %s by %s", request.Reference, request.Status, reviewer.Username)

	if request.Status == StatusApproved {
		if err := s.eventBus.Publish(event_bus.NewEvent(ctx, "fundrequest.approved", event_bus.FundRequestApproved{
			RequestID:    request.ID,
			Reference:    request.Reference,
			CSSID:        request.CSSID,
			Total:        Total(request),
			ApprovedBy:   reviewer.ID,
			FirstDayDate: firstDayDate(request),
		})); err != nil {
			log.Errorf("failed to publish approval event for %s: %v", request.Reference, err)
			return FundRequest{}, err
		}
	}
	return request, nil
}

func (s *ServiceImpl) MarkVersed(ctx context.Context, id uuid.UUID, date time.Time) (FundRequest, error) {
	reviewer, err := user.RequireAdmin(ctx)
	if err != nil {
		return FundRequest{}, err
	}

	request, err := s.repo.Get(ctx, id)
	if err != nil {
		return FundRequest{}, err
	}
	previous := request.Status
	if err := request.ApplyVersed(date); err != nil {
		return FundRequest{}, err
	}

	updated, err := s.repo.UpdateStatus(ctx, request, previous)
	if err != nil {
		return FundRequest{}, err
	}
	if !updated {
		return FundRequest{}, fmt.Errorf("%w: request %s is no longer %s", ErrIllegalTransition, request.Reference, previous)
	}
	log.Infof("fund request %s marked versed on %s by %s",
		request.Reference, request.DateVersed.Format("2006-01-02"), reviewer.Username)

	if err := s.eventBus.Publish(event_bus.NewEvent(ctx, "fundrequest.versed", event_bus.FundRequestVersed{
		RequestID:  request.ID,
		Reference:  request.Reference,
		CSSID:      request.CSSID,
		DateVersed: *request.DateVersed,
	})); err != nil {
		log.Errorf("failed to publish versed event for %s: %v", request.Reference, err)
	}
	return request, nil
}

func (s *ServiceImpl) Stats(ctx context.Context) (Stats, error) {
	requests, err := s.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return DashboardStats(requests), nil
}

// scope resolves the CSS filter for the caller: nil means all requests
// (admins and viewers), otherwise only the caller's CSS.
func (s *ServiceImpl) scope(ctx context.Context) (*uuid.UUID, error) {
	u, err := user.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	switch u.Role {
	case user.RoleAdminCGTSIM:
		return nil, nil
	case user.RoleUserCSS:
		if u.CSSID == nil {
			return nil, user.ErrUnauthorized
		}
		return u.CSSID, nil
	}
	// Viewers hold no request access.
	return nil, user.ErrUnauthorized
}

func firstDayDate(r FundRequest) time.Time {
	if len(r.Days) == 0 {
		return toDay(r.DateRequested)
	}
	first := r.Days[0].Date
	for _, day := range r.Days[1:] {
		if day.Date.Before(first) {
			first = day.Date
		}
	}
	return first
}
