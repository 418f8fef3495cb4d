package advance

import (
	"context"
	"fmt"
	"time"

	"github.com/cgtsim/cgtsim/internal/config"
	"github.com/cgtsim/cgtsim/internal/event_bus"
	"github.com/cgtsim/cgtsim/internal/utils"
	"github.com/cgtsim/cgtsim/pkg/transaction"
	"github.com/cgtsim/cgtsim/pkg/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// List returns advances visible to the caller, optionally only active
	// ones.
	List(ctx context.Context, activeOnly bool) ([]Advance, error)
	Get(ctx context.Context, id uuid.UUID) (Advance, error)
	// AccrueInterest records one day of interest on every active advance
	// started on or before asOf, and mirrors each recording into the ledger.
	// Already-recorded days are skipped, so the run is safe to repeat.
	// Returns the number of advances that accrued.
	AccrueInterest(ctx context.Context, asOf time.Time) (int, error)
	// Close ends an active advance on the given date (admin only).
	Close(ctx context.Context, id uuid.UUID, date time.Time) (Advance, error)
}

type ServiceImpl struct {
	repo   Repository
	txRepo transaction.Repository
	cfg    config.Advance
	clock  utils.Clock
}

func NewService(repo Repository, txRepo transaction.Repository, cfg config.Advance, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, txRepo: txRepo, cfg: cfg, clock: clock}
}

// OnRequestApproved opens an advance for an approved fund request and writes
// the matching avance ledger entry. Wired to the "fundrequest.approved"
// event at startup.
func (s *ServiceImpl) OnRequestApproved(e event_bus.EventT[event_bus.FundRequestApproved]) error {
	approved := e.Data
	if !approved.Total.IsPositive() {
		log.Infof("request %s approved with non-positive total %s, no advance opened",
			approved.Reference, approved.Total)
		return nil
	}
	ctx := e.Context()

	now := s.clock.Now()
	seq, err := s.repo.NextReferenceSeq(ctx, now.Year())
	if err != nil {
		return fmt.Errorf("failed to allocate advance reference: %w", err)
	}

	a := Advance{
		ID:              uuid.New(),
		Reference:       fmt.Sprintf("AVN-%d-%03d", now.Year(), seq),
		CSSID:           approved.CSSID,
		RequestID:       &approved.RequestID,
		Principal:       approved.Total,
		AnnualRatePct:   decimal.NewFromFloat(s.cfg.DefaultAnnualRatePct),
		StartDate:       approved.FirstDayDate,
		Status:          StatusActive,
		AccruedInterest: decimal.Zero,
		CreatedAt:       now,
	}
	stored, err := s.repo.Store(ctx, a)
	if err != nil {
		return fmt.Errorf("failed to open advance for %s: %w", approved.Reference, err)
	}

	_, err = s.txRepo.Store(ctx, transaction.Transaction{
		ID:          uuid.New(),
		CSSID:       approved.CSSID,
		Type:        transaction.TypeAvance,
		Amount:      approved.Total,
		Date:        approved.FirstDayDate,
		Reference:   approved.Reference,
		Description: "Avance sur demande " + approved.Reference,
		RequestID:   &approved.RequestID,
		AdvanceID:   &stored.ID,
		CreatedBy:   &approved.ApprovedBy,
		CreatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("failed to record avance entry for %s: %w", approved.Reference, err)
	}

	log.Infof("advance %s of %s opened for request %s at %s%%",
		stored.Reference, stored.Principal, approved.Reference, stored.AnnualRatePct)
	return nil
}

func (s *ServiceImpl) List(ctx context.Context, activeOnly bool) ([]Advance, error) {
	scope, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scope, activeOnly)
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (Advance, error) {
	u, err := user.CurrentUser(ctx)
	if err != nil {
		return Advance{}, fmt.Errorf("failed to get current user: %w", err)
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Advance{}, err
	}
	if u.Role == user.RoleUserCSS && (u.CSSID == nil || *u.CSSID != a.CSSID) {
		return Advance{}, ErrAdvanceNotFound
	}
	return a, nil
}

func (s *ServiceImpl) AccrueInterest(ctx context.Context, asOf time.Time) (int, error) {
	day := toDay(asOf)
	advances, err := s.repo.List(ctx, nil, true)
	if err != nil {
		return 0, fmt.Errorf("failed to list active advances: %w", err)
	}

	accrued := 0
	for _, a := range advances {
		if day.Before(toDay(a.StartDate)) {
			continue
		}
		interest := DailyInterest(a.Principal, a.AnnualRatePct)
		recorded, err := s.repo.RecordDailyInterest(ctx, a.ID, day, interest)
		if err != nil {
			return accrued, fmt.Errorf("failed to accrue interest on %s: %w", a.Reference, err)
		}
		if !recorded {
			continue
		}
		_, err = s.txRepo.Store(ctx, transaction.Transaction{
			ID:          uuid.New(),
			CSSID:       a.CSSID,
			Type:        transaction.TypeInteret,
			Amount:      interest,
			Date:        day,
			Reference:   a.Reference,
			Description: fmt.Sprintf("Interets du %s sur %s", day.Format("2006-01-02"), a.Reference),
			AdvanceID:   &a.ID,
			CreatedAt:   s.clock.Now(),
		})
		if err != nil {
			return accrued, fmt.Errorf("failed to record interet entry for %s: %w", a.Reference, err)
		}
		accrued++
	}
	log.Infof("interest accrued on %d advance(s) for %s", accrued, day.Format("2006-01-02"))
	return accrued, nil
}

func (s *ServiceImpl) Close(ctx context.Context, id uuid.UUID, date time.Time) (Advance, error) {
	_, err := user.RequireAdmin(ctx)
	if err != nil {
		return Advance{}, err
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Advance{}, err
	}
	if a.Status != StatusActive {
		return Advance{}, fmt.Errorf("%w: %s", ErrAdvanceClosed, a.Reference)
	}

	closed, err := s.repo.Close(ctx, id, toDay(date))
	if err != nil {
		return Advance{}, err
	}
	if !closed {
		return Advance{}, fmt.Errorf("%w: %s", ErrAdvanceClosed, a.Reference)
	}
	log.Infof("advance %s closed on %s", a.Reference, toDay(date).Format("2006-01-02"))
	return s.repo.Get(ctx, id)
}

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
	// Viewers hold no advance access.
	return nil, user.ErrUnauthorized
}

func toDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
