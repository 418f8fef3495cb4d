package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/cgtsim/cgtsim/internal/utils"
	"github.com/cgtsim/cgtsim/pkg/css"
	"github.com/cgtsim/cgtsim/pkg/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// NewSubsidy is the input for recording a subvention.
type NewSubsidy struct {
	CSSID       uuid.UUID
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	// Reference is generated as SUB-<year>-<month>-NNN when left empty.
	Reference string
}

type Service interface {
	// CreateSubsidy records a subvention for a CSS (admin only). Subventions
	// reduce the CSS's debt, so the amount must be strictly negative.
	CreateSubsidy(ctx context.Context, subsidy NewSubsidy) (Transaction, error)
	// List returns ledger entries visible to the caller, narrowed by filter.
	// CSS users are always pinned to their own unit.
	List(ctx context.Context, filter Filter) ([]Transaction, error)
	// Balances returns per-CSS positions over the visible ledger.
	Balances(ctx context.Context) ([]CSSBalance, error)
	// Stats summarizes the visible ledger per entry type.
	Stats(ctx context.Context) (Stats, error)
}

type ServiceImpl struct {
	repo    Repository
	cssRepo css.Repo
	clock   utils.Clock
}

func NewService(repo Repository, cssRepo css.Repo, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, cssRepo: cssRepo, clock: clock}
}

func (s *ServiceImpl) CreateSubsidy(ctx context.Context, subsidy NewSubsidy) (Transaction, error) {
	creator, err := user.RequireAdmin(ctx)
	if err != nil {
		return Transaction{}, err
	}
	if !subsidy.Amount.IsNegative() {
		return Transaction{}, fmt.Errorf("%w: a subvention must be strictly negative, got %s",
			ErrInvalidAmount, subsidy.Amount)
	}

	unit, err := s.cssRepo.Get(ctx, subsidy.CSSID)
	if err != nil {
		return Transaction{}, err
	}

	now := s.clock.Now()
	date := subsidy.Date
	if date.IsZero() {
		date = now
	}
	reference := subsidy.Reference
	if reference == "" {
		seq, err := s.repo.NextSubsidySeq(ctx, date.Year(), int(date.Month()))
		if err != nil {
			return Transaction{}, fmt.Errorf("failed to allocate subsidy reference: %w", err)
		}
		reference = fmt.Sprintf("SUB-%d-%02d-%03d", date.Year(), int(date.Month()), seq)
	}

	tx := Transaction{
		ID:          uuid.New(),
		CSSID:       unit.ID,
		CSSCode:     unit.Code,
		CSSName:     unit.Name,
		Type:        TypeSubvention,
		Amount:      subsidy.Amount,
		Date:        date,
		Reference:   reference,
		Description: subsidy.Description,
		CreatedBy:   &creator.ID,
		CreatedAt:   now,
	}
	stored, err := s.repo.Store(ctx, tx)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to store subsidy: %w", err)
	}
	log.Infof("subsidy %s of %s recorded for %s by %s", stored.Reference, stored.Amount, unit.Code, creator.Username)
	return stored, nil
}

func (s *ServiceImpl) List(ctx context.Context, filter Filter) ([]Transaction, error) {
	scoped, err := s.scopeFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scoped)
}

func (s *ServiceImpl) Balances(ctx context.Context) ([]CSSBalance, error) {
	transactions, err := s.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	return BalanceByCSS(transactions), nil
}

func (s *ServiceImpl) Stats(ctx context.Context) (Stats, error) {
	transactions, err := s.List(ctx, Filter{})
	if err != nil {
		return Stats{}, err
	}
	return LedgerStats(transactions), nil
}

func (s *ServiceImpl) scopeFilter(ctx context.Context, filter Filter) (Filter, error) {
	u, err := user.CurrentUser(ctx)
	if err != nil {
		return Filter{}, fmt.Errorf("failed to get current user: %w", err)
	}
	switch u.Role {
	case user.RoleAdminCGTSIM:
		return filter, nil
	case user.RoleUserCSS:
		if u.CSSID == nil {
			return Filter{}, user.ErrUnauthorized
		}
		filter.CSSID = u.CSSID
		return filter, nil
	}
	// Viewers hold no ledger access.
	return Filter{}, user.ErrUnauthorized
}
