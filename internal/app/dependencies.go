package app

import (
	"time"

	"github.com/cgtsim/cgtsim/internal/auth"
	"github.com/cgtsim/cgtsim/internal/config"
	"github.com/cgtsim/cgtsim/internal/event_bus"
	"github.com/cgtsim/cgtsim/internal/jobs"
	"github.com/cgtsim/cgtsim/internal/utils"
	"github.com/cgtsim/cgtsim/pkg/advance"
	"github.com/cgtsim/cgtsim/pkg/css"
	"github.com/cgtsim/cgtsim/pkg/dashboard"
	"github.com/cgtsim/cgtsim/pkg/fundrequest"
	"github.com/cgtsim/cgtsim/pkg/transaction"
	"github.com/cgtsim/cgtsim/pkg/user"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	TokenManager auth.TokenManager
	EventBus     *event_bus.EventBus
	Clock        utils.Clock

	UserService user.Service
	UserHandler *user.Handler

	CSSRepo    css.Repo
	CSSService css.Service
	CSSHandler *css.Handler

	RequestRepo    fundrequest.Repository
	RequestService fundrequest.Service
	RequestHandler *fundrequest.Handler

	TransactionRepo    transaction.Repository
	TransactionService transaction.Service
	TransactionHandler *transaction.Handler

	AdvanceRepo    advance.Repository
	AdvanceService *advance.ServiceImpl
	AdvanceHandler *advance.Handler

	DashboardService dashboard.Service
	DashboardHandler *dashboard.Handler

	Scheduler *jobs.Scheduler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.TokenManager = auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.CSSRepo = css.NewCSSRepo(db)
	deps.CSSService = css.NewService(deps.CSSRepo)
	deps.CSSHandler = css.NewHandler(deps.CSSService)

	deps.RequestRepo = fundrequest.NewRepository(db)
	deps.RequestService = fundrequest.NewService(deps.RequestRepo, deps.EventBus, deps.Clock)
	deps.RequestHandler = fundrequest.NewHandler(deps.RequestService, deps.Clock)

	deps.TransactionRepo = transaction.NewRepository(db)
	deps.TransactionService = transaction.NewService(deps.TransactionRepo, deps.CSSRepo, deps.Clock)
	deps.TransactionHandler = transaction.NewHandler(deps.TransactionService, transaction.NewCsvLedgerRenderer())

	deps.AdvanceRepo = advance.NewRepository(db)
	deps.AdvanceService = advance.NewService(deps.AdvanceRepo, deps.TransactionRepo, cfg.Advance, deps.Clock)
	deps.AdvanceHandler = advance.NewHandler(deps.AdvanceService, deps.Clock)

	deps.DashboardService = dashboard.NewService(deps.RequestService, deps.AdvanceService, deps.CSSService, deps.Clock)
	deps.DashboardHandler = dashboard.NewHandler(deps.DashboardService)

	// Approval opens an advance and its ledger entry.
	event_bus.SubscribeTyped(deps.EventBus, "fundrequest.approved", deps.AdvanceService.OnRequestApproved)

	deps.Scheduler = jobs.NewScheduler(deps.AdvanceService, deps.Clock)

	return deps
}
