package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/cgtsim/cgtsim/internal/config"
	"github.com/cgtsim/cgtsim/internal/event_bus"
	"github.com/cgtsim/cgtsim/internal/utils"
	"github.com/cgtsim/cgtsim/pkg/advance"
	"github.com/cgtsim/cgtsim/pkg/css"
	"github.com/cgtsim/cgtsim/pkg/fundrequest"
	"github.com/cgtsim/cgtsim/pkg/transaction"
	"github.com/cgtsim/cgtsim/pkg/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

var (
	requestRepoStub = fundrequest.NewStubRepository()
	advanceRepoStub = advance.NewStubRepository()
	cssRepoStub     = css.NewStubCSSRepo()
	service         Service
)

var adminUser = user.User{ID: uuid.New(), Username: "cgtsim.admin", Role: user.RoleAdminCGTSIM}

func setup(t *testing.T) func() {
	clock := &utils.MockClock{FixedNow: testNow}
	requestService := fundrequest.NewService(requestRepoStub, event_bus.NewEventBus(), clock)
	advanceService := advance.NewService(advanceRepoStub, transaction.NewStubRepository(), config.Advance{DefaultAnnualRatePct: 4.5}, clock)
	service = NewService(requestService, advanceService, css.NewService(cssRepoStub), clock)
	return func() {
		t.Log("Teardown after test")
		requestRepoStub.Cleanup()
		advanceRepoStub.Cleanup()
		cssRepoStub.Cleanup()
	}
}

func storeRequest(t *testing.T, cssID uuid.UUID, status fundrequest.Status, dayOffsets map[int]int64) fundrequest.FundRequest {
	t.Helper()
	request := fundrequest.FundRequest{
		ID:            uuid.New(),
		Reference:     "DEM-2025-" + uuid.NewString()[:3],
		CSSID:         cssID,
		Status:        status,
		DateRequested: testNow,
		RequestedBy:   uuid.New(),
	}
	for offset, amount := range dayOffsets {
		request.Days = append(request.Days, fundrequest.RequestDay{
			ID:   uuid.New(),
			Date: testNow.AddDate(0, 0, offset).Truncate(24 * time.Hour),
			Items: []fundrequest.LineItem{{
				ID:            uuid.New(),
				Amount:        decimal.NewFromInt(amount),
				Category:      fundrequest.CategoryFonctionnement,
				PaymentMethod: fundrequest.PaymentSuppliersDirectDeposit,
			}},
		})
	}
	_, err := requestRepoStub.Store(context.Background(), request)
	require.NoError(t, err)
	return request
}

func TestServiceImpl_StatsCSS(t *testing.T) {
	t.Run("should summarize only the caller's unit", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		cssID := uuid.New()
		storeRequest(t, cssID, fundrequest.StatusVersed, map[int]int64{2: 1000})
		storeRequest(t, cssID, fundrequest.StatusPending, map[int]int64{3: 250})
		storeRequest(t, uuid.New(), fundrequest.StatusPending, map[int]int64{3: 9999})
		cssUser := user.User{ID: uuid.New(), Role: user.RoleUserCSS, CSSID: &cssID}

		// when
		stats, err := service.StatsCSS(user.WithUser(context.Background(), cssUser))

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalRequests)
		assert.Equal(t, 1, stats.ByStatus[fundrequest.StatusVersed])
		assert.Equal(t, 1, stats.ByStatus[fundrequest.StatusPending])
		assert.True(t, stats.TotalAmount.Equal(decimal.NewFromInt(1250)))
		assert.True(t, stats.VersedAmount.Equal(decimal.NewFromInt(1000)))
	})
}

func TestServiceImpl_StatsCGTSIM(t *testing.T) {
	t.Run("should aggregate requests, advances and units", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		storeRequest(t, uuid.New(), fundrequest.StatusApproved, map[int]int64{2: 4500})
		_, err := cssRepoStub.Store(context.Background(), css.CSS{Code: "CSS-MTL", Name: "Montreal", Active: true})
		require.NoError(t, err)
		_, err = cssRepoStub.Store(context.Background(), css.CSS{Code: "CSS-OLD", Name: "Dissolved", Active: false})
		require.NoError(t, err)
		_, err = advanceRepoStub.Store(context.Background(), advance.Advance{
			ID:              uuid.New(),
			Reference:       "AVN-2025-001",
			CSSID:           uuid.New(),
			Principal:       decimal.NewFromInt(4500),
			AnnualRatePct:   decimal.NewFromFloat(4.5),
			StartDate:       testNow,
			Status:          advance.StatusActive,
			AccruedInterest: decimal.NewFromFloat(1.23),
		})
		require.NoError(t, err)

		// when
		stats, err := service.StatsCGTSIM(user.WithUser(context.Background(), adminUser))

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Requests.Total)
		assert.Equal(t, 1, stats.ActiveCSSCount)
		assert.Equal(t, 1, stats.ActiveAdvances)
		assert.True(t, stats.AdvancePrincipal.Equal(decimal.NewFromInt(4500)))
		assert.True(t, stats.AccruedInterest.Equal(decimal.NewFromFloat(1.23)))
	})

	t.Run("should refuse a CSS user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		cssID := uuid.New()
		cssUser := user.User{ID: uuid.New(), Role: user.RoleUserCSS, CSSID: &cssID}

		// when
		_, err := service.StatsCGTSIM(user.WithUser(context.Background(), cssUser))

		// then
		assert.ErrorIs(t, err, user.ErrUnauthorized)
	})

	t.Run("should refuse a viewer", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		viewer := user.User{ID: uuid.New(), Username: "auditor", Role: user.RoleViewer}

		// when
		_, err := service.StatsCGTSIM(user.WithUser(context.Background(), viewer))

		// then
		assert.ErrorIs(t, err, user.ErrUnauthorized)
	})
}

func TestServiceImpl_Treasury(t *testing.T) {
	t.Run("should bucket approved days within the week and total the month", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		// two approved requests sharing a date, one pending (ignored), one
		// approved day beyond the week but inside the month
		storeRequest(t, uuid.New(), fundrequest.StatusApproved, map[int]int64{2: 1000})
		storeRequest(t, uuid.New(), fundrequest.StatusApproved, map[int]int64{2: 500, 20: 800})
		storeRequest(t, uuid.New(), fundrequest.StatusPending, map[int]int64{2: 9999})

		// when
		treasury, err := service.Treasury(user.WithUser(context.Background(), adminUser))

		// then
		require.NoError(t, err)
		require.Len(t, treasury.Next7Days, 1)
		assert.Equal(t, testNow.AddDate(0, 0, 2).Truncate(24*time.Hour), treasury.Next7Days[0].Date)
		assert.True(t, treasury.Next7Days[0].Amount.Equal(decimal.NewFromInt(1500)))
		assert.True(t, treasury.Total30Days.Equal(decimal.NewFromInt(2300)))
	})
}

func TestBuildTreasury(t *testing.T) {
	t.Run("should treat both windows as half-open", func(t *testing.T) {
		asOf := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
		request := fundrequest.FundRequest{
			Status: fundrequest.StatusApproved,
			Days: []fundrequest.RequestDay{
				{Date: asOf.AddDate(0, 0, -1), Items: []fundrequest.LineItem{{Amount: decimal.NewFromInt(100)}}},
				{Date: asOf, Items: []fundrequest.LineItem{{Amount: decimal.NewFromInt(10)}}},
				{Date: asOf.AddDate(0, 0, 6), Items: []fundrequest.LineItem{{Amount: decimal.NewFromInt(20)}}},
				{Date: asOf.AddDate(0, 0, 7), Items: []fundrequest.LineItem{{Amount: decimal.NewFromInt(300)}}},
				{Date: asOf.AddDate(0, 0, 29), Items: []fundrequest.LineItem{{Amount: decimal.NewFromInt(40)}}},
				{Date: asOf.AddDate(0, 0, 30), Items: []fundrequest.LineItem{{Amount: decimal.NewFromInt(500)}}},
			},
		}

		treasury := BuildTreasury([]fundrequest.FundRequest{request}, asOf)

		// the week holds exactly 7 dates: asOf and asOf+6 are in, asOf+7 is out
		require.Len(t, treasury.Next7Days, 2)
		assert.Equal(t, asOf, treasury.Next7Days[0].Date)
		assert.Equal(t, asOf.AddDate(0, 0, 6), treasury.Next7Days[1].Date)
		// the month holds 30 dates: asOf+29 is in, asOf+30 is out
		assert.True(t, treasury.Total30Days.Equal(decimal.NewFromInt(370)), "got %s", treasury.Total30Days)
	})
}
