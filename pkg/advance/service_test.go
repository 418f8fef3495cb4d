package advance

import (
	"context"
	"testing"
	"time"

	"github.com/cgtsim/cgtsim/internal/config"
	"github.com/cgtsim/cgtsim/internal/event_bus"
	"github.com/cgtsim/cgtsim/internal/utils"
	"github.com/cgtsim/cgtsim/pkg/transaction"
	"github.com/cgtsim/cgtsim/pkg/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

var (
	repoStub   = NewStubRepository()
	txRepoStub = transaction.NewStubRepository()
	service    *ServiceImpl
)

var adminUser = user.User{ID: uuid.New(), Username: "cgtsim.admin", Role: user.RoleAdminCGTSIM}

func setup(t *testing.T) func() {
	cfg := config.Advance{DefaultAnnualRatePct: 4.5}
	service = NewService(repoStub, txRepoStub, cfg, &utils.MockClock{FixedNow: testNow})
	return func() {
		t.Log("Teardown after test")
		repoStub.Cleanup()
		txRepoStub.Cleanup()
	}
}

func publishApproved(t *testing.T, cssID uuid.UUID, total decimal.Decimal) error {
	t.Helper()
	bus := event_bus.NewEventBus()
	event_bus.SubscribeTyped(bus, "fundrequest.approved", service.OnRequestApproved)
	ctx := user.WithUser(context.Background(), adminUser)
	return bus.Publish(event_bus.NewEvent(ctx, "fundrequest.approved", event_bus.FundRequestApproved{
		RequestID:    uuid.New(),
		Reference:    "DEM-2025-001",
		CSSID:        cssID,
		Total:        total,
		ApprovedBy:   adminUser.ID,
		FirstDayDate: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
	}))
}

func TestServiceImpl_OnRequestApproved(t *testing.T) {
	t.Run("should open an advance and record the avance entry", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		cssID := uuid.New()

		// when
		err := publishApproved(t, cssID, decimal.NewFromInt(4500))

		// then
		require.NoError(t, err)
		advances, err := repoStub.List(context.Background(), nil, false)
		require.NoError(t, err)
		require.Len(t, advances, 1)
		a := advances[0]
		assert.Equal(t, "AVN-2025-001", a.Reference)
		assert.Equal(t, StatusActive, a.Status)
		assert.True(t, a.Principal.Equal(decimal.NewFromInt(4500)))
		assert.True(t, a.AnnualRatePct.Equal(decimal.NewFromFloat(4.5)))
		assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), a.StartDate)

		entries, err := txRepoStub.List(context.Background(), transaction.Filter{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, transaction.TypeAvance, entries[0].Type)
		assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(4500)))
		assert.Equal(t, &a.ID, entries[0].AdvanceID)
	})

	t.Run("should skip a non-positive total", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		err := publishApproved(t, uuid.New(), decimal.Zero)

		// then
		require.NoError(t, err)
		advances, err := repoStub.List(context.Background(), nil, false)
		require.NoError(t, err)
		assert.Empty(t, advances)
	})
}

func TestDailyInterest(t *testing.T) {
	// 10000 at 4.5%: 10000 * 4.5 / 365 / 100 = 1.2328... -> 1.23
	interest := DailyInterest(decimal.NewFromInt(10000), decimal.NewFromFloat(4.5))
	assert.True(t, interest.Equal(decimal.NewFromFloat(1.23)), "got %s", interest)

	assert.True(t, DailyInterest(decimal.Zero, decimal.NewFromFloat(4.5)).Equal(decimal.Zero))
}

func TestServiceImpl_AccrueInterest(t *testing.T) {
	activeAdvance := func(principal int64, start time.Time) Advance {
		return Advance{
			ID:              uuid.New(),
			Reference:       "AVN-2025-001",
			CSSID:           uuid.New(),
			Principal:       decimal.NewFromInt(principal),
			AnnualRatePct:   decimal.NewFromFloat(4.5),
			StartDate:       start,
			Status:          StatusActive,
			AccruedInterest: decimal.Zero,
		}
	}

	t.Run("should accrue once per day per advance", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), adminUser)
		a, err := repoStub.Store(ctx, activeAdvance(10000, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
		require.NoError(t, err)

		// when: the same day is run twice
		first, err := service.AccrueInterest(ctx, testNow)
		require.NoError(t, err)
		second, err := service.AccrueInterest(ctx, testNow)
		require.NoError(t, err)

		// then
		assert.Equal(t, 1, first)
		assert.Equal(t, 0, second)
		stored, err := repoStub.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, stored.AccruedInterest.Equal(decimal.NewFromFloat(1.23)), "got %s", stored.AccruedInterest)

		interetType := transaction.TypeInteret
		entries, err := txRepoStub.List(ctx, transaction.Filter{Type: &interetType})
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("should accumulate across days", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), adminUser)
		a, err := repoStub.Store(ctx, activeAdvance(10000, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
		require.NoError(t, err)

		// when
		_, err = service.AccrueInterest(ctx, testNow)
		require.NoError(t, err)
		_, err = service.AccrueInterest(ctx, testNow.AddDate(0, 0, 1))
		require.NoError(t, err)

		// then
		stored, err := repoStub.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, stored.AccruedInterest.Equal(decimal.NewFromFloat(2.46)), "got %s", stored.AccruedInterest)
		require.NotNil(t, stored.LastAccrualDate)
		assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), *stored.LastAccrualDate)
	})

	t.Run("should skip advances starting after the accrual date", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), adminUser)
		_, err := repoStub.Store(ctx, activeAdvance(10000, time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)))
		require.NoError(t, err)

		// when
		accrued, err := service.AccrueInterest(ctx, testNow)

		// then
		require.NoError(t, err)
		assert.Equal(t, 0, accrued)
	})

	t.Run("should skip closed advances", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), adminUser)
		a := activeAdvance(10000, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
		a.Status = StatusClosed
		_, err := repoStub.Store(ctx, a)
		require.NoError(t, err)

		// when
		accrued, err := service.AccrueInterest(ctx, testNow)

		// then
		require.NoError(t, err)
		assert.Equal(t, 0, accrued)
	})
}

func TestServiceImpl_List(t *testing.T) {
	t.Run("should refuse a viewer", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		require.NoError(t, publishApproved(t, uuid.New(), decimal.NewFromInt(4500)))
		viewer := user.User{ID: uuid.New(), Username: "auditor", Role: user.RoleViewer}

		// when
		_, err := service.List(user.WithUser(context.Background(), viewer), false)

		// then
		assert.ErrorIs(t, err, user.ErrUnauthorized)
	})
}

func TestServiceImpl_Close(t *testing.T) {
	t.Run("should close an active advance", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), adminUser)
		stored, err := repoStub.Store(ctx, Advance{
			ID:            uuid.New(),
			Reference:     "AVN-2025-001",
			CSSID:         uuid.New(),
			Principal:     decimal.NewFromInt(5000),
			AnnualRatePct: decimal.NewFromFloat(4.5),
			StartDate:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Status:        StatusActive,
		})
		require.NoError(t, err)

		// when
		closed, err := service.Close(ctx, stored.ID, testNow)

		// then
		require.NoError(t, err)
		assert.Equal(t, StatusClosed, closed.Status)
		require.NotNil(t, closed.EndDateActual)
		assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), *closed.EndDateActual)
	})

	t.Run("should fail on an already closed advance", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), adminUser)
		stored, err := repoStub.Store(ctx, Advance{
			ID:        uuid.New(),
			Reference: "AVN-2025-002",
			CSSID:     uuid.New(),
			Status:    StatusClosed,
		})
		require.NoError(t, err)

		// when
		_, err = service.Close(ctx, stored.ID, testNow)

		// then
		assert.ErrorIs(t, err, ErrAdvanceClosed)
	})

	t.Run("should refuse closing by a CSS user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		cssID := uuid.New()
		cssUser := user.User{ID: uuid.New(), Role: user.RoleUserCSS, CSSID: &cssID}

		// when
		_, err := service.Close(user.WithUser(context.Background(), cssUser), uuid.New(), testNow)

		// then
		assert.ErrorIs(t, err, user.ErrUnauthorized)
	})
}
