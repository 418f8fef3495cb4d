package fundrequest

import (
	"context"
	"testing"
	"time"

	"github.com/cgtsim/cgtsim/internal/event_bus"
	"github.com/cgtsim/cgtsim/internal/utils"
	"github.com/cgtsim/cgtsim/pkg/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cssMontreal = uuid.New()
	cssQuebec   = uuid.New()

	cssUser = user.User{
		ID:       uuid.New(),
		Username: "jtremblay",
		Role:     user.RoleUserCSS,
		CSSID:    &cssMontreal,
		CSSCode:  "CSS-MTL",
		CSSName:  "CSS de Montreal",
	}
	otherCSSUser = user.User{
		ID:       uuid.New(),
		Username: "mgagnon",
		Role:     user.RoleUserCSS,
		CSSID:    &cssQuebec,
		CSSCode:  "CSS-QC",
		CSSName:  "CSS de Quebec",
	}
	adminUser = user.User{
		ID:       uuid.New(),
		Username: "cgtsim.admin",
		Role:     user.RoleAdminCGTSIM,
	}
	viewerUser = user.User{
		ID:       uuid.New(),
		Username: "auditor",
		Role:     user.RoleViewer,
	}
)

var (
	repoStub = NewStubRepository()
	service  Service
	clock    *utils.MockClock
	bus      *event_bus.EventBus
)

func setup(t *testing.T) func() {
	clock = &utils.MockClock{FixedNow: testNow}
	bus = event_bus.NewEventBus()
	service = NewService(repoStub, bus, clock)
	return func() {
		t.Log("Teardown after test")
		repoStub.Cleanup()
	}
}

func submitSampleRequest(t *testing.T, ctx context.Context) FundRequest {
	t.Helper()
	draft := NewDraft(clock)
	draft.SetDescription("March operating funds")
	day, err := draft.AddDay(testNow.AddDate(0, 0, 5))
	require.NoError(t, err)
	_, err = draft.AddItem(day.ID, decimal.NewFromInt(500), CategoryFonctionnement, PaymentSuppliersDirectDeposit, "fuel")
	require.NoError(t, err)
	_, err = draft.AddItem(day.ID, decimal.NewFromInt(-50), CategoryFonctionnement, PaymentSuppliersDirectDeposit, "credit note")
	require.NoError(t, err)

	request, err := service.Submit(ctx, draft)
	require.NoError(t, err)
	return request
}

func TestServiceImpl_Submit(t *testing.T) {
	t.Run("should submit a valid draft as pending", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), cssUser)

		// when
		request := submitSampleRequest(t, ctx)

		// then
		assert.Equal(t, "DEM-2025-001", request.Reference)
		assert.Equal(t, StatusPending, request.Status)
		assert.Equal(t, cssMontreal, request.CSSID)
		assert.Equal(t, cssUser.ID, request.RequestedBy)
		assert.Equal(t, testNow, request.DateRequested)
		assert.True(t, Total(request).Equal(decimal.NewFromInt(450)))
	})

	t.Run("should number references sequentially within a year", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), cssUser)

		// when
		first := submitSampleRequest(t, ctx)
		second := submitSampleRequest(t, ctx)

		// then
		assert.Equal(t, "DEM-2025-001", first.Reference)
		assert.Equal(t, "DEM-2025-002", second.Reference)
	})

	t.Run("should reject an empty draft", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), cssUser)

		// when
		_, err := service.Submit(ctx, NewDraft(clock))

		// then
		assert.ErrorIs(t, err, ErrEmptyRequest)
	})

	t.Run("should refuse submission from an admin", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), adminUser)
		draft := NewDraft(clock)

		// when
		_, err := service.Submit(ctx, draft)

		// then
		assert.ErrorIs(t, err, user.ErrUnauthorized)
	})

	t.Run("should return error when context has no user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Submit(context.Background(), NewDraft(clock))

		// then
		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestServiceImpl_List(t *testing.T) {
	t.Run("should scope CSS users to their own unit", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		submitSampleRequest(t, user.WithUser(context.Background(), cssUser))
		submitSampleRequest(t, user.WithUser(context.Background(), otherCSSUser))

		// when
		requests, err := service.List(user.WithUser(context.Background(), cssUser))

		// then
		require.NoError(t, err)
		require.Len(t, requests, 1)
		assert.Equal(t, cssMontreal, requests[0].CSSID)
	})

	t.Run("should show all requests to an admin", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		submitSampleRequest(t, user.WithUser(context.Background(), cssUser))
		submitSampleRequest(t, user.WithUser(context.Background(), otherCSSUser))

		// when
		requests, err := service.List(user.WithUser(context.Background(), adminUser))

		// then
		require.NoError(t, err)
		assert.Len(t, requests, 2)
	})

	t.Run("should refuse a viewer", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		submitSampleRequest(t, user.WithUser(context.Background(), cssUser))

		// when
		_, err := service.List(user.WithUser(context.Background(), viewerUser))

		// then
		assert.ErrorIs(t, err, user.ErrUnauthorized)
	})
}

func TestServiceImpl_Get(t *testing.T) {
	t.Run("should hide another unit's request from a CSS user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		request := submitSampleRequest(t, user.WithUser(context.Background(), cssUser))

		// when
		_, err := service.Get(user.WithUser(context.Background(), otherCSSUser), request.ID)

		// then
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("should return ErrNotFound for an unknown id", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Get(user.WithUser(context.Background(), adminUser), uuid.New())

		// then
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestServiceImpl_Review(t *testing.T) {
	t.Run("should approve a pending request and publish an event", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		request := submitSampleRequest(t, user.WithUser(context.Background(), cssUser))

		var received *event_bus.FundRequestApproved
		event_bus.SubscribeTyped(bus, "fundrequest.approved", func(e event_bus.EventT[event_bus.FundRequestApproved]) error {
			received = &e.Data
			return nil
		})

		// when
		reviewed, err := service.Review(user.WithUser(context.Background(), adminUser), request.ID, ActionApprove, "ok")

		// then
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, reviewed.Status)
		assert.Equal(t, &adminUser.ID, reviewed.ReviewedBy)
		require.NotNil(t, received)
		assert.Equal(t, request.ID, received.RequestID)
		assert.True(t, received.Total.Equal(decimal.NewFromInt(450)))
		assert.Equal(t, testNow.AddDate(0, 0, 5).Truncate(24*time.Hour), received.FirstDayDate)
	})

	t.Run("should reject a pending request without publishing", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		request := submitSampleRequest(t, user.WithUser(context.Background(), cssUser))

		published := false
		event_bus.SubscribeTyped(bus, "fundrequest.approved", func(event_bus.EventT[event_bus.FundRequestApproved]) error {
			published = true
			return nil
		})

		// when
		reviewed, err := service.Review(user.WithUser(context.Background(), adminUser), request.ID, ActionReject, "missing invoices")

		// then
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, reviewed.Status)
		assert.Equal(t, "missing invoices", reviewed.ReviewNotes)
		assert.False(t, published)
	})

	t.Run("should fail to approve an already rejected request", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), adminUser)
		request := submitSampleRequest(t, user.WithUser(context.Background(), cssUser))
		_, err := service.Review(ctx, request.ID, ActionReject, "")
		require.NoError(t, err)

		// when
		_, err = service.Review(ctx, request.ID, ActionApprove, "")

		// then
		assert.ErrorIs(t, err, ErrIllegalTransition)
	})

	t.Run("should refuse review by a CSS user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		request := submitSampleRequest(t, user.WithUser(context.Background(), cssUser))

		// when
		_, err := service.Review(user.WithUser(context.Background(), cssUser), request.ID, ActionApprove, "")

		// then
		assert.ErrorIs(t, err, user.ErrUnauthorized)
	})
}

func TestServiceImpl_MarkVersed(t *testing.T) {
	t.Run("should mark an approved request as versed", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), adminUser)
		request := submitSampleRequest(t, user.WithUser(context.Background(), cssUser))
		_, err := service.Review(ctx, request.ID, ActionApprove, "")
		require.NoError(t, err)

		var received *event_bus.FundRequestVersed
		event_bus.SubscribeTyped(bus, "fundrequest.versed", func(e event_bus.EventT[event_bus.FundRequestVersed]) error {
			received = &e.Data
			return nil
		})

		// when
		versed, err := service.MarkVersed(ctx, request.ID, testNow.AddDate(0, 0, 6))

		// then
		require.NoError(t, err)
		assert.Equal(t, StatusVersed, versed.Status)
		require.NotNil(t, versed.DateVersed)
		require.NotNil(t, received)
		assert.Equal(t, *versed.DateVersed, received.DateVersed)
	})

	t.Run("should fail on a pending request", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), adminUser)
		request := submitSampleRequest(t, user.WithUser(context.Background(), cssUser))

		// when
		_, err := service.MarkVersed(ctx, request.ID, testNow.AddDate(0, 0, 6))

		// then
		assert.ErrorIs(t, err, ErrIllegalTransition)
	})

	t.Run("should reject a disbursement date before the request date", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), adminUser)
		request := submitSampleRequest(t, user.WithUser(context.Background(), cssUser))
		_, err := service.Review(ctx, request.ID, ActionApprove, "")
		require.NoError(t, err)

		// when
		_, err = service.MarkVersed(ctx, request.ID, testNow.AddDate(0, 0, -2))

		// then
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestServiceImpl_Stats(t *testing.T) {
	t.Run("should summarize the caller's visible requests", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		adminCtx := user.WithUser(context.Background(), adminUser)
		request := submitSampleRequest(t, user.WithUser(context.Background(), cssUser))
		submitSampleRequest(t, user.WithUser(context.Background(), otherCSSUser))
		_, err := service.Review(adminCtx, request.ID, ActionApprove, "")
		require.NoError(t, err)

		// when
		adminStats, err := service.Stats(adminCtx)
		require.NoError(t, err)
		cssStats, err := service.Stats(user.WithUser(context.Background(), cssUser))
		require.NoError(t, err)

		// then
		assert.Equal(t, 2, adminStats.Total)
		assert.Equal(t, 1, adminStats.ByStatus[StatusApproved])
		assert.Equal(t, 1, adminStats.ByStatus[StatusPending])
		assert.Equal(t, 1, cssStats.Total)
		assert.True(t, cssStats.TotalAmount.Equal(decimal.NewFromInt(450)))
	})
}
