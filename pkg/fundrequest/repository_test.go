package fundrequest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cgtsim/cgtsim/internal/test_utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var db *pgxpool.Pool

func TestMain(m *testing.M) {
	var cleanup func()
	db, cleanup = test_utils.TestWithDB()
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl, uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	repository := NewRepository(db)
	cssID := test_utils.InsertCSS(t, db, "CSS-"+uuid.NewString()[:8], "CSS de test")
	userID := test_utils.InsertUser(t, db, "u-"+uuid.NewString()[:8], "user_css", &cssID)
	t.Cleanup(func() {
		test_utils.CleanTables(t, db, "demandes_items", "demandes_jours", "demandes_fonds", "users", "css")
	})
	return ctx, repository, cssID, userID
}

func sampleRequest(cssID, userID uuid.UUID) FundRequest {
	dayDate := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	return FundRequest{
		ID:        uuid.New(),
		Reference: "DEM-2025-001",
		CSSID:     cssID,
		Days: []RequestDay{
			{
				ID:   uuid.New(),
				Date: dayDate,
				Items: []LineItem{
					{ID: uuid.New(), Amount: decimal.NewFromInt(500), Category: CategoryFonctionnement, PaymentMethod: PaymentSuppliersDirectDeposit, Description: "fuel", Order: 0},
					{ID: uuid.New(), Amount: decimal.NewFromInt(-50), Category: CategoryFonctionnement, PaymentMethod: PaymentSuppliersDirectDeposit, Description: "credit", Order: 1},
				},
			},
			{
				ID:    uuid.New(),
				Date:  dayDate.AddDate(0, 0, 1),
				Items: []LineItem{{ID: uuid.New(), Amount: decimal.NewFromInt(75), Category: CategorySQI, PaymentMethod: PaymentPayrollCheque, Order: 0}},
			},
		},
		Status:        StatusPending,
		DateRequested: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		RequestedBy:   userID,
	}
}

func TestRepositoryImpl_StoreAndGet(t *testing.T) {
	// given
	ctx, repo, cssID, userID := setupTestRepository(t)
	request := sampleRequest(cssID, userID)

	// when
	_, err := repo.Store(ctx, request)
	require.NoError(t, err)
	stored, err := repo.Get(ctx, request.ID)

	// then
	require.NoError(t, err)
	assert.Equal(t, request.Reference, stored.Reference)
	assert.Equal(t, StatusPending, stored.Status)
	require.Len(t, stored.Days, 2)
	require.Len(t, stored.Days[0].Items, 2)
	assert.Equal(t, "fuel", stored.Days[0].Items[0].Description)
	assert.True(t, Total(stored).Equal(decimal.NewFromInt(525)))
}

func TestRepositoryImpl_Get_NotFound(t *testing.T) {
	ctx, repo, _, _ := setupTestRepository(t)

	_, err := repo.Get(ctx, uuid.New())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryImpl_List_FiltersByCSS(t *testing.T) {
	// given
	ctx, repo, cssID, userID := setupTestRepository(t)
	otherCSS := test_utils.InsertCSS(t, db, "CSS-"+uuid.NewString()[:8], "Autre CSS")
	otherUser := test_utils.InsertUser(t, db, "u-"+uuid.NewString()[:8], "user_css", &otherCSS)

	mine := sampleRequest(cssID, userID)
	theirs := sampleRequest(otherCSS, otherUser)
	theirs.Reference = "DEM-2025-002"
	_, err := repo.Store(ctx, mine)
	require.NoError(t, err)
	_, err = repo.Store(ctx, theirs)
	require.NoError(t, err)

	// when
	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	scoped, err := repo.List(ctx, &cssID)
	require.NoError(t, err)

	// then
	assert.Len(t, all, 2)
	require.Len(t, scoped, 1)
	assert.Equal(t, mine.ID, scoped[0].ID)
	require.Len(t, scoped[0].Days, 2)
}

func TestRepositoryImpl_UpdateStatus(t *testing.T) {
	// given
	ctx, repo, cssID, userID := setupTestRepository(t)
	request := sampleRequest(cssID, userID)
	_, err := repo.Store(ctx, request)
	require.NoError(t, err)
	reviewer := test_utils.InsertUser(t, db, "admin-"+uuid.NewString()[:8], "admin_cgtsim", nil)

	require.NoError(t, request.ApplyReview(ActionApprove, reviewer, "ok", time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)))

	// when
	updated, err := repo.UpdateStatus(ctx, request, StatusPending)

	// then
	require.NoError(t, err)
	assert.True(t, updated)
	stored, err := repo.Get(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
	assert.Equal(t, "ok", stored.ReviewNotes)

	// a second actor working from the stale pending snapshot must lose
	updated, err = repo.UpdateStatus(ctx, request, StatusPending)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestRepositoryImpl_NextReferenceSeq(t *testing.T) {
	// given
	ctx, repo, cssID, userID := setupTestRepository(t)

	// when empty
	seq, err := repo.NextReferenceSeq(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	// when requests exist
	first := sampleRequest(cssID, userID)
	_, err = repo.Store(ctx, first)
	require.NoError(t, err)
	second := sampleRequest(cssID, userID)
	second.Reference = "DEM-2025-007"
	_, err = repo.Store(ctx, second)
	require.NoError(t, err)

	seq, err = repo.NextReferenceSeq(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 8, seq)

	// then another year starts over
	seq, err = repo.NextReferenceSeq(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	// the sequence is numeric, not lexicographic: 1000 beats 999
	third := sampleRequest(cssID, userID)
	third.Reference = "DEM-2025-999"
	_, err = repo.Store(ctx, third)
	require.NoError(t, err)
	fourth := sampleRequest(cssID, userID)
	fourth.Reference = "DEM-2025-1000"
	_, err = repo.Store(ctx, fourth)
	require.NoError(t, err)

	seq, err = repo.NextReferenceSeq(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1001, seq)
}
