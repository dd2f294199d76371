package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"point-service/internal/models"
	"point-service/internal/store"
)

func newTestServices(t *testing.T) (*PointService, *PointQueryService, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	query := NewPointQueryService(mem.Balances(), mem.Ledger(), zerolog.Nop())
	query.now = func() int64 { return 777 }
	return NewPointService(mem, zerolog.Nop()), query, mem
}

func TestGetPoint_UnknownUser(t *testing.T) {
	_, query, _ := newTestServices(t)

	point, err := query.GetPoint(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, models.UserPoint{ID: 12, Point: 0, UpdateMillis: 777}, point)
}

func TestGetHistories_UnknownUser(t *testing.T) {
	_, query, _ := newTestServices(t)

	histories, err := query.GetHistories(context.Background(), 12)
	require.NoError(t, err)
	assert.NotNil(t, histories)
	assert.Empty(t, histories)
}

func TestReads_AreIdempotent(t *testing.T) {
	svc, query, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Charge(ctx, 1, 300, 10)
	require.NoError(t, err)
	_, err = svc.Use(ctx, 1, 100, 20)
	require.NoError(t, err)

	p1, err := query.GetPoint(ctx, 1)
	require.NoError(t, err)
	p2, err := query.GetPoint(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	h1, err := query.GetHistories(ctx, 1)
	require.NoError(t, err)
	h2, err := query.GetHistories(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestGetHistories_OrderedAndScopedToUser(t *testing.T) {
	svc, query, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Charge(ctx, 1, 100, 10)
	require.NoError(t, err)
	_, err = svc.Charge(ctx, 2, 999, 11)
	require.NoError(t, err)
	_, err = svc.Charge(ctx, 1, 50, 12)
	require.NoError(t, err)
	_, err = svc.Use(ctx, 1, 30, 13)
	require.NoError(t, err)

	histories, err := query.GetHistories(ctx, 1)
	require.NoError(t, err)
	require.Len(t, histories, 3)

	assert.Equal(t, []int64{100, 150, 120}, []int64{histories[0].Amount, histories[1].Amount, histories[2].Amount})
	assert.Less(t, histories[0].ID, histories[1].ID)
	assert.Less(t, histories[1].ID, histories[2].ID)
	assert.Less(t, histories[0].UpdateMillis, histories[2].UpdateMillis)
	for _, h := range histories {
		assert.Equal(t, int64(1), h.UserID)
	}
}

func TestGetPointAt(t *testing.T) {
	svc, query, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Charge(ctx, 1, 1000, 100)
	require.NoError(t, err)
	_, err = svc.Use(ctx, 1, 400, 200)
	require.NoError(t, err)

	tests := []struct {
		at   int64
		want int64
	}{
		{50, 0},
		{100, 1000},
		{150, 1000},
		{200, 600},
		{10_000, 600},
	}
	for _, tt := range tests {
		got, err := query.GetPointAt(ctx, 1, tt.at)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "at %d", tt.at)
	}
}

func TestGetPointAt_TimestampsOutOfOrder(t *testing.T) {
	svc, query, _ := newTestServices(t)
	ctx := context.Background()

	// a request stamped earlier can win the lock later
	_, err := svc.Charge(ctx, 1, 1000, 200)
	require.NoError(t, err)
	_, err = svc.Charge(ctx, 1, 500, 150)
	require.NoError(t, err)

	histories, err := query.GetHistories(ctx, 1)
	require.NoError(t, err)
	require.Len(t, histories, 2)
	require.Greater(t, histories[0].UpdateMillis, histories[1].UpdateMillis)

	tests := []struct {
		at   int64
		want int64
	}{
		{100, 0},
		{150, 1500},
		{175, 1500},
		{199, 1500},
		{200, 1500},
		{300, 1500},
	}
	for _, tt := range tests {
		got, err := query.GetPointAt(ctx, 1, tt.at)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "at %d", tt.at)
	}
}

func TestGetPointAt_PicksHighestIDAmongEligible(t *testing.T) {
	svc, query, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Charge(ctx, 1, 1000, 100)
	require.NoError(t, err)
	_, err = svc.Charge(ctx, 1, 500, 300)
	require.NoError(t, err)
	_, err = svc.Use(ctx, 1, 200, 120)
	require.NoError(t, err)

	got, err := query.GetPointAt(ctx, 1, 150)
	require.NoError(t, err)
	assert.Equal(t, int64(1300), got)

	got, err = query.GetPointAt(ctx, 1, 110)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got)
}

func TestReconcile(t *testing.T) {
	svc, query, mem := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Charge(ctx, 1, 1000, 100)
	require.NoError(t, err)

	result, err := query.Reconcile(ctx, 1)
	require.NoError(t, err)
	assert.True(t, result.Consistent)
	assert.Equal(t, 1, result.Entries)
	assert.Equal(t, int64(1000), result.LedgerPoint)

	// a balance written outside the engine has no matching entry
	require.NoError(t, mem.Balances().Write(ctx, 1, 5, 200))

	result, err = query.Reconcile(ctx, 1)
	require.NoError(t, err)
	assert.False(t, result.Consistent)
	assert.Equal(t, int64(5), result.StoredPoint)
	assert.Equal(t, int64(1000), result.LedgerPoint)
}

func TestReconcile_UnknownUser(t *testing.T) {
	_, query, _ := newTestServices(t)

	result, err := query.Reconcile(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, result.Consistent)
	assert.Zero(t, result.Entries)
}
