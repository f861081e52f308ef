package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grablet/merchant-api/internal/domain/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rankedMerchant sells A three times, B twice and C once on 2024-01-10
func rankedMerchant() *memStore {
	store := newMemStore()
	store.addItem("M1", "A", "Nasi Lemak Special", "12.50")
	store.addItem("M1", "B", "Teh Tarik", "3.00")
	store.addItem("M1", "C", "Roti Canai", "2.20")
	store.addOrder("M1", "o1", at(2024, time.January, 10, 9, 0), "15.50", "A", "B")
	store.addOrder("M1", "o2", at(2024, time.January, 9, 9, 0), "15.50", "A", "B")
	store.addOrder("M1", "o3", at(2024, time.January, 8, 9, 0), "14.70", "A", "C")
	return store
}

func TestTopItems_RanksAndShares(t *testing.T) {
	svc := newServices(rankedMerchant())

	result, err := svc.topItems.TopItems(context.Background(), "M1", 2)
	require.NoError(t, err)

	assert.Equal(t, enum.StatusSuccess, result.Status)
	assert.Equal(t, "2023-12-12", result.StartDate)
	assert.Equal(t, "2024-01-10", result.EndDate)
	require.Len(t, result.Items, 2)

	assert.Equal(t, "A", result.Items[0].ItemID)
	assert.Equal(t, int64(3), result.Items[0].Count)
	assert.Equal(t, 60, result.Items[0].Percentage)
	assert.Equal(t, 12.5, result.Items[0].Price)
	assert.Equal(t, "B", result.Items[1].ItemID)
	assert.Equal(t, 40, result.Items[1].Percentage)

	// presentation ids follow the catalog, not the ranking
	assert.Equal(t, 1, result.Items[0].ID)
	assert.Equal(t, 2, result.Items[1].ID)

	require.NotNil(t, result.ChartData)
	assert.Equal(t, []string{"Nasi Lemak .", "Teh Tarik"}, result.ChartData.Labels)
	assert.Equal(t, []int64{3, 2}, result.ChartData.Datasets[0].Data)
	assert.Equal(t, "Nasi Lemak Special", result.BestSeller)
	assert.Equal(t, 60, result.BestSellerPercent)
}

func TestTopItems_TiesBreakOnItemID(t *testing.T) {
	store := newMemStore()
	store.addItem("M1", "B", "Bravo", "1")
	store.addItem("M1", "A", "Alpha", "1")
	store.addOrder("M1", "o1", at(2024, time.January, 10, 9, 0), "2", "B", "A")
	svc := newServices(store)

	result, err := svc.topItems.TopItems(context.Background(), "M1", 5)
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, "A", result.Items[0].ItemID)
	assert.Equal(t, 50, result.Items[0].Percentage)
	assert.Equal(t, 50, result.Items[1].Percentage)
}

func TestTopItems_FirstRankingIsMemoized(t *testing.T) {
	store := rankedMerchant()
	svc := newServices(store)
	ctx := context.Background()

	first, err := svc.topItems.TopItems(ctx, "M1", 2)
	require.NoError(t, err)

	// neither new sales nor another limit change a memoized ranking
	store.addOrder("M1", "o4", at(2024, time.January, 10, 19, 0), "9.00", "C", "C", "C")
	again, err := svc.topItems.TopItems(ctx, "M1", 5)
	require.NoError(t, err)
	assert.Equal(t, first.Items, again.Items)
	assert.Equal(t, int64(1), atomic.LoadInt64(&store.topCalls))

	require.NoError(t, svc.topItems.Invalidate(ctx, "M1"))
	fresh, err := svc.topItems.TopItems(ctx, "M1", 5)
	require.NoError(t, err)
	require.Len(t, fresh.Items, 3)
	assert.Equal(t, "C", fresh.Items[0].ItemID)
	assert.Equal(t, int64(4), fresh.Items[0].Count)
}

func TestTopItems_DefaultLimit(t *testing.T) {
	store := newMemStore()
	ids := []string{"I1", "I2", "I3", "I4", "I5", "I6", "I7"}
	for _, id := range ids {
		store.addItem("M1", id, "Item "+id, "1")
	}
	store.addOrder("M1", "o1", at(2024, time.January, 10, 9, 0), "7", ids...)
	svc := newServices(store)

	result, err := svc.topItems.TopItems(context.Background(), "M1", 0)
	require.NoError(t, err)
	assert.Len(t, result.Items, testConfig().TopItemsLimit)
}

func TestTopItems_LoadingIsNotMemoized(t *testing.T) {
	store := newMemStore()
	store.addItem("M1", "A", "Alpha", "1")
	// an order older than the ranking window
	store.addOrder("M1", "old", at(2023, time.November, 1, 9, 0), "1", "A")
	store.addOrder("M2", "latest", at(2024, time.January, 10, 9, 0), "1")
	svc := newServices(store)
	ctx := context.Background()

	result, err := svc.topItems.TopItems(ctx, "M1", 5)
	require.NoError(t, err)
	assert.Equal(t, enum.StatusLoading, result.Status)
	assert.Equal(t, msgRankingLoading, result.Message)
	assert.Empty(t, result.Items)
	assert.Nil(t, result.ChartData)

	store.addOrder("M1", "new", at(2024, time.January, 9, 9, 0), "1", "A")
	result, err = svc.topItems.TopItems(ctx, "M1", 5)
	require.NoError(t, err)
	assert.Equal(t, enum.StatusSuccess, result.Status)
}

func TestTopItems_ErrorIsNotMemoized(t *testing.T) {
	store := rankedMerchant()
	svc := newServices(store)
	ctx := context.Background()
	svc.anchor.Latest(ctx)

	store.fail(errors.New("statement timeout"))
	result, err := svc.topItems.TopItems(ctx, "M1", 2)
	require.NoError(t, err)
	assert.Equal(t, enum.StatusError, result.Status)
	assert.Equal(t, msgRankingError, result.Message)

	store.fail(nil)
	result, err = svc.topItems.TopItems(ctx, "M1", 2)
	require.NoError(t, err)
	assert.Equal(t, enum.StatusSuccess, result.Status)
}

func TestTopItems_ConcurrentMissesShareOneQuery(t *testing.T) {
	store := rankedMerchant()
	svc := newServices(store)
	ctx := context.Background()
	svc.anchor.Latest(ctx)
	store.delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.topItems.TopItems(ctx, "M1", 3)
			assert.NoError(t, err)
			assert.Equal(t, enum.StatusSuccess, result.Status)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&store.topCalls))
}

func TestBestSeller_UsesMemoizedRanking(t *testing.T) {
	store := rankedMerchant()
	svc := newServices(store)
	ctx := context.Background()

	_, err := svc.topItems.TopItems(ctx, "M1", 2)
	require.NoError(t, err)

	best, err := svc.topItems.BestSeller(ctx, "M1")
	require.NoError(t, err)
	assert.Equal(t, enum.StatusSuccess, best.Status)
	assert.Equal(t, "Nasi Lemak Special", best.Name)
	assert.Equal(t, 60, best.Percentage)
	assert.Equal(t, int64(1), atomic.LoadInt64(&store.topCalls))
}

func TestBestSeller_WithoutRankingUsesAllOrderLines(t *testing.T) {
	svc := newServices(rankedMerchant())

	best, err := svc.topItems.BestSeller(context.Background(), "M1")
	require.NoError(t, err)

	// 3 of 6 order lines
	assert.Equal(t, enum.StatusSuccess, best.Status)
	assert.Equal(t, "Nasi Lemak Special", best.Name)
	assert.Equal(t, 50, best.Percentage)
}

func TestBestSeller_Statuses(t *testing.T) {
	store := rankedMerchant()
	svc := newServices(store)
	ctx := context.Background()

	best, err := svc.topItems.BestSeller(ctx, "M9")
	require.NoError(t, err)
	assert.Equal(t, enum.StatusLoading, best.Status)

	store.fail(errors.New("boom"))
	best, err = svc.topItems.BestSeller(ctx, "M1")
	require.NoError(t, err)
	assert.Equal(t, enum.StatusError, best.Status)
	assert.Equal(t, msgRankingError, best.Message)
}

func TestInvalidateAll(t *testing.T) {
	store := rankedMerchant()
	svc := newServices(store)
	ctx := context.Background()

	_, err := svc.topItems.TopItems(ctx, "M1", 2)
	require.NoError(t, err)
	require.NoError(t, svc.topItems.InvalidateAll(ctx))

	_, err = svc.topItems.TopItems(ctx, "M1", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&store.topCalls))
}

func TestTopItems_CancelledCallerDoesNotFailWaiters(t *testing.T) {
	store := rankedMerchant()
	store.delay = 50 * time.Millisecond
	svc := newServices(store)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.topItems.TopItems(leaderCtx, "M1", 3)
		leaderErr <- err
	}()

	time.Sleep(10 * time.Millisecond)
	type outcome struct {
		result *TopItemsResult
		err    error
	}
	follower := make(chan outcome, 1)
	go func() {
		result, err := svc.topItems.TopItems(context.Background(), "M1", 3)
		follower <- outcome{result, err}
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	got := <-follower
	require.NoError(t, got.err)
	assert.Equal(t, enum.StatusSuccess, got.result.Status)
	assert.Equal(t, "Nasi Lemak Special", got.result.BestSeller)
	assert.Equal(t, int64(1), atomic.LoadInt64(&store.topCalls))
}

func TestBestSellerAt_ReusesRankingOfSameWindowOnly(t *testing.T) {
	svc := newServices(rankedMerchant())
	ctx := context.Background()

	_, err := svc.topItems.TopItems(ctx, "M1", 2)
	require.NoError(t, err)

	best, err := svc.topItems.BestSellerAt(ctx, "M1", day(2024, time.January, 10))
	require.NoError(t, err)
	assert.Equal(t, 60, best.Percentage)

	// a later anchor whose window still holds every order ignores the memoized ranking
	best, err = svc.topItems.BestSellerAt(ctx, "M1", day(2024, time.January, 20))
	require.NoError(t, err)
	assert.Equal(t, enum.StatusSuccess, best.Status)
	assert.Equal(t, 50, best.Percentage)

	best, err = svc.topItems.BestSellerAt(ctx, "M1", day(2024, time.March, 30))
	require.NoError(t, err)
	assert.Equal(t, enum.StatusLoading, best.Status)
}
