package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/grablet/merchant-api/internal/config"
	"github.com/grablet/merchant-api/internal/domain/analytics"
	"github.com/grablet/merchant-api/internal/domain/entity"
	"github.com/grablet/merchant-api/internal/domain/repository"
	"github.com/grablet/merchant-api/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// memStore answers every repository port from in-memory tables, mirroring the
// SQL of the gorm repositories
type memStore struct {
	mu           sync.Mutex
	merchants    []entity.Merchant
	items        []entity.Item
	transactions []entity.Transaction
	lines        []entity.TransactionItem

	err   error // returned by every query when set
	delay time.Duration

	latestCalls int64
	txCalls     int64
	topCalls    int64
}

var (
	_ repository.AnalyticsRepository = (*memStore)(nil)
	_ repository.ItemRepository      = (*memStore)(nil)
	_ repository.OrderRepository     = (*memStore)(nil)
	_ repository.MerchantRepository  = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{}
}

func (s *memStore) addItem(merchantID, itemID, name, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, entity.Item{
		ItemID:     itemID,
		MerchantID: merchantID,
		ItemName:   name,
		ItemPrice:  decimal.RequireFromString(price),
	})
}

func (s *memStore) addTaggedItem(merchantID, itemID, name, tag string) {
	s.addItem(merchantID, itemID, name, "10")
	s.mu.Lock()
	defer s.mu.Unlock()
	if tag != "" {
		t := tag
		s.items[len(s.items)-1].CuisineTag = &t
	}
}

func (s *memStore) addOrder(merchantID, orderID string, at time.Time, value string, itemIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, entity.Transaction{
		OrderID:    orderID,
		MerchantID: merchantID,
		OrderTime:  at,
		OrderValue: decimal.RequireFromString(value),
	})
	for _, itemID := range itemIDs {
		s.lines = append(s.lines, entity.TransactionItem{
			ID:       uint(len(s.lines) + 1),
			OrderID:  orderID,
			ItemID:   itemID,
			Quantity: 1,
		})
	}
}

func (s *memStore) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *memStore) wait(ctx context.Context) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *memStore) GetLatestTransactionDate(ctx context.Context) (*time.Time, error) {
	atomic.AddInt64(&s.latestCalls, 1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *time.Time
	for _, t := range s.transactions {
		d := analytics.DateOf(t.OrderTime)
		if latest == nil || d.After(*latest) {
			latest = &d
		}
	}
	return latest, nil
}

func (s *memStore) ListMerchantTransactions(ctx context.Context, merchantID string) ([]repository.TransactionRow, error) {
	atomic.AddInt64(&s.txCalls, 1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []repository.TransactionRow
	for _, t := range s.transactions {
		if t.MerchantID == merchantID {
			rows = append(rows, repository.TransactionRow{OrderID: t.OrderID, OrderTime: t.OrderTime, OrderValue: t.OrderValue})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].OrderTime.Before(rows[j].OrderTime) })
	return rows, nil
}

// linesIn returns the merchant's order lines placed inside [start, end]
func (s *memStore) linesIn(merchantID string, start, end time.Time) []entity.TransactionItem {
	w := analytics.NewWindow(start, end)
	orders := make(map[string]bool)
	for _, t := range s.transactions {
		if t.MerchantID == merchantID && w.Contains(t.OrderTime) {
			orders[t.OrderID] = true
		}
	}
	var out []entity.TransactionItem
	for _, l := range s.lines {
		if orders[l.OrderID] {
			out = append(out, l)
		}
	}
	return out
}

func (s *memStore) itemOf(merchantID, itemID string) (entity.Item, bool) {
	for _, it := range s.items {
		if it.ItemID == itemID && it.MerchantID == merchantID {
			return it, true
		}
	}
	return entity.Item{}, false
}

func (s *memStore) GetTopItems(ctx context.Context, merchantID string, start, end time.Time, limit int) ([]repository.ItemCountRow, error) {
	atomic.AddInt64(&s.topCalls, 1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]*repository.ItemCountRow)
	for _, l := range s.linesIn(merchantID, start, end) {
		item, ok := s.itemOf(merchantID, l.ItemID)
		if !ok {
			continue
		}
		row, ok := counts[l.ItemID]
		if !ok {
			row = &repository.ItemCountRow{ItemID: item.ItemID, ItemName: item.ItemName, ItemPrice: item.ItemPrice}
			counts[l.ItemID] = row
		}
		row.ItemCount++
	}

	rows := make([]repository.ItemCountRow, 0, len(counts))
	for _, r := range counts {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ItemCount != rows[j].ItemCount {
			return rows[i].ItemCount > rows[j].ItemCount
		}
		return rows[i].ItemID < rows[j].ItemID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *memStore) CountOrderLines(ctx context.Context, merchantID string, start, end time.Time) (int64, error) {
	if err := s.wait(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.linesIn(merchantID, start, end))), nil
}

func (s *memStore) GetCategoryCounts(ctx context.Context, merchantID string) ([]repository.CategoryCountRow, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int64)
	tags := make(map[string]*string)
	far := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, l := range s.linesIn(merchantID, time.Time{}, far) {
		item, ok := s.itemOf(merchantID, l.ItemID)
		if !ok {
			continue
		}
		key := ""
		if item.CuisineTag != nil {
			key = "#" + *item.CuisineTag
		}
		counts[key]++
		tags[key] = item.CuisineTag
	}

	rows := make([]repository.CategoryCountRow, 0, len(counts))
	for k, c := range counts {
		rows = append(rows, repository.CategoryCountRow{CuisineTag: tags[k], LineCount: c})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].LineCount > rows[j].LineCount })
	return rows, nil
}

func (s *memStore) ListByMerchant(ctx context.Context, merchantID string) ([]entity.Item, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []entity.Item
	for _, it := range s.items {
		if it.MerchantID == merchantID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	return items, nil
}

func (s *memStore) ListOrderIDs(ctx context.Context, merchantID string) ([]string, error) {
	rows, err := s.ListMerchantTransactions(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.OrderID)
	}
	return ids, nil
}

func (s *memStore) ListOrderLines(ctx context.Context, orderIDs []string) ([]repository.OrderLineRow, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}
	var rows []repository.OrderLineRow
	for _, l := range s.lines {
		if wanted[l.OrderID] {
			rows = append(rows, repository.OrderLineRow{OrderID: l.OrderID, ItemID: l.ItemID, Quantity: l.Quantity, Price: l.Price})
		}
	}
	return rows, nil
}

func (s *memStore) GetByID(ctx context.Context, merchantID string) (*entity.Merchant, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.merchants {
		if m.MerchantID == merchantID {
			m := m
			return &m, nil
		}
	}
	return nil, nil
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		QueryTimeout:   time.Second,
		TopItemsLimit:  5,
		BundleLimit:    3,
		LabelMaxLen:    11,
		CurrencyPrefix: "RM",
	}
}

// services wires every analytics service over one store with in-memory caches
type services struct {
	store     *memStore
	anchor    *DateAnchor
	catalog   *ItemCatalogService
	summaries *SalesSummaryService
	trends    *SalesTrendService
	topItems  *TopItemsService
	bundles   *BundleService
	dashboard *DashboardService
}

func newServices(store *memStore) *services {
	cfg := testConfig()
	log := zap.NewNop()

	anchor := NewDateAnchor(store, cache.NewMemoryCache[time.Time](0), log)
	catalog := NewItemCatalogService(store, cfg, log)
	summaries := NewSalesSummaryService(store, anchor, cfg, log)
	trends := NewSalesTrendService(store, anchor, cfg, log)
	topItems := NewTopItemsService(store, catalog, anchor, cache.NewMemoryCache[TopItemsResult](0), cfg, log)

	return &services{
		store:     store,
		anchor:    anchor,
		catalog:   catalog,
		summaries: summaries,
		trends:    trends,
		topItems:  topItems,
		bundles:   NewBundleService(store, catalog, cfg, log),
		dashboard: NewDashboardService(summaries, trends, topItems, anchor, log),
	}
}
