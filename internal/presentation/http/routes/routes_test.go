package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grablet/merchant-api/internal/application/service"
	"github.com/grablet/merchant-api/internal/config"
	"github.com/grablet/merchant-api/internal/domain/entity"
	"github.com/grablet/merchant-api/internal/domain/repository"
	"github.com/grablet/merchant-api/internal/infrastructure/cache"
	"github.com/grablet/merchant-api/internal/presentation/http/handler"
	"github.com/grablet/merchant-api/internal/presentation/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixtureRepo serves one merchant with a single order of two items
type fixtureRepo struct{}

var orderTime = time.Date(2024, time.January, 10, 12, 30, 0, 0, time.UTC)

func (fixtureRepo) GetLatestTransactionDate(context.Context) (*time.Time, error) {
	d := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	return &d, nil
}

func (fixtureRepo) ListMerchantTransactions(_ context.Context, merchantID string) ([]repository.TransactionRow, error) {
	if merchantID != "M1" {
		return nil, nil
	}
	return []repository.TransactionRow{{OrderID: "o1", OrderTime: orderTime, OrderValue: decimal.RequireFromString("8.70")}}, nil
}

func (fixtureRepo) GetTopItems(_ context.Context, merchantID string, _, _ time.Time, limit int) ([]repository.ItemCountRow, error) {
	if merchantID != "M1" {
		return nil, nil
	}
	rows := []repository.ItemCountRow{
		{ItemID: "X", ItemName: "Burger", ItemPrice: decimal.RequireFromString("5.50"), ItemCount: 1},
		{ItemID: "Y", ItemName: "Fries", ItemPrice: decimal.RequireFromString("3.20"), ItemCount: 1},
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (fixtureRepo) CountOrderLines(context.Context, string, time.Time, time.Time) (int64, error) {
	return 2, nil
}

func (fixtureRepo) GetCategoryCounts(context.Context, string) ([]repository.CategoryCountRow, error) {
	return []repository.CategoryCountRow{{LineCount: 2}}, nil
}

func (fixtureRepo) ListByMerchant(_ context.Context, merchantID string) ([]entity.Item, error) {
	if merchantID != "M1" {
		return nil, nil
	}
	return []entity.Item{
		{ItemID: "X", MerchantID: "M1", ItemName: "Burger", ItemPrice: decimal.RequireFromString("5.50")},
		{ItemID: "Y", MerchantID: "M1", ItemName: "Fries", ItemPrice: decimal.RequireFromString("3.20")},
	}, nil
}

func (fixtureRepo) ListOrderIDs(_ context.Context, merchantID string) ([]string, error) {
	if merchantID != "M1" {
		return nil, nil
	}
	return []string{"o1"}, nil
}

func (fixtureRepo) ListOrderLines(context.Context, []string) ([]repository.OrderLineRow, error) {
	return []repository.OrderLineRow{{OrderID: "o1", ItemID: "X", Quantity: 1}, {OrderID: "o1", ItemID: "Y", Quantity: 1}}, nil
}

func (fixtureRepo) GetByID(_ context.Context, merchantID string) (*entity.Merchant, error) {
	if merchantID != "M1" {
		return nil, nil
	}
	return &entity.Merchant{MerchantID: "M1", MerchantName: "Burger Bros"}, nil
}

func newTestRouter(t *testing.T, burst int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := fixtureRepo{}
	log := zap.NewNop()
	cfg := &config.Config{
		App: config.AppConfig{Name: "merchant-api"},
		Analytics: config.AnalyticsConfig{
			QueryTimeout:   time.Second,
			TopItemsLimit:  5,
			BundleLimit:    3,
			LabelMaxLen:    11,
			CurrencyPrefix: "RM",
		},
	}

	anchor := service.NewDateAnchor(repo, cache.NewMemoryCache[time.Time](0), log)
	catalog := service.NewItemCatalogService(repo, cfg.Analytics, log)
	summaries := service.NewSalesSummaryService(repo, anchor, cfg.Analytics, log)
	trends := service.NewSalesTrendService(repo, anchor, cfg.Analytics, log)
	topItems := service.NewTopItemsService(repo, catalog, anchor, cache.NewMemoryCache[service.TopItemsResult](0), cfg.Analytics, log)

	limiter := middleware.NewMerchantRateLimiter(middleware.RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: burst})
	t.Cleanup(limiter.Stop)

	return Setup(&Handlers{
		Analytics: handler.NewAnalyticsHandler(handler.AnalyticsServices{
			Summaries:  summaries,
			Trends:     trends,
			TopItems:   topItems,
			Bundles:    service.NewBundleService(repo, catalog, cfg.Analytics, log),
			Categories: service.NewCategoryService(repo, cfg.Analytics, log),
			Catalog:    catalog,
			Dashboard:  service.NewDashboardService(summaries, trends, topItems, anchor, log),
		}),
		Merchant: handler.NewMerchantHandler(
			service.NewMerchantService(repo),
			service.NewCacheService(anchor, topItems, log),
		),
	}, &Deps{Cfg: cfg, Log: log, RateLimiter: limiter})
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func do(t *testing.T, router *gin.Engine, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body envelope
	if w.Header().Get("Content-Type") != "" && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	}
	return w, body
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, 10)

	w, _ := do(t, router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestMerchantRoutes(t *testing.T) {
	router := newTestRouter(t, 100)

	tests := []struct {
		name     string
		method   string
		target   string
		status   int
		contains string
	}{
		{"merchant profile", http.MethodGet, "/api/v1/merchants/M1", http.StatusOK, `"merchant_name":"Burger Bros"`},
		{"unknown merchant", http.MethodGet, "/api/v1/merchants/M404", http.StatusNotFound, `"Merchant not found"`},
		{"summary", http.MethodGet, "/api/v1/merchants/M1/sales/summary?period=week", http.StatusOK, `"total_sales_formatted":"RM8.70"`},
		{"summary default period", http.MethodGet, "/api/v1/merchants/M1/sales/summary", http.StatusOK, `"start_date":"2024-01-10"`},
		{"invalid period", http.MethodGet, "/api/v1/merchants/M1/sales/summary?period=quarter", http.StatusBadRequest, `"success":false`},
		{"trend", http.MethodGet, "/api/v1/merchants/M1/sales/trend?granularity=daily", http.StatusOK, `"peak":"12:00-14:00"`},
		{"trend placeholder", http.MethodGet, "/api/v1/merchants/M2/sales/trend?granularity=weekly", http.StatusOK, `"status":"placeholder"`},
		{"invalid granularity", http.MethodGet, "/api/v1/merchants/M1/sales/trend?granularity=hourly", http.StatusBadRequest, `"success":false`},
		{"top items", http.MethodGet, "/api/v1/merchants/M1/items/top?limit=2", http.StatusOK, `"best_seller":"Burger"`},
		{"top items limit out of range", http.MethodGet, "/api/v1/merchants/M1/items/top?limit=500", http.StatusBadRequest, `"success":false`},
		{"best seller", http.MethodGet, "/api/v1/merchants/M1/items/best-seller", http.StatusOK, `"name":"Burger"`},
		{"bundles", http.MethodGet, "/api/v1/merchants/M1/items/bundles?limit=2", http.StatusOK, `"No more frequent pairs"`},
		{"items", http.MethodGet, "/api/v1/merchants/M1/items?page=1&per_page=1", http.StatusOK, `"total_pages":2`},
		{"categories", http.MethodGet, "/api/v1/merchants/M1/categories", http.StatusOK, `"name":"Uncategorized"`},
		{"overview", http.MethodGet, "/api/v1/merchants/M1/overview", http.StatusOK, `"today_sales":"RM8.70"`},
		{"cache invalidation", http.MethodPost, "/api/v1/admin/cache/invalidate?merchant_id=M1", http.StatusOK, `"merchant_id":"M1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(t, router, tt.method, tt.target)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.contains)
			assert.NotEmpty(t, body.Meta.RequestID)
		})
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	router := newTestRouter(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/merchants/M1", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
	assert.Contains(t, w.Body.String(), `"request_id":"req-123"`)
}

func TestRateLimitIsPerMerchant(t *testing.T) {
	router := newTestRouter(t, 2)

	for i := 0; i < 2; i++ {
		w, _ := do(t, router, http.MethodGet, "/api/v1/merchants/M1")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, body := do(t, router, http.MethodGet, "/api/v1/merchants/M1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// another merchant has its own allowance
	w, _ = do(t, router, http.MethodGet, "/api/v1/merchants/M404")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
