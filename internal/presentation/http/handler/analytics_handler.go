package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/grablet/merchant-api/internal/application/service"
	"github.com/grablet/merchant-api/internal/domain/enum"
	"github.com/grablet/merchant-api/internal/presentation/http/dto/request"
	"github.com/grablet/merchant-api/internal/presentation/http/dto/response"
)

// AnalyticsHandler handles merchant analytics HTTP requests
type AnalyticsHandler struct {
	summaries  *service.SalesSummaryService
	trends     *service.SalesTrendService
	topItems   *service.TopItemsService
	bundles    *service.BundleService
	categories *service.CategoryService
	catalog    *service.ItemCatalogService
	dashboard  *service.DashboardService
}

// AnalyticsServices groups the services behind the analytics routes
type AnalyticsServices struct {
	Summaries  *service.SalesSummaryService
	Trends     *service.SalesTrendService
	TopItems   *service.TopItemsService
	Bundles    *service.BundleService
	Categories *service.CategoryService
	Catalog    *service.ItemCatalogService
	Dashboard  *service.DashboardService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(s AnalyticsServices) *AnalyticsHandler {
	return &AnalyticsHandler{
		summaries:  s.Summaries,
		trends:     s.Trends,
		topItems:   s.TopItems,
		bundles:    s.Bundles,
		categories: s.Categories,
		catalog:    s.Catalog,
		dashboard:  s.Dashboard,
	}
}

// Summary handles the period sales summary
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	var q request.SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	period, err := enum.ParsePeriod(orDefault(q.Period, string(enum.PeriodDay)))
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.summaries.Summarize(c.Request.Context(), GetMerchantID(c), period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sales summary retrieved successfully", summary)
}

// Trend handles the bucketed sales trend
func (h *AnalyticsHandler) Trend(c *gin.Context) {
	var q request.TrendQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	granularity, err := enum.ParseGranularity(orDefault(q.Granularity, string(enum.GranularityDaily)))
	if err != nil {
		response.Error(c, err)
		return
	}

	trend, err := h.trends.Trend(c.Request.Context(), GetMerchantID(c), granularity)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sales trend retrieved successfully", trend)
}

// TopItems handles the top items ranking
func (h *AnalyticsHandler) TopItems(c *gin.Context) {
	var q request.LimitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "limit must be between 1 and 50")
		return
	}

	result, err := h.topItems.TopItems(c.Request.Context(), GetMerchantID(c), q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Top items retrieved successfully", result)
}

// BestSeller handles the single most sold item
func (h *AnalyticsHandler) BestSeller(c *gin.Context) {
	best, err := h.topItems.BestSeller(c.Request.Context(), GetMerchantID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Best seller retrieved successfully", best)
}

// Bundles handles frequently ordered item pairs
func (h *AnalyticsHandler) Bundles(c *gin.Context) {
	var q request.LimitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "limit must be between 1 and 50")
		return
	}

	result, err := h.bundles.FrequentPairs(c.Request.Context(), GetMerchantID(c), q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Frequent pairs retrieved successfully", result)
}

// Categories handles the cuisine distribution
func (h *AnalyticsHandler) Categories(c *gin.Context) {
	result, err := h.categories.Distribution(c.Request.Context(), GetMerchantID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Category distribution retrieved successfully", result)
}

// Items handles listing the merchant's catalog
func (h *AnalyticsHandler) Items(c *gin.Context) {
	var q request.ItemListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.catalog.ListItems(c.Request.Context(), GetMerchantID(c), q.Params())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, "Items retrieved successfully", result)
}

// Overview handles the dashboard headline figures
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	overview, err := h.dashboard.Overview(c.Request.Context(), GetMerchantID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Overview retrieved successfully", overview)
}
