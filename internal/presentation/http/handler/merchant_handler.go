package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/grablet/merchant-api/internal/application/service"
	"github.com/grablet/merchant-api/internal/presentation/http/dto/request"
	"github.com/grablet/merchant-api/internal/presentation/http/dto/response"
)

// MerchantHandler handles merchant profile and maintenance requests
type MerchantHandler struct {
	merchantService *service.MerchantService
	cacheService    *service.CacheService
}

// NewMerchantHandler creates a new merchant handler
func NewMerchantHandler(merchantService *service.MerchantService, cacheService *service.CacheService) *MerchantHandler {
	return &MerchantHandler{merchantService: merchantService, cacheService: cacheService}
}

// Get handles getting a merchant by id
func (h *MerchantHandler) Get(c *gin.Context) {
	merchant, err := h.merchantService.Get(c.Request.Context(), GetMerchantID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Merchant retrieved successfully", merchant)
}

// InvalidateCache drops memoized analytics after a data reload
func (h *MerchantHandler) InvalidateCache(c *gin.Context) {
	var q request.InvalidateCacheQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	if err := h.cacheService.Invalidate(c.Request.Context(), q.MerchantID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cache invalidated successfully", gin.H{"merchant_id": q.MerchantID})
}
