package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// MerchantIDParam is the route parameter naming the merchant
const MerchantIDParam = "merchant_id"

// GetMerchantID extracts the merchant id from the route
func GetMerchantID(c *gin.Context) string {
	return strings.TrimSpace(c.Param(MerchantIDParam))
}

// orDefault returns value, or fallback when value is blank
func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
