package request

import "github.com/grablet/merchant-api/pkg/pagination"

// SummaryQuery represents the sales summary query parameters
type SummaryQuery struct {
	Period string `form:"period"`
}

// TrendQuery represents the sales trend query parameters
type TrendQuery struct {
	Granularity string `form:"granularity"`
}

// LimitQuery caps the number of ranked entries. Zero selects the configured default.
type LimitQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// ItemListQuery represents item listing parameters
type ItemListQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// Params converts the query into pagination parameters
func (q ItemListQuery) Params() pagination.Params {
	return pagination.Params{Page: q.Page, PerPage: q.PerPage}.Normalize()
}

// InvalidateCacheQuery selects the merchant whose cached analytics are dropped.
// An empty merchant id drops every merchant's entries.
type InvalidateCacheQuery struct {
	MerchantID string `form:"merchant_id" binding:"omitempty,max=64"`
}
