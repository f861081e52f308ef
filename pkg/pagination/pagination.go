package pagination

import (
	"math"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Pagination describes one page of a listing
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// Params are the page query parameters
type Params struct {
	Page    int `form:"page" json:"page"`
	PerPage int `form:"per_page" json:"per_page"`
}

// DefaultParams returns the first page with the default page size
func DefaultParams() Params {
	return Params{Page: 1, PerPage: DefaultPerPage}
}

// Normalize clamps the parameters into their valid ranges
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset is the index of the first element of the page
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// NewPagination builds the page metadata for total elements
func NewPagination(page, perPage int, total int64) *Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(perPage)))
	}

	return &Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// Result is a page of items with its metadata
type Result[T any] struct {
	Items      []T         `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Paginate cuts the requested page out of an already materialized listing.
// Pages past the end are empty, never nil.
func Paginate[T any](all []T, params Params) *Result[T] {
	params = params.Normalize()

	start := params.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + params.PerPage
	if end > len(all) {
		end = len(all)
	}

	items := make([]T, end-start)
	copy(items, all[start:end])

	return &Result[T]{
		Items:      items,
		Pagination: NewPagination(params.Page, params.PerPage, int64(len(all))),
	}
}
