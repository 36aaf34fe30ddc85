package shared

import (
	"math"
	"net/url"
	"strconv"
)

// Page size limits for listings.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest is the page-number window requested by a client.
type PageRequest struct {
	Page     int
	PageSize int
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PageRequestFromQuery reads page and page_size. Missing or invalid values
// fall back to defaults; page_size is capped at MaxPageSize.
func PageRequestFromQuery(q url.Values) PageRequest {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	size, err := strconv.Atoi(q.Get("page_size"))
	if err != nil || size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PageRequest{Page: page, PageSize: size}
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"page_size"`
	Total      int `json:"count"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Page is a paginated listing payload.
type Page[T any] struct {
	Pagination
	Results []T `json:"results"`
}

// NewPage wraps one page of results with its metadata.
func NewPage[T any](req PageRequest, total int, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{Pagination: NewPagination(req.Page, req.PageSize, total), Results: results}
}
