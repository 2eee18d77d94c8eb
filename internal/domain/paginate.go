package domain

import "math"

// DefaultPageSize is the page size used when the caller does not pick one.
const DefaultPageSize = 8

// MaxPageSize caps caller-supplied limits.
const MaxPageSize = 100

// MaxPage caps caller-supplied page numbers so Offset cannot overflow.
const MaxPage = math.MaxInt32 / MaxPageSize

// Pagination describes one page of a list response.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Page is the list response envelope: { items, pagination }.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// PageRequest is a normalized page/limit pair.
type PageRequest struct {
	Page  int
	Limit int
}

// NormalizePage clamps page to [1, MaxPage] and limit to [1, MaxPageSize],
// using defaultLimit when limit is unset.
func NormalizePage(page, limit, defaultLimit int) PageRequest {
	if defaultLimit < 1 {
		defaultLimit = DefaultPageSize
	}
	page = min(max(page, 1), MaxPage)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset returns the number of items preceding the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// NewPagination builds pagination metadata for total items.
func NewPagination(total int, req PageRequest) Pagination {
	return Pagination{
		Total:      total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: (total + req.Limit - 1) / req.Limit,
	}
}

// Paginate slices an already filtered list into a page. A page past the end
// yields an empty item list, never an error.
func Paginate[T any](items []T, page, limit int) Page[T] {
	req := NormalizePage(page, limit, DefaultPageSize)

	start := min(req.Offset(), len(items))
	end := min(start+req.Limit, len(items))

	pageItems := make([]T, end-start)
	copy(pageItems, items[start:end])

	return Page[T]{
		Items:      pageItems,
		Pagination: NewPagination(len(items), req),
	}
}
