package models

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// MaxPage is the highest page index whose offset still fits in an int
const MaxPage = math.MaxInt/MaxPageSize - 1

// PageRequest selects a 0-indexed page of results
type PageRequest struct {
	Page int
	Size int
}

// Normalize clamps the request to sane bounds
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows skipped before the page
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one page of results together with paging metadata
type Page[T any] struct {
	Items         []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

// NewPage fills in the paging metadata for items
func NewPage[T any](items []T, req PageRequest, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Items:         items,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

// MapPage converts the items of a page keeping its metadata
func MapPage[T, U any](p Page[T], fn func(T) (U, error)) (Page[U], error) {
	out := make([]U, 0, len(p.Items))
	for _, item := range p.Items {
		u, err := fn(item)
		if err != nil {
			return Page[U]{}, err
		}
		out = append(out, u)
	}
	return Page[U]{
		Items:         out,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}, nil
}
