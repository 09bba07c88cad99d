package services

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// pageBounds turns a 1-based page and a limit into an offset and a capped limit.
// Pages past the largest representable offset are clamped to it.
func pageBounds(page, limit int) (skip, size int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page-1 > math.MaxInt/limit {
		page = math.MaxInt/limit + 1
	}
	return (page - 1) * limit, limit
}
