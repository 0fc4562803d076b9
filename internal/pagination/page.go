// Package pagination provides page/limit helpers for list endpoints.
package pagination

import "strconv"

const (
	// DefaultLimit is used when no limit is requested.
	DefaultLimit = 10
	// MaxLimit caps the page size a caller may request.
	MaxLimit = 100
)

// Params parses 1-based page and limit query values, clamping both to sane
// bounds. Malformed input falls back to the defaults.
func Params(pageStr, limitStr string) (page, limit int) {
	page = 1
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	limit = DefaultLimit
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
		limit = l
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Offset converts a 1-based page to a row offset.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// Page is the envelope list endpoints respond with.
type Page struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Pages int         `json:"pages"`
}

// NewPage wraps one page of results with its position in the full set.
func NewPage(data interface{}, total, page, limit int) Page {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Page{Data: data, Total: total, Page: page, Pages: pages}
}
