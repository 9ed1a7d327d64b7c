package pagination

import (
	"net/http"
	"strconv"

	"github.com/rpattn/engrest/internal/viewset"
)

// LimitOffset paginates collections through limit/offset query parameters.
// The paginator itself is shared and stateless; everything request-specific
// lives in the parsed window.
type LimitOffset struct {
	// DefaultLimit applies when the request carries no pagination
	// parameters. Zero disables implicit pagination.
	DefaultLimit int
	// MaxLimit caps client-supplied limits. Zero means uncapped.
	MaxLimit int
}

// NewLimitOffset builds a paginator with the given limits.
func NewLimitOffset(defaultLimit, maxLimit int) *LimitOffset {
	return &LimitOffset{DefaultLimit: defaultLimit, MaxLimit: maxLimit}
}

// Window parses the request's paging window. ok=false means the request
// opts out of pagination entirely and the caller renders the bare set.
// The window is what callers push down into the storage query.
func (p *LimitOffset) Window(r *http.Request) (int, int, bool) {
	query := r.URL.Query()
	limitRaw := query.Get("limit")
	offsetRaw := query.Get("offset")

	if limitRaw == "" && offsetRaw == "" && p.DefaultLimit <= 0 {
		return 0, 0, false
	}

	limit := p.DefaultLimit
	if n, err := strconv.Atoi(limitRaw); err == nil && n > 0 {
		limit = n
	}
	if limit <= 0 {
		return 0, 0, false
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}

	offset := 0
	if n, err := strconv.Atoi(offsetRaw); err == nil && n > 0 {
		offset = n
	}
	return limit, offset, true
}

// Envelope wraps serialized results with pagination metadata.
func (p *LimitOffset) Envelope(page viewset.Page, results []map[string]any) map[string]any {
	return map[string]any{
		"items":      results,
		"totalCount": page.Total,
		"limit":      page.Limit,
		"offset":     page.Offset,
	}
}
