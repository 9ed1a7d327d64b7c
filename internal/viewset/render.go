package viewset

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rpattn/engrest/internal/domain"
)

// Page is the request-scoped window of a result set. Total counts every
// match, not just the rows inside the window.
type Page struct {
	Limit  int
	Offset int
	Total  int
}

// Paginator decides per request whether pagination applies and, when it
// does, supplies the window the storage query must honor and wraps the
// rendered results in its envelope. Pagination state lives in the request;
// the paginator itself is shared.
type Paginator interface {
	// Window parses the request's paging window. ok=false means the request
	// opts out of pagination and the full set renders bare.
	Window(r *http.Request) (limit, offset int, ok bool)
	// Envelope wraps serialized page results in the paginator's payload
	// format.
	Envelope(page Page, results []map[string]any) map[string]any
}

// Renderer builds a response payload from the action's resolved serializer
// and an optional pagination pass.
type Renderer struct {
	Paginator Paginator
}

// Window exposes the paginator's window so callers can push it down into
// the storage query. Without a paginator nothing is windowed.
func (rd *Renderer) Window(r *http.Request) (limit, offset int, ok bool) {
	if rd == nil || rd.Paginator == nil {
		return 0, 0, false
	}
	return rd.Paginator.Window(r)
}

// Render serializes entities with the given serializer. Collections whose
// request carries a pagination window are wrapped in the paginator's
// envelope with total as the full match count; entities are expected to be
// pre-windowed by the caller. Otherwise many controls whether the payload
// is a bare sequence or a single unwrapped object.
func (rd *Renderer) Render(ctx context.Context, r *http.Request, serializer Serializer, entities []domain.Entity, total int, many bool) (any, error) {
	if many && rd.Paginator != nil {
		if limit, offset, ok := rd.Paginator.Window(r); ok {
			results, err := serializer.SerializeMany(ctx, entities)
			if err != nil {
				return nil, err
			}
			return rd.Paginator.Envelope(Page{Limit: limit, Offset: offset, Total: total}, results), nil
		}
	}

	if many {
		return serializer.SerializeMany(ctx, entities)
	}
	if len(entities) != 1 {
		return nil, fmt.Errorf("expected exactly one entity to render, got %d", len(entities))
	}
	return serializer.Serialize(ctx, entities[0])
}
