package middleware

import (
	"context"
	"net/http"

	"github.com/rpattn/engrest/internal/entityloader"
	"github.com/rpattn/engrest/internal/repository"

	"github.com/graph-gophers/dataloader"
)

type ctxKey string

const entityLoaderKey ctxKey = "entityLoader"

// DataLoaderMiddleware attaches a fresh batched entity loader to each
// request context. Serializers use it to expand entity references without
// issuing one query per item.
func DataLoaderMiddleware(repo repository.EntityRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loader := entityloader.NewEntityLoader(repo)
			ctx := context.WithValue(r.Context(), entityLoaderKey, loader.Loader)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EntityLoaderFromContext retrieves the request's entity loader, if any.
func EntityLoaderFromContext(ctx context.Context) *dataloader.Loader {
	if l, ok := ctx.Value(entityLoaderKey).(*dataloader.Loader); ok {
		return l
	}
	return nil
}
