package entityloader

import (
	"context"
	"fmt"
	"time"

	"github.com/rpattn/engrest/internal/domain"
	"github.com/rpattn/engrest/internal/repository"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader"
)

// EntityLoader batches entity lookups by id within one request so reference
// expansion over a page of results issues a single query.
type EntityLoader struct {
	Loader *dataloader.Loader
}

// NewEntityLoader creates a request-scoped batched entity loader.
func NewEntityLoader(repo repository.EntityRepository) *EntityLoader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]uuid.UUID, len(keys))
		for i, k := range keys {
			id, err := uuid.Parse(k.String())
			if err != nil {
				return []*dataloader.Result{{Error: fmt.Errorf("invalid UUID: %w", err)}}
			}
			ids[i] = id
		}

		entities, err := repo.GetByIDs(ctx, ids)
		if err != nil {
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		entityMap := make(map[uuid.UUID]domain.Entity, len(entities))
		for _, e := range entities {
			entityMap[e.ID] = e
		}

		// Results must line up with the requested key order.
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if e, ok := entityMap[id]; ok {
				results[i] = &dataloader.Result{Data: e}
			} else {
				results[i] = &dataloader.Result{Data: nil}
			}
		}
		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(5*time.Millisecond))
	return &EntityLoader{Loader: loader}
}
