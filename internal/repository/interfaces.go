package repository

import (
	"context"
	"errors"

	"github.com/rpattn/engrest/internal/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// OrganizationRepository defines the interface for organization operations.
type OrganizationRepository interface {
	Create(ctx context.Context, org domain.Organization) (domain.Organization, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Organization, error)
	GetByName(ctx context.Context, name string) (domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
}

// EntitySchemaRepository defines the interface for entity schema operations.
type EntitySchemaRepository interface {
	Create(ctx context.Context, schema domain.EntitySchema) (domain.EntitySchema, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.EntitySchema, error)
	GetByName(ctx context.Context, organizationID uuid.UUID, name string) (domain.EntitySchema, error)
	List(ctx context.Context, organizationID uuid.UUID) ([]domain.EntitySchema, error)
}

// EntityRepository defines the interface for entity operations.
type EntityRepository interface {
	Create(ctx context.Context, entity domain.Entity) (domain.Entity, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Entity, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Entity, error)
	// List executes query against the organization's entities. Annotation
	// values are materialized into each entity's properties under their
	// keys. limit<=0 disables SQL-level paging; the returned count is the
	// total number of matches regardless of paging.
	List(ctx context.Context, organizationID uuid.UUID, query domain.EntityQuery, limit, offset int) ([]domain.Entity, int, error)
	Update(ctx context.Context, entity domain.Entity) (domain.Entity, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByType(ctx context.Context, organizationID uuid.UUID, entityType string) (int64, error)
}
