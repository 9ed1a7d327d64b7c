// Package serializer implements the concrete serialization engine behind
// the viewset Serializer contract: schema-aware projections of entities
// into response maps.
package serializer

import (
	"context"
	"sync"
	"time"

	"github.com/rpattn/engrest/internal/domain"
	"github.com/rpattn/engrest/internal/middleware"
	"github.com/rpattn/engrest/internal/repository"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader"
)

// Detail renders entity metadata plus every property, expanding entity
// references into embedded summaries through the request's batched loader.
type Detail struct {
	schemas repository.EntitySchemaRepository

	// schemaCache avoids re-reading schema definitions per entity.
	schemaCache sync.Map // map[uuid.UUID]domain.EntitySchema
}

// NewDetail creates the detail serializer.
func NewDetail(schemas repository.EntitySchemaRepository) *Detail {
	return &Detail{schemas: schemas}
}

func (d *Detail) Serialize(ctx context.Context, entity domain.Entity) (map[string]any, error) {
	out := entityMeta(entity)
	out["version"] = entity.Version
	if parent := entity.GetParentPath(); parent != "" {
		out["parentPath"] = parent
	}

	properties := make(map[string]any, len(entity.Properties))
	for key, value := range entity.Properties {
		properties[key] = value
	}

	if schema, ok := d.schemaFor(ctx, entity.SchemaID); ok {
		for _, field := range schema.Fields {
			if field.Type != domain.FieldTypeEntityReference {
				continue
			}
			raw, ok := properties[field.Name]
			if !ok {
				continue
			}
			if expanded, ok := resolveReference(ctx, raw); ok {
				properties[field.Name] = expanded
			}
		}
	}

	out["properties"] = properties
	return out, nil
}

func (d *Detail) SerializeMany(ctx context.Context, entities []domain.Entity) ([]map[string]any, error) {
	results := make([]map[string]any, len(entities))
	for i, entity := range entities {
		result, err := d.Serialize(ctx, entity)
		if err != nil {
			return nil, err
		}
		results[i] = result
	}
	return results, nil
}

func (d *Detail) schemaFor(ctx context.Context, schemaID uuid.UUID) (domain.EntitySchema, bool) {
	if cached, ok := d.schemaCache.Load(schemaID); ok {
		return cached.(domain.EntitySchema), true
	}
	if d.schemas == nil {
		return domain.EntitySchema{}, false
	}
	schema, err := d.schemas.GetByID(ctx, schemaID)
	if err != nil {
		// Reference expansion is best effort; the raw id still renders.
		return domain.EntitySchema{}, false
	}
	d.schemaCache.Store(schemaID, schema)
	return schema, true
}

// Summary renders entity metadata plus a fixed subset of properties. It is
// the cheap serializer for collection listings.
type Summary struct {
	fields []string
}

// NewSummary creates a summary serializer projecting the given property keys.
func NewSummary(fields ...string) *Summary {
	return &Summary{fields: fields}
}

func (s *Summary) Serialize(ctx context.Context, entity domain.Entity) (map[string]any, error) {
	out := entityMeta(entity)
	if len(s.fields) > 0 {
		properties := make(map[string]any, len(s.fields))
		for _, field := range s.fields {
			if value, ok := entity.Properties[field]; ok {
				properties[field] = value
			}
		}
		out["properties"] = properties
	}
	return out, nil
}

func (s *Summary) SerializeMany(ctx context.Context, entities []domain.Entity) ([]map[string]any, error) {
	results := make([]map[string]any, len(entities))
	for i, entity := range entities {
		result, err := s.Serialize(ctx, entity)
		if err != nil {
			return nil, err
		}
		results[i] = result
	}
	return results, nil
}

func entityMeta(entity domain.Entity) map[string]any {
	return map[string]any{
		"id":         entity.ID.String(),
		"entityType": entity.EntityType,
		"path":       entity.Path,
		"createdAt":  entity.CreatedAt.Format(time.RFC3339),
		"updatedAt":  entity.UpdatedAt.Format(time.RFC3339),
	}
}

// resolveReference swaps a referenced entity id for an embedded summary.
// Anything that fails leaves the raw value in place.
func resolveReference(ctx context.Context, raw any) (map[string]any, bool) {
	id, ok := raw.(string)
	if !ok {
		return nil, false
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	loader := middleware.EntityLoaderFromContext(ctx)
	if loader == nil {
		return nil, false
	}

	thunk := loader.Load(ctx, dataloader.StringKey(id))
	data, err := thunk()
	if err != nil || data == nil {
		return nil, false
	}
	referenced, ok := data.(domain.Entity)
	if !ok {
		return nil, false
	}
	return map[string]any{
		"id":         referenced.ID.String(),
		"entityType": referenced.EntityType,
		"path":       referenced.Path,
	}, true
}
