package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rpattn/engrest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entityColumns = "id, organization_id, schema_id, entity_type, path, properties, version, created_at, updated_at"

type entityRepository struct {
	pool *pgxpool.Pool
}

// NewEntityRepository creates a pgx-backed entity repository.
func NewEntityRepository(pool *pgxpool.Pool) EntityRepository {
	return &entityRepository{pool: pool}
}

// Create inserts a new entity.
func (r *entityRepository) Create(ctx context.Context, entity domain.Entity) (domain.Entity, error) {
	propertiesJSON, err := entity.GetPropertiesAsJSONB()
	if err != nil {
		return domain.Entity{}, fmt.Errorf("failed to marshal properties: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO entities (id, organization_id, schema_id, entity_type, path, properties, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+entityColumns,
		entity.ID, entity.OrganizationID, entity.SchemaID, entity.EntityType,
		entity.Path, propertiesJSON, entity.Version, entity.CreatedAt, entity.UpdatedAt,
	)
	created, err := scanEntity(row)
	if err != nil {
		return domain.Entity{}, fmt.Errorf("failed to create entity: %w", err)
	}
	return created, nil
}

// GetByID retrieves an entity by id.
func (r *entityRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Entity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = $1`, id)
	entity, err := scanEntity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Entity{}, ErrNotFound
		}
		return domain.Entity{}, fmt.Errorf("failed to get entity: %w", err)
	}
	return entity, nil
}

// GetByIDs retrieves entities in batch; missing ids are simply absent from
// the result.
func (r *entityRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get entities by ids: %w", err)
	}
	defer rows.Close()

	var entities []domain.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

// List executes the query against the organization's entities.
func (r *entityRepository) List(ctx context.Context, organizationID uuid.UUID, query domain.EntityQuery, limit, offset int) ([]domain.Entity, int, error) {
	var sb strings.Builder
	args := []any{organizationID}

	sb.WriteString("SELECT " + entityColumns + ", COUNT(*) OVER() AS total_count")
	for _, annotation := range query.Annotations {
		if !isSafeIdentifier(annotation.Key) {
			return nil, 0, fmt.Errorf("invalid annotation key %q", annotation.Key)
		}
		sb.WriteString(", (")
		sb.WriteString(annotation.Expr)
		sb.WriteString(") AS ")
		sb.WriteString(pgx.Identifier{annotation.Key}.Sanitize())
	}
	sb.WriteString(" FROM entities WHERE organization_id = $1")

	appendEntityFilter(&sb, &args, query.Filter)
	appendOrdering(&sb, query)

	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
		args = append(args, offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []domain.Entity
	total := 0
	for rows.Next() {
		entity, rowTotal, err := scanEntityWithAnnotations(rows, query.Annotations)
		if err != nil {
			return nil, 0, err
		}
		total = rowTotal
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read entity rows: %w", err)
	}
	return entities, total, nil
}

// Update stores new property/path values and bumps the version.
func (r *entityRepository) Update(ctx context.Context, entity domain.Entity) (domain.Entity, error) {
	propertiesJSON, err := entity.GetPropertiesAsJSONB()
	if err != nil {
		return domain.Entity{}, fmt.Errorf("failed to marshal properties: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE entities
		 SET entity_type = $2, path = $3, properties = $4, version = version + 1, updated_at = now()
		 WHERE id = $1
		 RETURNING `+entityColumns,
		entity.ID, entity.EntityType, entity.Path, propertiesJSON,
	)
	updated, err := scanEntity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Entity{}, ErrNotFound
		}
		return domain.Entity{}, fmt.Errorf("failed to update entity: %w", err)
	}
	return updated, nil
}

// Delete removes an entity.
func (r *entityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM entities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByType counts entities of one type for an organization.
func (r *entityRepository) CountByType(ctx context.Context, organizationID uuid.UUID, entityType string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM entities WHERE organization_id = $1 AND entity_type = $2`,
		organizationID, entityType,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	return count, nil
}

// ChildCountAnnotation computes the number of descendants per entity. Its key
// only appears on queries that request it, which is what makes the
// annotation set request-scoped.
func ChildCountAnnotation() domain.Annotation {
	return domain.Annotation{
		Key:  "child_count",
		Expr: "SELECT COUNT(*) FROM entities c WHERE c.organization_id = entities.organization_id AND c.path LIKE entities.path || '.%'",
	}
}

func appendEntityFilter(sb *strings.Builder, args *[]any, filter domain.EntityFilter) {
	if filter.EntityType != "" {
		*args = append(*args, filter.EntityType)
		fmt.Fprintf(sb, " AND entity_type = $%d", len(*args))
	}
	if filter.PathPrefix != "" {
		*args = append(*args, filter.PathPrefix)
		fmt.Fprintf(sb, " AND (path = $%d OR path LIKE $%d || '.%%')", len(*args), len(*args))
	}
	if filter.TextSearch != "" {
		*args = append(*args, "%"+filter.TextSearch+"%")
		fmt.Fprintf(sb, " AND (path ILIKE $%d OR entity_type ILIKE $%d OR properties::text ILIKE $%d)",
			len(*args), len(*args), len(*args))
	}
	for _, pf := range filter.PropertyFilters {
		if pf.Exists != nil {
			*args = append(*args, pf.Key)
			if *pf.Exists {
				fmt.Fprintf(sb, " AND properties ? $%d", len(*args))
			} else {
				fmt.Fprintf(sb, " AND NOT (properties ? $%d)", len(*args))
			}
			continue
		}
		*args = append(*args, pf.Key)
		keyArg := len(*args)
		*args = append(*args, pf.Value)
		fmt.Fprintf(sb, " AND properties->>$%d = $%d", keyArg, len(*args))
	}
	if filter.CreatedAfter != nil {
		*args = append(*args, *filter.CreatedAfter)
		fmt.Fprintf(sb, " AND created_at >= $%d", len(*args))
	}
	if filter.CreatedBefore != nil {
		*args = append(*args, *filter.CreatedBefore)
		fmt.Fprintf(sb, " AND created_at < $%d", len(*args))
	}
}

func appendOrdering(sb *strings.Builder, query domain.EntityQuery) {
	clauses := make([]string, 0, len(query.Ordering)+1)
	for _, key := range query.Ordering {
		expr, ok := orderingExpression(query, key.Field())
		if !ok {
			continue
		}
		if key.Direction() == domain.SortDirectionDesc {
			expr += " DESC"
		}
		clauses = append(clauses, expr)
	}
	// Stable tiebreaker so paging never shuffles rows.
	clauses = append(clauses, "id")
	sb.WriteString(" ORDER BY " + strings.Join(clauses, ", "))
}

// orderingExpression maps a resolved ordering field onto a SQL expression.
// Intrinsic columns and declared annotations map directly; any other field
// orders on the JSONB property of that name.
func orderingExpression(query domain.EntityQuery, field string) (string, bool) {
	if !isSafeIdentifier(field) {
		return "", false
	}
	switch field {
	case "id", "entity_type", "path", "version", "created_at", "updated_at":
		return field, true
	}
	if annotation, ok := query.AnnotationByKey(field); ok {
		return "(" + annotation.Expr + ")", true
	}
	return "properties->>'" + field + "'", true
}

func isSafeIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

func scanEntity(row pgx.Row) (domain.Entity, error) {
	var (
		entity         domain.Entity
		propertiesJSON []byte
	)
	err := row.Scan(
		&entity.ID, &entity.OrganizationID, &entity.SchemaID, &entity.EntityType,
		&entity.Path, &propertiesJSON, &entity.Version, &entity.CreatedAt, &entity.UpdatedAt,
	)
	if err != nil {
		return domain.Entity{}, err
	}
	properties, err := domain.FromJSONBProperties(propertiesJSON)
	if err != nil {
		return domain.Entity{}, fmt.Errorf("failed to decode properties: %w", err)
	}
	entity.Properties = properties
	return entity, nil
}

func scanEntityWithAnnotations(row pgx.Row, annotations []domain.Annotation) (domain.Entity, int, error) {
	var (
		entity         domain.Entity
		propertiesJSON []byte
		total          int
	)
	targets := []any{
		&entity.ID, &entity.OrganizationID, &entity.SchemaID, &entity.EntityType,
		&entity.Path, &propertiesJSON, &entity.Version, &entity.CreatedAt, &entity.UpdatedAt,
		&total,
	}
	annotationValues := make([]any, len(annotations))
	for i := range annotationValues {
		targets = append(targets, &annotationValues[i])
	}

	if err := row.Scan(targets...); err != nil {
		return domain.Entity{}, 0, fmt.Errorf("failed to scan entity row: %w", err)
	}

	properties, err := domain.FromJSONBProperties(propertiesJSON)
	if err != nil {
		return domain.Entity{}, 0, fmt.Errorf("failed to decode properties: %w", err)
	}
	for i, annotation := range annotations {
		properties[annotation.Key] = annotationValues[i]
	}
	entity.Properties = properties
	return entity, total, nil
}
