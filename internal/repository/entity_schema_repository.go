package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpattn/engrest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaColumns = "id, organization_id, name, version, fields, created_at"

type entitySchemaRepository struct {
	pool *pgxpool.Pool
}

// NewEntitySchemaRepository creates a pgx-backed schema repository.
func NewEntitySchemaRepository(pool *pgxpool.Pool) EntitySchemaRepository {
	return &entitySchemaRepository{pool: pool}
}

func (r *entitySchemaRepository) Create(ctx context.Context, schema domain.EntitySchema) (domain.EntitySchema, error) {
	fieldsJSON, err := json.Marshal(schema.Fields)
	if err != nil {
		return domain.EntitySchema{}, fmt.Errorf("failed to marshal schema fields: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO entity_schemas (id, organization_id, name, version, fields, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+schemaColumns,
		schema.ID, schema.OrganizationID, schema.Name, schema.Version, fieldsJSON, schema.CreatedAt,
	)
	created, err := scanSchema(row)
	if err != nil {
		return domain.EntitySchema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return created, nil
}

func (r *entitySchemaRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.EntitySchema, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+schemaColumns+` FROM entity_schemas WHERE id = $1`, id)
	schema, err := scanSchema(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EntitySchema{}, ErrNotFound
		}
		return domain.EntitySchema{}, fmt.Errorf("failed to get schema: %w", err)
	}
	return schema, nil
}

func (r *entitySchemaRepository) GetByName(ctx context.Context, organizationID uuid.UUID, name string) (domain.EntitySchema, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+schemaColumns+` FROM entity_schemas
		 WHERE organization_id = $1 AND name = $2
		 ORDER BY version DESC LIMIT 1`,
		organizationID, name,
	)
	schema, err := scanSchema(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EntitySchema{}, ErrNotFound
		}
		return domain.EntitySchema{}, fmt.Errorf("failed to get schema by name: %w", err)
	}
	return schema, nil
}

func (r *entitySchemaRepository) List(ctx context.Context, organizationID uuid.UUID) ([]domain.EntitySchema, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (name) `+schemaColumns+` FROM entity_schemas
		 WHERE organization_id = $1
		 ORDER BY name, version DESC`,
		organizationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer rows.Close()

	var schemas []domain.EntitySchema
	for rows.Next() {
		schema, err := scanSchema(rows)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, schema)
	}
	return schemas, rows.Err()
}

func scanSchema(row pgx.Row) (domain.EntitySchema, error) {
	var (
		schema     domain.EntitySchema
		fieldsJSON []byte
	)
	err := row.Scan(&schema.ID, &schema.OrganizationID, &schema.Name, &schema.Version, &fieldsJSON, &schema.CreatedAt)
	if err != nil {
		return domain.EntitySchema{}, err
	}
	if err := json.Unmarshal(fieldsJSON, &schema.Fields); err != nil {
		return domain.EntitySchema{}, fmt.Errorf("failed to decode schema fields: %w", err)
	}
	return schema, nil
}
