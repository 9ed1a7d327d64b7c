package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpattn/engrest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const organizationColumns = "id, name, description, created_at, updated_at"

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository creates a pgx-backed organization repository.
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

func (r *organizationRepository) Create(ctx context.Context, org domain.Organization) (domain.Organization, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO organizations (id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+organizationColumns,
		org.ID, org.Name, org.Description, org.CreatedAt, org.UpdatedAt,
	)
	created, err := scanOrganization(row)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("failed to create organization: %w", err)
	}
	return created, nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Organization, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id)
	org, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Organization{}, ErrNotFound
		}
		return domain.Organization{}, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

func (r *organizationRepository) GetByName(ctx context.Context, name string) (domain.Organization, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE name = $1`, name)
	org, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Organization{}, ErrNotFound
		}
		return domain.Organization{}, fmt.Errorf("failed to get organization by name: %w", err)
	}
	return org, nil
}

func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+organizationColumns+` FROM organizations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []domain.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func scanOrganization(row pgx.Row) (domain.Organization, error) {
	var org domain.Organization
	err := row.Scan(&org.ID, &org.Name, &org.Description, &org.CreatedAt, &org.UpdatedAt)
	return org, err
}
