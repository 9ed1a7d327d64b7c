package domain

import (
	"time"

	"github.com/google/uuid"
)

// Organization scopes schemas and entities to one tenant.
type Organization struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewOrganization creates a new organization.
func NewOrganization(name, description string) Organization {
	now := time.Now()
	return Organization{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
