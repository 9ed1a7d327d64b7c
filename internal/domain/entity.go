package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entity represents a dynamic entity instance described by an EntitySchema.
type Entity struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	SchemaID       uuid.UUID      `json:"schema_id"`
	EntityType     string         `json:"entity_type"`
	Path           string         `json:"path"`
	Properties     map[string]any `json:"properties"`
	Version        int64          `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewEntity creates a new entity with immutable pattern.
func NewEntity(organizationID, schemaID uuid.UUID, entityType, path string, properties map[string]any) Entity {
	now := time.Now()
	return Entity{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		SchemaID:       schemaID,
		EntityType:     entityType,
		Path:           path,
		Properties:     copyProperties(properties),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// WithProperties returns a new entity with replaced properties.
func (e Entity) WithProperties(properties map[string]any) Entity {
	next := e
	next.Properties = copyProperties(properties)
	next.UpdatedAt = time.Now()
	return next
}

// WithPath returns a new entity with an updated hierarchical path.
func (e Entity) WithPath(path string) Entity {
	next := e
	next.Properties = copyProperties(e.Properties)
	next.Path = path
	next.UpdatedAt = time.Now()
	return next
}

// GetPropertiesAsJSONB marshals properties for JSONB storage.
func (e *Entity) GetPropertiesAsJSONB() (json.RawMessage, error) {
	if e.Properties == nil {
		e.Properties = make(map[string]any)
	}
	return json.Marshal(e.Properties)
}

// FromJSONBProperties creates a properties map from JSONB data.
func FromJSONBProperties(propertiesJSON json.RawMessage) (map[string]any, error) {
	var properties map[string]any
	err := json.Unmarshal(propertiesJSON, &properties)
	return properties, err
}

// GetParentPath returns the parent path of the entity's path, or "" for roots.
func (e Entity) GetParentPath() string {
	idx := strings.LastIndex(e.Path, ".")
	if idx < 0 {
		return ""
	}
	return e.Path[:idx]
}

func copyProperties(properties map[string]any) map[string]any {
	copied := make(map[string]any, len(properties))
	for key, value := range properties {
		copied[key] = value
	}
	return copied
}
