package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldType represents the type of a field in an entity schema.
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInteger   FieldType = "integer"
	FieldTypeFloat     FieldType = "float"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeTimestamp FieldType = "timestamp"
	FieldTypeJSON      FieldType = "json"
	// FieldTypeEntityReference holds the id of another entity; serializers may
	// expand it into an embedded summary of the referenced entity.
	FieldTypeEntityReference FieldType = "ENTITY_REFERENCE"
)

// FieldDefinition represents a field definition in a schema.
type FieldDefinition struct {
	Name        string    `json:"name"`
	Label       string    `json:"label,omitempty"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
	Default     string    `json:"default,omitempty"`
	// ReferenceEntityType names the related entity type for ENTITY_REFERENCE
	// fields. Optional; a reference may be standalone.
	ReferenceEntityType string `json:"referenceEntityType,omitempty"`
}

// VerboseLabel returns the declared label, or one derived from the field name.
func (f FieldDefinition) VerboseLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return TitleLabel(f.Name)
}

// EntitySchema describes the shape of one entity type for an organization.
type EntitySchema struct {
	ID             uuid.UUID         `json:"id"`
	OrganizationID uuid.UUID         `json:"organization_id"`
	Name           string            `json:"name"`
	Version        int64             `json:"version"`
	Fields         []FieldDefinition `json:"fields"`
	CreatedAt      time.Time         `json:"created_at"`
}

// FieldByName returns the field definition with the given name.
func (s EntitySchema) FieldByName(name string) (FieldDefinition, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldDefinition{}, false
}

// ValidateProperties checks properties against the schema: required fields
// must be present and values must match their declared types. Unknown keys
// are rejected so typos surface at write time instead of silently persisting.
func (s EntitySchema) ValidateProperties(properties map[string]any) error {
	for _, field := range s.Fields {
		value, ok := properties[field.Name]
		if !ok {
			if field.Required && field.Default == "" {
				return fmt.Errorf("missing required field %q", field.Name)
			}
			continue
		}
		if err := checkFieldValue(field, value); err != nil {
			return err
		}
	}
	for key := range properties {
		if _, ok := s.FieldByName(key); !ok {
			return fmt.Errorf("unknown field %q for schema %q", key, s.Name)
		}
	}
	return nil
}

// CoerceValue converts a raw string (CSV/XLSX cell) into the field's Go type.
func (s EntitySchema) CoerceValue(field FieldDefinition, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if field.Default != "" {
			return s.CoerceValue(field, field.Default)
		}
		if field.Required {
			return nil, fmt.Errorf("field %q is required", field.Name)
		}
		return nil, nil
	}

	switch field.Type {
	case FieldTypeString, FieldTypeEntityReference, FieldTypeJSON:
		return raw, nil
	case FieldTypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field %q: %q is not an integer", field.Name, raw)
		}
		return n, nil
	case FieldTypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("field %q: %q is not a number", field.Name, raw)
		}
		return f, nil
	case FieldTypeBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %q is not a boolean", field.Name, raw)
		}
		return b, nil
	case FieldTypeTimestamp:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %q is not an RFC3339 timestamp", field.Name, raw)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("field %q: unsupported type %q", field.Name, field.Type)
	}
}

func checkFieldValue(field FieldDefinition, value any) error {
	switch field.Type {
	case FieldTypeString, FieldTypeEntityReference:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field %q must be a string", field.Name)
		}
	case FieldTypeInteger:
		switch v := value.(type) {
		case int, int32, int64:
		case float64:
			if v != float64(int64(v)) {
				return fmt.Errorf("field %q must be an integer", field.Name)
			}
		default:
			return fmt.Errorf("field %q must be an integer", field.Name)
		}
	case FieldTypeFloat:
		switch value.(type) {
		case float32, float64, int, int64:
		default:
			return fmt.Errorf("field %q must be a number", field.Name)
		}
	case FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %q must be a boolean", field.Name)
		}
	case FieldTypeTimestamp:
		switch v := value.(type) {
		case time.Time:
		case string:
			if _, err := time.Parse(time.RFC3339, v); err != nil {
				return fmt.Errorf("field %q must be an RFC3339 timestamp", field.Name)
			}
		default:
			return fmt.Errorf("field %q must be a timestamp", field.Name)
		}
	case FieldTypeJSON:
		// Any JSON-decodable value is acceptable.
	default:
		return fmt.Errorf("field %q has unsupported type %q", field.Name, field.Type)
	}
	return nil
}

// TitleLabel derives a human-readable label from a snake_case key,
// e.g. "total_count" becomes "Total Count".
func TitleLabel(key string) string {
	words := strings.Split(key, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
