package rest

import (
	"github.com/rpattn/engrest/internal/domain"
	"github.com/rpattn/engrest/internal/viewset"
)

// intrinsicFields are the orderable columns every entity carries regardless
// of schema.
var intrinsicFields = []string{"id", "entity_type", "path", "version", "created_at", "updated_at"}

// entityFieldSource feeds wildcard ordering expansion: intrinsic columns
// plus the schema's declared fields, plus whatever annotations the current
// query carries. Built fresh per request because annotations are
// query-scoped.
type entityFieldSource struct {
	schema *domain.EntitySchema
	query  domain.EntityQuery
}

func (s *entityFieldSource) ModelFields() []viewset.FieldOption {
	options := make([]viewset.FieldOption, 0, len(intrinsicFields))
	for _, key := range intrinsicFields {
		options = append(options, viewset.FieldOption{Key: key, Label: domain.TitleLabel(key)})
	}
	if s.schema != nil {
		for _, field := range s.schema.Fields {
			options = append(options, viewset.FieldOption{Key: field.Name, Label: field.VerboseLabel()})
		}
	}
	return options
}

func (s *entityFieldSource) AnnotationKeys() []string {
	return s.query.AnnotationKeys()
}
