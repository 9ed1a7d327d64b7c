package viewset

import (
	"github.com/rpattn/engrest/internal/domain"
)

// FieldOption pairs an orderable field key with its human-readable label.
type FieldOption struct {
	Key   string
	Label string
}

// Field declares an orderable field whose label defaults to its key.
func Field(key string) FieldOption {
	return FieldOption{Key: key}
}

// Labeled declares an orderable field with an explicit label.
func Labeled(key, label string) FieldOption {
	return FieldOption{Key: key, Label: label}
}

// FieldSpec declares which fields an action accepts for ordering: either an
// explicit list of entries, or the wildcard meaning "every model field plus
// every computed field on the current query". The zero value declares
// nothing orderable.
type FieldSpec struct {
	all    bool
	fields []FieldOption
}

// Fields builds a FieldSpec from explicit entries.
func Fields(fields ...FieldOption) FieldSpec {
	return FieldSpec{fields: fields}
}

// AllFields builds the wildcard FieldSpec. It is expanded per request, not at
// declaration time, because query annotations vary by query construction.
func AllFields() FieldSpec {
	return FieldSpec{all: true}
}

// IsZero reports whether the spec declares nothing.
func (s FieldSpec) IsZero() bool {
	return !s.all && s.fields == nil
}

// FieldSource supplies the introspection the wildcard expansion needs: the
// queryable model's declared (key, label) pairs and the computed annotation
// keys present on the current query.
type FieldSource interface {
	ModelFields() []FieldOption
	AnnotationKeys() []string
}

// ValidOrderingFields resolves the orderable fields for action.
//
// A per-action declaration wins; on a miss the endpoint's base declaration
// applies. The wildcard expands through source fresh on every call, and
// explicit entries are normalized so a bare key carries itself as label.
func (e *Endpoint) ValidOrderingFields(action Action, source FieldSource) []FieldOption {
	spec, ok := Lookup(e.OrderingFields, action)
	if !ok {
		spec = e.BaseOrderingFields
	}
	return spec.Resolve(source)
}

// Resolve materializes the spec against the given field source.
func (s FieldSpec) Resolve(source FieldSource) []FieldOption {
	if s.all {
		return expandAllFields(source)
	}
	if len(s.fields) == 0 {
		return nil
	}
	resolved := make([]FieldOption, len(s.fields))
	for i, field := range s.fields {
		if field.Label == "" {
			field.Label = field.Key
		}
		resolved[i] = field
	}
	return resolved
}

func expandAllFields(source FieldSource) []FieldOption {
	if source == nil {
		return nil
	}
	fields := source.ModelFields()
	resolved := make([]FieldOption, 0, len(fields))
	for _, field := range fields {
		if field.Label == "" {
			field.Label = domain.TitleLabel(field.Key)
		}
		resolved = append(resolved, field)
	}
	for _, key := range source.AnnotationKeys() {
		resolved = append(resolved, FieldOption{Key: key, Label: domain.TitleLabel(key)})
	}
	return resolved
}

// OrderingFor resolves the default ordering for action, falling back to the
// endpoint's base ordering on a miss. A single-field default is a one-element
// sequence holding the whole field name; it is never split up further.
func (e *Endpoint) OrderingFor(action Action) []domain.OrderingKey {
	if ordering, ok := Lookup(e.Ordering, action); ok {
		return ordering
	}
	return e.BaseOrdering
}

// OrderBy builds an ordering key sequence from field names, keeping any "-"
// direction prefixes.
func OrderBy(keys ...string) []domain.OrderingKey {
	ordering := make([]domain.OrderingKey, len(keys))
	for i, key := range keys {
		ordering[i] = domain.OrderingKey(key)
	}
	return ordering
}
