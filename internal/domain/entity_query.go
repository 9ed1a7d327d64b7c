package domain

import (
	"sort"
	"strings"
)

// SortDirection represents ordering direction for sortable fields.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// OrderingKey is one resolved sort key, e.g. "name" or "-created_at".
// A leading minus requests descending order.
type OrderingKey string

// Field strips the direction prefix from the key.
func (k OrderingKey) Field() string {
	return strings.TrimPrefix(string(k), "-")
}

// Direction reports the requested sort direction.
func (k OrderingKey) Direction() SortDirection {
	if strings.HasPrefix(string(k), "-") {
		return SortDirectionDesc
	}
	return SortDirectionAsc
}

// Annotation is a computed field attached to one query execution. Its Expr is
// a server-declared SQL expression evaluated per row; keys vary per request
// depending on how the query was constructed, not per schema.
type Annotation struct {
	Key  string
	Expr string
}

// EntityQuery bundles the filter, ordering and computed annotations for one
// entity listing. A fresh value is built for every request and discarded
// after it; queries never share mutable state.
type EntityQuery struct {
	Filter      EntityFilter
	Ordering    []OrderingKey
	Annotations []Annotation
}

// AnnotationKeys returns the computed field keys on this query, sorted for
// deterministic iteration.
func (q EntityQuery) AnnotationKeys() []string {
	keys := make([]string, 0, len(q.Annotations))
	for _, annotation := range q.Annotations {
		keys = append(keys, annotation.Key)
	}
	sort.Strings(keys)
	return keys
}

// AnnotationByKey returns the annotation with the given key.
func (q EntityQuery) AnnotationByKey(key string) (Annotation, bool) {
	for _, annotation := range q.Annotations {
		if annotation.Key == key {
			return annotation, true
		}
	}
	return Annotation{}, false
}
