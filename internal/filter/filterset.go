package filter

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rpattn/engrest/internal/domain"
)

// Predicate applies one query-parameter value onto the accumulating filter.
type Predicate func(filter *domain.EntityFilter, value string) error

// Set declares which query predicates an endpoint accepts and how each one
// maps onto the domain filter. Sets are built once at endpoint declaration
// time and shared read-only across requests.
type Set struct {
	predicates map[string]Predicate
	params     []string
}

// NewSet creates an empty predicate set.
func NewSet() *Set {
	return &Set{predicates: make(map[string]Predicate)}
}

// With registers a predicate for the given query parameter and returns the
// set for chaining.
func (s *Set) With(param string, predicate Predicate) *Set {
	if _, ok := s.predicates[param]; !ok {
		s.params = append(s.params, param)
	}
	s.predicates[param] = predicate
	return s
}

// Filter applies every declared predicate whose parameter is present.
// Parameters outside the set are ignored; a malformed value for a declared
// parameter is a client error.
func (s *Set) Filter(values url.Values) (domain.EntityFilter, error) {
	var filter domain.EntityFilter
	for _, param := range s.params {
		value := values.Get(param)
		if value == "" {
			continue
		}
		if err := s.predicates[param](&filter, value); err != nil {
			return domain.EntityFilter{}, fmt.Errorf("parameter %q: %w", param, err)
		}
	}
	return filter, nil
}

// EntityType filters on the entity's type.
func EntityType() Predicate {
	return func(filter *domain.EntityFilter, value string) error {
		filter.EntityType = value
		return nil
	}
}

// PathPrefix filters on the hierarchical path prefix.
func PathPrefix() Predicate {
	return func(filter *domain.EntityFilter, value string) error {
		filter.PathPrefix = value
		return nil
	}
}

// TextSearch filters on a free-text match over properties and path.
func TextSearch() Predicate {
	return func(filter *domain.EntityFilter, value string) error {
		filter.TextSearch = value
		return nil
	}
}

// Property filters on an exact property value, e.g. property=status:active.
// A trailing ":" with no value asserts presence of the key instead.
func Property() Predicate {
	return func(filter *domain.EntityFilter, value string) error {
		key, propertyValue, found := strings.Cut(value, ":")
		if key == "" {
			return fmt.Errorf("property filter needs a key, got %q", value)
		}
		if !found || propertyValue == "" {
			exists := true
			filter.PropertyFilters = append(filter.PropertyFilters, domain.PropertyFilter{Key: key, Exists: &exists})
			return nil
		}
		filter.PropertyFilters = append(filter.PropertyFilters, domain.PropertyFilter{Key: key, Value: propertyValue})
		return nil
	}
}

// CreatedAfter filters entities created at or after an RFC3339 timestamp.
func CreatedAfter() Predicate {
	return func(filter *domain.EntityFilter, value string) error {
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return fmt.Errorf("%q is not an RFC3339 timestamp", value)
		}
		filter.CreatedAfter = &t
		return nil
	}
}

// CreatedBefore filters entities created before an RFC3339 timestamp.
func CreatedBefore() Predicate {
	return func(filter *domain.EntityFilter, value string) error {
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return fmt.Errorf("%q is not an RFC3339 timestamp", value)
		}
		filter.CreatedBefore = &t
		return nil
	}
}

// Default is the base filter set most endpoints start from: entity type and
// free-text search.
func Default() *Set {
	return NewSet().
		With("entity_type", EntityType()).
		With("q", TextSearch())
}
