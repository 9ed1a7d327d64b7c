package domain

import "time"

// EntityFilter represents filtering options for listing entities.
type EntityFilter struct {
	EntityType      string
	PathPrefix      string
	TextSearch      string
	PropertyFilters []PropertyFilter
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
}

// PropertyFilter represents a property-level filter.
type PropertyFilter struct {
	Key    string
	Value  string
	Exists *bool
}

// IsZero reports whether the filter constrains anything at all.
func (f EntityFilter) IsZero() bool {
	return f.EntityType == "" &&
		f.PathPrefix == "" &&
		f.TextSearch == "" &&
		len(f.PropertyFilters) == 0 &&
		f.CreatedAfter == nil &&
		f.CreatedBefore == nil
}
