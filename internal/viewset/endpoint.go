package viewset

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rpattn/engrest/internal/domain"
)

// Serializer converts entities to their wire representation. The engine
// behind it is opaque to resolution; endpoints only pick which one applies.
type Serializer interface {
	Serialize(ctx context.Context, entity domain.Entity) (map[string]any, error)
	SerializeMany(ctx context.Context, entities []domain.Entity) ([]map[string]any, error)
}

// FilterSet parses request query values into a domain filter. Like
// Serializer it is an opaque collaborator; resolution only selects it.
type FilterSet interface {
	Filter(values url.Values) (domain.EntityFilter, error)
}

// ConfigurationError reports a resource endpoint whose declaration cannot
// serve the current action. It is a deployment defect, not a client error:
// the REST layer maps it to a 500 and it is never absorbed into a fallback.
type ConfigurationError struct {
	Endpoint string
	Action   Action
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("endpoint %q: %s (action %q)", e.Endpoint, e.Reason, e.Action)
}

// Endpoint is a resource endpoint definition: one routing unit serving every
// action of a logical resource. All per-action maps are declared once at
// startup and never mutated afterwards, so concurrent requests resolve
// against them without locking.
//
// Serializers is the one mandatory channel: every supported action must have
// an entry, and resolution misses there are fatal. FilterSets and the two
// ordering maps are optional overrides that fall back to the base fields.
type Endpoint struct {
	Name    string
	Actions ActionSet

	// Serializers maps each action to its serializer. Mandatory.
	Serializers map[Action]Serializer

	// FilterSets maps actions to action-specific filter sets; FilterSet is
	// the non-action-scoped default used on any miss. Both optional.
	FilterSets map[Action]FilterSet
	FilterSet  FilterSet

	// OrderingFields maps actions to the orderable-field declaration;
	// BaseOrderingFields applies on a miss.
	OrderingFields     map[Action]FieldSpec
	BaseOrderingFields FieldSpec

	// Ordering maps actions to the default ordering applied when the client
	// requests none; BaseOrdering applies on a miss.
	Ordering     map[Action][]domain.OrderingKey
	BaseOrdering []domain.OrderingKey
}

// Supports reports whether the endpoint serves the given action.
func (e *Endpoint) Supports(action Action) bool {
	return e.Actions.Contains(action)
}

// SerializerFor resolves the serializer registered for action.
//
// There is no fallback: serialization cannot proceed without a schema, so an
// undeclared Serializers map and a map lacking the action's key are both
// fatal configuration errors. The two cases carry distinct messages because
// they are fixed differently (declare the map vs. complete it).
func (e *Endpoint) SerializerFor(action Action) (Serializer, error) {
	if e.Serializers == nil {
		return nil, &ConfigurationError{
			Endpoint: e.Name,
			Action:   action,
			Reason:   "no Serializers map declared",
		}
	}
	serializer, ok := Lookup(e.Serializers, action)
	if !ok {
		return nil, &ConfigurationError{
			Endpoint: e.Name,
			Action:   action,
			Reason:   "Serializers map does not contain a value for this action",
		}
	}
	return serializer, nil
}

// FilterSetFor resolves the filter set for action, falling back to the
// endpoint's base filter set on any miss. Filtering is optional, so this
// channel never errors; the result may be nil when the endpoint declares no
// filtering at all.
func (e *Endpoint) FilterSetFor(action Action) FilterSet {
	if filterSet, ok := Lookup(e.FilterSets, action); ok {
		return filterSet
	}
	return e.FilterSet
}
