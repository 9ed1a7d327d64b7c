package viewset

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/rpattn/engrest/internal/domain"
)

type stubSerializer struct {
	name string
}

func (s *stubSerializer) Serialize(ctx context.Context, entity domain.Entity) (map[string]any, error) {
	return map[string]any{"serializer": s.name}, nil
}

func (s *stubSerializer) SerializeMany(ctx context.Context, entities []domain.Entity) ([]map[string]any, error) {
	results := make([]map[string]any, len(entities))
	for i := range entities {
		results[i] = map[string]any{"serializer": s.name}
	}
	return results, nil
}

type stubFilterSet struct {
	entityType string
}

func (s *stubFilterSet) Filter(values url.Values) (domain.EntityFilter, error) {
	return domain.EntityFilter{EntityType: s.entityType}, nil
}

func TestSerializerFor_FatalWhenMapNotDeclared(t *testing.T) {
	endpoint := &Endpoint{Name: "entities", Actions: CRUDActions()}

	_, err := endpoint.SerializerFor(ActionList)
	if err == nil {
		t.Fatalf("expected configuration error for undeclared Serializers map")
	}

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigurationError, got %T", err)
	}
	if cfgErr.Endpoint != "entities" || cfgErr.Action != ActionList {
		t.Fatalf("error missing diagnostics: %+v", cfgErr)
	}
	if !strings.Contains(cfgErr.Error(), "no Serializers map declared") {
		t.Fatalf("unexpected message: %s", cfgErr.Error())
	}
}

func TestSerializerFor_FatalWhenActionMissing(t *testing.T) {
	endpoint := &Endpoint{
		Name:    "entities",
		Actions: CRUDActions(),
		Serializers: map[Action]Serializer{
			ActionList: &stubSerializer{name: "summary"},
		},
	}

	_, err := endpoint.SerializerFor(ActionRetrieve)
	if err == nil {
		t.Fatalf("expected configuration error for missing action entry")
	}

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigurationError, got %T", err)
	}
	if cfgErr.Action != ActionRetrieve {
		t.Fatalf("expected action %q in error, got %q", ActionRetrieve, cfgErr.Action)
	}
	if !strings.Contains(cfgErr.Error(), "does not contain a value") {
		t.Fatalf("unexpected message: %s", cfgErr.Error())
	}
}

func TestSerializerFor_ReturnsExactRegisteredValue(t *testing.T) {
	detail := &stubSerializer{name: "detail"}
	endpoint := &Endpoint{
		Name:    "entities",
		Actions: CRUDActions(),
		Serializers: map[Action]Serializer{
			ActionRetrieve: detail,
			ActionList:     &stubSerializer{name: "summary"},
		},
	}

	resolved, err := endpoint.SerializerFor(ActionRetrieve)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != Serializer(detail) {
		t.Fatalf("expected the registered serializer instance back")
	}
}

func TestFilterSetFor_ActionSpecificThenBase(t *testing.T) {
	listSet := &stubFilterSet{entityType: "pump"}
	baseSet := &stubFilterSet{entityType: ""}
	endpoint := &Endpoint{
		Name:    "entities",
		Actions: CRUDActions(),
		FilterSets: map[Action]FilterSet{
			ActionList: listSet,
		},
		FilterSet: baseSet,
	}

	if got := endpoint.FilterSetFor(ActionList); got != FilterSet(listSet) {
		t.Fatalf("expected action-specific filter set for list")
	}
	if got := endpoint.FilterSetFor(ActionRetrieve); got != FilterSet(baseSet) {
		t.Fatalf("expected base filter set for retrieve")
	}
}

func TestFilterSetFor_NilWhenNothingDeclared(t *testing.T) {
	endpoint := &Endpoint{Name: "entities", Actions: ReadOnlyActions()}

	if got := endpoint.FilterSetFor(ActionList); got != nil {
		t.Fatalf("expected nil filter set, got %#v", got)
	}
}

func TestSelectorsAreIdempotent(t *testing.T) {
	endpoint := &Endpoint{
		Name:    "entities",
		Actions: CRUDActions(),
		Serializers: map[Action]Serializer{
			ActionList: &stubSerializer{name: "summary"},
		},
		FilterSets: map[Action]FilterSet{
			ActionList: &stubFilterSet{entityType: "pump"},
		},
		Ordering: map[Action][]domain.OrderingKey{
			ActionList: OrderBy("-created_at"),
		},
	}

	first, err := endpoint.SerializerFor(ActionList)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := endpoint.SerializerFor(ActionList)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("serializer selection drifted between calls")
	}

	if endpoint.FilterSetFor(ActionList) != endpoint.FilterSetFor(ActionList) {
		t.Fatalf("filter set selection drifted between calls")
	}

	a := endpoint.OrderingFor(ActionList)
	b := endpoint.OrderingFor(ActionList)
	if len(a) != len(b) || a[0] != b[0] {
		t.Fatalf("ordering selection drifted between calls: %v vs %v", a, b)
	}
}

func TestSupports_ChecksCapabilitySet(t *testing.T) {
	endpoint := &Endpoint{Name: "catalog", Actions: ReadOnlyActions()}

	if !endpoint.Supports(ActionList) || !endpoint.Supports(ActionRetrieve) {
		t.Fatalf("read-only endpoint should support list and retrieve")
	}
	if endpoint.Supports(ActionCreate) || endpoint.Supports(ActionDestroy) {
		t.Fatalf("read-only endpoint should not support write actions")
	}
}
