package viewset

import (
	"reflect"
	"testing"

	"github.com/rpattn/engrest/internal/domain"
)

type stubFieldSource struct {
	fields      []FieldOption
	annotations []string
}

func (s *stubFieldSource) ModelFields() []FieldOption {
	return s.fields
}

func (s *stubFieldSource) AnnotationKeys() []string {
	return s.annotations
}

func TestValidOrderingFields_WildcardExpandsFieldsAndAnnotations(t *testing.T) {
	endpoint := &Endpoint{
		Name:    "entities",
		Actions: CRUDActions(),
		OrderingFields: map[Action]FieldSpec{
			ActionList: AllFields(),
		},
	}
	source := &stubFieldSource{
		fields:      []FieldOption{Field("id"), Field("name")},
		annotations: []string{"total_count"},
	}

	got := endpoint.ValidOrderingFields(ActionList, source)
	want := []FieldOption{
		{Key: "id", Label: "Id"},
		{Key: "name", Label: "Name"},
		{Key: "total_count", Label: "Total Count"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("wildcard expansion mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestValidOrderingFields_WildcardVariesWithQueryAnnotations(t *testing.T) {
	endpoint := &Endpoint{
		Name:    "entities",
		Actions: CRUDActions(),
		OrderingFields: map[Action]FieldSpec{
			ActionList: AllFields(),
		},
	}

	bare := endpoint.ValidOrderingFields(ActionList, &stubFieldSource{
		fields: []FieldOption{Field("id")},
	})
	annotated := endpoint.ValidOrderingFields(ActionList, &stubFieldSource{
		fields:      []FieldOption{Field("id")},
		annotations: []string{"child_count"},
	})

	if len(bare) != 1 {
		t.Fatalf("expected one field without annotations, got %#v", bare)
	}
	if len(annotated) != 2 || annotated[1].Key != "child_count" {
		t.Fatalf("expected annotation in expansion, got %#v", annotated)
	}
}

func TestValidOrderingFields_NormalizesEntries(t *testing.T) {
	endpoint := &Endpoint{
		Name:    "entities",
		Actions: CRUDActions(),
		OrderingFields: map[Action]FieldSpec{
			ActionList: Fields(Field("created_at"), Labeled("id", "ID")),
		},
	}

	got := endpoint.ValidOrderingFields(ActionList, nil)
	want := []FieldOption{
		{Key: "created_at", Label: "created_at"},
		{Key: "id", Label: "ID"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalization mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestValidOrderingFields_MissFallsBackToBase(t *testing.T) {
	endpoint := &Endpoint{
		Name:               "entities",
		Actions:            CRUDActions(),
		BaseOrderingFields: Fields(Field("created_at")),
	}

	got := endpoint.ValidOrderingFields(ActionRetrieve, nil)
	if len(got) != 1 || got[0].Key != "created_at" || got[0].Label != "created_at" {
		t.Fatalf("expected base ordering fields on miss, got %#v", got)
	}
}

func TestValidOrderingFields_NothingDeclared(t *testing.T) {
	endpoint := &Endpoint{Name: "entities", Actions: CRUDActions()}

	if got := endpoint.ValidOrderingFields(ActionList, nil); got != nil {
		t.Fatalf("expected nil when no ordering fields declared, got %#v", got)
	}
}

func TestOrderingFor_ActionSpecificThenBase(t *testing.T) {
	endpoint := &Endpoint{
		Name:    "entities",
		Actions: CRUDActions(),
		Ordering: map[Action][]domain.OrderingKey{
			ActionList: OrderBy("-created_at", "name"),
		},
		BaseOrdering: OrderBy("path"),
	}

	list := endpoint.OrderingFor(ActionList)
	if len(list) != 2 || list[0] != "-created_at" || list[1] != "name" {
		t.Fatalf("unexpected list ordering: %v", list)
	}

	retrieve := endpoint.OrderingFor(ActionRetrieve)
	if len(retrieve) != 1 || retrieve[0] != "path" {
		t.Fatalf("expected base ordering on miss, got %v", retrieve)
	}
}

// A single-field default ordering stays one whole field name; it is never
// decomposed into per-character keys.
func TestOrderingFor_SingleFieldStaysWhole(t *testing.T) {
	endpoint := &Endpoint{
		Name:    "entities",
		Actions: CRUDActions(),
		Ordering: map[Action][]domain.OrderingKey{
			ActionList: OrderBy("created_at"),
		},
	}

	got := endpoint.OrderingFor(ActionList)
	if len(got) != 1 {
		t.Fatalf("expected one ordering key, got %d (%v)", len(got), got)
	}
	if got[0].Field() != "created_at" {
		t.Fatalf("expected whole field name, got %q", got[0])
	}
}

func TestOrderingKey_Direction(t *testing.T) {
	key := domain.OrderingKey("-updated_at")
	if key.Field() != "updated_at" {
		t.Fatalf("expected field %q, got %q", "updated_at", key.Field())
	}
	if key.Direction() != domain.SortDirectionDesc {
		t.Fatalf("expected descending direction")
	}
	if domain.OrderingKey("name").Direction() != domain.SortDirectionAsc {
		t.Fatalf("expected ascending direction for bare key")
	}
}
