package serializer

import (
	"context"
	"testing"
	"time"

	"github.com/rpattn/engrest/internal/domain"

	"github.com/google/uuid"
)

func testEntity() domain.Entity {
	return domain.Entity{
		ID:         uuid.New(),
		EntityType: "pump",
		Path:       "plant.area1.pump7",
		Properties: map[string]any{
			"name":      "P-7",
			"status":    "active",
			"flow_rate": 12.5,
		},
		Version:   3,
		CreatedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestSummary_ProjectsSelectedFields(t *testing.T) {
	s := NewSummary("name", "status")

	out, err := s.Serialize(context.Background(), testEntity())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	properties, ok := out["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties map, got %#v", out["properties"])
	}
	if properties["name"] != "P-7" || properties["status"] != "active" {
		t.Fatalf("unexpected projection: %#v", properties)
	}
	if _, ok := properties["flow_rate"]; ok {
		t.Fatalf("unselected field leaked into summary: %#v", properties)
	}
}

func TestSummary_NoFieldsOmitsProperties(t *testing.T) {
	s := NewSummary()

	out, err := s.Serialize(context.Background(), testEntity())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out["properties"]; ok {
		t.Fatalf("expected no properties key, got %#v", out)
	}
	if out["entityType"] != "pump" || out["path"] != "plant.area1.pump7" {
		t.Fatalf("metadata missing: %#v", out)
	}
}

func TestDetail_RendersAllPropertiesAndVersion(t *testing.T) {
	d := NewDetail(nil)

	out, err := d.Serialize(context.Background(), testEntity())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out["version"] != int64(3) {
		t.Fatalf("expected version 3, got %v", out["version"])
	}
	properties, ok := out["properties"].(map[string]any)
	if !ok || len(properties) != 3 {
		t.Fatalf("expected all properties, got %#v", out["properties"])
	}
}

func TestDetail_ParentPath(t *testing.T) {
	d := NewDetail(nil)

	out, err := d.Serialize(context.Background(), testEntity())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["parentPath"] != "plant.area1" {
		t.Fatalf("expected parent path, got %v", out["parentPath"])
	}

	root := testEntity()
	root.Path = "plant"
	out, err = d.Serialize(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out["parentPath"]; ok {
		t.Fatalf("root entities must not carry a parent path")
	}
}

func TestDetail_DoesNotMutateEntityProperties(t *testing.T) {
	d := NewDetail(nil)
	entity := testEntity()

	out, err := d.Serialize(context.Background(), entity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	properties := out["properties"].(map[string]any)
	properties["injected"] = true

	if _, ok := entity.Properties["injected"]; ok {
		t.Fatalf("serializer output aliases entity properties")
	}
}

func TestSerializeMany_PreservesOrder(t *testing.T) {
	s := NewSummary("name")
	first := testEntity()
	second := testEntity()
	second.Properties["name"] = "P-8"

	out, err := s.SerializeMany(context.Background(), []domain.Entity{first, second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if out[0]["id"] != first.ID.String() || out[1]["id"] != second.ID.String() {
		t.Fatalf("result order changed")
	}
}

func TestResolveReference_LeavesRawValueWithoutLoader(t *testing.T) {
	if _, ok := resolveReference(context.Background(), uuid.New().String()); ok {
		t.Fatalf("expected no expansion without a loader in context")
	}
	if _, ok := resolveReference(context.Background(), "not-a-uuid"); ok {
		t.Fatalf("expected no expansion for non-uuid value")
	}
}
