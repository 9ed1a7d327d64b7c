package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/rpattn/engrest/internal/domain"
)

func TestAppendEntityFilter_BuildsPredicates(t *testing.T) {
	var sb strings.Builder
	args := []any{"org-id"}
	exists := true
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	filter := domain.EntityFilter{
		EntityType:   "pump",
		TextSearch:   "impeller",
		CreatedAfter: &after,
		PropertyFilters: []domain.PropertyFilter{
			{Key: "status", Value: "active"},
			{Key: "serial_no", Exists: &exists},
		},
	}

	appendEntityFilter(&sb, &args, filter)
	sql := sb.String()

	for _, fragment := range []string{
		"entity_type = $2",
		"properties::text ILIKE $3",
		"properties->>$4 = $5",
		"properties ? $6",
		"created_at >= $7",
	} {
		if !strings.Contains(sql, fragment) {
			t.Fatalf("expected %q in %q", fragment, sql)
		}
	}
	if len(args) != 7 {
		t.Fatalf("expected 7 args, got %d: %#v", len(args), args)
	}
	if args[2] != "%impeller%" {
		t.Fatalf("text search arg not wrapped: %v", args[2])
	}
}

func TestAppendOrdering_UsesResolvedKeysWithTiebreaker(t *testing.T) {
	var sb strings.Builder
	query := domain.EntityQuery{
		Ordering: []domain.OrderingKey{"-created_at", "name"},
	}

	appendOrdering(&sb, query)
	sql := sb.String()

	if !strings.Contains(sql, "ORDER BY created_at DESC, properties->>'name', id") {
		t.Fatalf("unexpected ordering clause: %q", sql)
	}
}

func TestOrderingExpression_AnnotationKeyUsesExpression(t *testing.T) {
	query := domain.EntityQuery{
		Annotations: []domain.Annotation{ChildCountAnnotation()},
	}

	expr, ok := orderingExpression(query, "child_count")
	if !ok {
		t.Fatalf("expected annotation key to be orderable")
	}
	if !strings.HasPrefix(expr, "(SELECT COUNT(*)") {
		t.Fatalf("expected annotation expression, got %q", expr)
	}
}

func TestOrderingExpression_RejectsUnsafeField(t *testing.T) {
	if _, ok := orderingExpression(domain.EntityQuery{}, "name'; DROP TABLE entities; --"); ok {
		t.Fatalf("unsafe field must not be orderable")
	}
}

func TestIsSafeIdentifier(t *testing.T) {
	cases := map[string]bool{
		"created_at": true,
		"Name9":      true,
		"":           false,
		"a-b":        false,
		"a b":        false,
		"a;b":        false,
	}
	for input, want := range cases {
		if got := isSafeIdentifier(input); got != want {
			t.Fatalf("isSafeIdentifier(%q) = %v, want %v", input, got, want)
		}
	}
}
