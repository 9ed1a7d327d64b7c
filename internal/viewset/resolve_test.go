package viewset

import "testing"

func TestLookup_ReturnsDeclaredValue(t *testing.T) {
	mapping := map[Action]string{
		ActionList:     "summary",
		ActionRetrieve: "detail",
	}

	value, ok := Lookup(mapping, ActionRetrieve)
	if !ok {
		t.Fatalf("expected hit for declared action")
	}
	if value != "detail" {
		t.Fatalf("expected %q, got %q", "detail", value)
	}
}

func TestLookup_MissOnAbsentKey(t *testing.T) {
	mapping := map[Action]string{ActionList: "summary"}

	if _, ok := Lookup(mapping, ActionCreate); ok {
		t.Fatalf("expected miss for undeclared action")
	}
}

func TestLookup_MissOnNilMap(t *testing.T) {
	var mapping map[Action]string

	if _, ok := Lookup(mapping, ActionList); ok {
		t.Fatalf("expected miss for nil mapping")
	}
}

func TestLookup_DoesNotMutateMapping(t *testing.T) {
	mapping := map[Action]int{ActionList: 1}

	Lookup(mapping, ActionDestroy)
	Lookup(mapping, ActionList)

	if len(mapping) != 1 || mapping[ActionList] != 1 {
		t.Fatalf("mapping changed after lookups: %#v", mapping)
	}
}
