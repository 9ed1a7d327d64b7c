package repository

import (
	"os"
	"strings"
	"testing"
)

// The repositories and the initial migration must agree on column sets;
// a column referenced here but absent from the migration fails every
// query at runtime.
func TestMigrationDeclaresRepositoryColumns(t *testing.T) {
	raw, err := os.ReadFile("../../migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("failed to read initial migration: %v", err)
	}
	migration := string(raw)

	tables := map[string]string{
		"organizations":  organizationColumns,
		"entity_schemas": schemaColumns,
		"entities":       entityColumns,
	}
	for table, columns := range tables {
		definition := tableDefinition(t, migration, table)
		for _, column := range strings.Split(columns, ",") {
			column = strings.TrimSpace(column)
			if !strings.Contains(definition, column+" ") {
				t.Fatalf("migration table %q lacks column %q selected by the repository", table, column)
			}
		}
	}
}

func tableDefinition(t *testing.T, migration, table string) string {
	t.Helper()
	marker := "CREATE TABLE " + table + " ("
	start := strings.Index(migration, marker)
	if start < 0 {
		t.Fatalf("migration does not create table %q", table)
	}
	rest := migration[start:]
	end := strings.Index(rest, ");")
	if end < 0 {
		t.Fatalf("unterminated definition for table %q", table)
	}
	return rest[:end]
}
