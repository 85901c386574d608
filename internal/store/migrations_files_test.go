package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

const migrationsDir = "../../db/migrations"

func TestMigrationFilesWellFormed(t *testing.T) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			t.Errorf("unexpected file in migrations dir: %s", name)
			continue
		}
		names = append(names, name)
	}

	if len(names) == 0 {
		t.Fatal("no migrations found")
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("migration files not ordered: %v", names)
	}

	for _, name := range names {
		contents, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.Contains(strings.ToUpper(string(contents)), "CREATE TABLE IF NOT EXISTS") {
			t.Errorf("%s is not idempotent (missing IF NOT EXISTS)", name)
		}
	}
}

func TestPermitsMigrationCoversRegistryColumns(t *testing.T) {
	contents, err := os.ReadFile(filepath.Join(migrationsDir, "0001_permits.up.sql"))
	if err != nil {
		t.Fatalf("read permits migration: %v", err)
	}
	sql := string(contents)
	for _, column := range []string{
		"permit_number", "certificate_number", "permit_type", "doc_type",
		"status", "plant", "location", "equipment_name", "equipment_id",
		"description", "document", "submitted_by", "submitted_at", "updated_at",
	} {
		if !strings.Contains(sql, column) {
			t.Errorf("permits migration missing column %s", column)
		}
	}
}
