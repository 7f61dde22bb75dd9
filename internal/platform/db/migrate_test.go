package db

import (
	"testing"
	"testing/fstest"
)

func TestMigrationFilesSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_scores.sql": {Data: []byte("SELECT 1")},
		"0001_init.sql":   {Data: []byte("SELECT 1")},
		"README.md":       {Data: []byte("notes")},
	}
	files, err := migrationFiles(fsys)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 || files[0] != "0001_init.sql" || files[1] != "0002_scores.sql" {
		t.Fatalf("unexpected migration order: %v", files)
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := migrationFiles(Migrations())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected bundled migrations")
	}
}
