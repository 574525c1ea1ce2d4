package migrations

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestPendingFilesOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"010_more.sql", "001_init.sql", "002_badges.sql", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := PendingFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"001_init.sql", "002_badges.sql", "010_more.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMigrationVersion(t *testing.T) {
	if v := MigrationVersion("/x/migrations/001_init.sql"); v != "001" {
		t.Fatalf("got %q", v)
	}
}

func TestRepositoryMigrationFileExists(t *testing.T) {
	files, err := PendingFiles(filepath.Join("..", "..", "..", "migrations"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 || files[0] != "001_init.sql" {
		t.Fatalf("unexpected migration files %v", files)
	}
}
