package artifacts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_WriteRead(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	path, err := store.Write("run-1", "report.md", "# Brief\n")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if path != filepath.Join(store.Root(), "run-1", "report.md") {
		t.Errorf("unexpected path %q", path)
	}

	got, ok := store.Read("run-1", "report.md")
	if !ok {
		t.Fatal("expected artifact to exist")
	}
	if got != "# Brief\n" {
		t.Errorf("unexpected content %q", got)
	}
	if !store.Exists("run-1", "report.md") {
		t.Error("Exists should report the artifact")
	}
}

func TestStore_ReadMissing(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	if _, ok := store.Read("ghost", "report.md"); ok {
		t.Error("expected missing artifact to report false")
	}
	if store.Exists("ghost", "report.md") {
		t.Error("Exists should report false for a missing artifact")
	}
}

func TestStore_WriteOverwrites(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	if _, err := store.Write("run-1", "report.md", "v1"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Write("run-1", "report.md", "v2"); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	got, _ := store.Read("run-1", "report.md")
	if got != "v2" {
		t.Errorf("expected latest content, got %q", got)
	}
}

func TestNewStore_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "artifacts")
	if _, err := NewStore(root); err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("expected root directory to exist: %v", err)
	}
}
