// Package testutil provides shared test helpers for setting up vaults,
// preset stores, and fixture presets.
package testutil

import (
	"os"
	"testing"

	"github.com/veleda/othala/internal/preset"
	"github.com/veleda/othala/internal/presetstore"
	"github.com/veleda/othala/internal/storage"
)

// TestDB creates a temporary SQLite preset store that is automatically
// cleaned up.
func TestDB(t *testing.T) *presetstore.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "othala-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := presetstore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TaskPreset returns a small, valid preset covering every field type.
func TaskPreset() *preset.Preset {
	return &preset.Preset{
		ID:   "task",
		Name: "Task",
		Fields: []preset.Field{
			{Key: "status", Type: preset.TypeSelect, Label: "Status", Default: "todo", Options: []string{"todo", "doing", "done"}},
			{Key: "tags", Type: preset.TypeMultiSelect, Label: "Tags", Options: []string{"work", "home", "urgent"}},
			{Key: "due", Type: preset.TypeDate, Label: "Due"},
			{Key: "note", Type: preset.TypeText, Label: "Note"},
		},
	}
}
