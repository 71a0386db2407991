package presetstore_test

import (
	"errors"
	"testing"

	"github.com/veleda/othala/internal/apperr"
	"github.com/veleda/othala/internal/preset"
	"github.com/veleda/othala/internal/testutil"
)

func namedPreset(id, name string) *preset.Preset {
	return &preset.Preset{
		ID:   id,
		Name: name,
		Fields: []preset.Field{
			{Key: "status", Type: preset.TypeSelect, Label: "Status", Options: []string{"todo", "done"}},
		},
	}
}

func TestSaveAndGetPreset(t *testing.T) {
	db := testutil.TestDB(t)
	want := testutil.TaskPreset()

	if err := db.SavePreset(want); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetPreset(want.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != want.Name || len(got.Fields) != len(want.Fields) {
		t.Errorf("got %+v", got)
	}
	for i, f := range got.Fields {
		if f.Key != want.Fields[i].Key || f.Type != want.Fields[i].Type {
			t.Errorf("field %d = %+v, want %+v", i, f, want.Fields[i])
		}
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	db := testutil.TestDB(t)
	if _, err := db.GetPreset("ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSavePreset_UpdateKeepsPosition(t *testing.T) {
	db := testutil.TestDB(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := db.SavePreset(namedPreset(id, "Preset "+id)); err != nil {
			t.Fatal(err)
		}
	}

	updated := namedPreset("a", "Renamed")
	if err := db.SavePreset(updated); err != nil {
		t.Fatal(err)
	}

	list, err := db.ListPresets()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d", len(list))
	}
	if list[0].ID != "a" || list[0].Name != "Renamed" {
		t.Errorf("updating must keep position: first is %s (%s)", list[0].ID, list[0].Name)
	}
}

func TestListPresets_PositionOrder(t *testing.T) {
	db := testutil.TestDB(t)
	for _, id := range []string{"c", "a", "b"} {
		if err := db.SavePreset(namedPreset(id, id)); err != nil {
			t.Fatal(err)
		}
	}
	list, err := db.ListPresets()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"c", "a", "b"} // insertion order, not id order
	for i, p := range list {
		if p.ID != want[i] {
			t.Fatalf("position %d = %s, want %s", i, p.ID, want[i])
		}
	}
}

func TestReorderPresets(t *testing.T) {
	db := testutil.TestDB(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := db.SavePreset(namedPreset(id, id)); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.ReorderPresets([]string{"c", "a", "b"}); err != nil {
		t.Fatal(err)
	}
	list, err := db.ListPresets()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"c", "a", "b"}
	for i, p := range list {
		if p.ID != want[i] {
			t.Fatalf("position %d = %s, want %s", i, p.ID, want[i])
		}
	}
}

func TestSearchPresets(t *testing.T) {
	db := testutil.TestDB(t)
	if err := db.SavePreset(namedPreset("p1", "Daily Journal")); err != nil {
		t.Fatal(err)
	}
	if err := db.SavePreset(namedPreset("p2", "Meeting")); err != nil {
		t.Fatal(err)
	}

	hits, err := db.SearchPresets("journal", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "p1" {
		t.Errorf("hits = %v", hits)
	}

	// Matches inside field definitions too.
	hits, err = db.SearchPresets("status", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("field search hits = %d, want 2", len(hits))
	}
}

func TestDeletePreset(t *testing.T) {
	db := testutil.TestDB(t)
	if err := db.SavePreset(namedPreset("a", "A")); err != nil {
		t.Fatal(err)
	}
	if err := db.DeletePreset("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetPreset("a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
	if err := db.DeletePreset("ghost"); err != nil {
		t.Errorf("deleting unknown id must not fail: %v", err)
	}
}

func TestApplications(t *testing.T) {
	db := testutil.TestDB(t)
	if err := db.RecordApplication("notes/a.md", "task", "abc123"); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordApplication("notes/b.md", "task", "def456"); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordApplication("notes/a.md", "task", "abc789"); err != nil {
		t.Fatal(err)
	}

	all, err := db.ListApplications("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}

	forA, err := db.ListApplications("notes/a.md", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(forA) != 2 {
		t.Fatalf("forA = %d, want 2", len(forA))
	}
	if forA[0].Checksum != "abc789" {
		t.Errorf("newest first: got %s", forA[0].Checksum)
	}
	for _, a := range forA {
		if a.Path != "notes/a.md" {
			t.Errorf("path filter leaked: %s", a.Path)
		}
	}
	if forA[0].AppliedAt.IsZero() {
		t.Error("applied_at not scanned")
	}
}
