package formdata

import (
	"reflect"
	"testing"

	"github.com/veleda/othala/internal/preset"
)

func taskPreset() *preset.Preset {
	return &preset.Preset{
		ID:   "p1",
		Name: "Task",
		Fields: []preset.Field{
			{Key: "status", Type: preset.TypeSelect, Label: "Status", Options: []string{"todo", "done"}},
			{Key: "due", Type: preset.TypeDate, Label: "Due"},
			{Key: "created", Type: preset.TypeDate, Label: "Created", UseExpressionDefault: true},
			{Key: "tags", Type: preset.TypeMultiSelect, Label: "Tags", Options: []string{"work", "home"}},
			{Key: "note", Type: preset.TypeText, Label: "Note"},
		},
	}
}

func TestConvert_AllFields(t *testing.T) {
	out, errs := Convert(taskPreset(), map[string]any{
		"status":  " done ",
		"due":     "2026-08-31",
		"created": "{{date:2006-01-02}}",
		"tags":    []any{"work", "work", "junk"},
		"note":    "hello",
	})
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if v, _ := out.Get("status"); v != "done" {
		t.Errorf("status = %v, want trimmed", v)
	}
	if v, _ := out.Get("due"); v != "2026-08-31" {
		t.Errorf("due = %v", v)
	}
	if v, _ := out.Get("created"); v != "{{date:2006-01-02}}" {
		t.Errorf("macro date must pass through unchanged, got %v", v)
	}
	tags, _ := out.Get("tags")
	if !reflect.DeepEqual(tags, []string{"work"}) {
		t.Errorf("tags = %v, want deduped option-filtered [work]", tags)
	}
}

func TestConvert_MissingValuesBecomeEmpty(t *testing.T) {
	out, errs := Convert(taskPreset(), map[string]any{})
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if v, _ := out.Get("status"); v != "" {
		t.Errorf("status = %q, want empty string", v)
	}
	tags, _ := out.Get("tags")
	if !reflect.DeepEqual(tags, []string{}) {
		t.Errorf("tags = %#v, want empty list, never empty string", tags)
	}
}

func TestConvert_EveryFieldGetsAnEntry(t *testing.T) {
	p := taskPreset()
	out, _ := Convert(p, nil)
	if out.Len() != len(p.Fields) {
		t.Errorf("entries = %d, want %d", out.Len(), len(p.Fields))
	}
}

func TestConvert_InvalidDate(t *testing.T) {
	out, errs := Convert(taskPreset(), map[string]any{"due": "soonish"})
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want one", errs)
	}
	e := errs[0]
	if e.Key != "due" || e.Index != 1 {
		t.Errorf("error location = %+v", e)
	}
	if e.Message != "invalid date format for field Due" {
		t.Errorf("message = %q", e.Message)
	}
	if v, _ := out.Get("due"); v != "soonish" {
		t.Errorf("value still carried: due = %v", v)
	}
}

func TestConvert_BlankDateAllowed(t *testing.T) {
	_, errs := Convert(taskPreset(), map[string]any{"due": "   "})
	if len(errs) != 0 {
		t.Errorf("blank date should not error, got %v", errs)
	}
}

func TestConvert_NonStringScalars(t *testing.T) {
	out, _ := Convert(taskPreset(), map[string]any{"note": 42})
	if v, _ := out.Get("note"); v != "42" {
		t.Errorf("note = %v, want rendered scalar", v)
	}
}
