package frontmatter

import (
	"strings"
	"testing"
)

func TestSerialize_PresetOrderFirst(t *testing.T) {
	m := NewMap()
	m.Set("title", "A")
	m.Set("status", "done")
	m.Set("tags", []string{"x"})

	block, err := Serialize(m, []string{"status", "tags"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(block, "\n"), "\n")
	if lines[0] != "status: done" {
		t.Errorf("line 0 = %q, want status first", lines[0])
	}
	if lines[1] != "tags:" {
		t.Errorf("line 1 = %q, want tags second", lines[1])
	}
	if last := lines[len(lines)-1]; last != "title: A" {
		t.Errorf("last line = %q, want title appended after preset fields", last)
	}
}

func TestSerialize_EmptyMap(t *testing.T) {
	block, err := Serialize(NewMap(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if block != "" {
		t.Errorf("block = %q, want empty", block)
	}
}

func TestSerialize_TwoSpaceListIndent(t *testing.T) {
	m := NewMap()
	m.Set("tags", []string{"a", "b"})
	block, err := Serialize(m, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(block, "tags:\n  - a\n  - b\n") {
		t.Errorf("block = %q, want two-space indented sequence", block)
	}
}

func TestRoundTrip(t *testing.T) {
	m := NewMap()
	m.Set("status", "done")
	m.Set("count", 3)
	m.Set("tags", []string{"a", "b"})

	block, err := Serialize(m, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := Parse("---\n" + block + "---\n\nbody\n")
	if !doc.HasFrontmatter {
		t.Fatal("round trip lost the block")
	}
	if v, _ := doc.Frontmatter.Get("status"); v != "done" {
		t.Errorf("status = %v", v)
	}
	if v, _ := doc.Frontmatter.Get("count"); v != 3 {
		t.Errorf("count = %v (%T)", v, v)
	}
	tags, _ := doc.Frontmatter.Get("tags")
	list, ok := tags.([]any)
	if !ok || len(list) != 2 || list[0] != "a" || list[1] != "b" {
		t.Errorf("tags = %v", tags)
	}
}

func TestReplace_ExistingBlock(t *testing.T) {
	doc := "---\nstatus: todo\n---\nbody line\n"
	content, changed := Replace(doc, "status: done\n", &Position{Start: 0, End: 2})
	if !changed {
		t.Fatal("expected changed")
	}
	want := "---\nstatus: done\n---\nbody line\n"
	if content != want {
		t.Errorf("content = %q, want %q", content, want)
	}
}

func TestReplace_PrependsWhenNoBlock(t *testing.T) {
	content, changed := Replace("plain body\n", "status: todo\n", nil)
	if !changed {
		t.Fatal("expected changed")
	}
	want := "---\nstatus: todo\n---\n\nplain body\n"
	if content != want {
		t.Errorf("content = %q, want %q", content, want)
	}
}

func TestReplace_NoOp(t *testing.T) {
	doc := "---\nstatus: todo\n---\nbody\n"
	content, changed := Replace(doc, "status: todo\n", &Position{Start: 0, End: 2})
	if changed {
		t.Error("identical block must not mark the document changed")
	}
	if content != doc {
		t.Errorf("content = %q, want original unmodified", content)
	}
}

func TestReplace_LeavesSurroundingTextUntouched(t *testing.T) {
	doc := "---\nold: 1\n---\n\nfirst\n\nsecond --- not a delimiter\n"
	content, changed := Replace(doc, "new: 2\n", &Position{Start: 0, End: 2})
	if !changed {
		t.Fatal("expected changed")
	}
	if !strings.HasSuffix(content, "\n\nfirst\n\nsecond --- not a delimiter\n") {
		t.Errorf("body was disturbed: %q", content)
	}
}

func TestReplace_StalePositionFallsBackToPrepend(t *testing.T) {
	content, changed := Replace("short\n", "k: v\n", &Position{Start: 0, End: 99})
	if !changed {
		t.Fatal("expected changed")
	}
	if !strings.HasPrefix(content, "---\nk: v\n---\n\n") {
		t.Errorf("content = %q, want prepended block", content)
	}
}

func TestSerializeReplace_EndToEnd(t *testing.T) {
	raw := "---\ntitle: A\n---\n\ncontent\n"
	doc := Parse(raw)
	doc.Frontmatter.Set("status", "done")

	block, err := Serialize(doc.Frontmatter, []string{"status"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content, changed := Replace(raw, block, doc.Position)
	if !changed {
		t.Fatal("expected changed")
	}
	reparsed := Parse(content)
	if v, _ := reparsed.Frontmatter.Get("status"); v != "done" {
		t.Errorf("status = %v", v)
	}
	if reparsed.Body != "content\n" {
		t.Errorf("body = %q", reparsed.Body)
	}
}
