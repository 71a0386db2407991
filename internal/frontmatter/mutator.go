package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Serialize renders a frontmatter map as YAML block text (without the ---
// delimiters). Keys listed in fieldOrder come first, in that order; any
// remaining keys follow in their map order. Output uses two-space
// indentation, no line-width wrapping, and \n line endings.
func Serialize(m *Map, fieldOrder []string) (string, error) {
	if m == nil || m.Len() == 0 {
		return "", nil
	}

	node := &yaml.Node{Kind: yaml.MappingNode}

	emitted := make(map[string]struct{}, m.Len())
	appendPair := func(key string, value any) error {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
		valNode := &yaml.Node{}
		if err := valNode.Encode(value); err != nil {
			return fmt.Errorf("frontmatter: encode %q: %w", key, err)
		}
		node.Content = append(node.Content, keyNode, valNode)
		emitted[key] = struct{}{}
		return nil
	}

	for _, key := range fieldOrder {
		if _, done := emitted[key]; done {
			continue
		}
		if v, ok := m.Get(key); ok {
			if err := appendPair(key, v); err != nil {
				return "", err
			}
		}
	}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		if _, done := emitted[pair.Key]; done {
			continue
		}
		if err := appendPair(pair.Key, pair.Value); err != nil {
			return "", err
		}
	}

	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", fmt.Errorf("frontmatter: serialize: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("frontmatter: serialize: %w", err)
	}
	return sb.String(), nil
}

// Replace swaps the frontmatter block at pos with blockText and returns the
// full new document text. When pos is nil (no prior block) the block is
// prepended before the existing content. The boolean reports whether the
// document actually changed: writing a block identical to what already
// occupies the region is a no-op and returns the original text.
//
// The replacement text is assembled fully in memory; callers never observe
// a partially rewritten document.
func Replace(docText, blockText string, pos *Position) (string, bool) {
	region := delim + "\n" + blockText + delim

	if pos == nil {
		return region + "\n\n" + docText, true
	}

	lines := strings.Split(docText, "\n")
	start, end := pos.Start, pos.End
	if start < 0 || end >= len(lines) || start > end {
		// Stale position: fall back to prepending rather than corrupting text.
		return region + "\n\n" + docText, true
	}

	current := strings.Join(lines[start:end+1], "\n")
	if current == region {
		return docText, false
	}

	var out []string
	out = append(out, lines[:start]...)
	out = append(out, strings.Split(region, "\n")...)
	out = append(out, lines[end+1:]...)
	return strings.Join(out, "\n"), true
}
