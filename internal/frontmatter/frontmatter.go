// Package frontmatter parses and rewrites the YAML metadata block at the
// top of Markdown documents, preserving key order and the exact line range
// the block occupies.
package frontmatter

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

const delim = "---"

// Map is an insertion-ordered frontmatter key/value map.
type Map = orderedmap.OrderedMap[string, any]

// Pair is one key/value entry in a Map.
type Pair = orderedmap.Pair[string, any]

// NewMap returns an empty ordered frontmatter map.
func NewMap() *Map {
	return orderedmap.New[string, any]()
}

// Position is the inclusive line range a frontmatter block occupies in its
// source document, including both delimiter lines.
type Position struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Document is the result of parsing raw document text.
type Document struct {
	Frontmatter    *Map
	Body           string
	HasFrontmatter bool
	Position       *Position // nil when the document has no block
}

// Parse splits raw document text into frontmatter, body, and block position.
//
// A block is recognised only when the very first line is exactly "---" and a
// matching closing "---" line exists. Malformed YAML inside a well-delimited
// block degrades to an empty map: HasFrontmatter stays true, the body still
// excludes the block, and no error is ever returned.
func Parse(raw string) Document {
	lines := strings.Split(raw, "\n")

	if strings.TrimRight(lines[0], "\r") != delim {
		return Document{Frontmatter: NewMap(), Body: raw}
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == delim {
			end = i
			break
		}
	}
	if end < 0 {
		// Opening delimiter with no close: not a block.
		return Document{Frontmatter: NewMap(), Body: raw}
	}

	block := strings.Join(lines[1:end], "\n")
	body := strings.Join(lines[end+1:], "\n")
	body = strings.TrimLeft(body, "\n\r")

	return Document{
		Frontmatter:    decodeBlock(block),
		Body:           body,
		HasFrontmatter: true,
		Position:       &Position{Start: 0, End: end},
	}
}

// Title returns the frontmatter "title" if present, otherwise the first H1
// heading of the body, otherwise the empty string.
func (d Document) Title() string {
	if v, ok := d.Frontmatter.Get("title"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	for _, line := range strings.Split(d.Body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// decodeBlock parses YAML into an ordered map. Any decode failure, or a
// document whose root is not a mapping, yields an empty map.
func decodeBlock(block string) *Map {
	m := NewMap()

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(block), &root); err != nil {
		return m
	}
	if len(root.Content) == 0 {
		return m
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return m
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode := mapping.Content[i]
		valNode := mapping.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			continue
		}
		m.Set(keyNode.Value, decodeValue(valNode))
	}
	return m
}

// decodeValue converts a YAML node into a plain Go value. Sequences become
// []any so list fields keep their element order.
func decodeValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			out = append(out, decodeValue(item))
		}
		return out
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return n.Value
		}
		return v
	}
}
