// Package merge combines ordered frontmatter layers into a single map with
// override semantics and a set-union rule for designated list keys.
package merge

import (
	"fmt"

	"github.com/veleda/othala/internal/frontmatter"
)

// DefaultUnionKeys are the keys merged by union when no explicit set is given.
var DefaultUnionKeys = []string{"tags"}

// Merger merges frontmatter maps. Keys in the union set are never
// overridden; their values are combined as deduplicated lists instead.
type Merger struct {
	union map[string]struct{}
}

// New creates a Merger with the given union keys, falling back to
// DefaultUnionKeys when none are provided.
func New(unionKeys ...string) *Merger {
	if len(unionKeys) == 0 {
		unionKeys = DefaultUnionKeys
	}
	u := make(map[string]struct{}, len(unionKeys))
	for _, k := range unionKeys {
		u[k] = struct{}{}
	}
	return &Merger{union: u}
}

// Merge combines base and override into a new map; neither input is
// mutated. Override values replace base values, except union keys, which
// are concatenated base-then-override and deduplicated preserving first
// occurrence. Key order is first-seen: overriding a key updates its value
// but not its position.
func (m *Merger) Merge(base, override *frontmatter.Map) *frontmatter.Map {
	out := frontmatter.NewMap()
	for pair := iterate(base); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	for pair := iterate(override); pair != nil; pair = pair.Next() {
		if _, isUnion := m.union[pair.Key]; isUnion {
			prev, _ := out.Get(pair.Key)
			out.Set(pair.Key, unite(prev, pair.Value))
			continue
		}
		out.Set(pair.Key, pair.Value)
	}
	return out
}

// MergeAll is a strict left fold of Merge across layers in ascending
// precedence: MergeAll(A, B, C) == Merge(Merge(A, B), C).
func (m *Merger) MergeAll(layers ...*frontmatter.Map) *frontmatter.Map {
	out := frontmatter.NewMap()
	for _, layer := range layers {
		out = m.Merge(out, layer)
	}
	return out
}

func iterate(m *frontmatter.Map) *frontmatter.Pair {
	if m == nil {
		return nil
	}
	return m.Oldest()
}

// unite coerces both values to lists (scalar becomes a singleton, absent an
// empty list), concatenates base-then-override, and deduplicates by
// rendered value keeping first occurrence order.
func unite(base, override any) []any {
	items := append(toList(base), toList(override)...)
	seen := make(map[string]struct{}, len(items))
	out := make([]any, 0, len(items))
	for _, item := range items {
		k := fmt.Sprintf("%v", item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

func toList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}
