// Package formdata converts raw submitted form values into canonical,
// typed frontmatter values according to a preset's field definitions.
package formdata

import (
	"fmt"
	"strings"

	"github.com/veleda/othala/internal/defaults"
	"github.com/veleda/othala/internal/frontmatter"
	"github.com/veleda/othala/internal/preset"
)

// FieldError reports a value that could not be converted. Expected failure
// modes are always returned as data, never as a thrown error.
type FieldError struct {
	Index   int    `json:"index"`
	Key     string `json:"key"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

// Convert maps submitted values onto a frontmatter map, one entry per
// preset field:
//
//   - text/select: trimmed string, missing or blank submissions become ""
//   - date (non-macro): must parse as a calendar date when non-empty
//   - date (macro): passed through unchanged, possibly still unevaluated
//   - multi-select: trimmed, deduplicated list filtered against the
//     declared options; an empty selection is the empty list, never ""
func Convert(p *preset.Preset, values map[string]any) (*frontmatter.Map, []FieldError) {
	out := frontmatter.NewMap()
	var errs []FieldError

	for i, f := range p.Fields {
		raw := values[f.Key]

		switch f.Type {
		case preset.TypeMultiSelect:
			out.Set(f.Key, defaults.NormalizeList(raw, f.Options))

		case preset.TypeDate:
			s := asString(raw)
			if f.UseExpressionDefault {
				out.Set(f.Key, s)
				continue
			}
			s = strings.TrimSpace(s)
			if s != "" {
				if _, err := preset.ParseDate(s); err != nil {
					errs = append(errs, FieldError{
						Index:   i,
						Key:     f.Key,
						Label:   f.Label,
						Message: fmt.Sprintf("invalid date format for field %s", f.Label),
					})
				}
			}
			out.Set(f.Key, s)

		default: // text, select
			out.Set(f.Key, strings.TrimSpace(asString(raw)))
		}
	}

	return out, errs
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
