// Package defaults computes the per-field values a preset contributes
// before any user input, delegating deferred macro expressions to an
// external evaluator.
package defaults

import (
	"context"
	"fmt"
	"strings"

	"github.com/veleda/othala/internal/frontmatter"
	"github.com/veleda/othala/internal/preset"
)

// macroMarker flags default text that needs expression evaluation.
const macroMarker = "{{"

// Evaluator is the macro-expression collaborator. Implementations are
// injected by the caller; the resolver holds no dependency on any concrete
// macro engine.
type Evaluator interface {
	IsAvailable() bool
	Evaluate(ctx context.Context, text string) (string, error)
}

// DocumentContext describes the document a resolution runs against, as
// produced by the frontmatter parser on the live document.
type DocumentContext struct {
	Path        string
	Title       string
	Frontmatter *frontmatter.Map
	Position    *frontmatter.Position
}

// Config controls expression defaults. DateLayout and TimeLayout are the
// Go time layouts used to build macro expressions for date fields that
// request an expression default.
type Config struct {
	Enabled    bool
	DateLayout string
	TimeLayout string
}

// Resolver resolves preset defaults. It owns no mutable state: each call
// receives its inputs fresh, so concurrent resolutions over different
// documents never interfere.
type Resolver struct {
	cfg Config
}

// NewResolver creates a Resolver with the given expression configuration.
func NewResolver(cfg Config) *Resolver {
	if cfg.DateLayout == "" {
		cfg.DateLayout = "2006-01-02"
	}
	if cfg.TimeLayout == "" {
		cfg.TimeLayout = "15:04"
	}
	return &Resolver{cfg: cfg}
}

// DateExpression returns the canonical macro expression for date fields
// with expression defaults, built from the configured date layout.
func (r *Resolver) DateExpression() string {
	return fmt.Sprintf("{{date:%s}}", r.cfg.DateLayout)
}

// Resolve computes one default value per preset field. Fields whose macro
// text could not be evaluated (evaluator absent, disabled, failing, or no
// document context) keep their literal text and have their key added to the
// returned skip set. Resolve never fails: every field receives exactly one
// entry regardless of evaluator behaviour.
//
// Evaluator calls run sequentially, one field at a time, so the evaluator
// observes a single consistent document context throughout the pass.
func (r *Resolver) Resolve(ctx context.Context, p *preset.Preset, doc *DocumentContext, ev Evaluator) (*frontmatter.Map, map[string]struct{}) {
	resolved := frontmatter.NewMap()
	skipped := make(map[string]struct{})

	for _, f := range p.Fields {
		if f.Type == preset.TypeMultiSelect {
			resolved.Set(f.Key, NormalizeList(f.Default, f.Options))
			continue
		}

		raw := rawDefault(f)
		if f.UseExpressionDefault && f.Type == preset.TypeDate {
			raw = r.DateExpression()
		}

		if !strings.Contains(raw, macroMarker) {
			resolved.Set(f.Key, raw)
			continue
		}

		if !r.cfg.Enabled || doc == nil || ev == nil || !ev.IsAvailable() {
			skipped[f.Key] = struct{}{}
			resolved.Set(f.Key, raw)
			continue
		}

		out, err := ev.Evaluate(ctx, raw)
		if err != nil {
			skipped[f.Key] = struct{}{}
			resolved.Set(f.Key, raw)
			continue
		}
		resolved.Set(f.Key, out)
	}

	return resolved, skipped
}

// rawDefault renders a field's declared default as text. List defaults on
// non-list fields collapse to their first element.
func rawDefault(f preset.Field) string {
	switch v := f.Default.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
		return ""
	case []any:
		if len(v) > 0 {
			return fmt.Sprintf("%v", v[0])
		}
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// NormalizeList coerces a default (string or list) into a trimmed,
// deduplicated string list, filtered to the declared options when present.
func NormalizeList(v any, options []string) []string {
	var items []string
	switch t := v.(type) {
	case nil:
	case string:
		if t != "" {
			items = []string{t}
		}
	case []string:
		items = t
	case []any:
		for _, item := range t {
			items = append(items, fmt.Sprintf("%v", item))
		}
	default:
		items = []string{fmt.Sprintf("%v", t)}
	}

	allowed := map[string]struct{}{}
	for _, o := range options {
		allowed[strings.TrimSpace(o)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		s := strings.TrimSpace(item)
		if s == "" {
			continue
		}
		if len(options) > 0 {
			if _, ok := allowed[s]; !ok {
				continue
			}
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
