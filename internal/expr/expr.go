// Package expr is the built-in macro-expression evaluator. It expands the
// small set of document macros the host understands; callers that need a
// richer macro language inject their own defaults.Evaluator instead.
package expr

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/veleda/othala/internal/defaults"
)

var macroRe = regexp.MustCompile(`\{\{([A-Za-z]+)(?::([^}]*))?\}\}`)

// Evaluator expands {{date}}, {{time}}, {{title}}, and {{filename}} macros
// against a bound document context. Unknown macros fail the whole
// evaluation so the resolver falls back to the literal text.
type Evaluator struct {
	doc *defaults.DocumentContext
	now func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.now = now
	}
}

// New creates an evaluator bound to the given document context.
func New(doc *defaults.DocumentContext, opts ...Option) *Evaluator {
	e := &Evaluator{doc: doc, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsAvailable reports whether the evaluator can run; it needs a document
// context to expand document macros.
func (e *Evaluator) IsAvailable() bool {
	return e.doc != nil
}

// Evaluate expands every macro in text. The optional argument after a colon
// is a Go time layout for date and time macros, e.g. {{date:2006-01-02}}.
func (e *Evaluator) Evaluate(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var expandErr error
	out := macroRe.ReplaceAllStringFunc(text, func(match string) string {
		sub := macroRe.FindStringSubmatch(match)
		name, arg := sub[1], sub[2]

		value, err := e.expand(name, arg)
		if err != nil && expandErr == nil {
			expandErr = err
		}
		return value
	})
	if expandErr != nil {
		return "", expandErr
	}
	return out, nil
}

func (e *Evaluator) expand(name, arg string) (string, error) {
	switch name {
	case "date":
		if arg == "" {
			arg = "2006-01-02"
		}
		return e.now().Format(arg), nil
	case "time":
		if arg == "" {
			arg = "15:04"
		}
		return e.now().Format(arg), nil
	case "title":
		return e.doc.Title, nil
	case "filename":
		base := filepath.Base(e.doc.Path)
		return strings.TrimSuffix(base, filepath.Ext(base)), nil
	default:
		return "", fmt.Errorf("expr: unknown macro %q", name)
	}
}
