// Package engine coordinates the full frontmatter pipeline: parse,
// default resolution, layer merging, form conversion, validation, and
// document mutation. It is the single pipeline implementation; every
// surface (HTTP, MCP) goes through it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/veleda/othala/internal/apperr"
	"github.com/veleda/othala/internal/checksum"
	"github.com/veleda/othala/internal/defaults"
	"github.com/veleda/othala/internal/formdata"
	"github.com/veleda/othala/internal/frontmatter"
	"github.com/veleda/othala/internal/merge"
	"github.com/veleda/othala/internal/preset"
	"github.com/veleda/othala/internal/presetstore"
	"github.com/veleda/othala/internal/storage"
	"github.com/veleda/othala/internal/templates"
)

// TemplateSource resolves template names to their declared metadata layer.
type TemplateSource interface {
	Get(name string) (templates.Template, bool)
}

// EvaluatorFactory builds a macro evaluator bound to a document context.
// A nil factory disables expression evaluation entirely.
type EvaluatorFactory func(doc *defaults.DocumentContext) defaults.Evaluator

// AppliedCallback is invoked after a successful document write.
type AppliedCallback func(path string)

// ValidationError carries a failed validation result as an error so
// callers can surface every collected message. It is the data-shaped
// counterpart of apperr.ErrValidation.
type ValidationError struct {
	Result preset.Result
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Result.Errors, "; "))
}

func (e *ValidationError) Unwrap() error {
	return apperr.ErrValidation
}

// Service runs the pipeline. It holds no per-document mutable state, so
// concurrent operations over different documents never interfere.
type Service struct {
	store     storage.Provider
	presets   presetstore.Source
	templates TemplateSource
	resolver  *defaults.Resolver
	merger    *merge.Merger
	factory   EvaluatorFactory
	recorder  presetstore.Recorder
	onApplied AppliedCallback
}

// Option configures a Service.
type Option func(*Service)

// WithTemplates sets the template source used to resolve template layers.
func WithTemplates(src TemplateSource) Option {
	return func(s *Service) { s.templates = src }
}

// WithEvaluatorFactory sets the macro evaluator factory.
func WithEvaluatorFactory(f EvaluatorFactory) Option {
	return func(s *Service) { s.factory = f }
}

// WithRecorder enables the application audit log.
func WithRecorder(r presetstore.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithAppliedCallback registers a callback fired after successful writes.
func WithAppliedCallback(cb AppliedCallback) Option {
	return func(s *Service) { s.onApplied = cb }
}

// WithMerger overrides the default merger (union key set).
func WithMerger(m *merge.Merger) Option {
	return func(s *Service) { s.merger = m }
}

// New creates an engine service.
func New(store storage.Provider, presets presetstore.Source, resolver *defaults.Resolver, opts ...Option) *Service {
	s := &Service{
		store:    store,
		presets:  presets,
		resolver: resolver,
		merger:   merge.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PreviewRequest describes a dry run of the pipeline over raw document
// text. Nothing is written.
type PreviewRequest struct {
	PresetID string         `json:"preset_id"`
	Document string         `json:"document"`
	Path     string         `json:"path,omitempty"`
	Template string         `json:"template,omitempty"`
	Values   map[string]any `json:"values,omitempty"`
}

// PreviewResult is the rendered outcome of a preview.
type PreviewResult struct {
	Block   string   `json:"block"`
	Content string   `json:"content"`
	Changed bool     `json:"changed"`
	Skipped []string `json:"skipped"`
}

// ApplyRequest asks the engine to merge a preset into a stored document
// and write the result back.
type ApplyRequest struct {
	Path     string         `json:"path"`
	PresetID string         `json:"preset_id"`
	Template string         `json:"template,omitempty"`
	Values   map[string]any `json:"values,omitempty"`
	IfMatch  string         `json:"-"`
}

// ApplyResult reports a completed apply.
type ApplyResult struct {
	Path     string   `json:"path"`
	Content  string   `json:"content"`
	Checksum string   `json:"checksum"`
	Changed  bool     `json:"changed"`
	Skipped  []string `json:"skipped"`
}

// Preview runs the full pipeline over the given document text without
// writing anything.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (*PreviewResult, error) {
	p, err := s.presets.GetPreset(req.PresetID)
	if err != nil {
		return nil, err
	}
	r, err := s.render(ctx, p, req.Document, req.Path, req.Template, req.Values)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{
		Block:   r.block,
		Content: r.content,
		Changed: r.changed,
		Skipped: r.skipped,
	}, nil
}

// Apply merges a preset into the stored document at req.Path and writes
// the result back atomically. A non-empty IfMatch checksum must match the
// current content or the apply is rejected with apperr.ErrConflict. The
// merged document is built fully in memory before any write: a failed
// validation or serialization leaves the document untouched.
func (s *Service) Apply(ctx context.Context, req ApplyRequest) (*ApplyResult, error) {
	p, err := s.presets.GetPreset(req.PresetID)
	if err != nil {
		return nil, err
	}

	data, err := s.store.Read(req.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if !checksum.Matches(req.IfMatch, data) {
		return nil, apperr.ErrConflict
	}

	r, err := s.render(ctx, p, string(data), req.Path, req.Template, req.Values)
	if err != nil {
		return nil, err
	}

	if r.changed {
		if err := s.store.Write(req.Path, []byte(r.content)); err != nil {
			return nil, fmt.Errorf("engine: write %s: %w", req.Path, err)
		}
	}

	cs := checksum.Sum([]byte(r.content))
	if s.recorder != nil {
		if recErr := s.recorder.RecordApplication(req.Path, p.ID, cs); recErr != nil {
			// The document is already written; a failed audit entry is
			// logged by the recorder, not fatal here.
			_ = recErr
		}
	}
	if r.changed && s.onApplied != nil {
		s.onApplied(req.Path)
	}

	return &ApplyResult{
		Path:     req.Path,
		Content:  r.content,
		Checksum: cs,
		Changed:  r.changed,
		Skipped:  r.skipped,
	}, nil
}

type rendered struct {
	block   string
	content string
	changed bool
	skipped []string
}

// render executes parse → resolve → convert → merge → serialize → replace
// over in-memory text. Layer precedence, lowest to highest: preset
// defaults, existing document frontmatter, template-declared metadata,
// user input.
func (s *Service) render(ctx context.Context, p *preset.Preset, docText, path, templateName string, values map[string]any) (*rendered, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if vr := preset.Validate(p, values); !vr.IsValid {
		return nil, &ValidationError{Result: vr}
	}

	converted, ferrs := formdata.Convert(p, values)
	if len(ferrs) > 0 {
		return nil, &ValidationError{Result: conversionResult(ferrs)}
	}

	// Convert emits one entry per preset field; only the fields actually
	// submitted form the user layer, so an omitted field never blanks a
	// value contributed by a lower layer.
	userLayer := frontmatter.NewMap()
	for pair := converted.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := values[pair.Key]; ok {
			userLayer.Set(pair.Key, pair.Value)
		}
	}

	doc := frontmatter.Parse(docText)
	docCtx := &defaults.DocumentContext{
		Path:        path,
		Title:       doc.Title(),
		Frontmatter: doc.Frontmatter,
		Position:    doc.Position,
	}

	var ev defaults.Evaluator
	if s.factory != nil {
		ev = s.factory(docCtx)
	}
	resolved, skippedSet := s.resolver.Resolve(ctx, p, docCtx, ev)

	var templateLayer *frontmatter.Map
	if templateName != "" {
		if s.templates == nil {
			return nil, fmt.Errorf("engine: template %q requested but no template source configured: %w", templateName, apperr.ErrNotFound)
		}
		t, ok := s.templates.Get(templateName)
		if !ok {
			return nil, fmt.Errorf("engine: template %q: %w", templateName, apperr.ErrNotFound)
		}
		templateLayer = t.Frontmatter
	}

	merged := s.merger.MergeAll(resolved, doc.Frontmatter, templateLayer, userLayer)

	block, err := frontmatter.Serialize(merged, p.FieldOrder())
	if err != nil {
		// The one fatal path: no safe textual fallback exists. It can
		// only happen before any write is attempted.
		return nil, fmt.Errorf("engine: %w", err)
	}

	content, changed := frontmatter.Replace(docText, block, doc.Position)

	skipped := make([]string, 0, len(skippedSet))
	for _, f := range p.Fields {
		if _, ok := skippedSet[f.Key]; ok {
			skipped = append(skipped, f.Key)
		}
	}

	return &rendered{block: block, content: content, changed: changed, skipped: skipped}, nil
}

func conversionResult(ferrs []formdata.FieldError) preset.Result {
	res := preset.Result{
		Errors:      make([]string, 0, len(ferrs)),
		FieldErrors: map[int]*preset.FieldErrors{},
	}
	for _, fe := range ferrs {
		res.Errors = append(res.Errors, fe.Message)
	}
	return res
}
