// Package preset defines metadata presets (named, ordered collections of
// field definitions) and validates them together with submitted values.
package preset

import (
	"fmt"
	"time"
)

// FieldType enumerates the supported field kinds.
type FieldType string

const (
	TypeText        FieldType = "text"
	TypeSelect      FieldType = "select"
	TypeDate        FieldType = "date"
	TypeMultiSelect FieldType = "multi-select"
)

// Field is one named, typed metadata entry within a preset.
//
// Default is either a string or a list of strings; its meaning depends on
// Type. For date fields with UseExpressionDefault set, the default is always
// a deferred macro expression expanded by an external evaluator.
type Field struct {
	Key                  string    `json:"key" yaml:"key"`
	Type                 FieldType `json:"type" yaml:"type"`
	Label                string    `json:"label" yaml:"label"`
	Default              any       `json:"default,omitempty" yaml:"default,omitempty"`
	Options              []string  `json:"options,omitempty" yaml:"options,omitempty"`
	UseExpressionDefault bool      `json:"useExpressionDefault,omitempty" yaml:"useExpressionDefault,omitempty"`
	Description          string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// HasOptions reports whether the field type requires declared options.
func (f Field) HasOptions() bool {
	return f.Type == TypeSelect || f.Type == TypeMultiSelect
}

// Preset is a reusable, ordered collection of field definitions. Field order
// is significant: it defines the key order of serialized frontmatter.
type Preset struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// FieldOrder returns the preset's field keys in declaration order.
func (p *Preset) FieldOrder() []string {
	keys := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Field returns the field with the given key, if declared.
func (p *Preset) Field(key string) (Field, bool) {
	for _, f := range p.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// dateLayouts are the calendar formats accepted for date field values.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04"}

// ParseDate parses a submitted date value against the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("preset: unparseable date %q", s)
}
