package preset

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// keyPattern is the shape every field key must match.
var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// FieldErrors collects inline messages for one field, partitioned by the
// definition part that failed so a caller can place them without re-deriving
// which rule fired.
type FieldErrors struct {
	Key     []string `json:"key,omitempty"`
	Label   []string `json:"label,omitempty"`
	Options []string `json:"options,omitempty"`
}

// Result is the outcome of validating a preset and submitted values.
// FieldErrors is keyed by field index rather than key, since keys may be
// blank or duplicated.
type Result struct {
	IsValid     bool                 `json:"isValid"`
	Errors      []string             `json:"errors"`
	FieldErrors map[int]*FieldErrors `json:"fieldErrors"`
}

func (r *Result) fieldErrors(idx int) *FieldErrors {
	fe, ok := r.FieldErrors[idx]
	if !ok {
		fe = &FieldErrors{}
		r.FieldErrors[idx] = fe
	}
	return fe
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Validate checks the shape of the preset's field definitions and, where
// submitted values are provided, their content. It never returns an error:
// every problem is reported as data.
func Validate(p *Preset, submitted map[string]any) Result {
	res := Result{
		Errors:      []string{},
		FieldErrors: map[int]*FieldErrors{},
	}

	for i, f := range p.Fields {
		name := fieldName(i, f)

		if err := validation.Validate(f.Key, validation.Required, validation.Match(keyPattern)); err != nil {
			msg := keyMessage(f.Key)
			res.fieldErrors(i).Key = append(res.fieldErrors(i).Key, msg)
			res.addError("%s: %s", name, msg)
		}

		if strings.TrimSpace(f.Label) == "" {
			res.fieldErrors(i).Label = append(res.fieldErrors(i).Label, "label must not be blank")
			res.addError("%s: label must not be blank", name)
		}

		if f.HasOptions() && !hasNonBlankOption(f.Options) {
			msg := fmt.Sprintf("%s field must declare at least one option", f.Type)
			res.fieldErrors(i).Options = append(res.fieldErrors(i).Options, msg)
			res.addError("%s: %s", name, msg)
		}
	}

	checkDuplicateKeys(p, &res)
	checkSubmittedValues(p, submitted, &res)

	res.IsValid = len(res.Errors) == 0
	return res
}

// checkDuplicateKeys marks every field sharing a duplicated key with an
// inline error and adds one summary message per duplicated key.
func checkDuplicateKeys(p *Preset, res *Result) {
	byKey := map[string][]int{}
	for i, f := range p.Fields {
		if strings.TrimSpace(f.Key) == "" {
			continue
		}
		byKey[f.Key] = append(byKey[f.Key], i)
	}

	seen := map[string]struct{}{}
	for _, f := range p.Fields {
		indexes := byKey[f.Key]
		if len(indexes) < 2 {
			continue
		}
		if _, done := seen[f.Key]; done {
			continue
		}
		seen[f.Key] = struct{}{}
		for _, idx := range indexes {
			res.fieldErrors(idx).Key = append(res.fieldErrors(idx).Key,
				fmt.Sprintf("key %q is used by another field", f.Key))
		}
		res.addError("duplicate field key %q", f.Key)
	}
}

// checkSubmittedValues verifies value-level constraints: non-macro date
// fields with a non-empty submitted value must parse as a calendar date.
func checkSubmittedValues(p *Preset, submitted map[string]any, res *Result) {
	if submitted == nil {
		return
	}
	for _, f := range p.Fields {
		if f.Type != TypeDate || f.UseExpressionDefault {
			continue
		}
		raw, ok := submitted[f.Key]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		if _, err := ParseDate(strings.TrimSpace(s)); err != nil {
			res.addError("invalid date format for field %s", f.Label)
		}
	}
}

func keyMessage(key string) string {
	if strings.TrimSpace(key) == "" {
		return "key must not be blank"
	}
	return "key must start with a letter or underscore and contain only letters, digits, underscores, and hyphens"
}

func hasNonBlankOption(options []string) bool {
	for _, o := range options {
		if strings.TrimSpace(o) != "" {
			return true
		}
	}
	return false
}

// fieldName is how a field is referred to in flat error messages.
func fieldName(idx int, f Field) string {
	if strings.TrimSpace(f.Label) != "" {
		return fmt.Sprintf("field %d (%s)", idx+1, f.Label)
	}
	return fmt.Sprintf("field %d", idx+1)
}
