package api

import (
	"github.com/veleda/othala/internal/frontmatter"
	"github.com/veleda/othala/internal/preset"
)

// SavePresetRequest is the body for POST /presets and PUT /presets/{id}.
type SavePresetRequest struct {
	ID     string         `json:"id,omitempty"`
	Name   string         `json:"name"`
	Fields []preset.Field `json:"fields"`
}

// PresetListResponse wraps a preset listing.
type PresetListResponse struct {
	Presets []*preset.Preset `json:"presets"`
	Total   int              `json:"total"`
}

// ReorderRequest is the body for PUT /presets/order.
type ReorderRequest struct {
	IDs []string `json:"ids"`
}

// TemplateItem is one template in a listing response.
type TemplateItem struct {
	Name        string         `json:"name"`
	Path        string         `json:"path"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}

// validationResponse is returned with HTTP 422 when a preset or submitted
// values fail validation.
type validationResponse struct {
	Error string `json:"error"`
	preset.Result
}

func templateItem(name, path string, fm *frontmatter.Map) TemplateItem {
	item := TemplateItem{Name: name, Path: path}
	if fm != nil && fm.Len() > 0 {
		item.Frontmatter = make(map[string]any, fm.Len())
		for pair := fm.Oldest(); pair != nil; pair = pair.Next() {
			item.Frontmatter[pair.Key] = pair.Value
		}
	}
	return item
}
