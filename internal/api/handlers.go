package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/veleda/othala/internal/apperr"
	"github.com/veleda/othala/internal/engine"
	"github.com/veleda/othala/internal/preset"
	"github.com/veleda/othala/internal/presetstore"
	"github.com/veleda/othala/internal/sse"
	"github.com/veleda/othala/internal/templates"
)

// Handler holds API route handlers.
type Handler struct {
	store  *presetstore.DB
	eng    *engine.Service
	tmpl   *templates.Registry
	broker *sse.Broker
}

// NewHandler creates a new Handler. broker may be nil when SSE is not wired.
func NewHandler(store *presetstore.DB, eng *engine.Service, tmpl *templates.Registry, broker *sse.Broker) *Handler {
	return &Handler{store: store, eng: eng, tmpl: tmpl, broker: broker}
}

// docPath extracts the document path from the URL (everything after
// /documents/). Supports encoded slashes from OpenAPI clients.
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeError maps sentinel and validation errors onto HTTP responses.
func writeError(w http.ResponseWriter, err error, op string) {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Error:  "validation failed",
			Result: verr.Result,
		})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListPresets handles GET /presets with optional ?q= search.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var (
		items []*preset.Preset
		err   error
	)
	if q != "" {
		items, err = h.store.SearchPresets(q, limit)
	} else {
		items, err = h.store.ListPresets()
	}
	if err != nil {
		writeError(w, err, "list presets")
		return
	}
	if items == nil {
		items = []*preset.Preset{}
	}
	writeJSON(w, http.StatusOK, PresetListResponse{Presets: items, Total: len(items)})
}

// GetPreset handles GET /presets/{id}.
func (h *Handler) GetPreset(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPreset(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "get preset")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePreset handles POST /presets. The definition is validated before
// anything is persisted; an invalid preset returns 422 with every message.
func (h *Handler) CreatePreset(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePresetBody(w, r)
	if !ok {
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	p := &preset.Preset{ID: req.ID, Name: req.Name, Fields: req.Fields}
	if vr := preset.Validate(p, nil); !vr.IsValid {
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Error: "validation failed", Result: vr})
		return
	}

	if _, err := h.store.GetPreset(p.ID); err == nil {
		writeJSON(w, http.StatusConflict, errorBody("preset already exists"))
		return
	}
	if err := h.store.SavePreset(p); err != nil {
		writeError(w, err, "create preset")
		return
	}
	if h.broker != nil {
		h.broker.PublishPresetEvent("created", p.ID)
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePreset handles PUT /presets/{id}.
func (h *Handler) UpdatePreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetPreset(id); err != nil {
		writeError(w, err, "update preset")
		return
	}

	req, ok := decodePresetBody(w, r)
	if !ok {
		return
	}
	p := &preset.Preset{ID: id, Name: req.Name, Fields: req.Fields}
	if vr := preset.Validate(p, nil); !vr.IsValid {
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Error: "validation failed", Result: vr})
		return
	}
	if err := h.store.SavePreset(p); err != nil {
		writeError(w, err, "update preset")
		return
	}
	if h.broker != nil {
		h.broker.PublishPresetEvent("updated", p.ID)
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePreset handles DELETE /presets/{id}.
func (h *Handler) DeletePreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetPreset(id); err != nil {
		writeError(w, err, "delete preset")
		return
	}
	if err := h.store.DeletePreset(id); err != nil {
		writeError(w, err, "delete preset")
		return
	}
	if h.broker != nil {
		h.broker.PublishPresetEvent("deleted", id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderPresets handles PUT /presets/order.
func (h *Handler) ReorderPresets(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("ids are required"))
		return
	}
	if err := h.store.ReorderPresets(req.IDs); err != nil {
		writeError(w, err, "reorder presets")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidatePreset handles POST /presets/validate. It always returns 200
// with the full validation result; validation failures are data, not
// errors.
func (h *Handler) ValidatePreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SavePresetRequest
		Values map[string]any `json:"values,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	p := &preset.Preset{ID: req.ID, Name: req.Name, Fields: req.Fields}
	writeJSON(w, http.StatusOK, preset.Validate(p, req.Values))
}

// ListTemplates handles GET /templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, _ *http.Request) {
	all := h.tmpl.List()
	items := make([]TemplateItem, 0, len(all))
	for _, t := range all {
		items = append(items, templateItem(t.Name, t.Path, t.Frontmatter))
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": items, "total": len(items)})
}

// ListDocuments handles GET /documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	infos, err := h.eng.ListDocuments(r.Context(), r.URL.Query().Get("dir"))
	if err != nil {
		writeError(w, err, "list documents")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": infos, "total": len(infos)})
}

// GetDocument handles GET /documents/*.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	detail, err := h.eng.GetDocument(r.Context(), path)
	if err != nil {
		writeError(w, err, "get document")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Preview handles POST /documents/preview: a dry run that renders the
// merged document without writing.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req engine.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.PresetID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("preset_id is required"))
		return
	}
	res, err := h.eng.Preview(r.Context(), req)
	if err != nil {
		writeError(w, err, "preview")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Apply handles POST /documents/apply with If-Match optimistic concurrency.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req engine.ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" || req.PresetID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and preset_id are required"))
		return
	}
	req.IfMatch = strings.Trim(r.Header.Get("If-Match"), `"`)

	res, err := h.eng.Apply(r.Context(), req)
	if err != nil {
		writeError(w, err, "apply")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListApplications handles GET /applications with ?path= and ?limit=.
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	apps, err := h.store.ListApplications(r.URL.Query().Get("path"), limit)
	if err != nil {
		writeError(w, err, "list applications")
		return
	}
	if apps == nil {
		apps = []presetstore.Application{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": apps, "total": len(apps)})
}

func decodePresetBody(w http.ResponseWriter, r *http.Request) (SavePresetRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SavePresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return req, false
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return req, false
	}
	return req, true
}
