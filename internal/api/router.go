package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Preset CRUD and ordering.
	r.Get("/presets", h.ListPresets)
	r.Post("/presets", h.CreatePreset)
	r.Post("/presets/validate", h.ValidatePreset)
	r.Put("/presets/order", h.ReorderPresets)
	r.Get("/presets/{id}", h.GetPreset)
	r.Put("/presets/{id}", h.UpdatePreset)
	r.Delete("/presets/{id}", h.DeletePreset)

	// Templates.
	r.Get("/templates", h.ListTemplates)

	// Documents and the merge pipeline.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents/preview", h.Preview)
	r.Post("/documents/apply", h.Apply)
	r.Get("/documents/*", h.GetDocument)

	// Application audit log.
	r.Get("/applications", h.ListApplications)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
