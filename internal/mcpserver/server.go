// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Othala's preset and merge tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/veleda/othala/internal/engine"
	"github.com/veleda/othala/internal/preset"
	"github.com/veleda/othala/internal/presetstore"
	"github.com/veleda/othala/internal/templates"
)

// Server wraps the MCP server with Othala tools.
type Server struct {
	mcp   *server.MCPServer
	store *presetstore.DB
	eng   *engine.Service
	tmpl  *templates.Registry
}

// New creates a new MCP server with all Othala tools registered.
func New(store *presetstore.DB, eng *engine.Service, tmpl *templates.Registry) *Server {
	s := &Server{store: store, eng: eng, tmpl: tmpl}

	s.mcp = server.NewMCPServer(
		"Othala",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_presets",
		mcp.WithDescription("List all metadata presets with their field definitions."),
	), s.listPresets)

	s.mcp.AddTool(mcp.NewTool("get_preset",
		mcp.WithDescription("Read one metadata preset by id, including every field definition."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Preset id")),
	), s.getPreset)

	s.mcp.AddTool(mcp.NewTool("validate_preset",
		mcp.WithDescription("Validate a preset definition (JSON with name and fields). "+
			"Returns the structured validation result; nothing is persisted."),
		mcp.WithString("preset", mcp.Required(), mcp.Description("Preset definition as JSON")),
	), s.validatePreset)

	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the document templates available as merge layers."),
	), s.listTemplates)

	s.mcp.AddTool(mcp.NewTool("preview_apply",
		mcp.WithDescription("Render the frontmatter a preset would produce for a document "+
			"without writing anything. Read the frontmatter format first via the "+
			"othala://frontmatter-format resource if unsure about the block structure."),
		mcp.WithString("preset_id", mcp.Required(), mcp.Description("Preset id")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the document (e.g. topics/note.md)")),
		mcp.WithString("template", mcp.Description("Optional template name contributing a metadata layer")),
		mcp.WithString("values", mcp.Description("Optional user values as a JSON object keyed by field key")),
	), s.previewApply)

	s.mcp.AddTool(mcp.NewTool("apply_preset",
		mcp.WithDescription("Merge a preset into a document's frontmatter and write the result "+
			"back. Defaults, existing metadata, template metadata, and the given values are "+
			"merged in that precedence order; tag-like fields are united rather than overridden."),
		mcp.WithString("preset_id", mcp.Required(), mcp.Description("Preset id")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the document")),
		mcp.WithString("template", mcp.Description("Optional template name contributing a metadata layer")),
		mcp.WithString("values", mcp.Description("Optional user values as a JSON object keyed by field key")),
	), s.applyPreset)

	// Resource: frontmatter format contract.
	s.mcp.AddResource(
		mcp.NewResource("othala://frontmatter-format", "Frontmatter Format Contract",
			mcp.WithResourceDescription("Canonical frontmatter block format produced by the merge engine."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listPresets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.store.ListPresets()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getPreset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.store.GetPreset(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(p, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) validatePreset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("preset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var p preset.Preset
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid preset JSON: %v", err)), nil
	}
	res := preset.Validate(&p, nil)
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all := s.tmpl.List()
	if len(all) == 0 {
		return mcp.NewToolResultText("no templates found"), nil
	}
	var names []string
	for _, t := range all {
		names = append(names, t.Name)
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) previewApply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	presetID, err := req.RequireString("preset_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	values, err := optionalValues(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	detail, err := s.eng.GetDocument(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}

	res, err := s.eng.Preview(ctx, engine.PreviewRequest{
		PresetID: presetID,
		Document: detail.Content,
		Path:     path,
		Template: optionalString(req, "template"),
		Values:   values,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) applyPreset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	presetID, err := req.RequireString("preset_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	values, err := optionalValues(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.eng.Apply(ctx, engine.ApplyRequest{
		Path:     path,
		PresetID: presetID,
		Template: optionalString(req, "template"),
		Values:   values,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.Changed {
		return mcp.NewToolResultText(fmt.Sprintf("unchanged: %s", path)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("applied: %s (checksum %s)", path, res.Checksum)), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "othala://frontmatter-format",
			MIMEType: "text/markdown",
			Text:     FrontmatterFormatContract,
		},
	}, nil
}

// optionalString returns a string argument or "" when absent.
func optionalString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

// optionalValues decodes the "values" argument when present.
func optionalValues(req mcp.CallToolRequest) (map[string]any, error) {
	raw := optionalString(req, "values")
	if raw == "" {
		return nil, nil
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("invalid values JSON: %w", err)
	}
	return values, nil
}
