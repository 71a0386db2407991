// Package templates maintains an in-memory registry of document templates
// found in the templates directory. Each template contributes the
// frontmatter its file declares as a merge layer; the engine only ever
// sees plain metadata maps.
package templates

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/veleda/othala/internal/frontmatter"
)

// Template is one scanned template file.
type Template struct {
	Name        string           // relative path without the .md extension
	Path        string           // relative path within the templates dir
	Frontmatter *frontmatter.Map // declared metadata layer
	Body        string
}

// Registry holds the current set of templates. It is safe for concurrent
// readers; Rescan replaces the whole set atomically.
type Registry struct {
	root string

	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry creates a registry rooted at dir and performs an initial
// scan. A missing directory yields an empty registry rather than an error
// so a vault without templates still works.
func NewRegistry(dir string) (*Registry, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("templates: resolve root: %w", err)
	}
	r := &Registry{root: abs, templates: map[string]Template{}}
	if err := r.Rescan(); err != nil {
		return nil, err
	}
	return r, nil
}

// Root returns the absolute templates directory.
func (r *Registry) Root() string {
	return r.root
}

// Rescan walks the templates directory and rebuilds the registry.
func (r *Registry) Rescan() error {
	next := map[string]Template{}

	err := filepath.WalkDir(r.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) && p == r.root {
				return filepath.SkipAll
			}
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return readErr
		}
		rel, relErr := filepath.Rel(r.root, p)
		if relErr != nil {
			return relErr
		}
		doc := frontmatter.Parse(string(data))
		name := strings.TrimSuffix(filepath.ToSlash(rel), ".md")
		next[name] = Template{
			Name:        name,
			Path:        filepath.ToSlash(rel),
			Frontmatter: doc.Frontmatter,
			Body:        doc.Body,
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("templates: scan: %w", err)
	}

	r.mu.Lock()
	r.templates = next
	r.mu.Unlock()
	return nil
}

// Get returns the template with the given name.
func (r *Registry) Get(name string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[name]
	return t, ok
}

// List returns all templates sorted by name.
func (r *Registry) List() []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
