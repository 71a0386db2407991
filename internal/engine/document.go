package engine

import (
	"context"
	"errors"
	"os"

	"github.com/veleda/othala/internal/apperr"
	"github.com/veleda/othala/internal/checksum"
	"github.com/veleda/othala/internal/frontmatter"
	"github.com/veleda/othala/internal/storage"
)

// DocumentDetail is the full representation of a vault document with its
// parsed frontmatter.
type DocumentDetail struct {
	Path           string                `json:"path"`
	Title          string                `json:"title"`
	Content        string                `json:"content"`
	Checksum       string                `json:"checksum"`
	HasFrontmatter bool                  `json:"has_frontmatter"`
	Position       *frontmatter.Position `json:"position,omitempty"`
	Frontmatter    map[string]any        `json:"frontmatter,omitempty"`
}

// GetDocument reads and parses one vault document.
func (s *Service) GetDocument(_ context.Context, path string) (*DocumentDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	doc := frontmatter.Parse(string(data))
	return &DocumentDetail{
		Path:           path,
		Title:          doc.Title(),
		Content:        string(data),
		Checksum:       checksum.Sum(data),
		HasFrontmatter: doc.HasFrontmatter,
		Position:       doc.Position,
		Frontmatter:    plainMap(doc.Frontmatter),
	}, nil
}

// ListDocuments returns info for every document under dir.
func (s *Service) ListDocuments(_ context.Context, dir string) ([]storage.DocumentInfo, error) {
	infos, err := s.store.List(dir)
	if err != nil {
		return nil, err
	}
	if infos == nil {
		infos = []storage.DocumentInfo{}
	}
	return infos, nil
}

// plainMap flattens an ordered map for JSON responses. Key order is lost
// in transport; order-sensitive callers use the serialized block instead.
func plainMap(m *frontmatter.Map) map[string]any {
	if m == nil || m.Len() == 0 {
		return nil
	}
	out := make(map[string]any, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}
