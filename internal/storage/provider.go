// Package storage defines the vault file-system abstraction. Its Write
// method doubles as the document writer the engine uses to commit merged
// frontmatter back to disk.
package storage

import "time"

// DocumentInfo is a lightweight description of one vault document.
type DocumentInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List returns info for every .md file under dir.
	List(dir string) ([]DocumentInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the content of path.
	Write(path string, content []byte) error
}
