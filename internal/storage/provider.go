// Package storage gives access to the files of a presentation directory:
// the deck source and the image assets it references.
package storage

import "github.com/starford/pinpoint/internal/models"

// Provider is the interface for presentation directory file operations.
// Paths are relative to the presentation directory.
type Provider interface {
	// Root returns the absolute presentation directory.
	Root() string
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Stat returns metadata for one file, checksum included.
	Stat(path string) (models.FileMeta, error)
	// List returns metadata for every image asset under dir.
	List(dir string) ([]models.FileMeta, error)
	// Resolve maps path to an absolute file path inside the directory.
	Resolve(path string) (string, error)
}
