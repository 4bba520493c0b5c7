// Package storage abstracts where food images live.
//
// Two drivers are available:
//   - "local"  — local filesystem (default, dev)
//   - "s3"     — S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
// An upload stores the object under a key and the public URL for that key
// is what ends up in the catalog document.
package storage

import (
	"fmt"
	"io"

	"github.com/mealgrid/mealgrid/config"
)

// Disk is the driver interface. Every driver must implement this.
type Disk interface {
	// Put writes content to path, creating parents as needed.
	Put(path string, content []byte) error

	// PutStream writes from r to path.
	PutStream(path string, r io.Reader) error

	// Get returns the full content of the file at path.
	Get(path string) ([]byte, error)

	// Exists reports whether a file exists at path.
	Exists(path string) bool

	// Delete removes a file.
	Delete(path string) error

	// URL returns the public URL for path.
	URL(path string) string
}

// Open builds the disk named by STORAGE_DISK ("local" or "s3").
func Open() (Disk, error) {
	switch name := config.StorageDefault(); name {
	case "local":
		return NewLocalDisk(), nil
	case "s3":
		return NewS3Disk()
	default:
		return nil, fmt.Errorf("storage: unknown STORAGE_DISK %q (supported: local, s3)", name)
	}
}
