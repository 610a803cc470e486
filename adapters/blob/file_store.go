// Package blob stores encrypted file blobs on the local file system.
package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/blockvault/blockvault/core"
)

// FileStore keeps encrypted blobs and request-scoped scratch files in a
// single directory. Only ciphertext is ever stored here durably; plaintext
// scratch files live for one request and are removed by the caller.
type FileStore struct {
	dir string
}

// NewFileStore creates the blob directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// NewBlobName returns a fresh name for an encrypted blob.
func (s *FileStore) NewBlobName() string {
	return fmt.Sprintf("enc_%s.bin", strings.ReplaceAll(uuid.New().String(), "-", ""))
}

// Path resolves a blob name to its absolute location.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// TempPath returns a scratch location for request-scoped plaintext. The name
// is derived from a fresh UUID only; caller-controlled strings never reach
// the path.
func (s *FileStore) TempPath() string {
	return filepath.Join(s.dir, fmt.Sprintf("tmp_%s", uuid.New().String()))
}

// Exists reports whether the named blob is present.
func (s *FileStore) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Remove deletes the named blob. A missing blob maps to core.ErrBlobMissing.
func (s *FileStore) Remove(name string) error {
	err := os.Remove(s.Path(name))
	if os.IsNotExist(err) {
		return core.ErrBlobMissing
	}
	if err != nil {
		return fmt.Errorf("failed to remove blob: %w", err)
	}
	return nil
}
