// ABOUTME: Whole-document persistence for pipeline and outreach state
// ABOUTME: Store interface plus a JSON file implementation with atomic replacement
package db

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store loads and saves one JSON-serializable document as a whole.
// Writes replace the previous document; there is no locking, so two
// processes writing the same store race and the last writer wins.
type Store interface {
	// Load decodes the document into v. found is false when nothing has
	// been saved yet, in which case v is left untouched.
	Load(v any) (found bool, err error)
	Save(v any) error
	Name() string
}

// FileStore keeps a document as an indented JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Name() string {
	return s.path
}

func (s *FileStore) Load(v any) (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return true, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target, so readers never see a half-written document.
func (s *FileStore) Save(v any) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
