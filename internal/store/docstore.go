// Package store provides a durable key-value store of JSON documents,
// one file per key, with whole-document atomic replace on save.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Load when no document exists for the key.
var ErrNotFound = errors.New("document not found")

// #region docstore

// DocStore keeps each document as <dir>/<key>.json.
type DocStore struct {
	dir string
}

// NewDocStore creates the backing directory if needed.
func NewDocStore(dir string) (*DocStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &DocStore{dir: dir}, nil
}

// #endregion docstore

// #region load-save

// Load reads the raw document for key. Returns ErrNotFound when the
// file does not exist; other I/O errors are returned as-is.
func (s *DocStore) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read document %q: %w", key, err)
	}
	return data, nil
}

// Save replaces the document for key atomically: write to a temp file
// in the same directory, then rename over the target. A crash mid-save
// leaves either the old or the new document, never a torn write.
func (s *DocStore) Save(key string, data []byte) error {
	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %q: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write document %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close document %q: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace document %q: %w", key, err)
	}
	return nil
}

// Exists reports whether a document is stored under key.
func (s *DocStore) Exists(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// #endregion load-save

// #region keys

// path maps a key to a filename. Path separators in keys are flattened
// so a key can never escape the store directory.
func (s *DocStore) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(s.dir, safe+".json")
}

// #endregion keys
