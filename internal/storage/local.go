package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type LocalStore struct {
	basePath string
}

var _ Provider = (*LocalStore)(nil)

// NewLocalStorage creates a filesystem-backed store rooted at basePath,
// creating the directory if missing.
func NewLocalStorage(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create storage dir %s: %w", basePath, err)
	}
	return &LocalStore{basePath: basePath}, nil
}

func (l *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return os.OpenInRoot(l.basePath, filepath.Clean(key))
}

// Exists takes a key and returns true if the file exists and can be opened
func (l *LocalStore) Exists(_ context.Context, key string) bool {
	f, err := os.OpenInRoot(l.basePath, filepath.Clean(key))
	if err != nil {
		return false
	}

	defer f.Close() // overkill to consider errors if only checking existence
	return true
}

func (l *LocalStore) Save(_ context.Context, key string, body io.Reader) error {
	cleanKey := filepath.Clean(key)
	dest := filepath.Join(l.basePath, cleanKey)

	// keys carry a category prefix like blog/thumbnails/
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("cannot create dir for %s: %w", cleanKey, err)
	}

	// write to a temp file first so readers never observe partial objects
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cannot write %s: %w", cleanKey, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cannot close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cannot move %s into place: %w", cleanKey, err)
	}

	return nil
}

func (l *LocalStore) Delete(_ context.Context, key string) error {
	return os.Remove(filepath.Join(l.basePath, filepath.Clean(key)))
}
