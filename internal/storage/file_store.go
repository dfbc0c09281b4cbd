package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileStore implements BlobStore on the local filesystem. Keys are relative
// paths resolved under a base directory.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a file-backed blob store rooted at baseDir
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Save writes the blob under the given key, replacing any existing file
func (s *FileStore) Save(ctx context.Context, key string, r io.Reader) error {
	path := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create blob subdirectory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create blob file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write blob file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close blob file: %w", err)
	}
	return nil
}

// Open returns a reader over the blob's bytes
func (s *FileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.baseDir, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open blob file: %w", err)
	}
	return f, nil
}

// Delete removes the blob file
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete blob file: %w", err)
	}
	return nil
}
