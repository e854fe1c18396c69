package receipt

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrObjectNotFound is returned when a key does not exist in the store
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore defines the interface for receipt image storage. Keys are
// slash-separated paths such as "cash/<name>".
type ObjectStore interface {
	// Get retrieves an object by key
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes an object, replacing any existing one
	Put(ctx context.Context, key string, data []byte) error

	// Copy duplicates the object at src to dst
	Copy(ctx context.Context, src, dst string) error

	// Delete removes an object
	Delete(ctx context.Context, key string) error
}

// LocalStorage implements the ObjectStore interface using local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// path maps a key to a file below basePath
func (l *LocalStorage) path(key string) (string, error) {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(l.basePath, rel), nil
}

// Get retrieves a file from local storage
func (l *LocalStorage) Get(_ context.Context, key string) ([]byte, error) {
	fullPath, err := l.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Put writes a file to local storage, creating parent directories
func (l *LocalStorage) Put(_ context.Context, key string, data []byte) error {
	fullPath, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// Copy duplicates a file within local storage
func (l *LocalStorage) Copy(ctx context.Context, src, dst string) error {
	data, err := l.Get(ctx, src)
	if err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := l.Put(ctx, dst, data); err != nil {
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	return nil
}

// Delete removes a file from local storage
func (l *LocalStorage) Delete(_ context.Context, key string) error {
	fullPath, err := l.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
