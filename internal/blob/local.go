package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes objects to a directory tree and serves them from a URL
// prefix (the server mounts the directory at /uploads/).
type LocalStore struct {
	root      string
	urlPrefix string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: creating upload directory %s: %w", root, err)
	}
	return &LocalStore{root: root, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("blob: creating object directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("blob: creating object %s: %w", key, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("blob: writing object %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("blob: closing object %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("blob: opening object %s: %w", key, err)
	}
	return f, nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: deleting object %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	return s.urlPrefix + "/" + key
}

// Root is the directory the HTTP layer serves at the URL prefix.
func (s *LocalStore) Root() string {
	return s.root
}

// path resolves a key inside the root and rejects traversal outside it.
func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("blob: invalid object key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}
