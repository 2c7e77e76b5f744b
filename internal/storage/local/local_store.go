package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"invoicex/internal/domain"
	"invoicex/internal/port"
)

type localStore struct {
	root string
}

// NewLocalStore creates a filesystem-backed DocumentStore rooted at root,
// creating the directory if needed. Locations are file names relative to root.
func NewLocalStore(root string) (port.DocumentStore, error) {
	if root == "" {
		return nil, errors.New("local store: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local store: creating root: %w", err)
	}
	return &localStore{root: root}, nil
}

func (s *localStore) Save(ctx context.Context, input port.SaveInput) (string, error) {
	path, err := s.resolve(input.Key)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("local save: %w", err)
	}
	if _, err := io.Copy(f, contextReader{ctx: ctx, r: input.Body}); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("local save: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("local save: %w", err)
	}
	return input.Key, nil
}

func (s *localStore) Read(_ context.Context, location string) ([]byte, error) {
	path, err := s.resolve(location)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("local read %s: %w", location, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("local read: %w", err)
	}
	return data, nil
}

// Delete removes the file at location. A missing file is not an error.
func (s *localStore) Delete(_ context.Context, location string) error {
	path, err := s.resolve(location)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("local delete: %w", err)
	}
	return nil
}

// resolve maps a location to a path directly under root.
func (s *localStore) resolve(location string) (string, error) {
	if location == "" || location == "." || location == ".." || filepath.Base(location) != location {
		return "", fmt.Errorf("local store: invalid location %q", location)
	}
	return filepath.Join(s.root, location), nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
