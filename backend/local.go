package backend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/hupe1980/clockcache/internal/resource"
)

// Local is an ObjectStore on the local file system.
// Writes replace files atomically; reads never observe a partial blob.
type Local struct {
	root string
	rc   *resource.Controller
}

// NewLocal creates a Local store rooted at root, creating the directory if
// needed. Limits.BytesPerSec throttles reads and writes.
func NewLocal(root string, limits Limits) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: root, rc: resource.NewController(limits)}, nil
}

// Root returns the root directory.
func (s *Local) Root() string { return s.root }

func (s *Local) path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return filepath.Join(s.root, clean), nil
}

// Get reads a blob.
func (s *Local) Get(ctx context.Context, name string) ([]byte, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return io.ReadAll(resource.NewRateLimitedReader(ctx, f, s.rc))
}

// Put writes a blob via a temporary file and rename.
func (s *Local) Put(ctx context.Context, name string, data []byte) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(p, resource.NewRateLimitedReader(ctx, bytes.NewReader(data), s.rc))
}

// Delete removes a blob.
func (s *Local) Delete(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
