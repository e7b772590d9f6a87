package backend

import (
	"context"
	"os"

	"github.com/hupe1980/clockcache/internal/resource"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ObjectStore stores opaque blobs by name.
type ObjectStore interface {
	// Get returns the blob contents or an error matching ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put replaces the blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
}

// Limits bounds backend I/O. Zero values mean unlimited.
type Limits = resource.Config
