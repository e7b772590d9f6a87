package resource

import (
	"context"
	"io"
)

// RateLimitedReader wraps an io.Reader with the byte limit of a Controller.
type RateLimitedReader struct {
	r   io.Reader
	rc  *Controller
	ctx context.Context
}

// NewRateLimitedReader creates a new RateLimitedReader.
func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{
		r:   r,
		rc:  rc,
		ctx: ctx,
	}
}

func (r *RateLimitedReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		// Charge the bytes actually read.
		if werr := r.rc.AcquireBytes(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
