package backend

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/clockcache"
	"github.com/hupe1980/clockcache/codec"
)

// ObjectOption configures an Object backend.
type ObjectOption func(*objectOptions)

type objectOptions struct {
	codec         codec.Codec
	prefix        string
	zeroOnMissing bool
	concurrency   int
}

// WithCodec sets the value codec. Defaults to codec.Default.
func WithCodec(c codec.Codec) ObjectOption {
	return func(o *objectOptions) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithPrefix places every blob under prefix.
func WithPrefix(prefix string) ObjectOption {
	return func(o *objectOptions) { o.prefix = prefix }
}

// WithZeroOnMissing makes Load of a missing key return the zero value
// instead of an ErrNotFound error.
func WithZeroOnMissing() ObjectOption {
	return func(o *objectOptions) { o.zeroOnMissing = true }
}

// WithStoreConcurrency bounds the goroutines used by StoreMany.
func WithStoreConcurrency(n int) ObjectOption {
	return func(o *objectOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// Object is a Backend that encodes values into blobs of an ObjectStore.
// Blob names are "<prefix>/<decimal key>".
type Object[K clockcache.Key, V any] struct {
	store ObjectStore
	opts  objectOptions
}

// NewObject creates an Object backend over store.
func NewObject[K clockcache.Key, V any](store ObjectStore, opts ...ObjectOption) *Object[K, V] {
	o := objectOptions{codec: codec.Default, concurrency: 8}
	for _, fn := range opts {
		fn(&o)
	}
	return &Object[K, V]{store: store, opts: o}
}

// Name returns the blob name of key.
func (b *Object[K, V]) Name(key K) string {
	s := FormatKey(key)
	if b.opts.prefix == "" {
		return s
	}
	return path.Join(b.opts.prefix, s)
}

// Load implements clockcache.Backend.
func (b *Object[K, V]) Load(ctx context.Context, key K) (V, error) {
	var v V

	data, err := b.store.Get(ctx, b.Name(key))
	if err != nil {
		if b.opts.zeroOnMissing && errors.Is(err, ErrNotFound) {
			return v, nil
		}
		return v, err
	}
	if err := b.opts.codec.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s with %s: %w", b.Name(key), b.opts.codec.Name(), err)
	}
	return v, nil
}

// Store implements clockcache.Backend.
func (b *Object[K, V]) Store(ctx context.Context, key K, value V) error {
	data, err := b.opts.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s with %s: %w", b.Name(key), b.opts.codec.Name(), err)
	}
	return b.store.Put(ctx, b.Name(key), data)
}

// Delete removes the blob of key.
func (b *Object[K, V]) Delete(ctx context.Context, key K) error {
	return b.store.Delete(ctx, b.Name(key))
}

// StoreMany stores keys[i] -> values[i] concurrently.
// It returns the first error; remaining stores are cancelled.
func (b *Object[K, V]) StoreMany(ctx context.Context, keys []K, values []V) error {
	if len(keys) != len(values) {
		return fmt.Errorf("store many: %d keys, %d values", len(keys), len(values))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.concurrency)
	for i := range keys {
		g.Go(func() error {
			return b.Store(ctx, keys[i], values[i])
		})
	}
	return g.Wait()
}

// FormatKey renders key in decimal, honouring the sign of signed key types.
func FormatKey[K clockcache.Key](key K) string {
	var zero K
	if zero-1 < zero {
		return strconv.FormatInt(int64(key), 10)
	}
	return strconv.FormatUint(uint64(key), 10)
}
