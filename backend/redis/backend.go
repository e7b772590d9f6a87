package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/clockcache"
	"github.com/hupe1980/clockcache/backend"
	"github.com/hupe1980/clockcache/codec"
)

// Client is the subset of the Redis API used by Backend.
// *redis.Client and *redis.ClusterClient satisfy it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type options struct {
	prefix        string
	codec         codec.Codec
	ttl           time.Duration
	zeroOnMissing bool
}

// Option configures a Backend.
type Option func(*options)

// WithKeyPrefix prepends prefix to every Redis key.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithCodec sets the value codec. Defaults to codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithTTL expires written keys after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithZeroOnMissing makes Load of a missing key return the zero value.
func WithZeroOnMissing() Option {
	return func(o *options) { o.zeroOnMissing = true }
}

// Backend implements clockcache.Backend over Redis.
type Backend[K clockcache.Key, V any] struct {
	client Client
	opts   options
}

// New connects to addr and verifies the connection.
func New[K clockcache.Key, V any](ctx context.Context, addr, password string, db int, opts ...Option) (*Backend[K, V], error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewBackend[K, V](client, opts...), nil
}

// NewBackend creates a Backend over client.
func NewBackend[K clockcache.Key, V any](client Client, opts ...Option) *Backend[K, V] {
	o := options{codec: codec.Default}
	for _, fn := range opts {
		fn(&o)
	}
	return &Backend[K, V]{client: client, opts: o}
}

// Name returns the Redis key of key.
func (b *Backend[K, V]) Name(key K) string {
	return b.opts.prefix + backend.FormatKey(key)
}

// Load implements clockcache.Backend.
func (b *Backend[K, V]) Load(ctx context.Context, key K) (V, error) {
	var v V

	data, err := b.client.Get(ctx, b.Name(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			if b.opts.zeroOnMissing {
				return v, nil
			}
			return v, fmt.Errorf("key %s: %w", b.Name(key), backend.ErrNotFound)
		}
		return v, fmt.Errorf("redis get error: %w", err)
	}

	if err := b.opts.codec.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s with %s: %w", b.Name(key), b.opts.codec.Name(), err)
	}
	return v, nil
}

// Store implements clockcache.Backend.
func (b *Backend[K, V]) Store(ctx context.Context, key K, value V) error {
	data, err := b.opts.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s with %s: %w", b.Name(key), b.opts.codec.Name(), err)
	}
	if err := b.client.Set(ctx, b.Name(key), data, b.opts.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Delete removes key.
func (b *Backend[K, V]) Delete(ctx context.Context, key K) error {
	if err := b.client.Del(ctx, b.Name(key)).Err(); err != nil {
		return fmt.Errorf("redis del error: %w", err)
	}
	return nil
}
