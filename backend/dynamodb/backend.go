package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/clockcache"
	"github.com/hupe1980/clockcache/backend"
	"github.com/hupe1980/clockcache/codec"
)

const (
	attrNamespace = "ns"
	attrKey       = "k"
	attrValue     = "v"
)

// Client is the interface for DynamoDB operations.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type options struct {
	namespace     string
	region        string
	codec         codec.Codec
	zeroOnMissing bool
	consistent    bool
}

// Option configures a Backend.
type Option func(*options)

// WithNamespace sets the partition key value. Defaults to "default".
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithRegion overrides the region of the default AWS config. Used by New.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithCodec sets the value codec. Defaults to codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithZeroOnMissing makes Load of a missing key return the zero value.
func WithZeroOnMissing() Option {
	return func(o *options) { o.zeroOnMissing = true }
}

// WithEventualConsistency disables strongly consistent reads.
func WithEventualConsistency() Option {
	return func(o *options) { o.consistent = false }
}

// Backend implements clockcache.Backend over a DynamoDB table.
type Backend[K clockcache.Key, V any] struct {
	client Client
	table  string
	opts   options
}

// New creates a Backend using the default AWS credential chain.
func New[K clockcache.Key, V any](ctx context.Context, table string, opts ...Option) (*Backend[K, V], error) {
	o := applyOptions(opts)

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	return NewBackend[K, V](dynamodb.NewFromConfig(cfg), table, opts...), nil
}

// NewBackend creates a Backend over client.
func NewBackend[K clockcache.Key, V any](client Client, table string, opts ...Option) *Backend[K, V] {
	return &Backend[K, V]{client: client, table: table, opts: applyOptions(opts)}
}

func applyOptions(opts []Option) options {
	o := options{namespace: "default", codec: codec.Default, consistent: true}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (b *Backend[K, V]) itemKey(key K) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrNamespace: &types.AttributeValueMemberS{Value: b.opts.namespace},
		attrKey:       &types.AttributeValueMemberN{Value: backend.FormatKey(key)},
	}
}

// Load implements clockcache.Backend.
func (b *Backend[K, V]) Load(ctx context.Context, key K) (V, error) {
	var v V

	out, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(b.table),
		Key:            b.itemKey(key),
		ConsistentRead: aws.Bool(b.opts.consistent),
	})
	if err != nil {
		return v, err
	}
	if len(out.Item) == 0 {
		if b.opts.zeroOnMissing {
			return v, nil
		}
		return v, fmt.Errorf("key %s: %w", backend.FormatKey(key), backend.ErrNotFound)
	}

	attr, ok := out.Item[attrValue].(*types.AttributeValueMemberB)
	if !ok {
		return v, fmt.Errorf("key %s: invalid %q attribute", backend.FormatKey(key), attrValue)
	}
	if err := b.opts.codec.Unmarshal(attr.Value, &v); err != nil {
		return v, fmt.Errorf("decode key %s with %s: %w", backend.FormatKey(key), b.opts.codec.Name(), err)
	}
	return v, nil
}

// Store implements clockcache.Backend.
func (b *Backend[K, V]) Store(ctx context.Context, key K, value V) error {
	data, err := b.opts.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode key %s with %s: %w", backend.FormatKey(key), b.opts.codec.Name(), err)
	}

	item := b.itemKey(key)
	item[attrValue] = &types.AttributeValueMemberB{Value: data}

	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.table),
		Item:      item,
	})
	return err
}

// Delete removes key from the table.
func (b *Backend[K, V]) Delete(ctx context.Context, key K) error {
	_, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(b.table),
		Key:       b.itemKey(key),
	})
	return err
}
