package minio

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/clockcache/backend"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error) {
	args := m.Called(ctx, bucketName, objectName)
	obj, _ := args.Get(0).(*minio.Object)
	return obj, args.Error(1)
}

func (m *mockClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, _ := io.ReadAll(reader)
	args := m.Called(ctx, bucketName, objectName, string(data), objectSize)
	return minio.UploadInfo{Size: objectSize}, args.Error(0)
}

func (m *mockClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return m.Called(ctx, bucketName, objectName).Error(0)
}

func TestStore_Unit(t *testing.T) {
	ctx := context.Background()
	client := new(mockClient)
	store := NewStore(client, "bucket", "cache/")

	client.On("PutObject", mock.Anything, "bucket", "cache/1", "one", int64(3)).Return(nil).Once()
	require.NoError(t, store.Put(ctx, "1", []byte("one")))

	client.On("GetObject", mock.Anything, "bucket", "cache/2").
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey"}).Once()
	_, err := store.Get(ctx, "2")
	assert.ErrorIs(t, err, backend.ErrNotFound)

	boom := errors.New("boom")
	client.On("GetObject", mock.Anything, "bucket", "cache/3").Return(nil, boom).Once()
	_, err = store.Get(ctx, "3")
	assert.ErrorIs(t, err, boom)

	client.On("RemoveObject", mock.Anything, "bucket", "cache/4").
		Return(minio.ErrorResponse{Code: "NotFound"}).Once()
	assert.NoError(t, store.Delete(ctx, "4"))

	client.On("RemoveObject", mock.Anything, "bucket", "cache/5").Return(boom).Once()
	assert.ErrorIs(t, store.Delete(ctx, "5"), boom)

	client.AssertExpectations(t)
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-clockcache"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	if _, err = client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")
	objects := backend.NewObject[int, string](store)

	require.NoError(t, objects.Store(ctx, 7, "seven"))
	v, err := objects.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "seven", v)

	require.NoError(t, objects.Delete(ctx, 7))
	_, err = objects.Load(ctx, 7)
	assert.ErrorIs(t, err, backend.ErrNotFound)
}
