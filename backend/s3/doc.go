// Package s3 provides an Amazon S3 backend.ObjectStore.
//
// Small values are written with a single PutObject; values at or above the
// multipart threshold go through the SDK upload manager.
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("cache/"))
//	be := backend.NewObject[int64, Item](store, backend.WithZeroOnMissing())
package s3
