// Package minio provides a backend.ObjectStore for MinIO and other
// S3-compatible storage.
package minio
