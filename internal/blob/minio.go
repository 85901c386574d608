// Package blob stores attachment payloads and signature images in
// object storage, returning content references the permit document
// embeds.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"permitdesk/api/internal/util"
)

// Store wraps a Minio bucket. A nil *Store is valid and reports
// unconfigured, so callers can fall back to inlining data URLs.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to Minio and ensures the bucket exists.
func New(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to minio: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &Store{client: client, bucket: bucket}, nil
}

// Configured reports whether object storage is available.
func (s *Store) Configured() bool {
	return s != nil && s.client != nil
}

// Put stores a payload under a generated object name and returns its
// reference.
func (s *Store) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("blob store not configured")
	}

	objectName := util.NewID("obj") + "/" + name
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", name, err)
	}
	return objectName, nil
}

// PresignedURL returns a time-limited download link for a stored
// object.
func (s *Store) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("blob store not configured")
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectName, err)
	}
	return u.String(), nil
}

// Remove deletes a stored object.
func (s *Store) Remove(ctx context.Context, objectName string) error {
	if !s.Configured() {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", objectName, err)
	}
	return nil
}
