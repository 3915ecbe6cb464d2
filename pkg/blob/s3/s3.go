package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/shelfd/pkg/blob"
)

// S3BlobStore implements blob.Store using Amazon S3 or S3-compatible storage.
//
// Object keys are the blob keys with an optional configured prefix, so a
// bucket can be shared between environments:
//
//	<keyPrefix><blobKey>  e.g. "shelfd/blobs/550e8400-..."
//
// Works against any S3-compatible endpoint (MinIO, localstack) via a custom
// endpoint on the client; the bucket must already exist.
//
// Thread Safety:
// The S3 client is safe for concurrent use. Concurrent writes to the same
// key are last-write-wins under S3's consistency model.
type S3BlobStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// Config contains configuration for the S3 blob store.
type Config struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	KeyPrefix string
}

// NewS3BlobStore creates an S3-backed blob store and verifies bucket access
// with a HeadBucket call.
func NewS3BlobStore(ctx context.Context, cfg Config) (*S3BlobStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix != "" && !strings.HasSuffix(keyPrefix, "/") {
		keyPrefix += "/"
	}

	store := &S3BlobStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: keyPrefix,
	}

	if _, err := store.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(store.bucket),
	}); err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", store.bucket, err)
	}

	return store, nil
}

// objectKey returns the full S3 object key for a blob key.
func (s *S3BlobStore) objectKey(key string) string {
	return s.keyPrefix + key
}

// Write uploads the blob read from r to the bucket.
func (s *S3BlobStore) Write(ctx context.Context, key string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", key, err)
	}
	return nil
}

// Read downloads the blob stored under key. The caller must close the
// returned reader to release the underlying HTTP response.
func (s *S3BlobStore) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("blob %s: %w", key, blob.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download blob %s: %w", key, err)
	}
	return result.Body, nil
}

// Keys lists every blob key under the configured prefix, paginating through
// the bucket.
func (s *S3BlobStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}
		for _, object := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(object.Key), s.keyPrefix))
		}
	}
	return keys, nil
}

// Remove deletes the blob stored under key. S3 DeleteObject is idempotent,
// so missing keys succeed without error.
func (s *S3BlobStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}
