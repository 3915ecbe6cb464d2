//go:build integration

package s3_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3store "github.com/marmos91/shelfd/pkg/blob/s3"
)

// setupTestS3 creates an S3 client and test bucket against Localstack (or
// another S3-compatible endpoint named by LOCALSTACK_ENDPOINT).
//
// Run with: go test -tags=integration ./test/integration/s3/...
func setupTestS3(t *testing.T, bucketName string) (*s3.Client, func()) {
	t.Helper()
	ctx := context.Background()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion("us-east-1"),
		awsConfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			"test", "test", "",
		)),
	)
	if err != nil {
		t.Fatalf("Failed to load AWS config: %v", err)
	}

	// Path-style URLs are required for Localstack
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	}); err != nil {
		t.Skipf("Skipping: cannot reach S3 endpoint %s: %v", endpoint, err)
	}

	cleanup := func() {
		list, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket: aws.String(bucketName),
		})
		if err == nil {
			for _, obj := range list.Contents {
				_, _ = client.DeleteObject(ctx, &s3.DeleteObjectInput{
					Bucket: aws.String(bucketName),
					Key:    obj.Key,
				})
			}
		}
		_, _ = client.DeleteBucket(ctx, &s3.DeleteBucketInput{
			Bucket: aws.String(bucketName),
		})
	}

	return client, cleanup
}

func TestS3BlobStore_Integration(t *testing.T) {
	ctx := context.Background()
	bucket := fmt.Sprintf("shelfd-test-%d", os.Getpid())

	client, cleanup := setupTestS3(t, bucket)
	defer cleanup()

	store, err := s3store.NewS3BlobStore(ctx, s3store.Config{
		Client:    client,
		Bucket:    bucket,
		KeyPrefix: "blobs",
	})
	require.NoError(t, err)

	t.Run("WriteReadRoundTrip", func(t *testing.T) {
		payload := []byte("integration payload")
		require.NoError(t, store.Write(ctx, "doc-1", bytes.NewReader(payload)))

		reader, err := store.Read(ctx, "doc-1")
		require.NoError(t, err)
		defer reader.Close()

		got, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("KeysListsUnderPrefix", func(t *testing.T) {
		require.NoError(t, store.Write(ctx, "doc-2", bytes.NewReader([]byte("x"))))

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, "doc-1")
		assert.Contains(t, keys, "doc-2")
	})

	t.Run("RemoveIsIdempotent", func(t *testing.T) {
		require.NoError(t, store.Remove(ctx, "doc-2"))
		require.NoError(t, store.Remove(ctx, "doc-2"))

		_, err := store.Read(ctx, "doc-2")
		assert.Error(t, err)
	})
}
