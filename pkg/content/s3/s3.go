package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/pkg/content"
	"github.com/marmos91/dittophotos/pkg/media"
)

// S3ContentStore implements ContentStore using Amazon S3 or S3-compatible storage.
//
// Key Design:
//   - Every item is one object at "<KeyPrefix><ContentID><ext>"
//   - PutObject is atomic: readers see either no object or the whole item
//   - No local caching (every read hits S3)
//   - Supports custom endpoint for S3-compatible storage (MinIO, Localstack)
//
// Thread Safety:
// This implementation is safe for concurrent use by multiple goroutines.
type S3ContentStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	extension string
}

// S3ContentStoreConfig contains configuration for S3 content store.
type S3ContentStoreConfig struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "photos/" results in keys like "photos/<id>.dpic"
	KeyPrefix string

	// Extension is appended to every key, including the dot.
	// Defaults to the canonical format extension.
	Extension string
}

// NewS3ContentStore creates a new S3-based content store.
//
// The bucket must already exist - this function does not create it.
//
// Context Cancellation:
// This operation checks the context before verifying bucket access.
func NewS3ContentStore(ctx context.Context, cfg S3ContentStoreConfig) (*S3ContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	ext := cfg.Extension
	if ext == "" {
		ext = media.FormatCanonical.Extension()
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3ContentStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		extension: ext,
	}, nil
}

func (s *S3ContentStore) Extension() string {
	return s.extension
}

// objectKey returns the full S3 object key for a given content ID.
func (s *S3ContentStore) objectKey(id media.ContentID) (string, error) {
	if err := content.ValidateID(id); err != nil {
		return "", err
	}
	return s.keyPrefix + string(id) + s.extension, nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

// Put uploads the item with a single PutObject call.
func (s *S3ContentStore) Put(ctx context.Context, id media.ContentID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := s.objectKey(id)
	if err != nil {
		return err
	}

	exists, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("content %s: %w", id, content.ErrContentExists)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(media.FormatCanonical.MIMEType()),
	})
	if err != nil {
		return fmt.Errorf("failed to put object to S3: %w", err)
	}

	logger.Debug("content: uploaded %s to s3://%s/%s", id, s.bucket, key)
	return nil
}

func (s *S3ContentStore) Get(ctx context.Context, id media.ContentID) ([]byte, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	key, err := s.objectKey(id)
	if err != nil {
		return nil, 0, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return nil, 0, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read object body: %w", err)
	}

	return data, int64(len(data)), nil
}

// Size performs a HEAD request without downloading the item.
func (s *S3ContentStore) Size(ctx context.Context, id media.ContentID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	key, err := s.objectKey(id)
	if err != nil {
		return 0, err
	}

	result, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return 0, fmt.Errorf("failed to head object: %w", err)
	}

	return aws.ToInt64(result.ContentLength), nil
}

func (s *S3ContentStore) Exists(ctx context.Context, id media.ContentID) (bool, error) {
	if _, err := s.Size(ctx, id); err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes the object.
//
// S3 DeleteObject succeeds for missing keys, so existence is checked first to
// keep the not-found contract of the other backends.
func (s *S3ContentStore) Delete(ctx context.Context, id media.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := s.objectKey(id)
	if err != nil {
		return err
	}

	if _, err := s.Size(ctx, id); err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}

	return nil
}

// List pages through every object under the key prefix.
func (s *S3ContentStore) List(ctx context.Context) ([]media.ContentID, error) {
	var ids []media.ContentID
	err := s.walk(ctx, func(id media.ContentID, _ int64) {
		ids = append(ids, id)
	})
	return ids, err
}

func (s *S3ContentStore) walk(ctx context.Context, fn func(id media.ContentID, size int64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			name := strings.TrimPrefix(*obj.Key, s.keyPrefix)
			stem, ok := strings.CutSuffix(name, s.extension)
			if !ok {
				continue
			}
			id, err := media.ParseContentID(stem)
			if err != nil {
				continue
			}
			fn(id, aws.ToInt64(obj.Size))
		}
	}

	return nil
}

// GetStorageStats lists every object under the prefix and sums their sizes.
// S3 has effectively unlimited capacity.
func (s *S3ContentStore) GetStorageStats(ctx context.Context) (*content.StorageStats, error) {
	var used, count uint64
	err := s.walk(ctx, func(_ media.ContentID, size int64) {
		used += uint64(size)
		count++
	})
	if err != nil {
		return nil, err
	}

	const maxUint64 = ^uint64(0)

	return &content.StorageStats{
		TotalSize:     maxUint64,
		UsedSize:      used,
		AvailableSize: maxUint64,
		ContentCount:  count,
		AverageSize:   content.AverageOf(used, count),
	}, nil
}
