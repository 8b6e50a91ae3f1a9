package erasure

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/xy-planning-network/retention"
)

// S3Config locates an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type objectStore interface {
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
}

// An S3Step deletes the account's uploads from an S3-compatible bucket.
type S3Step struct {
	client objectStore
	bucket string
}

// NewS3Step constructs a *S3Step.
func NewS3Step(cfg S3Config) (*S3Step, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 endpoint and bucket are required", retention.ErrBadConfig)
	}

	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: s3 access key and secret key are required", retention.ErrBadConfig)
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: s3 client: %s", retention.ErrBadConfig, err)
	}

	return &S3Step{client: mc, bucket: cfg.Bucket}, nil
}

func (s *S3Step) Name() string { return "s3" }

func (s *S3Step) Erase(ctx context.Context, accountID uuid.UUID) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var keys []string
	objs := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    AccountPrefix(accountID),
		Recursive: true,
	})
	for o := range objs {
		if o.Err != nil {
			return 0, fmt.Errorf("%w: listing s3 objects: %s", retention.ErrDependency, o.Err)
		}

		keys = append(keys, o.Key)
	}

	var removed int
	for _, k := range keys {
		err := s.client.RemoveObject(ctx, s.bucket, k, minio.RemoveObjectOptions{})
		if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
			return removed, fmt.Errorf("%w: deleting s3 object %s: %s", retention.ErrDependency, k, err)
		}

		if err == nil {
			removed++
		}
	}

	return removed, nil
}
