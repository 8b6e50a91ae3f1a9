package erasure

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/retention"
)

type fakeObjects struct {
	bucket  string
	objects []minio.ObjectInfo
	missing map[string]bool
	removed []string
	failOn  string
}

func (f *fakeObjects) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	f.bucket = bucket
	ch := make(chan minio.ObjectInfo, len(f.objects))
	for _, o := range f.objects {
		if o.Err != nil || len(o.Key) >= len(opts.Prefix) && o.Key[:len(opts.Prefix)] == opts.Prefix {
			ch <- o
		}
	}
	close(ch)
	return ch
}

func (f *fakeObjects) RemoveObject(_ context.Context, _, key string, _ minio.RemoveObjectOptions) error {
	if key == f.failOn {
		return errors.New("access denied")
	}

	if f.missing[key] {
		return minio.ErrorResponse{Code: "NoSuchKey", Key: key}
	}

	f.removed = append(f.removed, key)
	return nil
}

func TestS3StepErase(t *testing.T) {
	// Arrange
	id := uuid.New()
	prefix := AccountPrefix(id)
	fake := &fakeObjects{
		objects: []minio.ObjectInfo{
			{Key: prefix + "a.jpg"},
			{Key: prefix + "b.jpg"},
			{Key: prefix + "c.jpg"},
			{Key: AccountPrefix(uuid.New()) + "other.jpg"},
		},
		missing: map[string]bool{prefix + "b.jpg": true},
	}
	step := &S3Step{client: fake, bucket: "uploads"}

	// Act
	n, err := step.Erase(context.Background(), id)

	// Assert
	require.Nil(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "uploads", fake.bucket)
	require.Equal(t, []string{prefix + "a.jpg", prefix + "c.jpg"}, fake.removed)
}

func TestS3StepEraseFailures(t *testing.T) {
	// Arrange
	id := uuid.New()
	prefix := AccountPrefix(id)

	for _, tc := range []struct {
		name     string
		fake     *fakeObjects
		expected int
	}{
		{
			"List",
			&fakeObjects{objects: []minio.ObjectInfo{{Err: errors.New("timeout")}}},
			0,
		},
		{
			"Remove",
			&fakeObjects{
				objects: []minio.ObjectInfo{{Key: prefix + "a.jpg"}, {Key: prefix + "b.jpg"}},
				failOn:  prefix + "b.jpg",
			},
			1,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			n, err := (&S3Step{client: tc.fake, bucket: "uploads"}).Erase(context.Background(), id)

			// Assert
			require.ErrorIs(t, err, retention.ErrDependency)
			require.Equal(t, tc.expected, n)
		})
	}
}

func TestNewS3Step(t *testing.T) {
	// Act
	_, err := NewS3Step(S3Config{Endpoint: "localhost:9000", Bucket: "uploads"})

	// Assert
	require.ErrorIs(t, err, retention.ErrBadConfig)

	// Act
	step, err := NewS3Step(S3Config{Endpoint: "localhost:9000", Bucket: "uploads", AccessKey: "a", SecretKey: "b"})

	// Assert
	require.Nil(t, err)
	require.Equal(t, "s3", step.Name())
}
