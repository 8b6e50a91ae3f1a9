package erasure

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

// A GCSStep deletes the account's uploads from a Google Cloud Storage bucket.
type GCSStep struct {
	svc    *storage.Service
	bucket string
}

// NewGCSStep constructs a *GCSStep.
// Without opts, credentials come from the environment.
func NewGCSStep(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStep, error) {
	if bucket == "" {
		return nil, fmt.Errorf(`%w: gcs bucket cannot be ""`, retention.ErrBadConfig)
	}

	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", retention.ErrBadConfig, err)
	}

	return &GCSStep{svc: svc, bucket: bucket}, nil
}

func (s *GCSStep) Name() string { return "gcs" }

func (s *GCSStep) Erase(ctx context.Context, accountID uuid.UUID) (int, error) {
	var names []string
	err := s.svc.Objects.List(s.bucket).
		Prefix(AccountPrefix(accountID)).
		Fields("nextPageToken", "items/name").
		Pages(ctx, func(objs *storage.Objects) error {
			for _, o := range objs.Items {
				names = append(names, o.Name)
			}
			return nil
		})
	if err != nil {
		return 0, fmt.Errorf("%w: listing gcs objects: %s", retention.ErrDependency, err)
	}

	var removed int
	for _, name := range names {
		err := s.svc.Objects.Delete(s.bucket, name).Context(ctx).Do()
		if isNotFound(err) {
			continue
		}

		if err != nil {
			return removed, fmt.Errorf("%w: deleting gcs object %s: %s", retention.ErrDependency, name, err)
		}

		removed++
	}

	return removed, nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
