package minio

import (
	"context"

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/internal/infrastructure/storage/csvsource"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// Source reads CSV snapshots stored in the bucket. It implements both
// servicerequest.RequestSource and servicerequest.PostSource.
type Source struct {
	client      *Client
	requestsKey string
	postsKey    string
	logger      logging.Logger
}

var (
	_ servicerequest.RequestSource = (*Source)(nil)
	_ servicerequest.PostSource     = (*Source)(nil)
)

// NewSource reads requests from requestsKey and, when postsKey is set, posts
// from postsKey. Keys are relative to the client prefix.
func NewSource(client *Client, requestsKey, postsKey string, log logging.Logger) *Source {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Source{client: client, requestsKey: requestsKey, postsKey: postsKey, logger: log.Named("minio.source")}
}

// LoadRequests implements servicerequest.RequestSource.
func (s *Source) LoadRequests(ctx context.Context) (*servicerequest.Dataset, error) {
	rc, err := s.client.Open(ctx, s.requestsKey)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "service request object unavailable").
			WithDetail(s.requestsKey)
	}
	defer rc.Close()

	ds, err := csvsource.ReadRequests(rc)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "service request object missing").
				WithDetail(s.requestsKey)
		}
		return nil, err
	}
	s.logger.Debug("service requests read", logging.String("key", s.requestsKey), logging.Int("rows", ds.Len()))
	return ds, nil
}

// LoadPosts implements servicerequest.PostSource. A missing object means the
// weak-signal dataset is absent.
func (s *Source) LoadPosts(ctx context.Context) ([]servicerequest.WeakSignalPost, error) {
	if s.postsKey == "" {
		return nil, nil
	}
	rc, err := s.client.Open(ctx, s.postsKey)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "weak-signal object unavailable")
	}
	defer rc.Close()

	posts, err := csvsource.ReadPosts(rc)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Info("weak-signal object not found, gap analysis skipped", logging.String("key", s.postsKey))
			return nil, nil
		}
		return nil, err
	}
	return posts, nil
}

//Personal.AI order the ending
