package csvsource

import (
	"context"
	"io"
	"os"

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// Source loads snapshots from files on local disk. It implements both
// servicerequest.RequestSource and servicerequest.PostSource.
type Source struct {
	requestsPath string
	postsPath    string
	logger       logging.Logger
}

// NewSource reads requests from requestsPath and, when postsPath is set,
// posts from postsPath.
func NewSource(requestsPath, postsPath string, logger logging.Logger) *Source {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Source{requestsPath: requestsPath, postsPath: postsPath, logger: logger.Named("csvsource")}
}

// LoadRequests implements servicerequest.RequestSource.
func (s *Source) LoadRequests(ctx context.Context) (*servicerequest.Dataset, error) {
	if s.requestsPath == "" {
		return nil, errors.New(errors.ErrCodeSourceUnavailable, "no service request file configured")
	}
	f, err := openFile(ctx, s.requestsPath)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "service request file missing")
		}
		return nil, err
	}
	defer f.Close()

	ds, err := ReadRequests(f)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("service requests read",
		logging.String("path", s.requestsPath),
		logging.Int("rows", ds.Len()),
		logging.Strings("columns", ds.Fields.Names()))
	return ds, nil
}

// LoadPosts implements servicerequest.PostSource. A missing file is not an
// error; the weak-signal dataset is then absent.
func (s *Source) LoadPosts(ctx context.Context) ([]servicerequest.WeakSignalPost, error) {
	if s.postsPath == "" {
		return nil, nil
	}
	f, err := openFile(ctx, s.postsPath)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Info("weak-signal file not found, gap analysis skipped", logging.String("path", s.postsPath))
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	posts, err := ReadPosts(f)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("weak-signal posts read", logging.String("path", s.postsPath), logging.Int("rows", len(posts)))
	return posts, nil
}

func openFile(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCanceled, "load canceled")
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeNotFound, "input file not found").WithDetail(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "open input file").WithDetail(path)
	}
	return f, nil
}

//Personal.AI order the ending
