package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/CivicPulse/internal/config"
	pkgerrors "github.com/turtacn/CivicPulse/pkg/errors"
)

// fakeMinIO is an in-memory bucket store.
type fakeMinIO struct {
	mu       sync.Mutex
	buckets  map[string]map[string][]byte
	types    map[string]string
	failPut  error
	failList error
}

func newFakeMinIO(buckets ...string) *fakeMinIO {
	f := &fakeMinIO{buckets: map[string]map[string][]byte{}, types: map[string]string{}}
	for _, b := range buckets {
		f.buckets[b] = map[string][]byte{}
	}
	return f
}

var noSuchKey = minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}

func (f *fakeMinIO) BucketExists(_ context.Context, bucket string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.buckets[bucket]
	return ok, nil
}

func (f *fakeMinIO) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket] = map[string][]byte{}
	return nil
}

func (f *fakeMinIO) PutObject(_ context.Context, bucket, name string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.failPut != nil {
		return minio.UploadInfo{}, f.failPut
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket][name] = data
	f.types[name] = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: name, Size: int64(len(data))}, nil
}

// GetObject mirrors the SDK: a missing key surfaces on Read.
func (f *fakeMinIO) GetObject(_ context.Context, bucket, name string, _ minio.GetObjectOptions) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.buckets[bucket][name]
	if !ok {
		return io.NopCloser(errReader{noSuchKey}), nil
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeMinIO) StatObject(_ context.Context, bucket, name string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.buckets[bucket][name]
	if !ok {
		return minio.ObjectInfo{}, noSuchKey
	}
	return minio.ObjectInfo{Key: name, Size: int64(len(data))}, nil
}

func (f *fakeMinIO) ListObjects(_ context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	f.mu.Lock()
	var keys []string
	for k := range f.buckets[bucket] {
		if strings.HasPrefix(k, opts.Prefix) {
			keys = append(keys, k)
		}
	}
	f.mu.Unlock()
	sort.Strings(keys)

	ch := make(chan minio.ObjectInfo, len(keys)+1)
	if f.failList != nil {
		ch <- minio.ObjectInfo{Err: f.failList}
	}
	for _, k := range keys {
		ch <- minio.ObjectInfo{Key: k, LastModified: time.Unix(0, 0)}
	}
	close(ch)
	return ch
}

func (f *fakeMinIO) object(bucket, name string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.buckets[bucket][name]
	return data, ok
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

var testMinIOConfig = config.MinIOConfig{Bucket: "civicpulse", Prefix: "analysis", Region: "us-east-1"}

type ClientTestSuite struct {
	suite.Suite
	api    *fakeMinIO
	client *Client
}

func (s *ClientTestSuite) SetupTest() {
	s.api = newFakeMinIO("civicpulse")
	s.client = NewClientWithAPI(s.api, testMinIOConfig, nil)
}

func (s *ClientTestSuite) TestObjectKey_AddsPrefixSeparator() {
	s.Equal("analysis/runs/a/document.json", s.client.ObjectKey("runs/a/document.json"))
	s.Equal("analysis/x", s.client.ObjectKey("/x"))
	s.Equal("y", NewClientWithAPI(s.api, config.MinIOConfig{Bucket: "b"}, nil).ObjectKey("y"))
}

func (s *ClientTestSuite) TestPutGet() {
	ctx := context.Background()
	name, err := s.client.Put(ctx, "k.json", []byte(`{}`), "application/json")
	s.Require().NoError(err)
	s.Equal("analysis/k.json", name)
	s.Equal("application/json", s.api.types[name])

	data, err := s.client.Get(ctx, "k.json")
	s.NoError(err)
	s.Equal(`{}`, string(data))

	ok, err := s.client.Exists(ctx, "k.json")
	s.NoError(err)
	s.True(ok)
}

func (s *ClientTestSuite) TestGet_Missing() {
	_, err := s.client.Get(context.Background(), "nope")
	s.ErrorIs(err, ErrObjectNotFound)
	s.True(pkgerrors.IsNotFound(err))

	ok, err := s.client.Exists(context.Background(), "nope")
	s.NoError(err)
	s.False(ok)
}

func (s *ClientTestSuite) TestPut_Failure() {
	s.api.failPut = errors.New("access denied")
	_, err := s.client.Put(context.Background(), "k", []byte("v"), "")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeArchiveError))
}

func (s *ClientTestSuite) TestList() {
	ctx := context.Background()
	for _, k := range []string{"runs/a/document.json", "runs/b/document.json", "latest.json"} {
		_, err := s.client.Put(ctx, k, []byte("x"), "")
		s.Require().NoError(err)
	}

	objs, err := s.client.List(ctx, "runs/", 0)
	s.Require().NoError(err)
	s.Require().Len(objs, 2)
	s.Equal("runs/a/document.json", objs[0].Key)

	objs, err = s.client.List(ctx, "runs/", 1)
	s.NoError(err)
	s.Len(objs, 1)

	s.api.failList = errors.New("throttled")
	_, err = s.client.List(ctx, "", 0)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeArchiveError))
}

func (s *ClientTestSuite) TestEnsureBucketAndHealth() {
	api := newFakeMinIO()
	c := NewClientWithAPI(api, testMinIOConfig, nil)

	s.Error(c.HealthCheck(context.Background()))
	s.Require().NoError(c.EnsureBucket(context.Background()))
	s.NoError(c.HealthCheck(context.Background()))
	s.NoError(c.EnsureBucket(context.Background()))
}

func (s *ClientTestSuite) TestClosed() {
	s.Require().NoError(s.client.Close())
	_, err := s.client.Get(context.Background(), "k")
	s.ErrorIs(err, ErrMinIOClientClosed)
	_, err = s.client.Put(context.Background(), "k", nil, "")
	s.ErrorIs(err, ErrMinIOClientClosed)
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestIsNoSuchKey(t *testing.T) {
	assert.True(t, isNoSuchKey(noSuchKey))
	assert.False(t, isNoSuchKey(errors.New("NoSuchKey")))
	require.False(t, isNoSuchKey(minio.ErrorResponse{Code: "AccessDenied"}))
}

//Personal.AI order the ending
