// Package minio keeps analysis documents and their inputs in an S3-compatible
// bucket and can serve CSV snapshots stored there as an input source.
package minio

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/CivicPulse/internal/config"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

var (
	ErrObjectNotFound    = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrMinIOClientClosed = errors.New(errors.ErrCodeServiceUnavail, "minio client is closed")
)

// MinIOAPI is the subset of the SDK the client drives. GetObject returns a
// plain reader so tests can fake it.
type MinIOAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// sdkClient adapts *minio.Client to MinIOAPI.
type sdkClient struct {
	*minio.Client
}

func (s sdkClient) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return s.Client.GetObject(ctx, bucketName, objectName, opts)
}

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Client reads and writes objects under one bucket and key prefix.
type Client struct {
	api    MinIOAPI
	bucket string
	prefix string
	region string
	logger logging.Logger

	mu     sync.RWMutex
	closed bool
}

// NewClient connects to cfg.Endpoint and makes sure the bucket exists.
func NewClient(cfg config.MinIOConfig, log logging.Logger) (*Client, error) {
	sdk, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArchiveError, "failed to create minio client")
	}

	c := NewClientWithAPI(sdkClient{sdk}, cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	c.logger.Info("MinIO client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// NewClientWithAPI wraps an existing API implementation.
func NewClientWithAPI(api MinIOAPI, cfg config.MinIOConfig, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	prefix := cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Client{
		api:    api,
		bucket: cfg.Bucket,
		prefix: prefix,
		region: cfg.Region,
		logger: log.Named("minio"),
	}
}

// EnsureBucket creates the bucket when it does not exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeArchiveError, "failed to check bucket existence").WithDetail(c.bucket)
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeArchiveError, "failed to create bucket").WithDetail(c.bucket)
	}
	c.logger.Info("Created bucket", logging.String("bucket", c.bucket))
	return nil
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string { return c.bucket }

// ObjectKey returns the full object name for key.
func (c *Client) ObjectKey(key string) string {
	return c.prefix + strings.TrimPrefix(key, "/")
}

// Put stores data at key and returns the full object name.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := c.checkOpen(); err != nil {
		return "", err
	}
	name := c.ObjectKey(key)
	_, err := c.api.PutObject(ctx, c.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeArchiveError, "upload failed").WithDetail(name)
	}
	c.logger.Debug("Object stored", logging.String("key", name), logging.Int("bytes", len(data)))
	return name, nil
}

// Get reads the object at key. A missing object yields ErrObjectNotFound.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := c.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Open streams the object at key. The SDK reports a missing key on the first
// read, so callers see ErrObjectNotFound from Read as well.
func (c *Client) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	name := c.ObjectKey(key)
	rc, err := c.api.GetObject(ctx, c.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, c.mapError(err, "download failed", name)
	}
	return &objectReader{rc: rc, c: c, name: name}, nil
}

// Exists reports whether key is stored.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	if err := c.checkOpen(); err != nil {
		return false, err
	}
	name := c.ObjectKey(key)
	_, err := c.api.StatObject(ctx, c.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeArchiveError, "stat failed").WithDetail(name)
	}
	return true, nil
}

// List returns objects below prefix, relative to the client prefix.
func (c *Client) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []ObjectInfo
	for obj := range c.api.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: c.ObjectKey(prefix), Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeArchiveError, "list failed")
		}
		out = append(out, ObjectInfo{
			Key:          strings.TrimPrefix(obj.Key, c.prefix),
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// HealthCheck verifies the bucket is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	ok, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeArchiveError, "minio health check failed")
	}
	if !ok {
		return errors.New(errors.ErrCodeArchiveError, "bucket missing").WithDetail(c.bucket)
	}
	return nil
}

// Close marks the client closed; the SDK holds no connections to release.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Client) checkOpen() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrMinIOClientClosed
	}
	return nil
}

func (c *Client) mapError(err error, msg, name string) error {
	if isNoSuchKey(err) {
		return ErrObjectNotFound.WithCause(err).WithDetail(name)
	}
	return errors.Wrap(err, errors.ErrCodeArchiveError, msg).WithDetail(name)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

type objectReader struct {
	rc   io.ReadCloser
	c    *Client
	name string
}

func (r *objectReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if err != nil && err != io.EOF {
		return n, r.c.mapError(err, "download failed", r.name)
	}
	return n, err
}

func (r *objectReader) Close() error { return r.rc.Close() }

//Personal.AI order the ending
