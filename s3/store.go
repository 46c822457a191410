// Package s3 stores FileIt objects in an S3-compatible bucket (MinIO, AWS
// S3, or Cloud Storage through its interoperability endpoint).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kiratsolutions/fileit"
)

// Config holds S3 connection settings.
type Config struct {
	// Endpoint is "host:port" or a URL with an http/https scheme.
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Region    string `mapstructure:"region" yaml:"region"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
}

// Store implements fileit.ObjectStorage and fileit.BucketManager.
type Store struct {
	client *minio.Client
	bucket string
	region string
}

var (
	_ fileit.ObjectStorage = (*Store)(nil)
	_ fileit.BucketManager = (*Store)(nil)
)

// New connects to the endpoint. It does not check that the bucket exists;
// use Ping for that.
func New(cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("new s3 store: %w: bucket is required", fileit.ErrInvalidInput)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("new s3 store: %w: access key and secret key are required", fileit.ErrInvalidInput)
	}

	endpoint, secure, err := NormaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("new s3 store: %w: %w", fileit.ErrInvalidInput, err)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("new s3 store: %w", err)
	}

	return &Store{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// NormaliseEndpoint accepts either "host:port" or "http(s)://host:port" and
// returns the host and whether TLS should be used. Without a scheme TLS is
// off, which suits a local MinIO.
func NormaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, errors.New("empty endpoint")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", false, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
		}
		if u.Host == "" {
			return "", false, errors.New("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, errors.New("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}

	return raw, false, nil
}

// Ping checks that the configured bucket exists and is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("ping s3: %w", err)
	}
	if !ok {
		return fmt.Errorf("ping s3: bucket %s: %w", s.bucket, fileit.ErrNotFound)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, path string) (io.ReadCloser, fileit.ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fileit.ObjectInfo{}, fmt.Errorf("get %s: %w", path, mapError(err))
	}

	// GetObject is lazy; Stat forces the request so a missing key fails here.
	oi, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, fileit.ObjectInfo{}, fmt.Errorf("get %s: %w", path, mapError(err))
	}

	return obj, objectInfo(oi), nil
}

func (s *Store) Put(ctx context.Context, path, contentType string, content io.Reader) (fileit.ObjectInfo, error) {
	if contentType == "" {
		contentType = fileit.ContentTypeByExtension(path)
	}

	ui, err := s.client.PutObject(ctx, s.bucket, path, content, -1, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fileit.ObjectInfo{}, fmt.Errorf("put %s: %w", path, mapError(err))
	}

	return fileit.ObjectInfo{
		Path:         path,
		ContentType:  contentType,
		Size:         ui.Size,
		ETag:         ui.ETag,
		LastModified: ui.LastModified,
	}, nil
}

// Delete removes an object. S3 deletes are idempotent, so the object is
// stat'ed first to report ErrNotFound.
func (s *Store) Delete(ctx context.Context, path string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", path, mapError(err))
	}
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", path, mapError(err))
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]fileit.ObjectInfo, error) {
	items := []fileit.ObjectInfo{}
	for oi := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if oi.Err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, mapError(oi.Err))
		}
		info := objectInfo(oi)
		if info.ContentType == "" {
			info.ContentType = fileit.ContentTypeByExtension(oi.Key)
		}
		items = append(items, info)
	}
	return items, nil
}

func (s *Store) Stat(ctx context.Context, path string) (fileit.ObjectInfo, error) {
	oi, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		return fileit.ObjectInfo{}, fmt.Errorf("stat %s: %w", path, mapError(err))
	}
	return objectInfo(oi), nil
}

func (s *Store) CreateBucket(ctx context.Context, name string) error {
	if err := s.client.MakeBucket(ctx, name, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", name, mapError(err))
	}
	return nil
}

func (s *Store) DeleteBucket(ctx context.Context, name string) error {
	if err := s.client.RemoveBucket(ctx, name); err != nil {
		return fmt.Errorf("delete bucket %s: %w", name, mapError(err))
	}
	return nil
}

func (s *Store) ListBuckets(ctx context.Context) ([]string, error) {
	buckets, err := s.client.ListBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", mapError(err))
	}
	names := make([]string, 0, len(buckets))
	for _, b := range buckets {
		names = append(names, b.Name)
	}
	return names, nil
}

func objectInfo(oi minio.ObjectInfo) fileit.ObjectInfo {
	return fileit.ObjectInfo{
		Path:         oi.Key,
		ContentType:  oi.ContentType,
		Size:         oi.Size,
		ETag:         oi.ETag,
		LastModified: oi.LastModified.UTC(),
	}
}

func mapError(err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey", resp.Code == "NoSuchBucket", resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", fileit.ErrNotFound, resp.Message)
	case resp.Code == "BucketAlreadyOwnedByYou", resp.Code == "BucketAlreadyExists", resp.Code == "BucketNotEmpty":
		return fmt.Errorf("%w: %s", fileit.ErrInvalidInput, resp.Message)
	}
	return err
}
