// Package gcs stores FileIt objects in a Google Cloud Storage bucket.
//
// Credentials are built from the service account id and private key in
// the cloud configuration. Without them the client falls back to
// Application Default Credentials, which also covers the
// STORAGE_EMULATOR_HOST emulator setup.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/kiratsolutions/fileit"
)

// Config holds Cloud Storage settings. The field set mirrors cloud.properties.
type Config struct {
	ProjectID       string `mapstructure:"project_id" yaml:"project_id"`
	ApplicationName string `mapstructure:"application_name" yaml:"application_name"`
	AccountID       string `mapstructure:"account_id" yaml:"account_id"`
	PrivateKey      string `mapstructure:"private_key" yaml:"private_key"`
	APIURL          string `mapstructure:"api_url" yaml:"api_url"`
	Bucket          string `mapstructure:"bucket" yaml:"bucket" validate:"required"`
	// ReadViaSignedURL makes Get fetch objects through signed URLs instead
	// of the JSON API.
	ReadViaSignedURL bool `mapstructure:"read_via_signed_url" yaml:"read_via_signed_url"`
}

// Store implements fileit.ObjectStorage and fileit.BucketManager.
type Store struct {
	client    *storage.Client
	bucket    string
	projectID string
	fetcher   *SignedFetcher
}

var (
	_ fileit.ObjectStorage = (*Store)(nil)
	_ fileit.BucketManager = (*Store)(nil)
)

// New creates a Cloud Storage client. signer is required when
// cfg.ReadViaSignedURL is set and ignored otherwise.
func New(ctx context.Context, cfg Config, signer *fileit.URLSigner) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("new gcs store: %w: bucket is required", fileit.ErrInvalidInput)
	}

	var opts []option.ClientOption
	if cfg.ApplicationName != "" {
		opts = append(opts, option.WithUserAgent(cfg.ApplicationName))
	}
	if cfg.AccountID != "" && cfg.PrivateKey != "" {
		key, err := fileit.ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("new gcs store: %w", err)
		}
		creds, err := ServiceAccountJSON(cfg.ProjectID, cfg.AccountID, key)
		if err != nil {
			return nil, fmt.Errorf("new gcs store: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new gcs store: %w", err)
	}

	s := &Store{client: client, bucket: cfg.Bucket, projectID: cfg.ProjectID}

	if cfg.ReadViaSignedURL {
		if signer == nil {
			_ = client.Close()
			return nil, fmt.Errorf("new gcs store: %w: read_via_signed_url needs a signing key", fileit.ErrInvalidInput)
		}
		s.fetcher = NewSignedFetcher(signer)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks that the bucket exists and is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.Bucket(s.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("ping gcs: %w", mapError(err))
	}
	return nil
}

func (s *Store) Get(ctx context.Context, path string) (io.ReadCloser, fileit.ObjectInfo, error) {
	if s.fetcher != nil {
		return s.fetcher.Fetch(ctx, path)
	}

	// Reader attrs have no ETag; pin the reader to the generation read here.
	obj := s.client.Bucket(s.bucket).Object(path)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, fileit.ObjectInfo{}, fmt.Errorf("get %s: %w", path, mapError(err))
	}

	r, err := obj.Generation(attrs.Generation).NewReader(ctx)
	if err != nil {
		return nil, fileit.ObjectInfo{}, fmt.Errorf("get %s: %w", path, mapError(err))
	}

	return r, objectInfo(attrs), nil
}

func (s *Store) Put(ctx context.Context, path, contentType string, content io.Reader) (fileit.ObjectInfo, error) {
	if contentType == "" {
		contentType = fileit.ContentTypeByExtension(path)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, content); err != nil {
		// Cancelling the context before Close aborts the upload.
		cancel()
		_ = w.Close()
		return fileit.ObjectInfo{}, fmt.Errorf("put %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fileit.ObjectInfo{}, fmt.Errorf("put %s: %w", path, mapError(err))
	}

	return objectInfo(w.Attrs()), nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.client.Bucket(s.bucket).Object(path).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", path, mapError(err))
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]fileit.ObjectInfo, error) {
	items := []fileit.ObjectInfo{}

	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, mapError(err))
		}
		items = append(items, objectInfo(attrs))
	}

	return items, nil
}

func (s *Store) Stat(ctx context.Context, path string) (fileit.ObjectInfo, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(path).Attrs(ctx)
	if err != nil {
		return fileit.ObjectInfo{}, fmt.Errorf("stat %s: %w", path, mapError(err))
	}
	return objectInfo(attrs), nil
}

func (s *Store) CreateBucket(ctx context.Context, name string) error {
	if s.projectID == "" {
		return fmt.Errorf("create bucket %s: %w: project id is required", name, fileit.ErrInvalidInput)
	}
	if err := s.client.Bucket(name).Create(ctx, s.projectID, nil); err != nil {
		return fmt.Errorf("create bucket %s: %w", name, mapError(err))
	}
	return nil
}

func (s *Store) DeleteBucket(ctx context.Context, name string) error {
	if err := s.client.Bucket(name).Delete(ctx); err != nil {
		return fmt.Errorf("delete bucket %s: %w", name, mapError(err))
	}
	return nil
}

func (s *Store) ListBuckets(ctx context.Context) ([]string, error) {
	if s.projectID == "" {
		return nil, fmt.Errorf("list buckets: %w: project id is required", fileit.ErrInvalidInput)
	}

	var names []string
	it := s.client.Buckets(ctx, s.projectID)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list buckets: %w", mapError(err))
		}
		names = append(names, attrs.Name)
	}
	slices.Sort(names)
	return names, nil
}

func objectInfo(attrs *storage.ObjectAttrs) fileit.ObjectInfo {
	if attrs == nil {
		return fileit.ObjectInfo{}
	}
	return fileit.ObjectInfo{
		Path:         attrs.Name,
		ContentType:  attrs.ContentType,
		Size:         attrs.Size,
		ETag:         attrs.Etag,
		LastModified: attrs.Updated.UTC(),
	}
}

func mapError(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%w: %w", fileit.ErrNotFound, err)
	}
	return err
}
