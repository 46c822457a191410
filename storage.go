package fileit

import (
	"context"
	"io"
)

// ObjectStorage is a bucket-scoped object store. Implementations exist for
// Google Cloud Storage, S3-compatible endpoints and the local filesystem.
//
// All methods return an error wrapping ErrNotFound when the object does not
// exist.
type ObjectStorage interface {
	// Get opens an object for reading. The caller must close the reader.
	Get(ctx context.Context, path string) (io.ReadCloser, ObjectInfo, error)

	// Put stores content at path, replacing any existing object.
	Put(ctx context.Context, path, contentType string, content io.Reader) (ObjectInfo, error)

	Delete(ctx context.Context, path string) error

	// List returns every object whose path starts with prefix, sorted by path.
	// An empty prefix lists the whole bucket.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	Stat(ctx context.Context, path string) (ObjectInfo, error)
}

// BucketManager is implemented by backends that can administer buckets.
type BucketManager interface {
	CreateBucket(ctx context.Context, name string) error
	DeleteBucket(ctx context.Context, name string) error
	ListBuckets(ctx context.Context) ([]string, error)
}

// PageFunc receives one rendered page. page is 1-based and image yields the
// encoded JPEG; it is only valid for the duration of the call.
type PageFunc func(page int, image io.Reader) error

// Converter renders a document into page images.
type Converter interface {
	// Convert calls fn for each page of the document in order and returns
	// the number of pages rendered. It returns ErrUnsupportedType for
	// content types it cannot render.
	Convert(ctx context.Context, r io.Reader, contentType string, fn PageFunc) (int, error)
}
