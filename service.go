package fileit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiratsolutions/fileit/bookxml"
)

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	// IndexObject is the object path of the BookList (default: test.JSON).
	IndexObject string
	// Signer signs page image URLs. SignURL fails with ErrNotSupported when nil.
	Signer *URLSigner
	// ImageTTL is the lifetime of URLs returned by SignURL (default: ImageURLTTL).
	ImageTTL time.Duration
}

// Service ties object storage, the BookList index and the document
// converter together.
type Service struct {
	storage     ObjectStorage
	converter   Converter
	signer      *URLSigner
	indexObject string
	imageTTL    time.Duration

	// indexMu serialises read-modify-write cycles on the index object.
	indexMu sync.Mutex
}

func NewService(storage ObjectStorage, converter Converter, cfg ServiceConfig) (*Service, error) {
	if storage == nil {
		return nil, fmt.Errorf("new service: %w: storage is required", ErrInvalidInput)
	}

	indexObject := cfg.IndexObject
	if indexObject == "" {
		indexObject = DefaultIndexObject
	}
	if !IsValidPath(indexObject) {
		return nil, fmt.Errorf("new service: %w: invalid index object %q", ErrInvalidInput, indexObject)
	}

	imageTTL := cfg.ImageTTL
	if imageTTL <= 0 {
		imageTTL = ImageURLTTL
	}

	return &Service{
		storage:     storage,
		converter:   converter,
		signer:      cfg.Signer,
		indexObject: indexObject,
		imageTTL:    imageTTL,
	}, nil
}

// IndexObject returns the object path of the BookList.
func (s *Service) IndexObject() string {
	return s.indexObject
}

// MasterIndex reads the BookList. It returns ErrNotFound when the index
// object does not exist yet.
func (s *Service) MasterIndex(ctx context.Context) (BookList, error) {
	if err := ctx.Err(); err != nil {
		return BookList{}, fmt.Errorf("master index: %w", err)
	}

	l, err := s.readIndex(ctx)
	if err != nil {
		return BookList{}, fmt.Errorf("master index: %w", err)
	}
	return l, nil
}

// AddBook adds name to the index, or replaces its descriptor path when it is
// already listed. A missing index object is created.
func (s *Service) AddBook(ctx context.Context, name, descriptor string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("add book: %w", err)
	}
	if name == "" {
		return fmt.Errorf("add book: %w: book name cannot be empty", ErrInvalidInput)
	}
	if !IsValidPath(descriptor) {
		return fmt.Errorf("add book %s: %w: invalid path %q", name, ErrInvalidInput, descriptor)
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	l, err := s.readIndex(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("add book %s: %w", name, err)
	}

	l.Put(name, descriptor)

	if err := s.writeIndex(ctx, l); err != nil {
		return fmt.Errorf("add book %s: %w", name, err)
	}
	return nil
}

// DeleteBook removes name from the index and rewrites it. The book's
// objects are left in place.
func (s *Service) DeleteBook(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if name == "" {
		return fmt.Errorf("delete book: %w: book name cannot be empty", ErrInvalidInput)
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	l, err := s.readIndex(ctx)
	if err != nil {
		return fmt.Errorf("delete book %s: %w", name, err)
	}

	if !l.Remove(name) {
		return fmt.Errorf("delete book %s: %w", name, ErrNotFound)
	}

	if err := s.writeIndex(ctx, l); err != nil {
		return fmt.Errorf("delete book %s: %w", name, err)
	}
	return nil
}

// BookTree looks name up in the index, fetches its XML descriptor and
// returns it converted to JSON.
func (s *Service) BookTree(ctx context.Context, name string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("book tree: %w", err)
	}
	if name == "" {
		return nil, fmt.Errorf("book tree: %w: book name cannot be empty", ErrInvalidInput)
	}

	l, err := s.readIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("book tree %s: %w", name, err)
	}

	entry, ok := l.Find(name)
	if !ok {
		return nil, fmt.Errorf("book tree %s: %w", name, ErrNotFound)
	}
	if !IsValidPath(entry.Path) {
		return nil, fmt.Errorf("book tree %s: %w: invalid descriptor path %q", name, ErrInvalidInput, entry.Path)
	}

	rc, _, err := s.storage.Get(ctx, entry.Path)
	if err != nil {
		return nil, fmt.Errorf("book tree %s: %w", name, err)
	}
	defer rc.Close()

	tree, err := bookxml.ToJSON(rc)
	if err != nil {
		return nil, fmt.Errorf("book tree %s: %w: %w", name, ErrInvalidInput, err)
	}
	return tree, nil
}

// UploadContent converts a Word or PDF document into page images and
// stores page n at "<prefix><n>.jpg".
//
// Pages already stored are left behind if a later page fails.
func (s *Service) UploadContent(ctx context.Context, u Upload) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return UploadResult{}, fmt.Errorf("upload content: %w", err)
	}
	if u.Book == "" {
		return UploadResult{}, fmt.Errorf("upload content: %w: book name cannot be empty", ErrInvalidInput)
	}
	if u.Body == nil {
		return UploadResult{}, fmt.Errorf("upload content %s: %w: empty body", u.Book, ErrInvalidInput)
	}
	if mt := MediaType(u.ContentType); mt != ContentTypePDF && mt != ContentTypeDocx {
		return UploadResult{}, fmt.Errorf("upload content %s: %w: %s", u.Book, ErrUnsupportedType, u.ContentType)
	}
	if s.converter == nil {
		return UploadResult{}, fmt.Errorf("upload content %s: %w: no converter configured", u.Book, ErrNotSupported)
	}

	prefix := u.Prefix
	if prefix == "" {
		prefix = ImagePrefix(u.Book)
	}
	if !IsValidPrefix(prefix) || !IsValidPath(PagePath(prefix, 1)) {
		return UploadResult{}, fmt.Errorf("upload content %s: %w: invalid prefix %q", u.Book, ErrInvalidInput, prefix)
	}

	var pages []string
	n, err := s.converter.Convert(ctx, u.Body, u.ContentType, func(page int, img io.Reader) error {
		p := PagePath(prefix, page)
		if _, err := s.storage.Put(ctx, p, ContentTypeJPEG, img); err != nil {
			return fmt.Errorf("store page %d: %w", page, err)
		}
		pages = append(pages, p)
		return nil
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload content %s: %w", u.Book, err)
	}
	if n == 0 {
		return UploadResult{}, fmt.Errorf("upload content %s: %w: document has no pages", u.Book, ErrInvalidInput)
	}

	return UploadResult{Pages: pages}, nil
}

// SignURL returns a time-limited GET URL for an object.
func (s *Service) SignURL(ctx context.Context, p string) (SignedURL, error) {
	if err := ctx.Err(); err != nil {
		return SignedURL{}, fmt.Errorf("sign url: %w", err)
	}
	if s.signer == nil {
		return SignedURL{}, fmt.Errorf("sign url: %w: no signing key configured", ErrNotSupported)
	}

	u, err := s.signer.Sign(p, s.imageTTL)
	if err != nil {
		return SignedURL{}, fmt.Errorf("sign url: %w", err)
	}
	return u, nil
}

func (s *Service) GetObject(ctx context.Context, p string) (io.ReadCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("get object: %w", err)
	}
	if !IsValidPath(p) {
		return nil, ObjectInfo{}, fmt.Errorf("get object %q: %w", p, ErrInvalidInput)
	}

	rc, info, err := s.storage.Get(ctx, p)
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("get object: %w", err)
	}
	return rc, info, nil
}

// PutObject stores content at p. An empty content type is inferred from
// the path extension.
func (s *Service) PutObject(ctx context.Context, p, contentType string, content io.Reader) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, fmt.Errorf("put object: %w", err)
	}
	if !IsValidPath(p) {
		return ObjectInfo{}, fmt.Errorf("put object %q: %w", p, ErrInvalidInput)
	}
	if contentType == "" {
		contentType = ContentTypeByExtension(p)
	}

	info, err := s.storage.Put(ctx, p, contentType, content)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("put object %s: %w", p, err)
	}
	return info, nil
}

func (s *Service) DeleteObject(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	if !IsValidPath(p) {
		return fmt.Errorf("delete object %q: %w", p, ErrInvalidInput)
	}

	if err := s.storage.Delete(ctx, p); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *Service) ListObjects(ctx context.Context, prefix string) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, fmt.Errorf("list objects: %w", err)
	}
	if !IsValidPrefix(prefix) {
		return ListResult{}, fmt.Errorf("list objects %q: %w", prefix, ErrInvalidInput)
	}

	items, err := s.storage.List(ctx, prefix)
	if err != nil {
		return ListResult{}, fmt.Errorf("list objects: %w", err)
	}
	if items == nil {
		items = []ObjectInfo{}
	}
	return ListResult{Items: items}, nil
}

// DownloadObject copies object p into dir, named after the last path
// segment, and returns the local file path. dir must be an existing
// directory. The file is written to a temporary name and renamed into place.
func (s *Service) DownloadObject(ctx context.Context, p, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("download object: %w", err)
	}
	if !IsValidPath(p) {
		return "", fmt.Errorf("download object %q: %w", p, ErrInvalidInput)
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("download object %s: %w", p, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("download object %s: %w: %s is not a directory", p, ErrInvalidInput, dir)
	}

	rc, _, err := s.storage.Get(ctx, p)
	if err != nil {
		return "", fmt.Errorf("download object %s: %w", p, err)
	}
	defer rc.Close()

	dest := filepath.Join(dir, path.Base(p))
	tmp := filepath.Join(dir, ".tmp-"+uuid.NewString())

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("download object %s: %w", p, err)
	}

	success := false
	defer func() {
		if !success {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if _, err := io.Copy(f, rc); err != nil {
		return "", fmt.Errorf("download object %s: %w", p, err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("download object %s: sync: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("download object %s: close: %w", p, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("download object %s: rename: %w", p, err)
	}

	success = true
	return dest, nil
}

func (s *Service) bucketManager() (BucketManager, error) {
	bm, ok := s.storage.(BucketManager)
	if !ok {
		return nil, fmt.Errorf("%w: storage backend does not manage buckets", ErrNotSupported)
	}
	return bm, nil
}

func (s *Service) CreateBucket(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("create bucket: %w: bucket name cannot be empty", ErrInvalidInput)
	}
	bm, err := s.bucketManager()
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", name, err)
	}
	if err := bm.CreateBucket(ctx, name); err != nil {
		return fmt.Errorf("create bucket %s: %w", name, err)
	}
	return nil
}

func (s *Service) DeleteBucket(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("delete bucket: %w: bucket name cannot be empty", ErrInvalidInput)
	}
	bm, err := s.bucketManager()
	if err != nil {
		return fmt.Errorf("delete bucket %s: %w", name, err)
	}
	if err := bm.DeleteBucket(ctx, name); err != nil {
		return fmt.Errorf("delete bucket %s: %w", name, err)
	}
	return nil
}

func (s *Service) ListBuckets(ctx context.Context) ([]string, error) {
	bm, err := s.bucketManager()
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	names, err := bm.ListBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	return names, nil
}

func (s *Service) readIndex(ctx context.Context) (BookList, error) {
	rc, _, err := s.storage.Get(ctx, s.indexObject)
	if err != nil {
		return BookList{}, fmt.Errorf("read index: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return BookList{}, fmt.Errorf("read index: %w", err)
	}

	l, err := ParseBookList(data)
	if err != nil {
		return BookList{}, fmt.Errorf("read index: %w", err)
	}
	return l, nil
}

func (s *Service) writeIndex(ctx context.Context, l BookList) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if _, err := s.storage.Put(ctx, s.indexObject, ContentTypeJSON, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
