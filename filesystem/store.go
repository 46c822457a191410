// Package filesystem provides a local directory storage backend for fileit.
// It supports atomic writes using temp files, SHA256-based etags, and
// content type detection based on file extensions.
package filesystem

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/kiratsolutions/fileit"
)

const tmpPrefix = ".tmp-"

// Store keeps one bucket's objects as files below a root directory.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Get opens a file for reading. Returns fileit.ErrNotFound if the file does not exist.
func (s *Store) Get(ctx context.Context, p string) (io.ReadCloser, fileit.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fileit.ObjectInfo{}, err
	}

	f, err := s.root.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fileit.ObjectInfo{}, fmt.Errorf("get %s: %w", p, fileit.ErrNotFound)
		}
		return nil, fileit.ObjectInfo{}, fmt.Errorf("get %s: %w", p, err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fileit.ObjectInfo{}, fmt.Errorf("get %s: %w", p, err)
	}
	if fi.IsDir() {
		_ = f.Close()
		return nil, fileit.ObjectInfo{}, fmt.Errorf("get %s: %w", p, fileit.ErrNotFound)
	}

	return f, objectInfo(p, fi, ""), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes content to p using a temp file and rename, creating
// intermediate directories as needed. The returned ETag is the SHA256 of the
// content. contentType is not persisted; it is derived from the extension
// when the object is read back.
func (s *Store) Put(ctx context.Context, p, contentType string, content io.Reader) (fileit.ObjectInfo, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fileit.ObjectInfo{}, ctxErr
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return fileit.ObjectInfo{}, fmt.Errorf("put %s: could not open temp file: %w", p, createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	if _, err := io.Copy(w, &ctxReader{ctx: ctx, r: content}); err != nil {
		return fileit.ObjectInfo{}, fmt.Errorf("put %s: could not copy file contents: %w", p, err)
	}

	if err := t.Sync(); err != nil {
		return fileit.ObjectInfo{}, fmt.Errorf("put %s: could not sync written file: %w", p, err)
	}

	if destDir := path.Dir(p); destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return fileit.ObjectInfo{}, fmt.Errorf("put %s: could not create intermediate directories: %w", p, err)
		}
	}

	if err := s.root.Rename(tmpFile, p); err != nil {
		return fileit.ObjectInfo{}, fmt.Errorf("put %s: failed to rename file: %w", p, err)
	}
	success = true

	fi, err := s.root.Stat(p)
	if err != nil {
		return fileit.ObjectInfo{}, fmt.Errorf("put %s: %w", p, err)
	}

	info := objectInfo(p, fi, hex.EncodeToString(h.Sum(nil)))
	if contentType != "" {
		info.ContentType = contentType
	}
	return info, nil
}

// Delete removes a file. Returns fileit.ErrNotFound if the file does not exist.
func (s *Store) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fi, err := s.root.Stat(p)
	if err == nil && fi.IsDir() {
		return fmt.Errorf("delete %s: %w", p, fileit.ErrNotFound)
	}

	if err := s.root.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", p, fileit.ErrNotFound)
		}
		return fmt.Errorf("delete %s: could not delete file: %w", p, err)
	}
	return nil
}

// Stat returns the metadata of a file including its SHA256-based etag.
func (s *Store) Stat(ctx context.Context, p string) (fileit.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return fileit.ObjectInfo{}, err
	}

	fi, err := s.root.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileit.ObjectInfo{}, fmt.Errorf("stat %s: %w", p, fileit.ErrNotFound)
		}
		return fileit.ObjectInfo{}, fmt.Errorf("stat %s: %w", p, err)
	}
	if fi.IsDir() {
		return fileit.ObjectInfo{}, fmt.Errorf("stat %s: %w", p, fileit.ErrNotFound)
	}

	etag, err := s.hashFile(p)
	if err != nil {
		return fileit.ObjectInfo{}, fmt.Errorf("stat %s: %w", p, err)
	}

	return objectInfo(p, fi, etag), nil
}

// List recursively walks the root directory and returns every file whose
// slash-separated path starts with prefix, sorted by path. Temp files of
// in-flight writes are skipped.
func (s *Store) List(ctx context.Context, prefix string) ([]fileit.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []fileit.ObjectInfo{}

	err := s.walkDir(ctx, ".", prefix, &entries)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}

	slices.SortFunc(entries, func(a, b fileit.ObjectInfo) int {
		return cmp.Compare(a.Path, b.Path)
	})

	return entries, nil
}

func (s *Store) walkDir(ctx context.Context, dir, prefix string, entries *[]fileit.ObjectInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entryPath := path.Join(dir, entry.Name())

		if entry.IsDir() {
			// Only descend into directories that can hold matching paths.
			if !strings.HasPrefix(entryPath+"/", prefix) && !strings.HasPrefix(prefix, entryPath+"/") {
				continue
			}
			if err := s.walkDir(ctx, entryPath, prefix, entries); err != nil {
				return err
			}
			continue
		}

		if strings.HasPrefix(entry.Name(), tmpPrefix) || !strings.HasPrefix(entryPath, prefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		etag, err := s.hashFile(entryPath)
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		*entries = append(*entries, objectInfo(entryPath, info, etag))
	}

	return nil
}

func (s *Store) hashFile(p string) (string, error) {
	f, err := s.root.Open(p)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	_, copyErr := io.Copy(h, f)

	if closeErr := f.Close(); closeErr != nil {
		slog.Warn("failed to close file", "path", p, "err", closeErr)
	}

	if copyErr != nil {
		return "", copyErr
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func objectInfo(p string, fi fs.FileInfo, etag string) fileit.ObjectInfo {
	return fileit.ObjectInfo{
		Path:         p,
		ContentType:  fileit.ContentTypeByExtension(p),
		Size:         fi.Size(),
		ETag:         etag,
		LastModified: fi.ModTime().UTC(),
	}
}

func tmpFileName() string {
	return tmpPrefix + uuid.New().String()
}
