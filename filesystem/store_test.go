package filesystem_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiratsolutions/fileit"
	"github.com/kiratsolutions/fileit/filesystem"
)

func newStore(t *testing.T) (*filesystem.Store, string) {
	t.Helper()
	tempDir := t.TempDir()
	root, err := os.OpenRoot(tempDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })
	return filesystem.NewFileStorage(root), tempDir
}

func sha(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestStore_Get_Success(t *testing.T) {
	store, dir := newStore(t)

	content := []byte(`<book name="Physics"/>`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Physics"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Physics", "book.xml"), content, 0o644))

	rc, info, err := store.Get(context.Background(), "Physics/book.xml")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	assert.NoError(t, err)
	assert.Equal(t, content, got)

	assert.Equal(t, "Physics/book.xml", info.Path)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.Contains(t, info.ContentType, "xml")
	assert.False(t, info.LastModified.IsZero())
}

func TestStore_Get_ContextCanceled(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rc, _, err := store.Get(ctx, "test.txt")
	assert.Nil(t, rc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Get_NotFound(t *testing.T) {
	store, dir := newStore(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Physics"), 0o755))

	for _, p := range []string{"nonexistent.txt", "Physics"} {
		rc, _, err := store.Get(context.Background(), p)
		assert.Nil(t, rc)
		assert.ErrorIs(t, err, fileit.ErrNotFound, p)
	}
}

func TestStore_Put_Success(t *testing.T) {
	store, dir := newStore(t)

	content := []byte("page one")
	info, err := store.Put(context.Background(), "Physics/Images/1.jpg", fileit.ContentTypeJPEG, bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "Physics/Images/1.jpg", info.Path)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.Equal(t, sha(content), info.ETag)
	assert.Equal(t, fileit.ContentTypeJPEG, info.ContentType)

	got, err := os.ReadFile(filepath.Join(dir, "Physics", "Images", "1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestStore_Put_Overwrite(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "test.JSON", fileit.ContentTypeJSON, bytes.NewReader([]byte(`{"BookList":[]}`)))
	require.NoError(t, err)

	updated := []byte(`{"BookList":[{"Physics":{"Path":"Physics/book.xml"}}]}`)
	info, err := store.Put(ctx, "test.JSON", fileit.ContentTypeJSON, bytes.NewReader(updated))
	require.NoError(t, err)
	assert.Equal(t, sha(updated), info.ETag)

	rc, _, err := store.Get(ctx, "test.JSON")
	require.NoError(t, err)
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	assert.Equal(t, updated, got)
}

func TestStore_Put_ContextCanceledBefore(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	info, err := store.Put(ctx, "test.txt", "text/plain", bytes.NewReader([]byte("x")))
	assert.Equal(t, context.Canceled, err)
	assert.Empty(t, info.ETag)
}

func TestStore_Put_ContextCanceledDuringCopy(t *testing.T) {
	store, dir := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())

	info, err := store.Put(ctx, "test.txt", "text/plain", &slowReader{data: []byte("test content"), cancel: cancel})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, info.ETag)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be removed")
}

type slowReader struct {
	data   []byte
	pos    int
	cancel context.CancelFunc
}

func (r *slowReader) Read(p []byte) (n int, err error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	r.cancel()
	n = copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func TestStore_Delete(t *testing.T) {
	store, dir := newStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.txt"), []byte("x"), 0o644))

	assert.NoError(t, store.Delete(ctx, "test.txt"))
	_, err := os.Stat(filepath.Join(dir, "test.txt"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, store.Delete(ctx, "test.txt"), fileit.ErrNotFound)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, store.Delete(canceled, "test.txt"), context.Canceled)
}

func TestStore_Stat(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	content := []byte("hello")
	_, err := store.Put(ctx, "a/b.txt", "", bytes.NewReader(content))
	require.NoError(t, err)

	info, err := store.Stat(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, sha(content), info.ETag)
	assert.Equal(t, int64(5), info.Size)
	assert.Contains(t, info.ContentType, "text/plain")

	_, err = store.Stat(ctx, "a")
	assert.ErrorIs(t, err, fileit.ErrNotFound)

	_, err = store.Stat(ctx, "missing")
	assert.ErrorIs(t, err, fileit.ErrNotFound)
}

func TestStore_List(t *testing.T) {
	store, dir := newStore(t)
	ctx := context.Background()

	files := map[string]string{
		"test.JSON":              `{"BookList":[]}`,
		"Physics/book.xml":       "<book/>",
		"Physics/Images/1.jpg":   "p1",
		"Physics/Images/2.jpg":   "p2",
		"Chemistry/book.xml":     "<book/>",
		"Chemistry/Images/1.jpg": "c1",
	}
	for p, c := range files {
		_, err := store.Put(ctx, p, "", bytes.NewReader([]byte(c)))
		require.NoError(t, err)
	}
	// leftover temp file from an interrupted write
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-leftover"), []byte("x"), 0o644))

	tests := []struct {
		prefix string
		want   []string
	}{
		{prefix: "", want: []string{
			"Chemistry/Images/1.jpg", "Chemistry/book.xml",
			"Physics/Images/1.jpg", "Physics/Images/2.jpg", "Physics/book.xml",
			"test.JSON",
		}},
		{prefix: "Physics/Images/", want: []string{"Physics/Images/1.jpg", "Physics/Images/2.jpg"}},
		{prefix: "Phy", want: []string{"Physics/Images/1.jpg", "Physics/Images/2.jpg", "Physics/book.xml"}},
		{prefix: "Biology/", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("prefix %q", tt.prefix), func(t *testing.T) {
			items, err := store.List(ctx, tt.prefix)
			require.NoError(t, err)

			got := make([]string, 0, len(items))
			for _, it := range items {
				got = append(got, it.Path)
				assert.Equal(t, sha([]byte(files[it.Path])), it.ETag)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_List_ContextCanceled(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, err := store.List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, items)
}

func TestStore_ConcurrentPuts(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	done := make(chan bool, 10)
	for i := range 10 {
		go func(n int) {
			content := fmt.Appendf(nil, "content-%d", n)
			_, err := store.Put(ctx, fmt.Sprintf("Physics/Images/%d.jpg", n+1), fileit.ContentTypeJPEG, bytes.NewReader(content))
			assert.NoError(t, err)
			done <- true
		}(i)
	}

	for range 10 {
		<-done
	}

	items, err := store.List(ctx, "Physics/")
	assert.NoError(t, err)
	assert.Len(t, items, 10)
}
