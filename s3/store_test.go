package s3_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kiratsolutions/fileit"
	"github.com/kiratsolutions/fileit/s3"
)

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		raw      string
		endpoint string
		secure   bool
		wantErr  bool
	}{
		{raw: "minio:9000", endpoint: "minio:9000"},
		{raw: " http://localhost:9000 ", endpoint: "localhost:9000"},
		{raw: "https://storage.googleapis.com", endpoint: "storage.googleapis.com", secure: true},
		{raw: "https://storage.googleapis.com/", endpoint: "storage.googleapis.com", secure: true},
		{raw: "", wantErr: true},
		{raw: "https://host/path", wantErr: true},
		{raw: "ftp://host", wantErr: true},
		{raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			endpoint, secure, err := s3.NormaliseEndpoint(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.endpoint, endpoint)
			assert.Equal(t, tt.secure, secure)
		})
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := s3.New(s3.Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorIs(t, err, fileit.ErrInvalidInput)

	_, err = s3.New(s3.Config{Endpoint: "localhost:9000", Bucket: "b"})
	assert.ErrorIs(t, err, fileit.ErrInvalidInput)

	_, err = s3.New(s3.Config{Endpoint: "https://host/path", Bucket: "b", AccessKey: "a", SecretKey: "b"})
	assert.ErrorIs(t, err, fileit.ErrInvalidInput)
}

const (
	minioUser     = "fileitadmin"
	minioPassword = "fileitsecret"
)

var (
	minioEndpoint string
	minioOnce     sync.Once
)

// getMinioEndpoint starts one MinIO container shared by all tests.
func getMinioEndpoint(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	minioOnce.Do(func() {
		ctx := context.Background()
		c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "minio/minio:latest",
				Cmd:          []string{"server", "/data"},
				ExposedPorts: []string{"9000/tcp"},
				Env: map[string]string{
					"MINIO_ROOT_USER":     minioUser,
					"MINIO_ROOT_PASSWORD": minioPassword,
				},
				WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
			},
			Started: true,
		})
		if err != nil {
			t.Fatalf("failed to start minio container: %v", err)
		}

		host, err := c.Host(ctx)
		if err != nil {
			t.Fatalf("minio host: %v", err)
		}
		port, err := c.MappedPort(ctx, "9000/tcp")
		if err != nil {
			t.Fatalf("minio port: %v", err)
		}
		minioEndpoint = "http://" + host + ":" + port.Port()
	})

	if minioEndpoint == "" {
		t.Fatal("minio container unavailable")
	}
	return minioEndpoint
}

func newTestStore(t *testing.T, bucket string) *s3.Store {
	t.Helper()
	store, err := s3.New(s3.Config{
		Endpoint:  getMinioEndpoint(t),
		AccessKey: minioUser,
		SecretKey: minioPassword,
		Bucket:    bucket,
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.CreateBucket(ctx, bucket))
	return store
}

func TestStore_ObjectLifecycle(t *testing.T) {
	store := newTestStore(t, "lifecycle")
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	content := []byte(`{"BookList":[]}`)
	info, err := store.Put(ctx, "test.JSON", fileit.ContentTypeJSON, bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.NotEmpty(t, info.ETag)

	rc, got, err := store.Get(ctx, "test.JSON")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, content, body)
	assert.Equal(t, fileit.ContentTypeJSON, got.ContentType)

	stat, err := store.Stat(ctx, "test.JSON")
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), stat.Size)

	require.NoError(t, store.Delete(ctx, "test.JSON"))

	_, _, err = store.Get(ctx, "test.JSON")
	assert.ErrorIs(t, err, fileit.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "test.JSON"), fileit.ErrNotFound)
	_, err = store.Stat(ctx, "test.JSON")
	assert.ErrorIs(t, err, fileit.ErrNotFound)
}

func TestStore_List(t *testing.T) {
	store := newTestStore(t, "listing")
	ctx := context.Background()

	for _, p := range []string{"Physics/Images/2.jpg", "Physics/Images/1.jpg", "Physics/book.xml", "Chemistry/book.xml"} {
		_, err := store.Put(ctx, p, "", bytes.NewReader([]byte(p)))
		require.NoError(t, err)
	}

	items, err := store.List(ctx, "Physics/")
	require.NoError(t, err)

	var paths []string
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	assert.Equal(t, []string{"Physics/Images/1.jpg", "Physics/Images/2.jpg", "Physics/book.xml"}, paths)
	assert.Equal(t, "image/jpeg", items[0].ContentType)

	items, err = store.List(ctx, "Biology/")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStore_Buckets(t *testing.T) {
	store := newTestStore(t, "primary")
	ctx := context.Background()

	require.NoError(t, store.CreateBucket(ctx, "secondary"))
	assert.ErrorIs(t, store.CreateBucket(ctx, "secondary"), fileit.ErrInvalidInput)

	names, err := store.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "primary")
	assert.Contains(t, names, "secondary")

	require.NoError(t, store.DeleteBucket(ctx, "secondary"))
	assert.ErrorIs(t, store.DeleteBucket(ctx, "secondary"), fileit.ErrNotFound)
}
