package e2e_test

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiratsolutions/fileit"
)

const bookXML = `<?xml version="1.0" encoding="UTF-8"?>
<Book><Title>Physics</Title><Chapter id="1">Motion</Chapter></Book>`

// TestE2E_SQLite runs the full API flow with the sqlite users backend.
func TestE2E_SQLite(t *testing.T) {
	baseURL, stop := startServer(t, ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "sqlite",
		DBDSN:       filepath.Join(t.TempDir(), "users.db"),
		StoragePath: t.TempDir(),
		PrivateKey:  generateKey(t),
	})
	defer stop()

	runAPITests(t, baseURL)
}

// TestE2E_Postgres runs the full API flow with the postgres users backend.
func TestE2E_Postgres(t *testing.T) {
	dsn := getSharedPostgresDatabase(t)

	baseURL, stop := startServer(t, ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "postgres",
		DBDSN:       dsn,
		StoragePath: t.TempDir(),
		PrivateKey:  generateKey(t),
	})
	defer stop()

	runAPITests(t, baseURL)
}

func runAPITests(t *testing.T, baseURL string) {
	t.Helper()

	anon := resty.New().SetBaseURL(baseURL)
	client := resty.New().SetBaseURL(baseURL).SetBasicAuth(testUser, testPassword)

	t.Run("sayHello", func(t *testing.T) {
		resp, err := anon.R().Get("/sayHello")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, "Hello World", resp.String())
	})

	t.Run("getMasterJson before any book", func(t *testing.T) {
		resp, err := anon.R().Get("/getMasterJson")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.JSONEq(t, `{"Error":"No Book Present"}`, resp.String())
	})

	t.Run("login", func(t *testing.T) {
		resp, err := anon.R().
			SetBody(map[string]string{"username": testUser, "password": testPassword}).
			Post("/login")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())

		resp, err = anon.R().
			SetBody(map[string]string{"username": testUser, "password": "wrong"}).
			Post("/login")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	})

	t.Run("protected routes need credentials", func(t *testing.T) {
		resp, err := anon.R().Get("/objects")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	})

	t.Run("upload descriptor and register book", func(t *testing.T) {
		resp, err := client.R().
			SetHeader("Content-Type", "application/xml").
			SetBody(bookXML).
			Put("/objects/Physics/book.xml")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())

		resp, err = client.R().
			SetBody(map[string]string{"Path": "Physics/book.xml"}).
			Put("/books/Physics")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
	})

	t.Run("getMasterJson lists the book", func(t *testing.T) {
		resp, err := anon.R().Get("/getMasterJson")
		require.NoError(t, err)
		assert.JSONEq(t, `{"BookList":[{"Physics":{"Path":"Physics/book.xml"}}]}`, resp.String())
	})

	t.Run("book tree", func(t *testing.T) {
		resp, err := client.R().Get("/books/Physics")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Contains(t, resp.String(), "Motion")
	})

	t.Run("signed url serves the object", func(t *testing.T) {
		var signed fileit.SignedURL
		resp, err := client.R().SetResult(&signed).Get("/sign/Physics/book.xml")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode())
		require.NotEmpty(t, signed.URL)

		resp, err = resty.New().R().Get(signed.URL)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, bookXML, resp.String())

		resp, err = resty.New().R().Get(signed.URL + "0")
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode())
	})

	t.Run("delete book keeps objects", func(t *testing.T) {
		resp, err := client.R().Delete("/books/Physics")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())

		resp, err = client.R().Get("/objects/Physics/book.xml")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
	})

	t.Run("delete object", func(t *testing.T) {
		resp, err := client.R().Delete("/objects/Physics/book.xml")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode())

		resp, err = client.R().Get("/objects/Physics/book.xml")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	})
}
