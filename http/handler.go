package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kiratsolutions/fileit"
)

// DefaultMaxUploadBytes caps request bodies when HandlerConfig leaves it unset.
const DefaultMaxUploadBytes int64 = 64 << 20

// noBookMessage is returned by /getMasterJson when no index can be read.
const noBookMessage = "No Book Present"

type Service interface {
	MasterIndex(ctx context.Context) (fileit.BookList, error)
	AddBook(ctx context.Context, name, descriptor string) error
	DeleteBook(ctx context.Context, name string) error
	BookTree(ctx context.Context, name string) (json.RawMessage, error)
	UploadContent(ctx context.Context, u fileit.Upload) (fileit.UploadResult, error)
	SignURL(ctx context.Context, path string) (fileit.SignedURL, error)
	GetObject(ctx context.Context, path string) (io.ReadCloser, fileit.ObjectInfo, error)
	PutObject(ctx context.Context, path, contentType string, content io.Reader) (fileit.ObjectInfo, error)
	DeleteObject(ctx context.Context, path string) error
	ListObjects(ctx context.Context, prefix string) (fileit.ListResult, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers" yaml:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

type HandlerConfig struct {
	// Auth checks credentials for protected routes and /login. Nil leaves
	// every route public and disables /login.
	Auth Authenticator
	// Verifier, when set, serves /signed/{bucket}/* for Bucket.
	Verifier       *fileit.URLVerifier
	Bucket         string
	MaxUploadBytes int64
	CORS           CORSConfig
}

// Handler provides the FileIt REST endpoints.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		config:  cfg,
		service: service,
	}
}

// Router returns an http.Handler with every route registered.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/healthz", h.handleHealth)
	r.Get("/sayHello", h.handleHello)
	r.Get("/getMasterJson", h.handleMasterJSON)
	r.Post("/login", h.handleLogin)

	if h.config.Verifier != nil {
		r.Get("/signed/{bucket}/*", h.handleSigned)
	}

	r.Group(func(r chi.Router) {
		r.Use(BasicAuthMiddleware(h.config.Auth, "fileit"))

		r.Get("/books/{name}", h.handleBookTree)
		r.Put("/books/{name}", h.handleAddBook)
		r.Delete("/books/{name}", h.handleDeleteBook)
		r.Post("/books/{name}/content", h.handleUploadContent)

		r.Get("/objects", h.handleList)
		r.Get("/objects/*", h.handleGet)
		r.Put("/objects/*", h.handlePut)
		r.Delete("/objects/*", h.handleDelete)

		r.Get("/sign/*", h.handleSign)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleHello(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Hello World")
}

// handleMasterJSON always answers 200; any failure becomes the
// {"Error":"No Book Present"} document.
func (h *Handler) handleMasterJSON(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.MasterIndex(r.Context())
	if err != nil {
		slog.Warn("master index unavailable", "error", err)
		_ = WriteJSON(w, http.StatusOK, map[string]string{"Error": noBookMessage})
		return
	}

	_ = WriteJSON(w, http.StatusOK, list)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if h.config.Auth == nil {
		HandleError(w, fmt.Errorf("login: %w: authentication disabled", fileit.ErrNotSupported))
		return
	}

	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid login request")
		return
	}

	if err := h.config.Auth.Check(r.Context(), req.Username, req.Password); err != nil {
		HandleError(w, fmt.Errorf("login %s: %w", req.Username, err))
		return
	}

	WriteSuccess(w, "Login Successful", nil)
}

func (h *Handler) handleSigned(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	if bucket != h.config.Bucket {
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	resource := strings.TrimPrefix(r.URL.EscapedPath(), "/signed/"+bucket+"/")
	if err := h.config.Verifier.Verify(bucket, resource, r.URL.Query()); err != nil {
		slog.Warn("signed url rejected", "error", err)
		WriteError(w, http.StatusForbidden, "forbidden", "Invalid or expired signature")
		return
	}

	p, err := url.PathUnescape(resource)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
		return
	}

	h.serveObject(w, r, p)
}

func (h *Handler) handleBookTree(w http.ResponseWriter, r *http.Request) {
	name, ok := bookName(w, r)
	if !ok {
		return
	}

	tree, err := h.service.BookTree(r.Context(), name)
	if err != nil {
		HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(tree)
}

type addBookRequest struct {
	Path string `json:"Path"`
}

func (h *Handler) handleAddBook(w http.ResponseWriter, r *http.Request) {
	name, ok := bookName(w, r)
	if !ok {
		return
	}

	var req addBookRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Body must be {\"Path\": \"...\"}")
		return
	}

	if err := h.service.AddBook(r.Context(), name, req.Path); err != nil {
		HandleError(w, err)
		return
	}

	WriteSuccess(w, "Book Added Successfully", nil)
}

func (h *Handler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	name, ok := bookName(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteBook(r.Context(), name); err != nil {
		HandleError(w, err)
		return
	}

	WriteSuccess(w, "Deleted Successfully", nil)
}

// handleUploadContent accepts either a multipart form with a "file" part or
// the raw document as the request body.
func (h *Handler) handleUploadContent(w http.ResponseWriter, r *http.Request) {
	name, ok := bookName(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)

	upload := fileit.Upload{
		Book:   name,
		Prefix: r.URL.Query().Get("prefix"),
	}

	if fileit.MediaType(r.Header.Get("Content-Type")) == "multipart/form-data" {
		part, err := filePart(r)
		if err != nil {
			HandleError(w, err)
			return
		}
		defer func() { _ = part.Close() }()

		upload.ContentType = partContentType(part)
		upload.Body = part
	} else {
		upload.ContentType = r.Header.Get("Content-Type")
		upload.Body = r.Body
	}

	res, err := h.service.UploadContent(r.Context(), upload)
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteSuccess(w, "File Uploaded Successfully", map[string]any{"pages": len(res.Pages)})
}

func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("read multipart: %w: %w", fileit.ErrInvalidInput, err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read multipart: %w: missing file part", fileit.ErrInvalidInput)
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart: %w", err)
		}
		if part.FormName() == "file" {
			return part, nil
		}
		_ = part.Close()
	}
}

// partContentType prefers the part's declared type and falls back to the
// file name extension when the client sent a generic one.
func partContentType(part *multipart.Part) string {
	ct := fileit.MediaType(part.Header.Get("Content-Type"))
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return fileit.ContentTypeByExtension(part.FileName())
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListObjects(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := objectPath(w, r)
	if !ok {
		return
	}

	h.serveObject(w, r, p)
}

func (h *Handler) serveObject(w http.ResponseWriter, r *http.Request, p string) {
	content, info, err := h.service.GetObject(r.Context(), p)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	if info.ETag != "" {
		w.Header().Set("ETag", `"`+info.ETag+`"`)
	}
	w.Header().Set("Content-Type", info.ContentType)

	if rs, ok := content.(io.ReadSeeker); ok {
		http.ServeContent(w, r, p, info.LastModified, rs)
		return
	}

	if info.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if !info.LastModified.IsZero() {
		w.Header().Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, content); err != nil {
		slog.Warn("stream object", "path", p, "error", err)
	}
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	p, ok := objectPath(w, r)
	if !ok {
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		if _, _, err := mime.ParseMediaType(contentType); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid Content-Type")
			return
		}
	}

	info, err := h.service.PutObject(r.Context(), p, contentType, http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := objectPath(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteObject(r.Context(), p); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	p, ok := objectPath(w, r)
	if !ok {
		return
	}

	signed, err := h.service.SignURL(r.Context(), p)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, signed)
}

func bookName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid book name")
		return "", false
	}
	return name, true
}

func objectPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || !fileit.IsValidPath(p) {
		WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
		return "", false
	}
	return p, true
}
