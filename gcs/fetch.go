package gcs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kiratsolutions/fileit"
)

// SignedFetcher reads objects over plain HTTP through short-lived signed
// URLs, so no storage API credentials are needed beyond the signing key.
type SignedFetcher struct {
	signer *fileit.URLSigner
	client *resty.Client
	ttl    time.Duration
}

func NewSignedFetcher(signer *fileit.URLSigner) *SignedFetcher {
	client := resty.New().
		SetLogger(slogLogger{}).
		SetTimeout(fileit.FetchURLTTL).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &SignedFetcher{signer: signer, client: client, ttl: fileit.FetchURLTTL}
}

// Fetch GETs path through a freshly signed URL. The caller must close the
// returned reader.
func (f *SignedFetcher) Fetch(ctx context.Context, path string) (io.ReadCloser, fileit.ObjectInfo, error) {
	signed, err := f.signer.Sign(path, f.ttl)
	if err != nil {
		return nil, fileit.ObjectInfo{}, fmt.Errorf("fetch %s: %w", path, err)
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(signed.URL)
	if err != nil {
		return nil, fileit.ObjectInfo{}, fmt.Errorf("fetch %s: %w", path, err)
	}

	body := resp.RawBody()
	switch code := resp.StatusCode(); {
	case code == http.StatusOK:
	case code == http.StatusNotFound:
		_ = body.Close()
		return nil, fileit.ObjectInfo{}, fmt.Errorf("fetch %s: %w", path, fileit.ErrNotFound)
	case code == http.StatusForbidden || code == http.StatusUnauthorized:
		_ = body.Close()
		return nil, fileit.ObjectInfo{}, fmt.Errorf("fetch %s: %w", path, fileit.ErrUnauthorized)
	default:
		_ = body.Close()
		return nil, fileit.ObjectInfo{}, fmt.Errorf("fetch %s: unexpected status %d", path, code)
	}

	h := resp.Header()
	info := fileit.ObjectInfo{
		Path:        path,
		ContentType: h.Get("Content-Type"),
		ETag:        h.Get("ETag"),
		Size:        -1,
	}
	if n, err := strconv.ParseInt(h.Get("Content-Length"), 10, 64); err == nil {
		info.Size = n
	}
	if t, err := http.ParseTime(h.Get("Last-Modified")); err == nil {
		info.LastModified = t.UTC()
	}

	return body, info, nil
}

type slogLogger struct{}

func (slogLogger) Errorf(format string, v ...any) { slog.Error(fmt.Sprintf(format, v...)) }
func (slogLogger) Warnf(format string, v ...any)  { slog.Warn(fmt.Sprintf(format, v...)) }
func (slogLogger) Debugf(format string, v ...any) { slog.Debug(fmt.Sprintf(format, v...)) }
