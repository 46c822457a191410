package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Authenticator checks a username and password.
type Authenticator interface {
	Check(ctx context.Context, username, password string) error
}

type userKey struct{}

// UserFromContext returns the username set by BasicAuthMiddleware.
func UserFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(userKey{}).(string)
	return u, ok
}

// BasicAuthMiddleware enforces HTTP Basic credentials checked against auth.
// Pass nil to disable authentication (public access).
func BasicAuthMiddleware(auth Authenticator, realm string) func(http.Handler) http.Handler {
	if auth == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	challenge := `Basic realm="` + realm + `", charset="UTF-8"`

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", challenge)
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing credentials")
				return
			}

			if err := auth.Check(r.Context(), username, password); err != nil {
				w.Header().Set("WWW-Authenticate", challenge)
				HandleError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger logs one line per request with slog.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
