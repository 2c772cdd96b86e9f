package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
)

// requestLogger returns a middleware that logs every request with its route,
// the asset it addressed and the number of bytes in each direction. Server
// errors are logged at error level.
func requestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			body := &countingReader{ReadCloser: r.Body}
			if r.Body != nil {
				r.Body = body
			}

			m := httpsnoop.CaptureMetrics(next, w, r)

			attrs := []any{
				"response_code", m.Code,
				"duration", m.Duration,
				"bytes_received", body.n,
				"bytes_sent", m.Written,
				"remote_addr", r.RemoteAddr,
			}
			attrs = append(attrs, routeAttrs(r)...)

			level := slog.LevelInfo
			if m.Code >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, fmt.Sprintf("%s %s", r.Method, r.URL), attrs...)
		}
		return http.HandlerFunc(fn)
	}
}

// routeAttrs returns the matched route pattern, and the asset kind or key if
// the route addressed one. It must be called after the request was routed.
func routeAttrs(r *http.Request) []any {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}

	var attrs []any
	if pattern := rctx.RoutePattern(); pattern != "" {
		attrs = append(attrs, "route", pattern)
	}
	if kind := rctx.URLParam("kind"); kind != "" {
		attrs = append(attrs, "asset_kind", kind)
	}
	if key := rctx.URLParam("key"); key != "" {
		attrs = append(attrs, "asset_key", key)
	}

	return attrs
}

type countingReader struct {
	io.ReadCloser
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	c.n += int64(n)
	return n, err
}
