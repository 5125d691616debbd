package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// WithRequestID reuses the caller's X-Request-ID or mints a new one.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Logging writes one access log line per request, aborted ones included.
func Logging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			mw := &metaWriter{ResponseWriter: w}

			defer func() {
				level := slog.LevelInfo
				if mw.status >= http.StatusInternalServerError || mw.aborted() {
					level = slog.LevelWarn
				}
				log.Log(r.Context(), level, "HTTP request",
					"req_id", RequestIDFromCtx(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", mw.status,
					"bytes", mw.size,
					"duration", time.Since(start),
					"aborted", mw.aborted(),
				)
			}()

			next.ServeHTTP(mw, r)
			mw.finish()
		})
	}
}

// metaWriter records status and size. Unwrap keeps http.ResponseController
// able to reach the underlying Flusher.
type metaWriter struct {
	http.ResponseWriter
	status int
	size   int64
	done   bool
}

func (m *metaWriter) WriteHeader(status int) {
	if m.status == 0 {
		m.status = status
	}
	m.ResponseWriter.WriteHeader(status)
}

func (m *metaWriter) Write(b []byte) (int, error) {
	if m.status == 0 {
		m.status = http.StatusOK
	}
	n, err := m.ResponseWriter.Write(b)
	m.size += int64(n)
	return n, err
}

func (m *metaWriter) Unwrap() http.ResponseWriter {
	return m.ResponseWriter
}

func (m *metaWriter) finish() {
	m.done = true
}

// aborted reports a handler that never returned normally.
func (m *metaWriter) aborted() bool {
	return !m.done
}
