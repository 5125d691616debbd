package gateway

import (
	"log/slog"
	"net/http"
)

// NewRouter registers the gateway routes. maxUploadBytes <= 0 means no limit.
func NewRouter(log *slog.Logger, h *Handler, maxUploadBytes int64) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Welcome)
	mux.HandleFunc("GET /healthz", h.Liveness)

	upload := limitBody(maxUploadBytes, h.Upload)
	mux.HandleFunc("POST /upload", upload)
	mux.HandleFunc("POST /upload/", upload)
	mux.HandleFunc("GET /download", h.Download)
	mux.HandleFunc("GET /download/", h.Download)

	return WithRequestID(Logging(log)(mux))
}

func limitBody(n int64, h http.HandlerFunc) http.HandlerFunc {
	if n <= 0 {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		h(w, r)
	}
}
