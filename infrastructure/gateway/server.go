package gateway

import (
	"log/slog"
	"net/http"
	"time"
)

type Options struct {
	Addr              string
	MaxUploadBytes    int64
	ReadHeaderTimeout time.Duration
}

// NewServer builds the HTTP server of the gateway. There is no write timeout:
// a download lasts as long as the file takes to stream.
func NewServer(log *slog.Logger, h *Handler, opts Options) *http.Server {
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 5 * time.Second
	}
	return &http.Server{
		Addr:              opts.Addr,
		Handler:           NewRouter(log, h, opts.MaxUploadBytes),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		MaxHeaderBytes:    1 << 20,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}
}
