package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// HTTPServerWorker serves an http.Server until its context is done, then
// shuts it down within shutdownTimeout. A nil listener makes every run bind
// server.Addr itself.
type HTTPServerWorker struct {
	log             *slog.Logger
	name            string
	server          *http.Server
	listener        net.Listener
	shutdownTimeout time.Duration
}

func NewHTTPServerWorker(log *slog.Logger, name string, server *http.Server, listener net.Listener, shutdownTimeout time.Duration) *HTTPServerWorker {
	return &HTTPServerWorker{log: log, name: name, server: server, listener: listener, shutdownTimeout: shutdownTimeout}
}

func (w *HTTPServerWorker) Run(ctx context.Context) error {
	listener := w.listener
	w.listener = nil
	if listener == nil {
		var err error
		if listener, err = net.Listen("tcp", w.server.Addr); err != nil {
			return fmt.Errorf("%s: failed to listen on %s: %w", w.name, w.server.Addr, err)
		}
	}

	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting HTTP server", "name", w.name, "address", listener.Addr().String())
		errChan <- w.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()
		w.log.Info("Shutting down HTTP server...", "name", w.name)
		if err := w.server.Shutdown(shutdownCtx); err != nil {
			w.log.Warn("HTTP server forced to shutdown", "name", w.name, "error", err)
			_ = w.server.Close()
		}
		<-errChan
		return nil
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: %w", w.name, err)
	}
}
