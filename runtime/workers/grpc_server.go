package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// GRPCServerWorker serves a gRPC server until its context is done, then
// drains the running calls with GracefulStop.
// The first run serves the listener bound by the caller, a restart binds the
// same address again.
type GRPCServerWorker struct {
	log      *slog.Logger
	server   *grpc.Server
	health   *health.Server
	address  string
	listener net.Listener
	listen   func(network, address string) (net.Listener, error)
}

func NewGRPCServerWorker(log *slog.Logger, server *grpc.Server, healthServer *health.Server, listener net.Listener) *GRPCServerWorker {
	return &GRPCServerWorker{
		log:      log,
		server:   server,
		health:   healthServer,
		address:  listener.Addr().String(),
		listener: listener,
		listen:   net.Listen,
	}
}

func (w *GRPCServerWorker) Run(ctx context.Context) error {
	listener := w.listener
	w.listener = nil
	if listener == nil {
		var err error
		if listener, err = w.listen("tcp", w.address); err != nil {
			return fmt.Errorf("failed to listen on %s: %w", w.address, err)
		}
	}

	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting gRPC server", "address", listener.Addr().String())
		for serviceName := range w.server.GetServiceInfo() {
			w.log.Debug("gRPC exposed services", "name", serviceName)
		}
		errChan <- w.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		w.log.Info("Shutting down gRPC server gracefully...")
		if w.health != nil {
			w.health.Shutdown()
		}
		w.server.GracefulStop()
		<-errChan
		return nil
	case err := <-errChan:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("gRPC server error: %w", err)
	}
}
