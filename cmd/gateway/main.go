package main

import (
	"context"
	"file-relay/infrastructure/gateway"
	"file-relay/infrastructure/grpc/client"
	"file-relay/internal"
	"file-relay/runtime/workers"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Gateway terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if err := internal.LoadConfig(&config); err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	// The connection is lazy, an unreachable file server shows up as INTERNAL on the first call.
	conn, err := client.Dial(config.GRPCServerAddress, config.ChunkSize)
	if err != nil {
		return exitConfig, fmt.Errorf("invalid gRPC server address %q: %w", config.GRPCServerAddress, err)
	}
	defer func() { _ = conn.Close() }()

	fileClient := client.NewFileClient(logger, conn, config.ChunkSize)
	httpServer := gateway.NewServer(logger, gateway.NewHandler(logger, fileClient), gateway.Options{
		Addr:              internal.ListenAddress(config.Host, config.Port),
		MaxUploadBytes:    config.MaxUploadBytes,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	})

	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", httpServer.Addr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Gateway starting", "address", httpServer.Addr, "grpc_server", config.GRPCServerAddress, "chunk_size", config.ChunkSize)
	workers.NewSupervisor(logger, config.RestartInterval).
		Add(workers.NewHTTPServerWorker(logger, "gateway", httpServer, listener, config.ShutdownTimeout)).
		Run(ctx)
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}
