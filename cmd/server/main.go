package main

import (
	"context"
	"file-relay/infrastructure/grpc/server"
	"file-relay/infrastructure/grpc/wire"
	"file-relay/infrastructure/storage"
	"file-relay/internal"
	"file-relay/observability"
	"file-relay/runtime/workers"
	"file-relay/services"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "File server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the storage node and blocks until a shutdown signal.
// Returning instead of exiting lets every defer (store close) run.
func run() (int, error) {
	// 1. Configuration & Logger
	var config Config
	if err := internal.LoadConfig(&config); err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := observability.NewTransferStats(logger, config.StatsInterval)
	sup := workers.NewSupervisor(logger, config.RestartInterval).WithRestartObserver(stats)

	// 2. Storage
	var (
		store         storage.IFileStore
		monitoredPath string
	)
	switch config.StorageBackend {
	case storage.BackendBadger:
		db, err := badger.Open(buildBadgerOpts(config, logger))
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
		store = storage.NewBadgerStore(db, logger)
		monitoredPath = config.BadgerFilepath

		if config.DebugPort > 0 && logger.Enabled(ctx, slog.LevelDebug) {
			inspector := internal.NewInspector(logger, db, StoreMapper, func() map[string]any {
				return StatsView(stats.GetLatest(), config.StorageBackend)
			})
			debugServer := &http.Server{
				Addr:              internal.ListenAddress("localhost", config.DebugPort),
				Handler:           inspector.Handler("/inspect"),
				ReadHeaderTimeout: 5 * time.Second,
			}
			logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://%s/inspect", debugServer.Addr))
			sup.Add(workers.NewHTTPServerWorker(logger, "inspector", debugServer, nil, time.Second))
		}
	default:
		diskStore, err := storage.NewDiskStore(config.StorageDir, logger)
		if err != nil {
			return exitRuntime, err
		}
		store = diskStore
		monitoredPath = diskStore.Root()
	}

	var locker storage.IFileLocker = storage.NoopLocker{}
	if config.SingleWriterPerFile {
		locker = storage.NewKeyedLocker()
	}
	service := services.NewTransferService(logger, store, locker, config.ChunkSize).WithObserver(stats)

	// 3. gRPC Server Setup
	address := internal.ListenAddress(config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	limit := wire.MessageSizeLimit(config.ChunkSize)
	grpcServer, healthServer := server.New(logger, server.NewFileServer(logger, service),
		grpc.MaxRecvMsgSize(limit),
		grpc.MaxSendMsgSize(limit),
	)

	sup.Add(
		workers.NewGRPCServerWorker(logger, grpcServer, healthServer, listener),
		stats,
		workers.NewDiskMonitorWorker(logger, monitoredPath, config.DiskMonitorInterval, config.DiskLowSpacePercent),
	)

	logger.Info("File server starting",
		"address", address,
		"backend", config.StorageBackend,
		"chunk_size", config.ChunkSize,
		"single_writer", config.SingleWriterPerFile,
	)

	// 4. Wait for Stop
	// Run blocks until the signal context is cancelled and every worker has returned.
	sup.Run(ctx)
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

// buildBadgerOpts routes badger logs through logger, whose level decides
// what is kept.
func buildBadgerOpts(config Config, logger *slog.Logger) badger.Options {
	return badger.DefaultOptions(config.BadgerFilepath).
		WithLogger(storage.NewBadgerLogger(logger))
}

// StoreMapper renders a BadgerStore entry for the inspector.
func StoreMapper(key string, val []byte) internal.InspectRow {
	entry := storage.DescribeEntry([]byte(key), val)
	row := internal.DefaultMapper(key, val)
	row.Type = entry.Kind
	row.Detail = entry.Detail
	if entry.FileID != "" {
		row.EntityID = string(entry.FileID)
	}
	if entry.Kind == "CHUNK" {
		row.Key = fmt.Sprintf("%s%s/%d", storage.ChunkPrefix, entry.FileID, entry.Seq)
	}
	return row
}

func restartsView(snapshot observability.Snapshot) string {
	if snapshot.WorkerRestarts == 0 {
		return "none"
	}
	return fmt.Sprintf("%d, last %s", snapshot.WorkerRestarts, snapshot.LastRestart)
}

// StatsView flattens a stats snapshot for the inspector page.
func StatsView(snapshot observability.Snapshot, backend storage.Backend) map[string]any {
	recent := make([]string, 0, len(snapshot.RecentTransfers))
	for _, t := range snapshot.RecentTransfers {
		recent = append(recent, fmt.Sprintf("%s %s %s %s (%d bytes)", t.Timestamp, t.Operation, t.FileID, t.Code, t.Bytes))
	}
	return map[string]any{
		"Backend":         string(backend),
		"Time":            time.Now().Format(time.RFC822),
		"Active sessions": snapshot.Active,
		"Uploads":         fmt.Sprintf("%d ok, %d failed", snapshot.UploadsOK, snapshot.UploadsFailed),
		"Downloads":       fmt.Sprintf("%d ok, %d failed", snapshot.DownloadsOK, snapshot.DownloadsFailed),
		"Throughput":      fmt.Sprintf("in %.2f MB/s, out %.2f MB/s", snapshot.UploadSpeedMBs, snapshot.DownloadSpeedMBs),
		"Memory":          fmt.Sprintf("%d MB, %d GC", snapshot.AllocMemMb, snapshot.NumGC),
		"Worker restarts": restartsView(snapshot),
		"Recent":          recent,
	}
}
