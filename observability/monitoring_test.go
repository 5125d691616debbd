package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"file-relay/domain"
	errs "file-relay/errors"

	"github.com/stretchr/testify/require"
)

func newStats() *TransferStats {
	return NewTransferStats(slog.New(slog.NewTextHandler(io.Discard, nil)), time.Second)
}

func TestTransferStats_Counters(t *testing.T) {
	req := require.New(t)
	stats := newStats()

	stats.TransferStarted(domain.OpUpload)
	stats.TransferStarted(domain.OpDownload)
	stats.TransferStarted(domain.OpDownload)
	req.EqualValues(3, stats.GetLatest().Active)

	stats.BytesMoved(domain.OpUpload, 10)
	stats.TransferFinished(domain.OpUpload, "a.txt", 10, nil)
	stats.TransferFinished(domain.OpDownload, "missing", 0, fmt.Errorf("%w: missing", errs.ErrNotFound))
	stats.TransferFinished(domain.OpDownload, "a.txt", 10, nil)

	snapshot := stats.GetLatest()
	req.Zero(snapshot.Active)
	req.EqualValues(1, snapshot.UploadsOK)
	req.Zero(snapshot.UploadsFailed)
	req.EqualValues(1, snapshot.DownloadsOK)
	req.EqualValues(1, snapshot.DownloadsFailed)

	req.Len(snapshot.RecentTransfers, 3)
	req.Equal("download", snapshot.RecentTransfers[0].Operation, "most recent first")
	req.Equal("NOT_FOUND", snapshot.RecentTransfers[1].Code)
	req.Equal(domain.FileID("a.txt"), snapshot.RecentTransfers[2].FileID)
}

func TestTransferStats_WorkerRestarts(t *testing.T) {
	req := require.New(t)
	stats := newStats()

	stats.WorkerRestarted("GrpcServerWorker", errors.New("listen: address already in use"))
	stats.WorkerRestarted("DiskMonitor", errors.New("boom"))

	snapshot := stats.GetLatest()
	req.EqualValues(2, snapshot.WorkerRestarts)
	req.True(strings.HasPrefix(snapshot.LastRestart, "DiskMonitor at "), snapshot.LastRestart)
}

func TestTransferStats_RecentIsBounded(t *testing.T) {
	stats := newStats()
	for i := range maxRecentTransfers + 5 {
		stats.TransferStarted(domain.OpUpload)
		stats.TransferFinished(domain.OpUpload, domain.FileID(fmt.Sprintf("f%d", i)), 1, nil)
	}

	recent := stats.GetLatest().RecentTransfers
	require.Len(t, recent, maxRecentTransfers)
	require.Equal(t, domain.FileID(fmt.Sprintf("f%d", maxRecentTransfers+4)), recent[0].FileID)
}

func TestTransferStats_Throughput(t *testing.T) {
	req := require.New(t)
	stats := newStats()
	start := stats.lastCheck

	stats.BytesMoved(domain.OpUpload, 2*domain.MB)
	stats.BytesMoved(domain.OpDownload, domain.MB)
	stats.BytesMoved(domain.OpDownload, -1)
	stats.update(start.Add(2 * time.Second))

	snapshot := stats.GetLatest()
	req.InDelta(1.0, snapshot.UploadSpeedMBs, 0.001)
	req.InDelta(0.5, snapshot.DownloadSpeedMBs, 0.001)

	// Counters are reset on every tick.
	stats.update(start.Add(3 * time.Second))
	req.Zero(stats.GetLatest().UploadSpeedMBs)
}

func TestTransferStats_RunStopsWithContext(t *testing.T) {
	stats := NewTransferStats(slog.New(slog.NewTextHandler(io.Discard, nil)), 5*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	before := stats.lastCheck
	require.NoError(t, stats.Run(ctx))
	require.True(t, stats.lastCheck.After(before), "at least one tick refreshed the snapshot")
}
