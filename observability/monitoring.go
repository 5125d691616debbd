package observability

import (
	"context"
	"file-relay/domain"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

const maxRecentTransfers = 20

// RecentTransfer is one finished session as shown on the debug page.
type RecentTransfer struct {
	FileID    domain.FileID
	Operation string
	Code      string
	Bytes     int64
	Timestamp string
}

// Snapshot aggregates the transfer metrics of the node.
type Snapshot struct {
	UploadSpeedMBs   float64
	DownloadSpeedMBs float64
	Active           int64
	UploadsOK        uint64
	UploadsFailed    uint64
	DownloadsOK      uint64
	DownloadsFailed  uint64
	AllocMemMb       uint64
	NumGC            uint32
	WorkerRestarts   uint64
	LastRestart      string
	RecentTransfers  []RecentTransfer
}

// TransferStats counts the traffic of the transfer sessions and refreshes a
// snapshot with the throughput on every tick of Run.
type TransferStats struct {
	log      *slog.Logger
	interval time.Duration

	mu          sync.RWMutex
	latest      Snapshot
	recent      []RecentTransfer
	lastCheck   time.Time
	lastRestart string

	bytesIn         atomic.Uint64
	bytesOut        atomic.Uint64
	active          atomic.Int64
	uploadsOK       atomic.Uint64
	uploadsFailed   atomic.Uint64
	downloadsOK     atomic.Uint64
	downloadsFailed atomic.Uint64
	workerRestarts  atomic.Uint64
}

func NewTransferStats(log *slog.Logger, interval time.Duration) *TransferStats {
	if interval <= 0 {
		interval = time.Second
	}
	return &TransferStats{
		log:       log,
		interval:  interval,
		lastCheck: time.Now(),
	}
}

func (ts *TransferStats) TransferStarted(domain.Operation) {
	ts.active.Add(1)
}

func (ts *TransferStats) BytesMoved(op domain.Operation, n int) {
	if n <= 0 {
		return
	}
	if op == domain.OpUpload {
		ts.bytesIn.Add(uint64(n))
	} else {
		ts.bytesOut.Add(uint64(n))
	}
}

// TransferFinished records the terminal outcome of a session. It must be
// called once per TransferStarted.
func (ts *TransferStats) TransferFinished(op domain.Operation, id domain.FileID, bytes int64, err error) {
	ts.active.Add(-1)
	outcome := domain.Resolve(op, err)

	switch {
	case op == domain.OpUpload && outcome.OK():
		ts.uploadsOK.Add(1)
	case op == domain.OpUpload:
		ts.uploadsFailed.Add(1)
	case outcome.OK():
		ts.downloadsOK.Add(1)
	default:
		ts.downloadsFailed.Add(1)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.recent = append([]RecentTransfer{{
		FileID:    id,
		Operation: op.String(),
		Code:      outcome.Code.String(),
		Bytes:     bytes,
		Timestamp: time.Now().Format("15:04:05"),
	}}, ts.recent...)
	if len(ts.recent) > maxRecentTransfers {
		ts.recent = ts.recent[:maxRecentTransfers]
	}
}

// WorkerRestarted counts a restart scheduled by the supervisor.
func (ts *TransferStats) WorkerRestarted(name string, _ error) {
	ts.workerRestarts.Add(1)

	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.lastRestart = fmt.Sprintf("%s at %s", name, time.Now().Format("15:04:05"))
}

// Run refreshes the snapshot until ctx is done.
func (ts *TransferStats) Run(ctx context.Context) error {
	ticker := time.NewTicker(ts.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			ts.update(time.Now())
		}
	}
}

func (ts *TransferStats) update(now time.Time) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if elapsed := now.Sub(ts.lastCheck).Seconds(); elapsed > 0 {
		in := ts.bytesIn.Swap(0)
		out := ts.bytesOut.Swap(0)
		ts.latest.UploadSpeedMBs = float64(in) / domain.MB / elapsed
		ts.latest.DownloadSpeedMBs = float64(out) / domain.MB / elapsed
	}
	ts.lastCheck = now

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	ts.latest.AllocMemMb = m.Alloc / domain.MB
	ts.latest.NumGC = m.NumGC

	ts.log.Debug("Transfer stats updated",
		"upload_mb_s", ts.latest.UploadSpeedMBs,
		"download_mb_s", ts.latest.DownloadSpeedMBs,
		"active", ts.active.Load(),
		"mem_mb", ts.latest.AllocMemMb,
	)
}

// GetLatest returns the last snapshot with up to date counters.
func (ts *TransferStats) GetLatest() Snapshot {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	snapshot := ts.latest
	snapshot.Active = ts.active.Load()
	snapshot.UploadsOK = ts.uploadsOK.Load()
	snapshot.UploadsFailed = ts.uploadsFailed.Load()
	snapshot.DownloadsOK = ts.downloadsOK.Load()
	snapshot.DownloadsFailed = ts.downloadsFailed.Load()
	snapshot.WorkerRestarts = ts.workerRestarts.Load()
	snapshot.LastRestart = ts.lastRestart
	snapshot.RecentTransfers = append([]RecentTransfer(nil), ts.recent...)
	return snapshot
}
