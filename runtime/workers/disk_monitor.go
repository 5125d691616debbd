package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/disk"
)

// UsageFunc reads the usage of the filesystem holding path.
type UsageFunc func(path string) (*disk.UsageStat, error)

// DiskMonitorWorker periodically reports the usage of the filesystem that
// holds the storage root and warns once it crosses lowSpacePercent.
type DiskMonitorWorker struct {
	log             *slog.Logger
	path            string
	interval        time.Duration
	lowSpacePercent float64
	usage           UsageFunc
	low             bool
}

func NewDiskMonitorWorker(log *slog.Logger, path string, interval time.Duration, lowSpacePercent float64) *DiskMonitorWorker {
	return &DiskMonitorWorker{
		log:             log,
		path:            path,
		interval:        interval,
		lowSpacePercent: lowSpacePercent,
		usage:           disk.Usage,
	}
}

func (w *DiskMonitorWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.check()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping disk monitor")
			return nil
		case <-ticker.C:
			w.check()
		}
	}
}

// check logs the current usage. It returns true while space is low.
func (w *DiskMonitorWorker) check() bool {
	stat, err := w.usage(w.path)
	if err != nil {
		w.log.Error("Error while reading disk usage", "path", w.path, "err", err)
		return w.low
	}

	wasLow := w.low
	w.low = stat.UsedPercent >= w.lowSpacePercent
	switch {
	case w.low:
		w.log.Warn("Storage is running out of space",
			"path", w.path, "used_percent", stat.UsedPercent, "free_bytes", stat.Free, "threshold", w.lowSpacePercent)
	case wasLow:
		w.log.Info("Storage space is back to normal", "path", w.path, "used_percent", stat.UsedPercent)
	default:
		w.log.Debug("Storage usage", "path", w.path, "used_percent", stat.UsedPercent, "free_bytes", stat.Free)
	}
	return w.low
}
