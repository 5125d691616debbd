package main

import (
	"time"

	"file-relay/infrastructure/storage"
)

type Config struct {
	Host                string          `env:"HOST,default=0.0.0.0"`
	Port                int             `env:"PORT,default=50051" validate:"gt=0,lte=65535"`
	StorageBackend      storage.Backend `env:"STORAGE_BACKEND,default=disk" validate:"oneof=disk badger"`
	StorageDir          string          `env:"STORAGE_DIR,default=./storage" validate:"required"`
	BadgerFilepath      string          `env:"BADGER_FILEPATH,default=./storage/badger"`
	ChunkSize           int             `env:"CHUNK_SIZE,default=1048576" validate:"gt=0"`
	SingleWriterPerFile bool            `env:"SINGLE_WRITER_PER_FILE,default=false"`
	DiskMonitorInterval time.Duration   `env:"DISK_MONITOR_INTERVAL,default=1m" validate:"gt=0"`
	DiskLowSpacePercent float64         `env:"DISK_LOW_SPACE_PERCENT,default=90" validate:"gt=0,lte=100"`
	StatsInterval       time.Duration   `env:"STATS_INTERVAL,default=5s" validate:"gt=0"`
	RestartInterval     time.Duration   `env:"RESTART_INTERVAL,default=1s"`
	DebugPort           int             `env:"DEBUG_PORT,default=8081" validate:"gte=0,lte=65535"`
	LogLevel            string          `env:"LOG_LEVEL,default=INFO"`
}
