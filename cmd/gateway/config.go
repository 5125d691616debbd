package main

import "time"

type Config struct {
	Host              string        `env:"HOST,default=0.0.0.0"`
	Port              int           `env:"PORT,default=8000" validate:"gt=0,lte=65535"`
	GRPCServerAddress string        `env:"GRPC_SERVER_ADDRESS,default=localhost:50051" validate:"required"`
	ChunkSize         int           `env:"CHUNK_SIZE,default=1048576" validate:"gt=0"`
	MaxUploadBytes    int64         `env:"MAX_UPLOAD_BYTES,default=0" validate:"gte=0"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT,default=5s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=1s"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
}
