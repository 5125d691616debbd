package server

import (
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// StreamLoggingInterceptor logs one line per finished stream with its code
// and duration. Unary calls are logged by the sdk interceptor.
func StreamLoggingInterceptor(log *slog.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)

		st, _ := status.FromError(err)
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		log.Log(ss.Context(), level, "gRPC stream finished",
			"method", info.FullMethod,
			"code", st.Code().String(),
			"duration", time.Since(start),
		)
		return err
	}
}
