package server

import (
	"log/slog"

	"file-relay/infrastructure/grpc/wire"

	sdkgrpc "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// New builds the gRPC server with the file service and the standard health
// service registered. The wire codec is forced so that both services share
// the "proto" content-subtype.
func New(log *slog.Logger, fileServer *FileServer, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append([]grpc.ServerOption{
		grpc.ForceServerCodec(wire.Codec{}),
		grpc.ChainUnaryInterceptor(sdkgrpc.UnaryLoggingInterceptor(log)),
		grpc.ChainStreamInterceptor(StreamLoggingInterceptor(log)),
	}, opts...)

	s := grpc.NewServer(opts...)
	wire.RegisterFileServiceServer(s, fileServer)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus(wire.FileService_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s, healthServer
}
