package e2e

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"file-relay/infrastructure/grpc/client"
	"file-relay/infrastructure/grpc/wire"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// BaseGrpcSuite drives a running file server, and optionally its gateway,
// from the outside. It skips when FILE_SERVER_ADDR is unset.
type BaseGrpcSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("FILE_SERVER_ADDR is not set")
	}
}

func (s *BaseGrpcSuite) header(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// GrpcConn opens a connection whose streams are logged with their final status
func (s *BaseGrpcSuite) GrpcConn(t *testing.T, name string) *grpc.ClientConn {
	s.header(t, name)

	conn, err := client.Dial(s.Config.ServerAddr, s.Config.ChunkSize,
		grpc.WithStreamInterceptor(func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
			stream, err := streamer(ctx, desc, cc, method, opts...)
			if err != nil {
				t.Logf("GRPC %s [%s]", method, status.Code(err))
				return nil, err
			}
			return &loggedStream{ClientStream: stream, t: t, method: method, debug: s.Config.DebugFrames, start: time.Now()}, nil
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.ServerAddr)
	return conn
}

// WithFileClient provides a FileClient within a contextual test step
func (s *BaseGrpcSuite) WithFileClient(name string, fn func(ctx context.Context, fileClient *client.FileClient)) {
	conn := s.GrpcConn(s.T(), name)
	defer conn.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	fileClient := client.NewFileClient(log, conn, s.Config.ChunkSize)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fn(ctx, fileClient)
}

// WithRawClient provides the generated-style client for frame level checks
func (s *BaseGrpcSuite) WithRawClient(name string, fn func(ctx context.Context, raw wire.FileServiceClient)) {
	conn := s.GrpcConn(s.T(), name)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fn(ctx, wire.NewFileServiceClient(conn))
}

// WithGateway provides the gateway base URL and an HTTP client. The step is
// skipped when GATEWAY_URL is unset.
func (s *BaseGrpcSuite) WithGateway(name string, fn func(base string, httpClient *http.Client)) {
	if s.Config.GatewayURL == "" {
		s.T().Skip("GATEWAY_URL is not set")
	}
	s.header(s.T(), name)
	fn(strings.TrimSuffix(s.Config.GatewayURL, "/"), &http.Client{Timeout: 60 * time.Second})
}

type loggedStream struct {
	grpc.ClientStream
	t      *testing.T
	method string
	debug  bool
	start  time.Time
	sent   int
	recv   int
}

func (l *loggedStream) SendMsg(m any) error {
	l.sent++
	if l.debug {
		l.t.Logf("  -> %s frame %d: %s", l.method, l.sent, describe(m))
	}
	return l.ClientStream.SendMsg(m)
}

func (l *loggedStream) RecvMsg(m any) error {
	err := l.ClientStream.RecvMsg(m)
	if err != nil {
		code := status.Code(err)
		if err == io.EOF {
			code = 0
		}
		l.t.Logf("GRPC %s [%s] sent=%d recv=%d in %v", l.method, code, l.sent, l.recv, time.Since(l.start))
		return err
	}
	l.recv++
	if l.debug {
		l.t.Logf("  <- %s frame %d: %s", l.method, l.recv, describe(m))
	}
	return nil
}

func describe(m any) string {
	switch v := m.(type) {
	case *wire.FileUploadRequest:
		return fmt.Sprintf("file_name=%q %d bytes", v.GetFileName(), len(v.GetChunkData()))
	case *wire.FileDownloadResponse:
		return fmt.Sprintf("%d bytes", len(v.GetChunkData()))
	default:
		return fmt.Sprintf("%+v", v)
	}
}
