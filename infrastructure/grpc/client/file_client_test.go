package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"

	"file-relay/domain"
	"file-relay/infrastructure/grpc/server"
	"file-relay/infrastructure/grpc/wire"
	"file-relay/infrastructure/storage"
	"file-relay/services"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient wires a FileClient to a real server over an in-memory listener.
func newTestClient(t *testing.T, serverChunkSize, clientChunkSize int) *FileClient {
	t.Helper()
	log := discardLogger()
	store, err := storage.NewDiskStore(t.TempDir(), log)
	require.NoError(t, err)

	service := services.NewTransferService(log, store, storage.NoopLocker{}, serverChunkSize)
	s, _ := server.New(log, server.NewFileServer(log, service))
	listener := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(listener) }()
	t.Cleanup(s.Stop)

	conn, err := Dial("passthrough:///bufnet", clientChunkSize,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewFileClient(log, conn, clientChunkSize)
}

func requireOutcome(t *testing.T, err error, code domain.Code, detail string) {
	t.Helper()
	var outcome domain.Outcome
	require.ErrorAs(t, err, &outcome)
	require.Equal(t, code, outcome.Code)
	require.Equal(t, detail, outcome.Detail)
}

func TestFileClient_UploadThenDownload(t *testing.T) {
	req := require.New(t)
	c := newTestClient(t, 4, 3)
	ctx := context.Background()

	result, err := c.Upload(ctx, "a.txt", strings.NewReader("hello world"))
	req.NoError(err)
	req.True(result.Outcome.OK())
	req.Equal("File uploaded successfully.", result.Outcome.Detail)
	req.Equal(int64(11), result.Size)

	stream, err := c.Download(ctx, "a.txt")
	req.NoError(err)
	defer stream.Close()

	var chunks []string
	for {
		payload, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		req.NoError(err)
		chunks = append(chunks, string(payload))
	}
	req.Equal([]string{"hell", "o wo", "rld"}, chunks)
}

func TestFileClient_DownloadTo(t *testing.T) {
	req := require.New(t)
	c := newTestClient(t, 1024, 700)
	data := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 2500)

	_, err := c.Upload(context.Background(), "blob.bin", bytes.NewReader(data))
	req.NoError(err)

	var out bytes.Buffer
	n, err := c.DownloadTo(context.Background(), "blob.bin", &out)
	req.NoError(err)
	req.Equal(int64(len(data)), n)
	req.Equal(data, out.Bytes())
}

func TestFileClient_Failures(t *testing.T) {
	c := newTestClient(t, 4, 4)
	ctx := context.Background()

	t.Run("empty reader", func(t *testing.T) {
		_, err := c.Upload(ctx, "nothing.txt", strings.NewReader(""))
		requireOutcome(t, err, domain.CodeInvalidArgument, "no file data provided")
	})

	t.Run("invalid file name", func(t *testing.T) {
		_, err := c.Upload(ctx, "../up.txt", strings.NewReader("data"))
		requireOutcome(t, err, domain.CodeInvalidArgument, "invalid file name")
	})

	t.Run("missing file is reported before any chunk", func(t *testing.T) {
		stream, err := c.Download(ctx, "missing.bin")
		require.Nil(t, stream)
		requireOutcome(t, err, domain.CodeNotFound, "file not found")
	})

	t.Run("list files", func(t *testing.T) {
		_, err := c.ListFiles(ctx)
		requireOutcome(t, err, domain.CodeUnimplemented, "method not implemented")
	})
}

type brokenReader struct{ sent bool }

func (b *brokenReader) Read(p []byte) (int, error) {
	if b.sent {
		return 0, errors.New("disk unplugged")
	}
	b.sent = true
	return copy(p, "abcd"), nil
}

func TestFileClient_UploadSourceFailure(t *testing.T) {
	req := require.New(t)
	c := newTestClient(t, 4, 4)

	_, err := c.Upload(context.Background(), "broken.txt", &brokenReader{})
	req.ErrorContains(err, "disk unplugged")

	var outcome domain.Outcome
	req.False(errors.As(err, &outcome), "local read errors are not server outcomes")
}

// recordingStream captures what the client sends on an upload call.
type recordingStream struct {
	grpc.ClientStreamingClient[wire.FileUploadRequest, wire.FileUploadResponse]
	sent []*wire.FileUploadRequest
}

func (r *recordingStream) Send(m *wire.FileUploadRequest) error {
	r.sent = append(r.sent, &wire.FileUploadRequest{FileName: m.FileName, ChunkData: bytes.Clone(m.ChunkData)})
	return nil
}

func (r *recordingStream) CloseAndRecv() (*wire.FileUploadResponse, error) {
	return &wire.FileUploadResponse{Message: domain.DetailUploaded}, nil
}

type recordingClient struct {
	wire.FileServiceClient
	stream *recordingStream
}

func (r *recordingClient) UploadFile(context.Context, ...grpc.CallOption) (grpc.ClientStreamingClient[wire.FileUploadRequest, wire.FileUploadResponse], error) {
	return r.stream, nil
}

func TestFileClient_OnlyFirstChunkCarriesFileName(t *testing.T) {
	req := require.New(t)
	stream := &recordingStream{}
	c := &FileClient{log: discardLogger(), client: &recordingClient{stream: stream}, chunkSize: 4}

	_, err := c.Upload(context.Background(), "a.txt", strings.NewReader("hello world"))
	req.NoError(err)

	req.Len(stream.sent, 3)
	req.Equal("a.txt", stream.sent[0].FileName)
	req.Equal("hell", string(stream.sent[0].ChunkData))
	for _, m := range stream.sent[1:] {
		req.Empty(m.FileName)
	}
	req.Equal("rld", string(stream.sent[2].ChunkData))
}
