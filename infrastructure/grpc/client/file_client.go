package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"file-relay/domain"
	"file-relay/infrastructure/grpc/wire"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Dial opens a client connection that speaks the file service codec.
func Dial(target string, chunkSize int, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	limit := wire.MessageSizeLimit(chunkSize)
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.ForceCodec(wire.Codec{}),
			grpc.MaxCallRecvMsgSize(limit),
			grpc.MaxCallSendMsgSize(limit),
		),
	}, opts...)
	return grpc.NewClient(target, opts...)
}

// UploadResult is what the server reports for a completed upload.
type UploadResult struct {
	Outcome domain.Outcome
	Size    int64
	Digest  string
}

// FileClient drives upload and download sessions against a file service.
// Failures reported by the server come back as a domain.Outcome error.
type FileClient struct {
	log       *slog.Logger
	client    wire.FileServiceClient
	chunkSize int
}

func NewFileClient(log *slog.Logger, cc grpc.ClientConnInterface, chunkSize int) *FileClient {
	if chunkSize <= 0 {
		chunkSize = domain.DefaultChunkSize
	}
	return &FileClient{log: log, client: wire.NewFileServiceClient(cc), chunkSize: chunkSize}
}

func (c *FileClient) ChunkSize() int {
	return c.chunkSize
}

// Upload streams r under the given id, chunkSize bytes at a time. Only the
// first chunk carries the id. An empty reader sends no chunk at all and the
// server rejects it with INVALID_ARGUMENT.
// A read error on r cancels the call; the server keeps what it received.
func (c *FileClient) Upload(ctx context.Context, id domain.FileID, r io.Reader) (UploadResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.client.UploadFile(ctx)
	if err != nil {
		return UploadResult{}, c.failure(domain.OpUpload, id, err)
	}

	buf := make([]byte, c.chunkSize)
	sent := 0
	for {
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			chunk := domain.Chunk{Payload: buf[:n]}
			if sent == 0 {
				chunk.FileID = id
			}
			if err := stream.Send(wire.EncodeUploadChunk(chunk)); err != nil {
				if errors.Is(err, io.EOF) {
					// The server ended the call early, its status comes with CloseAndRecv.
					break
				}
				return UploadResult{}, c.failure(domain.OpUpload, id, err)
			}
			sent++
		}
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			break
		}
		if readErr != nil {
			c.log.Warn("Upload source failed, cancelling", "file_id", id, "chunks", sent, "error", readErr)
			return UploadResult{}, fmt.Errorf("read upload source for %s: %w", id, readErr)
		}
	}

	resp, err := stream.CloseAndRecv()
	if err != nil {
		return UploadResult{}, c.failure(domain.OpUpload, id, err)
	}
	c.log.Debug("Upload acknowledged", "file_id", id, "chunks", sent, "size", resp.Size)
	return UploadResult{
		Outcome: domain.Outcome{Code: domain.CodeOK, Detail: resp.GetMessage()},
		Size:    resp.Size,
		Digest:  resp.Digest,
	}, nil
}

// DownloadStream yields the chunks of one download call.
type DownloadStream struct {
	client  *FileClient
	id      domain.FileID
	stream  grpc.ServerStreamingClient[wire.FileDownloadResponse]
	cancel  context.CancelFunc
	pending *wire.FileDownloadResponse
	done    bool
}

// Download opens the call and waits for its first frame, so that a failed
// pre-check (file not found, file is empty) is returned here rather than
// from the first Next.
func (c *FileClient) Download(ctx context.Context, id domain.FileID) (*DownloadStream, error) {
	ctx, cancel := context.WithCancel(ctx)

	stream, err := c.client.DownloadFile(ctx, &wire.FileDownloadRequest{FileName: string(id)})
	if err != nil {
		cancel()
		return nil, c.failure(domain.OpDownload, id, err)
	}

	first, err := stream.Recv()
	switch {
	case errors.Is(err, io.EOF):
		return &DownloadStream{client: c, id: id, stream: stream, cancel: cancel, done: true}, nil
	case err != nil:
		cancel()
		return nil, c.failure(domain.OpDownload, id, err)
	}
	return &DownloadStream{client: c, id: id, stream: stream, cancel: cancel, pending: first}, nil
}

// Next returns the following chunk payload, or io.EOF once the server has
// ended the stream with OK.
func (d *DownloadStream) Next() ([]byte, error) {
	if d.pending != nil {
		msg := d.pending
		d.pending = nil
		return msg.GetChunkData(), nil
	}
	if d.done {
		return nil, io.EOF
	}

	msg, err := d.stream.Recv()
	if errors.Is(err, io.EOF) {
		d.done = true
		return nil, io.EOF
	}
	if err != nil {
		d.done = true
		return nil, d.client.failure(domain.OpDownload, d.id, err)
	}
	return msg.GetChunkData(), nil
}

// Close abandons the call if it is still running.
func (d *DownloadStream) Close() {
	d.done = true
	d.cancel()
}

// DownloadTo copies the whole file into w and returns the number of bytes written.
func (c *FileClient) DownloadTo(ctx context.Context, id domain.FileID, w io.Writer) (int64, error) {
	stream, err := c.Download(ctx, id)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	var written int64
	for {
		payload, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, err
		}
		n, err := w.Write(payload)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write %s: %w", id, err)
		}
	}
}

// ListFiles calls GetFilesList, which the server does not offer.
func (c *FileClient) ListFiles(ctx context.Context) ([]string, error) {
	resp, err := c.client.GetFilesList(ctx, &wire.Empty{})
	if err != nil {
		return nil, c.failure(domain.OpList, "", err)
	}
	return resp.FileNames, nil
}

// failure turns a call error into the outcome handed to callers. The cause
// of an internal outcome is only logged.
func (c *FileClient) failure(op domain.Operation, id domain.FileID, err error) domain.Outcome {
	outcome := wire.OutcomeFromError(op, err)
	if outcome.Code == domain.CodeInternal {
		c.log.Warn("File service call failed", "operation", op, "file_id", id, "error", err)
	}
	return outcome
}
