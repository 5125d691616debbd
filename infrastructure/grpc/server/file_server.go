package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	"file-relay/domain"
	"file-relay/infrastructure/grpc/wire"
	"file-relay/services"

	"google.golang.org/grpc"
)

// FileServer exposes the transfer service over gRPC.
// Every terminal condition is reported through domain.Resolve so that the
// gateway and the CLI see the same code and detail.
type FileServer struct {
	wire.UnimplementedFileServiceServer
	log     *slog.Logger
	service *services.TransferService
}

func NewFileServer(log *slog.Logger, service *services.TransferService) *FileServer {
	return &FileServer{log: log, service: service}
}

// uploadSource adapts the inbound gRPC stream to services.ChunkSource.
type uploadSource struct {
	stream grpc.ClientStreamingServer[wire.FileUploadRequest, wire.FileUploadResponse]
}

func (u uploadSource) Recv() (domain.Chunk, error) {
	req, err := u.stream.Recv()
	if err != nil {
		return domain.Chunk{}, err
	}
	return wire.DecodeUploadChunk(req), nil
}

// UploadFile stores the client stream and answers once, after the last chunk.
func (s *FileServer) UploadFile(stream grpc.ClientStreamingServer[wire.FileUploadRequest, wire.FileUploadResponse]) error {
	summary, err := s.service.Upload(stream.Context(), uploadSource{stream: stream})
	outcome := domain.Resolve(domain.OpUpload, err)
	if !outcome.OK() {
		s.log.Warn("Upload rejected", "file_id", summary.FileID, "code", outcome.Code, "detail", outcome.Detail, "error", err)
		return wire.StatusError(outcome)
	}

	return stream.SendAndClose(&wire.FileUploadResponse{
		Message: outcome.Detail,
		Size:    summary.BytesWritten,
		Digest:  summary.Digest,
	})
}

// DownloadFile streams the file in chunks of the configured size.
// Pre-check failures are reported before the first chunk. A failure after
// that ends a stream whose chunks the client has already received.
func (s *FileServer) DownloadFile(req *wire.FileDownloadRequest, stream grpc.ServerStreamingServer[wire.FileDownloadResponse]) error {
	id := domain.FileID(req.GetFileName())
	session, err := s.service.Download(stream.Context(), id)
	if err != nil {
		return s.fail(id, err)
	}
	defer func() { _ = session.Close() }()

	for {
		chunk, err := session.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return s.fail(id, err)
		}
		// The session reuses its buffer on the next read, and a sent message
		// must not change afterwards.
		chunk.Payload = bytes.Clone(chunk.Payload)
		if err := stream.Send(wire.EncodeDownloadChunk(chunk)); err != nil {
			// The peer is gone, there is nobody left to report to.
			s.log.Debug("Download stream send failed", "file_id", id, "error", err)
			return err
		}
	}
}

func (s *FileServer) fail(id domain.FileID, err error) error {
	outcome := domain.Resolve(domain.OpDownload, err)
	s.log.Warn("Download failed", "file_id", id, "code", outcome.Code, "detail", outcome.Detail, "error", err)
	return wire.StatusError(outcome)
}

// GetFilesList is declared by the service but never implemented.
func (s *FileServer) GetFilesList(ctx context.Context, _ *wire.Empty) (*wire.FileListResponse, error) {
	names, err := s.service.ListFiles(ctx)
	if err != nil {
		return nil, wire.StatusError(domain.Resolve(domain.OpList, err))
	}
	out := &wire.FileListResponse{FileNames: make([]string, 0, len(names))}
	for _, n := range names {
		out.FileNames = append(out.FileNames, string(n))
	}
	return out, nil
}
