package services

import (
	"context"
	"encoding/hex"
	"errors"
	"file-relay/domain"
	errs "file-relay/errors"
	"file-relay/infrastructure/storage"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/zeebo/blake3"
)

// ChunkSource is the inbound side of an upload call.
// Recv returns io.EOF once the peer has sent its last chunk.
type ChunkSource interface {
	Recv() (domain.Chunk, error)
}

// TransferObserver is told about the progress of every session.
// TransferFinished is called exactly once per TransferStarted.
type TransferObserver interface {
	TransferStarted(op domain.Operation)
	BytesMoved(op domain.Operation, n int)
	TransferFinished(op domain.Operation, id domain.FileID, bytes int64, err error)
}

type noopObserver struct{}

func (noopObserver) TransferStarted(domain.Operation) {}
func (noopObserver) BytesMoved(domain.Operation, int) {}
func (noopObserver) TransferFinished(domain.Operation, domain.FileID, int64, error) {}

var errDownloadIncomplete = errors.New("download stopped before the end of the file")

// TransferService runs upload and download sessions against a file store.
// Sessions share nothing but the store namespace.
type TransferService struct {
	log        *slog.Logger
	store      storage.IFileStore
	locker     storage.IFileLocker
	observer   TransferObserver
	chunkSize  int
	bufferPool *sync.Pool
}

func NewTransferService(
	log *slog.Logger,
	store storage.IFileStore,
	locker storage.IFileLocker,
	chunkSize int,
) *TransferService {
	if chunkSize <= 0 {
		chunkSize = domain.DefaultChunkSize
	}
	if locker == nil {
		locker = storage.NoopLocker{}
	}
	return &TransferService{
		log:       log,
		store:     store,
		locker:    locker,
		observer:  noopObserver{},
		chunkSize: chunkSize,
		bufferPool: &sync.Pool{
			New: func() any {
				b := make([]byte, chunkSize)
				return &b
			},
		},
	}
}

// WithObserver reports every session to o.
func (s *TransferService) WithObserver(o TransferObserver) *TransferService {
	if o != nil {
		s.observer = o
	}
	return s
}

func (s *TransferService) ChunkSize() int {
	return s.chunkSize
}

type uploadState int

const (
	awaitingFirstChunk uploadState = iota
	writing
	completed
	failed
)

// uploadSession owns the sink of one upload call.
type uploadSession struct {
	state        uploadState
	fileID       domain.FileID
	sink         io.WriteCloser
	unlock       func()
	hasher       *blake3.Hasher
	bytesWritten int64
	chunks       int
	mimeType     string
}

// Upload consumes chunks in arrival order and appends them to the file named
// by the first one. At most one chunk is held in memory.
// A failed upload leaves whatever was written in place.
func (s *TransferService) Upload(ctx context.Context, source ChunkSource) (summary domain.UploadSummary, err error) {
	session := &uploadSession{state: awaitingFirstChunk}
	s.observer.TransferStarted(domain.OpUpload)
	defer func() {
		s.observer.TransferFinished(domain.OpUpload, session.fileID, session.bytesWritten, err)
	}()
	defer s.release(session)

	for {
		chunk, err := source.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			session.state = failed
			return domain.UploadSummary{}, fmt.Errorf("receive chunk %d: %w", session.chunks, err)
		}
		if err := s.accept(ctx, session, chunk); err != nil {
			session.state = failed
			return domain.UploadSummary{}, err
		}
	}

	return s.complete(session)
}

func (s *TransferService) accept(ctx context.Context, session *uploadSession, chunk domain.Chunk) error {
	switch session.state {
	case awaitingFirstChunk:
		if err := s.open(ctx, session, chunk.FileID); err != nil {
			return err
		}
		session.state = writing
	case writing:
		if chunk.HasFileID() && chunk.FileID != session.fileID {
			s.log.Debug("Ignoring file name on a following chunk",
				"file_id", session.fileID, "received", chunk.FileID, "chunk", session.chunks)
		}
	default:
		return fmt.Errorf("upload of %s already terminated", session.fileID)
	}

	if _, err := session.sink.Write(chunk.Payload); err != nil {
		return fmt.Errorf("%w: write %s: %w", errs.ErrIOFailure, session.fileID, err)
	}
	_, _ = session.hasher.Write(chunk.Payload)
	if session.mimeType == "" && len(chunk.Payload) > 0 {
		session.mimeType = mimetype.Detect(chunk.Payload).String()
	}
	session.bytesWritten += int64(len(chunk.Payload))
	session.chunks++
	s.observer.BytesMoved(domain.OpUpload, len(chunk.Payload))
	return nil
}

func (s *TransferService) open(ctx context.Context, session *uploadSession, id domain.FileID) error {
	if err := domain.ValidateFileID(id); err != nil {
		return err
	}
	session.fileID = id
	unlock, err := s.locker.LockWrite(ctx, id)
	if err != nil {
		return err
	}
	session.unlock = unlock

	sink, err := s.store.Create(ctx, id)
	if err != nil {
		return err
	}
	session.sink = sink
	session.hasher = blake3.New()
	s.log.Debug("Upload started", "file_id", id)
	return nil
}

func (s *TransferService) complete(session *uploadSession) (domain.UploadSummary, error) {
	if session.state == awaitingFirstChunk {
		session.state = failed
		return domain.UploadSummary{}, errs.ErrNoDataProvided
	}

	sink := session.sink
	session.sink = nil
	if err := sink.Close(); err != nil {
		session.state = failed
		return domain.UploadSummary{}, fmt.Errorf("%w: close %s: %w", errs.ErrIOFailure, session.fileID, err)
	}
	session.state = completed

	summary := domain.UploadSummary{
		FileID:       session.fileID,
		BytesWritten: session.bytesWritten,
		Chunks:       session.chunks,
		Digest:       hex.EncodeToString(session.hasher.Sum(nil)),
		MimeType:     session.mimeType,
	}
	s.log.Info("File uploaded",
		"file_id", summary.FileID,
		"bytes", summary.BytesWritten,
		"chunks", summary.Chunks,
		"blake3", summary.Digest,
		"mime_type", summary.MimeType,
	)
	return summary, nil
}

// release closes the sink on every exit path that did not complete.
func (s *TransferService) release(session *uploadSession) {
	if session.sink != nil {
		if err := session.sink.Close(); err != nil {
			s.log.Warn("Failed to close partial upload", "file_id", session.fileID, "error", err)
		}
		session.sink = nil
		s.log.Warn("Upload aborted, partial file kept",
			"file_id", session.fileID, "bytes", session.bytesWritten, "chunks", session.chunks)
	}
	if session.unlock != nil {
		session.unlock()
		session.unlock = nil
	}
}

// DownloadSession is a lazy, forward-only sequence of chunks read from the
// store. It must be closed on every path.
type DownloadSession struct {
	log       *slog.Logger
	observer  TransferObserver
	ctx       context.Context
	fileID    domain.FileID
	size      int64
	source    io.ReadCloser
	unlock    func()
	pool      *sync.Pool
	bufPtr    *[]byte
	buf       []byte
	exhausted bool
	closed    bool
	failure   error
	chunks    int
	bytesRead int64
}

// Download runs the pre-checks of a download and opens the source.
// The checks happen before any chunk exists: an absent file fails with
// errors.ErrNotFound, a zero byte file with errors.ErrEmptyFile.
func (s *TransferService) Download(ctx context.Context, id domain.FileID) (*DownloadSession, error) {
	s.observer.TransferStarted(domain.OpDownload)
	session, err := s.openDownload(ctx, id)
	if err != nil {
		s.observer.TransferFinished(domain.OpDownload, id, 0, err)
		return nil, err
	}
	return session, nil
}

func (s *TransferService) openDownload(ctx context.Context, id domain.FileID) (*DownloadSession, error) {
	if err := domain.ValidateFileID(id); err != nil {
		return nil, err
	}
	unlock, err := s.locker.LockRead(ctx, id)
	if err != nil {
		return nil, err
	}

	size, err := s.store.Stat(ctx, id)
	if err != nil {
		unlock()
		return nil, err
	}
	if size == 0 {
		unlock()
		return nil, fmt.Errorf("%w: %s", errs.ErrEmptyFile, id)
	}

	source, err := s.store.Open(ctx, id)
	if err != nil {
		unlock()
		return nil, err
	}

	bufPtr := s.bufferPool.Get().(*[]byte)
	s.log.Debug("Download started", "file_id", id, "size", size)
	return &DownloadSession{
		log:      s.log,
		observer: s.observer,
		ctx:      ctx,
		fileID:   id,
		size:     size,
		source:   source,
		unlock:   unlock,
		pool:     s.bufferPool,
		bufPtr:   bufPtr,
		buf:      *bufPtr,
	}, nil
}

func (d *DownloadSession) FileID() domain.FileID {
	return d.fileID
}

func (d *DownloadSession) Size() int64 {
	return d.size
}

// Next returns the following chunk of at most the configured chunk size, or
// io.EOF once the file is exhausted. The payload is only valid until the
// next call.
func (d *DownloadSession) Next() (domain.Chunk, error) {
	if d.closed {
		return domain.Chunk{}, fmt.Errorf("download of %s: %w", d.fileID, io.ErrClosedPipe)
	}
	if d.exhausted {
		return domain.Chunk{}, io.EOF
	}
	if err := d.ctx.Err(); err != nil {
		d.failure = err
		return domain.Chunk{}, err
	}

	n, err := io.ReadFull(d.source, d.buf)
	switch {
	case err == nil:
	case errors.Is(err, io.ErrUnexpectedEOF):
		d.exhausted = true
	case errors.Is(err, io.EOF):
		d.exhausted = true
		return domain.Chunk{}, io.EOF
	default:
		d.failure = fmt.Errorf("%w: read %s after %d bytes: %w", errs.ErrIOFailure, d.fileID, d.bytesRead, err)
		return domain.Chunk{}, d.failure
	}

	d.chunks++
	d.bytesRead += int64(n)
	d.observer.BytesMoved(domain.OpDownload, n)
	return domain.Chunk{Payload: d.buf[:n]}, nil
}

// Close releases the source. Bytes already handed out are not retracted.
func (d *DownloadSession) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	err := d.source.Close()
	d.pool.Put(d.bufPtr)
	d.buf = nil
	d.unlock()

	if d.exhausted {
		d.log.Info("File sent", "file_id", d.fileID, "bytes", d.bytesRead, "chunks", d.chunks)
		d.observer.TransferFinished(domain.OpDownload, d.fileID, d.bytesRead, nil)
		return err
	}

	d.log.Warn("Download stopped before the end of the file",
		"file_id", d.fileID, "bytes", d.bytesRead, "size", d.size)
	failure := d.failure
	if failure == nil {
		failure = errDownloadIncomplete
	}
	d.observer.TransferFinished(domain.OpDownload, d.fileID, d.bytesRead, failure)
	return err
}

// ListFiles is part of the service surface but not offered by this node.
func (s *TransferService) ListFiles(_ context.Context) ([]domain.FileID, error) {
	return nil, errs.ErrUnimplemented
}
