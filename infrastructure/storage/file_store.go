//go:generate go run go.uber.org/mock/mockgen -source=file_store.go -destination=../../mocks/mock_file_store.go -package=mocks
package storage

import (
	"context"
	"file-relay/domain"
	"io"
)

// IFileStore is the storage namespace shared by every transfer session.
// It provides no locking: concurrent writers of one id interleave freely,
// see IFileLocker.
type IFileStore interface {
	// Stat returns the size of a stored file, errors.ErrNotFound when absent.
	Stat(ctx context.Context, id domain.FileID) (int64, error)
	// Create truncates or creates the file and returns its sink.
	Create(ctx context.Context, id domain.FileID) (io.WriteCloser, error)
	// Open returns a source positioned at the start of the file.
	Open(ctx context.Context, id domain.FileID) (io.ReadCloser, error)
}

type Backend string

const (
	BackendDisk   Backend = "disk"
	BackendBadger Backend = "badger"
)
