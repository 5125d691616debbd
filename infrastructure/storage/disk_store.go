package storage

import (
	"context"
	"errors"
	"file-relay/domain"
	errs "file-relay/errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// DiskStore keeps one regular file per id under a root directory.
type DiskStore struct {
	root string
	log  *slog.Logger
}

// NewDiskStore creates the root directory if needed.
func NewDiskStore(root string, log *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", root, err)
	}
	return &DiskStore{root: root, log: log}, nil
}

func (d *DiskStore) Root() string {
	return d.root
}

func (d *DiskStore) Stat(_ context.Context, id domain.FileID) (int64, error) {
	path, err := d.path(id)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%w: %s", errs.ErrNotFound, id)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: stat %s: %w", errs.ErrIOFailure, id, err)
	}
	if !info.Mode().IsRegular() {
		d.log.Debug("Storage entry is not a regular file", "file_id", id, "mode", info.Mode().String())
		return 0, fmt.Errorf("%w: %s is not a file", errs.ErrNotFound, id)
	}
	return info.Size(), nil
}

func (d *DiskStore) Create(_ context.Context, id domain.FileID) (io.WriteCloser, error) {
	path, err := d.path(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", errs.ErrIOFailure, id, err)
	}
	return f, nil
}

func (d *DiskStore) Open(_ context.Context, id domain.FileID) (io.ReadCloser, error) {
	path, err := d.path(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", errs.ErrIOFailure, id, err)
	}
	return f, nil
}

// path maps an id onto the root directory, refusing anything that would
// escape it.
func (d *DiskStore) path(id domain.FileID) (string, error) {
	if err := domain.ValidateFileID(id); err != nil {
		return "", err
	}
	return filepath.Join(d.root, string(id)), nil
}
