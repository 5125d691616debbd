package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"file-relay/domain"
	errs "file-relay/errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const (
	MetaPrefix  = "meta:"
	ChunkPrefix = "chunk:"
	metaSize    = 16
)

// BadgerStore keeps every written slice of a file as its own key so that
// neither side ever loads a full file in memory.
//
//	meta:<id>              -> size (8 bytes) | chunk count (8 bytes)
//	chunk:<id>\x00<seq>    -> payload
//
// File ids never contain NUL, which keeps the chunk prefixes of two ids apart.
type BadgerStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBadgerStore(db *badger.DB, log *slog.Logger) *BadgerStore {
	return &BadgerStore{db: db, log: log}
}

// FileMeta is the stored description of a file.
type FileMeta struct {
	FileID domain.FileID
	Size   int64
	Chunks uint64
}

func MetaKey(id domain.FileID) []byte {
	return []byte(MetaPrefix + string(id))
}

func ChunkKeyPrefix(id domain.FileID) []byte {
	return []byte(ChunkPrefix + string(id) + "\x00")
}

func chunkKey(id domain.FileID, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(ChunkKeyPrefix(id), seq)
}

func encodeMeta(size int64, chunks uint64) []byte {
	b := make([]byte, 0, metaSize)
	b = binary.BigEndian.AppendUint64(b, uint64(size))
	return binary.BigEndian.AppendUint64(b, chunks)
}

// DecodeMeta parses a meta:<id> value.
func DecodeMeta(key, val []byte) (FileMeta, error) {
	if len(val) != metaSize || !bytes.HasPrefix(key, []byte(MetaPrefix)) {
		return FileMeta{}, fmt.Errorf("malformed meta entry %q", key)
	}
	return FileMeta{
		FileID: domain.FileID(bytes.TrimPrefix(key, []byte(MetaPrefix))),
		Size:   int64(binary.BigEndian.Uint64(val[:8])),
		Chunks: binary.BigEndian.Uint64(val[8:]),
	}, nil
}

func (s *BadgerStore) Stat(_ context.Context, id domain.FileID) (int64, error) {
	meta, err := s.meta(id)
	if err != nil {
		return 0, err
	}
	return meta.Size, nil
}

// Create drops the previous chunks of id and registers an empty file.
func (s *BadgerStore) Create(_ context.Context, id domain.FileID) (io.WriteCloser, error) {
	if err := domain.ValidateFileID(id); err != nil {
		return nil, err
	}
	if err := s.dropChunks(id); err != nil {
		return nil, fmt.Errorf("%w: truncate %s: %w", errs.ErrIOFailure, id, err)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(MetaKey(id), encodeMeta(0, 0))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", errs.ErrIOFailure, id, err)
	}
	return &badgerWriter{db: s.db, id: id}, nil
}

func (s *BadgerStore) Open(_ context.Context, id domain.FileID) (io.ReadCloser, error) {
	meta, err := s.meta(id)
	if err != nil {
		return nil, err
	}
	return &badgerReader{db: s.db, id: id, chunks: meta.Chunks}, nil
}

// List returns the meta of every stored file in key order.
func (s *BadgerStore) List() ([]FileMeta, error) {
	var metas []FileMeta
	prefix := []byte(MetaPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				meta, err := DecodeMeta(item.Key(), v)
				if err != nil {
					return err
				}
				metas = append(metas, meta)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error during meta scan: %w", err)
	}
	return metas, nil
}

func (s *BadgerStore) meta(id domain.FileID) (FileMeta, error) {
	if err := domain.ValidateFileID(id); err != nil {
		return FileMeta{}, err
	}
	var meta FileMeta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(MetaKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			meta, err = DecodeMeta(item.Key(), v)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return FileMeta{}, fmt.Errorf("%w: %s", errs.ErrNotFound, id)
	}
	if err != nil {
		return FileMeta{}, fmt.Errorf("%w: stat %s: %w", errs.ErrIOFailure, id, err)
	}
	return meta, nil
}

// dropChunks deletes the chunks of id through a write batch, which splits
// the deletes over as many transactions as needed.
func (s *BadgerStore) dropChunks(id domain.FileID) error {
	prefix := ChunkKeyPrefix(id)
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil || len(keys) == 0 {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}
	s.log.Debug("Dropped previous chunks", "file_id", id, "chunks", len(keys))
	return wb.Flush()
}

type badgerWriter struct {
	db     *badger.DB
	id     domain.FileID
	seq    uint64
	size   int64
	closed bool
}

// Write stores p as the next chunk and moves the meta forward in the same
// transaction, so a reader never sees a chunk count it cannot serve.
func (w *badgerWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write %s: %w", w.id, io.ErrClosedPipe)
	}
	if len(p) == 0 {
		return 0, nil
	}
	err := w.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(chunkKey(w.id, w.seq), p); err != nil {
			return err
		}
		return txn.Set(MetaKey(w.id), encodeMeta(w.size+int64(len(p)), w.seq+1))
	})
	if err != nil {
		return 0, err
	}
	w.seq++
	w.size += int64(len(p))
	return len(p), nil
}

func (w *badgerWriter) Close() error {
	w.closed = true
	return nil
}

type badgerReader struct {
	db     *badger.DB
	id     domain.FileID
	chunks uint64
	next   uint64
	buf    []byte
	closed bool
}

func (r *badgerReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, fmt.Errorf("read %s: %w", r.id, io.ErrClosedPipe)
	}
	for len(r.buf) == 0 {
		if r.next >= r.chunks {
			return 0, io.EOF
		}
		if err := r.load(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *badgerReader) load() error {
	return r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(r.id, r.next))
		if err != nil {
			return fmt.Errorf("chunk %d of %s: %w", r.next, r.id, err)
		}
		r.buf, err = item.ValueCopy(r.buf[:0])
		if err != nil {
			return err
		}
		r.next++
		return nil
	})
}

func (r *badgerReader) Close() error {
	r.closed = true
	r.buf = nil
	return nil
}

// Entry describes one raw key of the store for inspection tools.
type Entry struct {
	Kind   string
	FileID domain.FileID
	Seq    uint64
	Size   int
	Detail string
}

// DescribeEntry decodes a raw key/value pair of the store layout.
func DescribeEntry(key, val []byte) Entry {
	switch {
	case bytes.HasPrefix(key, []byte(MetaPrefix)):
		meta, err := DecodeMeta(key, val)
		if err != nil {
			return Entry{Kind: "META", Size: len(val), Detail: err.Error()}
		}
		return Entry{
			Kind:   "META",
			FileID: meta.FileID,
			Size:   len(val),
			Detail: fmt.Sprintf("size=%d chunks=%d", meta.Size, meta.Chunks),
		}
	case bytes.HasPrefix(key, []byte(ChunkPrefix)):
		rest := bytes.TrimPrefix(key, []byte(ChunkPrefix))
		sep := bytes.IndexByte(rest, 0)
		if sep < 0 || len(rest)-sep-1 != 8 {
			return Entry{Kind: "CHUNK", Size: len(val), Detail: "malformed chunk key"}
		}
		seq := binary.BigEndian.Uint64(rest[sep+1:])
		return Entry{
			Kind:   "CHUNK",
			FileID: domain.FileID(rest[:sep]),
			Seq:    seq,
			Size:   len(val),
			Detail: fmt.Sprintf("seq=%d %d bytes", seq, len(val)),
		}
	default:
		return Entry{Kind: "RAW", Size: len(val), Detail: fmt.Sprintf("%d bytes", len(val))}
	}
}
