package storage

import (
	"context"
	"file-relay/domain"
	errs "file-relay/errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// SetupTestDB initializes a temporary Badger instance for testing
func SetupTestDB(t *testing.T) (*badger.DB, func()) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)

	return db, func() {
		db.Close()
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// forEachBackend runs the same scenario against every IFileStore implementation.
func forEachBackend(t *testing.T, scenario func(t *testing.T, store IFileStore)) {
	t.Run("disk", func(t *testing.T) {
		store, err := NewDiskStore(t.TempDir(), discardLogger())
		require.NoError(t, err)
		scenario(t, store)
	})
	t.Run("badger", func(t *testing.T) {
		db, cleanup := SetupTestDB(t)
		defer cleanup()
		scenario(t, NewBadgerStore(db, discardLogger()))
	})
}

func writeAll(t *testing.T, store IFileStore, id domain.FileID, parts ...string) {
	w, err := store.Create(context.Background(), id)
	require.NoError(t, err)
	for _, p := range parts {
		_, err := w.Write([]byte(p))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func readAll(t *testing.T, store IFileStore, id domain.FileID) string {
	r, err := store.Open(context.Background(), id)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestFileStore_WriteThenRead(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store IFileStore) {
		req := require.New(t)
		writeAll(t, store, "a.txt", "hello ", "", "world")

		size, err := store.Stat(context.Background(), "a.txt")
		req.NoError(err)
		req.Equal(int64(11), size)
		req.Equal("hello world", readAll(t, store, "a.txt"))
	})
}

func TestFileStore_OverwriteReplacesContent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store IFileStore) {
		req := require.New(t)
		writeAll(t, store, "a.txt", "a much longer ", "first version")
		writeAll(t, store, "a.txt", "short")

		size, err := store.Stat(context.Background(), "a.txt")
		req.NoError(err)
		req.Equal(int64(5), size)
		req.Equal("short", readAll(t, store, "a.txt"))
	})
}

func TestFileStore_MissingFile(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store IFileStore) {
		req := require.New(t)

		_, err := store.Stat(context.Background(), "missing.bin")
		req.ErrorIs(err, errs.ErrNotFound)

		_, err = store.Open(context.Background(), "missing.bin")
		req.ErrorIs(err, errs.ErrNotFound)
	})
}

func TestFileStore_EmptyFileExists(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store IFileStore) {
		req := require.New(t)
		writeAll(t, store, "empty.bin")

		size, err := store.Stat(context.Background(), "empty.bin")
		req.NoError(err)
		req.Zero(size)
	})
}

func TestFileStore_RejectsInvalidIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store IFileStore) {
		req := require.New(t)

		_, err := store.Create(context.Background(), "../escape.txt")
		req.ErrorIs(err, errs.ErrInvalidFileID)

		_, err = store.Stat(context.Background(), "")
		req.ErrorIs(err, errs.ErrInvalidFileID)
	})
}

func TestFileStore_IDsSharingAPrefixStayApart(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store IFileStore) {
		req := require.New(t)
		writeAll(t, store, "a", "first")
		writeAll(t, store, "ab", "second")
		writeAll(t, store, "a", "third")

		req.Equal("third", readAll(t, store, "a"))
		req.Equal("second", readAll(t, store, "ab"))
	})
}

func TestDiskStore_DirectoryIsNotAFile(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	req.NoError(os.Mkdir(filepath.Join(root, "folder"), 0o755))

	store, err := NewDiskStore(root, discardLogger())
	req.NoError(err)

	_, err = store.Stat(context.Background(), "folder")
	req.ErrorIs(err, errs.ErrNotFound)
}

func TestBadgerStore_List(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	store := NewBadgerStore(db, discardLogger())
	writeAll(t, store, "b.bin", "12", "345")
	writeAll(t, store, "a.txt", "hello")

	metas, err := store.List()
	req.NoError(err)
	req.Equal([]FileMeta{
		{FileID: "a.txt", Size: 5, Chunks: 1},
		{FileID: "b.bin", Size: 5, Chunks: 2},
	}, metas)
}

func TestBadgerStore_PartialWriteStaysVisible(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	store := NewBadgerStore(db, discardLogger())
	w, err := store.Create(context.Background(), "partial.bin")
	req.NoError(err)
	_, err = w.Write([]byte("half"))
	req.NoError(err)

	// No Close: the upload died mid-stream.
	size, err := store.Stat(context.Background(), "partial.bin")
	req.NoError(err)
	req.Equal(int64(4), size)
}

func TestDescribeEntry(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	store := NewBadgerStore(db, discardLogger())
	writeAll(t, store, "a.txt", "hello ", "world")

	var entries []Entry
	req.NoError(db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			entries = append(entries, DescribeEntry(it.Item().KeyCopy(nil), val))
		}
		return nil
	}))

	req.Equal([]Entry{
		{Kind: "CHUNK", FileID: "a.txt", Seq: 0, Size: 6, Detail: "seq=0 6 bytes"},
		{Kind: "CHUNK", FileID: "a.txt", Seq: 1, Size: 5, Detail: "seq=1 5 bytes"},
		{Kind: "META", FileID: "a.txt", Size: 16, Detail: "size=11 chunks=2"},
	}, entries)

	req.Equal("RAW", DescribeEntry([]byte("other"), []byte("xyz")).Kind)
}
