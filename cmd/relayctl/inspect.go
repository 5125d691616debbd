package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"file-relay/infrastructure/storage"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func runInspect(_ context.Context, args []string, stdout io.Writer) error {
	var dbPath, prefix string
	var raw bool
	flagSet := newFlagSet("inspect", stdout)
	flagSet.StringVar(&dbPath, "db", "", "path of the BadgerDB directory")
	flagSet.StringVar(&prefix, "prefix", storage.MetaPrefix, "raw key prefix to scan with --raw")
	flagSet.BoolVar(&raw, "raw", false, "list raw keys instead of files")
	if err := parse(flagSet, args); err != nil {
		return err
	}
	if dbPath == "" {
		return usageError{errors.New("--db is required")}
	}

	db, err := openDB(dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	if raw {
		table.SetHeader([]string{"Type", "File", "Bytes", "Detail"})
		err = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				if err := item.Value(func(v []byte) error {
					e := storage.DescribeEntry(item.Key(), v)
					table.Append([]string{e.Kind, string(e.FileID), strconv.Itoa(e.Size), e.Detail})
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		table.Render()
		return nil
	}

	metas, err := storage.NewBadgerStore(db, nil).List()
	if err != nil {
		return err
	}
	table.SetHeader([]string{"File", "Size", "Chunks"})
	table.AppendBulk(lo.Map(metas, func(m storage.FileMeta, _ int) []string {
		return []string{string(m.FileID), strconv.FormatInt(m.Size, 10), strconv.FormatUint(m.Chunks, 10)}
	}))
	table.Render()
	total := lo.SumBy(metas, func(m storage.FileMeta) int64 { return m.Size })
	fmt.Fprintf(stdout, "%d file(s), %d bytes\n", len(metas), total)
	return nil
}

// openDB opens the store read-only so that it can be inspected while the
// server holds it.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		return nil, fmt.Errorf("%w (stop the server or open the store once read-write to repair it)", err)
	}
	return db, err
}
