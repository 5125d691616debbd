package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"file-relay/domain"
	"file-relay/infrastructure/grpc/client"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"
)

type connectionFlags struct {
	addr      string
	chunkSize int
	timeout   time.Duration
	verbose   bool
}

func (c *connectionFlags) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.addr, "addr", "localhost:50051", "file server address")
	flagSet.IntVar(&c.chunkSize, "chunk-size", domain.DefaultChunkSize, "upload chunk size in bytes")
	flagSet.DurationVar(&c.timeout, "timeout", 0, "give up after this long (0 = never)")
	flagSet.BoolVarP(&c.verbose, "verbose", "v", false, "log every step")
}

func (c *connectionFlags) connect(ctx context.Context) (*client.FileClient, context.Context, func(), error) {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := logs.GetLoggerFromLevel(level)

	conn, err := client.Dial(c.addr, c.chunkSize)
	if err != nil {
		return nil, nil, nil, usageError{fmt.Errorf("invalid address %q: %w", c.addr, err)}
	}

	cancel := func() {}
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	return client.NewFileClient(logger, conn, c.chunkSize), ctx, func() {
		cancel()
		_ = conn.Close()
	}, nil
}

func runUpload(ctx context.Context, args []string, stdout io.Writer) error {
	var conn connectionFlags
	var fileName string
	flagSet := newFlagSet("upload", stdout)
	conn.addFlags(flagSet)
	flagSet.StringVar(&fileName, "file-name", "", "name to store the file under (default: base name of PATH)")
	if err := parse(flagSet, args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return usageError{errors.New("expected exactly one PATH")}
	}

	path := flagSet.Arg(0)
	if fileName == "" {
		fileName = filepath.Base(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fileClient, ctx, closeConn, err := conn.connect(ctx)
	if err != nil {
		return err
	}
	defer closeConn()

	start := time.Now()
	result, err := fileClient.Upload(ctx, domain.FileID(fileName), f)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, color.Green.Sprint(result.Outcome.Detail))
	renderSummary(stdout, [][]string{{
		fileName,
		strconv.FormatInt(result.Size, 10),
		time.Since(start).Round(time.Millisecond).String(),
		result.Digest,
	}}, "BLAKE3")
	return nil
}

func runDownload(ctx context.Context, args []string, stdout io.Writer) error {
	var conn connectionFlags
	var fileName, out string
	flagSet := newFlagSet("download", stdout)
	conn.addFlags(flagSet)
	flagSet.StringVar(&fileName, "file-name", "", "name of the stored file")
	flagSet.StringVarP(&out, "out", "o", "", "destination path, - for stdout (default: the file name)")
	if err := parse(flagSet, args); err != nil {
		return err
	}
	if fileName == "" {
		return usageError{errors.New("--file-name is required")}
	}
	if out == "" {
		out = filepath.Base(fileName)
	}

	fileClient, ctx, closeConn, err := conn.connect(ctx)
	if err != nil {
		return err
	}
	defer closeConn()

	start := time.Now()
	if out == "-" {
		_, err := fileClient.DownloadTo(ctx, domain.FileID(fileName), stdout)
		return err
	}

	written, err := downloadToFile(ctx, fileClient, domain.FileID(fileName), out)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, color.Green.Sprintf("Saved to %s", out))
	renderSummary(stdout, [][]string{{
		fileName,
		strconv.FormatInt(written, 10),
		time.Since(start).Round(time.Millisecond).String(),
		out,
	}}, "Destination")
	return nil
}

// downloadToFile writes next to the destination and renames on success, so
// a failed download never leaves a truncated file under the final name.
func downloadToFile(ctx context.Context, fileClient *client.FileClient, id domain.FileID, out string) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(out), "."+filepath.Base(out)+".*.part")
	if err != nil {
		return 0, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	written, err := fileClient.DownloadTo(ctx, id, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return written, err
	}
	return written, os.Rename(tmp.Name(), out)
}

func runList(ctx context.Context, args []string, stdout io.Writer) error {
	var conn connectionFlags
	flagSet := newFlagSet("list", stdout)
	conn.addFlags(flagSet)
	if err := parse(flagSet, args); err != nil {
		return err
	}

	fileClient, ctx, closeConn, err := conn.connect(ctx)
	if err != nil {
		return err
	}
	defer closeConn()

	names, err := fileClient.ListFiles(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(stdout, n)
	}
	return nil
}

func renderSummary(w io.Writer, rows [][]string, last string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Bytes", "Duration", last})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.AppendBulk(rows)
	table.Render()
}
