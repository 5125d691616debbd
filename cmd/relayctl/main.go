// relayctl talks to a file server from the command line and reads the
// contents of a BadgerDB store offline.
//
//	relayctl upload   --addr HOST:PORT [--file-name NAME] PATH
//	relayctl download --addr HOST:PORT --file-name NAME [--out PATH]
//	relayctl list     --addr HOST:PORT
//	relayctl inspect  --db DIR [--prefix meta:]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"
	"github.com/spf13/pflag"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitUsage   = 2
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string, stdout io.Writer) error
}

var commands = []command{
	{name: "upload", summary: "stream a local file to the server", run: runUpload},
	{name: "download", summary: "fetch a file from the server", run: runDownload},
	{name: "list", summary: "ask the server for its file list", run: runList},
	{name: "inspect", summary: "print the files held by a BadgerDB store", run: runInspect},
}

// usageError marks errors caused by the command line itself.
type usageError struct{ error }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stdout)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		err := cmd.run(ctx, args[1:], stdout)
		var usage usageError
		switch {
		case err == nil:
			return exitOK
		case errors.Is(err, pflag.ErrHelp):
			return exitOK
		case errors.As(err, &usage):
			fmt.Fprintln(stderr, color.Red.Sprintf("%s: %v", cmd.name, err))
			return exitUsage
		default:
			fmt.Fprintln(stderr, color.Red.Sprintf("%s: %v", cmd.name, err))
			return exitRuntime
		}
	}

	fmt.Fprintln(stderr, color.Red.Sprintf("unknown command %q", args[0]))
	printUsage(stderr)
	return exitUsage
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: relayctl <command> [flags]")
	fmt.Fprintln(w)
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.summary)
	}
}

func newFlagSet(name string, stdout io.Writer) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("relayctl "+name, pflag.ContinueOnError)
	flagSet.SetOutput(stdout)
	return flagSet
}

func parse(flagSet *pflag.FlagSet, args []string) error {
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return usageError{err}
	}
	return nil
}
