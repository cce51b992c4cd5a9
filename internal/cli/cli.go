// Package cli implements the command-line interface for linesort.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/eunmann/linesort/internal/logctx"
	"github.com/eunmann/linesort/pkg/logging"
	"github.com/eunmann/linesort/pkg/s3io"
)

const usage = `usage: linesort <command> [options]
commands:
  sort [options] <input> <output>      sort a "Number. String" file
  verify [--against INPUT] <file>      check that a file is sorted
  generate [--seed N] <file> <size>    write a synthetic test file`

// env is what the commands touch outside their arguments.
type env struct {
	fs     afero.Fs
	stdout io.Writer
	newS3  func(ctx context.Context) (*s3io.Client, error)
}

func defaultEnv() *env {
	return &env{
		fs:     afero.NewOsFs(),
		stdout: os.Stdout,
		newS3: func(ctx context.Context) (*s3io.Client, error) {
			return s3io.NewClient(ctx, s3io.DefaultTransferConfig())
		},
	}
}

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return defaultEnv().run(ctx, args)
}

func (e *env) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "sort":
		return e.runSort(ctx, args[1:])
	case "verify":
		return e.runVerify(ctx, args[1:])
	case "generate":
		return e.runGenerate(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprintln(e.stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
}

// newFlagSet returns a FlagSet that reports errors instead of exiting and
// carries the logging flags shared by every command.
func newFlagSet(name string) (*pflag.FlagSet, *logFlags) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	lf := &logFlags{}
	fs.BoolVar(&lf.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&lf.human, "human", false, "human-readable console logs")
	return fs, lf
}

type logFlags struct {
	debug bool
	human bool
}

func (lf *logFlags) init() {
	logging.Init(lf.debug, lf.human)
	logctx.SetDefaultLogger(*logging.L())
}
