package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eunmann/linesort/internal/logctx"
	"github.com/eunmann/linesort/pkg/fileutil"
	"github.com/eunmann/linesort/pkg/humanfmt"
	"github.com/eunmann/linesort/pkg/linegen"
	"github.com/eunmann/linesort/pkg/logging"
)

func (e *env) runGenerate(ctx context.Context, args []string) error {
	fs, lf := newFlagSet("generate")
	seed := fs.Int64("seed", linegen.DefaultSeed, "random seed")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: linesort generate [--seed N] <file> <size>")
	}
	lf.init()

	path := fs.Arg(0)
	size, err := humanfmt.ParseBytes(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", fs.Arg(1), err)
	}

	cfg := linegen.DefaultConfig()
	cfg.Seed = *seed
	gen := linegen.New(cfg)

	start := time.Now()
	var lines int64
	err = fileutil.WriteTmpThenMove(e.fs, path, func(tmpPath string) error {
		f, err := e.fs.Create(tmpPath)
		if err != nil {
			return err
		}
		bw := bufio.NewWriterSize(f, 4*1024*1024)
		lines, err = gen.WriteSize(bw, int64(size))
		if err == nil {
			err = bw.Flush()
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("generate %s: %w", path, err)
	}

	logging.FileCreated(logctx.FromContext(ctx), "generate", time.Since(start)).
		Str("path", path).
		Count("lines", lines).
		Bytes("bytes", int64(size)).
		Throughput(int64(size)).
		Log("test file generated")
	return nil
}
