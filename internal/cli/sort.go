package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eunmann/linesort/internal/logctx"
	"github.com/eunmann/linesort/pkg/extsort"
	"github.com/eunmann/linesort/pkg/fileutil"
	"github.com/eunmann/linesort/pkg/humanfmt"
	"github.com/eunmann/linesort/pkg/membudget"
	"github.com/eunmann/linesort/pkg/memdiag"
	"github.com/eunmann/linesort/pkg/s3io"
)

// errSortFailed prefixes every failure after the input was found.
const errSortFailed = "sort failed: the file may be in wrong format or the output folder is not accessible"

type sortFlags struct {
	mem            string
	chunks         int
	subChunks      int
	codec          string
	tmp            string
	cleanupOnError bool
}

func (e *env) runSort(ctx context.Context, args []string) error {
	fs, lf := newFlagSet("sort")
	var sf sortFlags
	fs.StringVar(&sf.mem, "mem", "", "memory budget, e.g. 8GiB (default: "+membudget.EnvVar+" or available RAM)")
	fs.IntVar(&sf.chunks, "chunks", 0, "force the number of disk chunks")
	fs.IntVar(&sf.subChunks, "subchunks", 0, "force the number of in-memory sub-chunks per chunk")
	fs.StringVar(&sf.codec, "codec", extsort.CodecNone, "chunk file encoding: "+strings.Join(extsort.CodecNames(), "|"))
	fs.StringVar(&sf.tmp, "tmp", "", "directory for chunk files and staged S3 objects (default: output directory)")
	fs.BoolVar(&sf.cleanupOnError, "cleanup-on-error", false, "remove chunk files when the sort fails")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: linesort sort [options] <input> <output>")
	}
	lf.init()

	input, output := fs.Arg(0), fs.Arg(1)
	return e.sortFile(ctx, sf, input, output)
}

func (e *env) sortFile(ctx context.Context, sf sortFlags, input, output string) error {
	start := time.Now()
	log := logctx.FromContext(ctx)

	budget, err := membudget.Resolve(sf.mem)
	if err != nil {
		return err
	}
	log.Info().
		Uint64("memory_bytes", budget.Total()).
		Str("memory", humanfmt.BytesUint64(budget.Total())).
		Str("source", string(budget.Source())).
		Msg("memory budget")

	workDir := sf.tmp
	if workDir == "" {
		if s3io.IsURI(output) {
			workDir = os.TempDir()
		} else {
			workDir = filepath.Dir(output)
		}
	}

	var client *s3io.Client
	if s3io.IsURI(input) || s3io.IsURI(output) {
		if client, err = e.newS3(ctx); err != nil {
			return err
		}
	}

	localIn := input
	if s3io.IsURI(input) {
		if localIn, err = client.Stage(ctx, e.fs, input, workDir); err != nil {
			if errors.Is(err, s3io.ErrNoObject) {
				return fmt.Errorf("%s doesn't exist", input)
			}
			return fmt.Errorf("%s: %w", errSortFailed, err)
		}
		defer e.removeStaged(localIn)
	} else if !fileutil.Exists(e.fs, input) {
		return fmt.Errorf("%s doesn't exist", input)
	}

	localOut := output
	if s3io.IsURI(output) {
		_, key, perr := s3io.ParseURI(output)
		if perr == nil && key == "" {
			perr = s3io.ErrMissingKey
		}
		if perr != nil {
			return fmt.Errorf("output %s: %w", output, perr)
		}
		localOut = filepath.Join(workDir, fmt.Sprintf("linesort-%d-%s", os.Getpid(), filepath.Base(key)))
		defer e.removeStaged(localOut)
	}

	tracker := memdiag.NewTracker(memdiag.ConfigFromEnv())
	tracker.Start()
	defer tracker.Stop()

	cfg := extsort.DefaultConfig()
	cfg.Memory = budget.Probe
	cfg.Codec = sf.codec
	cfg.ChunkDir = sf.tmp
	cfg.CleanupOnError = sf.cleanupOnError
	cfg.Planner.ForceChunkCount = sf.chunks
	cfg.Planner.ForceSubChunks = sf.subChunks
	cfg.MemTracker = tracker

	sorter, err := extsort.New(e.fs, cfg)
	if err != nil {
		return err
	}

	res, err := sorter.Sort(ctx, localIn, localOut)
	if err != nil {
		if errors.Is(err, extsort.ErrNoInput) {
			return fmt.Errorf("%s doesn't exist", input)
		}
		return fmt.Errorf("%s: %w", errSortFailed, err)
	}

	if s3io.IsURI(output) {
		if _, err := client.Publish(ctx, e.fs, localOut, output); err != nil {
			return fmt.Errorf("%s: %w", errSortFailed, err)
		}
	}

	elapsed := time.Since(start)
	log.Info().
		Str("input", input).
		Str("output", output).
		Int64("lines", res.Lines).
		Dur("elapsed", elapsed).
		Str("elapsed_h", humanfmt.Duration(elapsed)).
		Uint64("peak_heap", tracker.PeakHeap()).
		Msg("sorting finished")
	return nil
}

func (e *env) removeStaged(path string) {
	if err := e.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log := logctx.DefaultLogger()
		log.Warn().Err(err).Str("path", path).Msg("failed to remove staged file")
	}
}
