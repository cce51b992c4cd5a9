package extsort

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/eunmann/linesort/internal/logctx"
	"github.com/eunmann/linesort/pkg/fileutil"
	"github.com/eunmann/linesort/pkg/linecmp"
	"github.com/eunmann/linesort/pkg/logging"
	"github.com/eunmann/linesort/pkg/sysmem"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Sorter runs external sorts on one filesystem with one configuration.
// A Sorter holds no per-run state and may be used for several sorts.
type Sorter struct {
	fs    afero.Fs
	cfg   Config
	codec Codec

	// Instrumentation for tests; nil otherwise.
	onChunkSort func(index int) (done func())
	onSubChunk  func(part int, linesRead int64)
}

// New creates a Sorter. A nil fsys means the OS filesystem.
func New(fsys afero.Fs, cfg Config) (*Sorter, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.Memory == nil {
		cfg.Memory = sysmem.AvailableProbe
	}
	codec, err := CodecByName(cfg.Codec)
	if err != nil {
		return nil, err
	}
	cfg.Codec = codec.Name()

	return &Sorter{fs: fsys, cfg: cfg, codec: codec}, nil
}

// run is the state of one Sort call.
type run struct {
	plan      Plan
	chunkDir  string
	chunks    []string
	lines     int64
	progress  *logging.ProgressTracker
	mergeStat MergeStats
}

// Sort writes the lines of inputPath to outputPath in linecmp order.
//
// Malformed input aborts the sort with a *linecmp.FormatError. On any
// failure outputPath is not created (or keeps its previous content);
// chunk files are left in place unless Config.CleanupOnError is set.
func (s *Sorter) Sort(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	start := time.Now()

	info, err := s.fs.Stat(inputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoInput, inputPath)
		}
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("input %s is a directory", inputPath)
	}

	st := &run{
		plan:     PlanChunks(info.Size(), s.cfg.Memory, s.cfg.Planner),
		chunkDir: s.cfg.ChunkDir,
	}
	if st.chunkDir == "" {
		st.chunkDir = filepath.Dir(outputPath)
	}

	ctx = logctx.WithStr(ctx, "input", inputPath)
	log := logctx.FromContext(ctx)
	log.Debug().
		Int64("input_bytes", info.Size()).
		Int("chunks", st.plan.ChunkCount).
		Int("sub_chunks", st.plan.SubChunks).
		Int64("chunk_bytes", st.plan.ChunkSize).
		Uint64("memory_bytes", st.plan.MemoryBytes).
		Bool("memory_reliable", st.plan.MemoryReliable).
		Str("codec", s.codec.Name()).
		Msg("starting sort")

	err = fileutil.WriteTmpThenMove(s.fs, outputPath, func(tmpPath string) error {
		return s.sortInto(ctx, st, inputPath, info.Size(), tmpPath)
	})
	if err != nil {
		if s.cfg.CleanupOnError && len(st.chunks) > 0 {
			if rmErr := fileutil.RemoveFiles(s.fs, st.chunks); rmErr != nil {
				log.Warn().Err(rmErr).Msg("failed to remove chunk files")
			}
		}
		return nil, err
	}
	// The output is committed; chunk files go only now.
	if err := fileutil.RemoveFiles(s.fs, st.chunks); err != nil {
		log.Warn().Err(err).Int("chunks", len(st.chunks)).Msg("failed to remove chunk files")
	}
	s.cfg.MemTracker.SetPhase("done")

	res := &Result{
		Plan:       st.plan,
		InputBytes: info.Size(),
		Lines:      st.lines,
		Chunks:     max(len(st.chunks), 1),
		Merge:      st.mergeStat,
		Duration:   time.Since(start),
	}
	logging.PhaseComplete(log, "sort", res.Duration).
		Str("output", outputPath).
		Int("chunks", res.Chunks).
		Count("lines", res.Lines).
		Bytes("input_bytes", res.InputBytes).
		Throughput(res.InputBytes).
		LogDebug("sort complete")
	return res, nil
}

// sortInto produces the sorted output at dst.
func (s *Sorter) sortInto(ctx context.Context, st *run, inputPath string, inputSize int64, dst string) error {
	if st.plan.ChunkCount == 1 {
		s.cfg.MemTracker.SetPhase("sort")
		res, err := s.sortChunk(ctx, chunkJob{
			index:     -1,
			src:       inputPath,
			dst:       dst,
			srcCodec:  plainCodec{},
			dstCodec:  plainCodec{},
			bytes:     inputSize,
			subChunks: st.plan.SubChunks,
			validate:  true,
		})
		st.lines = res.lines
		return err
	}

	if err := s.splitAndSort(ctx, st, inputPath); err != nil {
		return err
	}
	if len(st.chunks) == 0 {
		// Empty input: nothing to merge.
		return afero.WriteFile(s.fs, dst, nil, 0o644)
	}

	s.cfg.MemTracker.SetPhase("merge")
	stats, err := mergeChunks(ctx, s.fs, s.codec, st.chunks, dst, s.cfg.BufferSize)
	if err != nil {
		return fmt.Errorf("merge chunks: %w", err)
	}
	st.mergeStat = stats
	return nil
}

// splitAndSort streams the input into chunk files of about plan.ChunkSize
// bytes each. A full chunk is queued for sorting while the next one is
// written; the queue holds one sort, so scheduling chunk i+1 waits for
// chunk i. The final chunk is sorted after the queue drains.
func (s *Sorter) splitAndSort(ctx context.Context, st *run, inputPath string) error {
	log := logctx.FromContext(ctx)
	s.cfg.MemTracker.SetPhase("split")
	st.progress = logging.NewProgressTracker("sort_chunks", int64(st.plan.ChunkCount))

	r, err := openLineReader(s.fs, inputPath, plainCodec{}, s.cfg.BufferSize)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := s.fs.MkdirAll(st.chunkDir, 0o755); err != nil {
		return fmt.Errorf("create chunk dir: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(1)

	var w *lineWriter
	defer func() {
		if w != nil {
			w.abort()
		}
	}()

	// closeChunk finishes the current chunk file and returns its job.
	closeChunk := func() (chunkJob, error) {
		job := chunkJob{
			index:     len(st.chunks) - 1,
			src:       w.path,
			dst:       w.path,
			srcCodec:  s.codec,
			dstCodec:  s.codec,
			bytes:     w.bytes,
			subChunks: st.plan.SubChunks,
		}
		err := w.Close()
		w = nil
		return job, err
	}

	readErr := func() error {
		for {
			line, err := r.ReadLine()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			st.lines++
			if err := linecmp.CheckAt(line, st.lines); err != nil {
				return err
			}

			if w == nil {
				if err := gctx.Err(); err != nil {
					return err
				}
				path := chunkPath(st.chunkDir, len(st.chunks))
				if w, err = createLineWriter(s.fs, path, s.codec, s.cfg.BufferSize); err != nil {
					return err
				}
				st.chunks = append(st.chunks, path)
				logging.ChunkStarted(log, "split", len(st.chunks)-1, st.progress.Completed(), st.progress.Total())
			}
			if err := w.WriteLine(line); err != nil {
				return err
			}

			if w.bytes >= st.plan.ChunkSize {
				job, err := closeChunk()
				if err != nil {
					return err
				}
				// Blocks until the previous chunk's sort has returned.
				g.Go(func() error {
					return s.runChunkJob(gctx, st, job)
				})
			}
		}
	}()

	if readErr != nil {
		// Stop the queued sort and let it release its chunk file.
		cancel()
		_ = g.Wait()
		return readErr
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if w != nil {
		job, err := closeChunk()
		if err != nil {
			return err
		}
		if err := s.runChunkJob(ctx, st, job); err != nil {
			return err
		}
	}

	st.progress.SetTotal(int64(len(st.chunks)))
	logging.PhaseComplete(log, "split", st.progress.Elapsed()).
		Int("chunks", len(st.chunks)).
		Count("lines", st.lines).
		LogDebug("chunks written and sorted")
	return nil
}

// runChunkJob sorts one chunk file in place and records progress.
func (s *Sorter) runChunkJob(ctx context.Context, st *run, job chunkJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.onChunkSort != nil {
		defer s.onChunkSort(job.index)()
	}
	start := time.Now()
	ctx = logctx.WithInt(ctx, "chunk_index", job.index)

	res, err := s.sortChunk(ctx, job)
	if err != nil {
		return fmt.Errorf("sort chunk %d: %w", job.index, err)
	}

	elapsed := time.Since(start)
	st.progress.RecordCompletion(elapsed)
	s.cfg.MemTracker.LogChunk("chunk_sorted", uint64(job.bytes), st.plan.MemoryBytes)
	logging.ChunkComplete(logctx.FromContext(ctx), "sort_chunks", elapsed).
		Int("sub_chunks", res.subChunks).
		Count("lines", res.lines).
		Bytes("chunk_bytes", job.bytes).
		ProgressFromTracker(st.progress).
		LogDebug("chunk sorted")
	return nil
}
