package extsort

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/eunmann/linesort/internal/logctx"
	"github.com/eunmann/linesort/pkg/linecmp"
	"github.com/eunmann/linesort/pkg/qsort"
	"golang.org/x/sync/errgroup"
)

// chunkJob describes one in-memory sort: read src, write sorted lines to dst.
// src and dst may be the same path; all lines are read before dst is opened.
type chunkJob struct {
	index    int // -1 when sorting the whole input in one piece
	src, dst string
	srcCodec Codec
	dstCodec Codec

	// bytes is the chunk's line payload (len+1 per line), used to size
	// the sub-chunk budget.
	bytes     int64
	subChunks int

	// validate checks every line as it is read. Only the first read of the
	// raw input needs it; chunk files hold lines that were already checked.
	validate bool
}

type chunkResult struct {
	lines     int64
	subChunks int
}

// sortChunk splits a chunk into sub-chunks by byte budget, sorts each one
// concurrently as soon as it is full, then writes the single sorted
// sub-chunk or merges all of them into dst.
func (s *Sorter) sortChunk(ctx context.Context, job chunkJob) (chunkResult, error) {
	start := time.Now()
	log := logctx.FromContext(ctx)

	parts, lines, err := s.readSubChunks(ctx, job)
	if err != nil {
		return chunkResult{}, err
	}

	w, err := createLineWriter(s.fs, job.dst, job.dstCodec, s.cfg.BufferSize)
	if err != nil {
		return chunkResult{}, err
	}
	if len(parts) == 1 {
		err = writeAll(w, parts[0])
	} else {
		err = mergeRuns(parts, w.WriteLine)
	}
	if err != nil {
		w.abort()
		return chunkResult{}, err
	}
	if err := w.Close(); err != nil {
		return chunkResult{}, err
	}

	log.Debug().
		Int("sub_chunks", len(parts)).
		Int64("lines", lines).
		Dur("elapsed", time.Since(start)).
		Msg("chunk sorted")
	return chunkResult{lines: lines, subChunks: len(parts)}, nil
}

// readSubChunks loads the chunk into at most job.subChunks slices and
// returns them sorted. A slice is handed to qsort the moment it reaches
// its byte budget; the last slice takes whatever remains.
func (s *Sorter) readSubChunks(ctx context.Context, job chunkJob) ([][]string, int64, error) {
	n := max(job.subChunks, 1)
	budget := max(job.bytes/int64(n), 1)

	r, err := openLineReader(s.fs, job.src, job.srcCodec, s.cfg.BufferSize)
	if err != nil {
		return nil, 0, err
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	parts := make([][]string, 0, n)
	var (
		cur      []string
		curBytes int64
		lines    int64
		readErr  error
	)

	// launch must follow the append of part to parts.
	launch := func(part []string) {
		if s.onSubChunk != nil {
			s.onSubChunk(len(parts)-1, lines)
		}
		g.Go(func() error {
			return qsort.Sort(gctx, part, linecmp.Compare)
		})
	}

	for {
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			readErr = err
			break
		}
		lines++
		if job.validate {
			if err := linecmp.CheckAt(line, lines); err != nil {
				readErr = err
				break
			}
		}

		cur = append(cur, line)
		curBytes += int64(len(line)) + 1
		if curBytes >= budget && len(parts) < n-1 {
			parts = append(parts, cur)
			launch(cur)
			cur, curBytes = nil, 0
		}
	}
	if readErr == nil && len(cur) > 0 {
		parts = append(parts, cur)
		launch(cur)
	}

	if readErr != nil {
		cancel()
	}
	if err := g.Wait(); err != nil && readErr == nil {
		readErr = fmt.Errorf("sort sub-chunks: %w", err)
	}
	if readErr != nil {
		return nil, 0, readErr
	}
	if len(parts) == 0 {
		parts = append(parts, nil)
	}
	return parts, lines, nil
}

func writeAll(w *lineWriter, lines []string) error {
	for _, line := range lines {
		if err := w.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}
