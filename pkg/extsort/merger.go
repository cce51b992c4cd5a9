package extsort

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/eunmann/linesort/internal/logctx"
	"github.com/eunmann/linesort/pkg/linecmp"
	"github.com/eunmann/linesort/pkg/minheap"
	"github.com/spf13/afero"
)

// cancelCheckInterval is how many lines the merge emits between context checks.
const cancelCheckInterval = 1 << 16

// frontier is a chunk's lowest line not yet written to the output.
type frontier struct {
	chunk int
	line  string
}

func compareFrontiers(a, b frontier) int {
	return linecmp.Compare(a.line, b.line)
}

// MergeChunks k-way merges sorted chunk files (encoded with codec) into a
// plain-text file at outPath. Every chunk must already be fully sorted.
// The chunk files are left for the caller to remove once the output is
// durable.
func MergeChunks(ctx context.Context, fsys afero.Fs, codec Codec, paths []string, outPath string) (MergeStats, error) {
	return mergeChunks(ctx, fsys, codec, paths, outPath, defaultBufferSize)
}

func mergeChunks(ctx context.Context, fsys afero.Fs, codec Codec, paths []string, outPath string, bufferSize int) (MergeStats, error) {
	start := time.Now()
	log := logctx.FromContext(ctx)
	stats := MergeStats{Chunks: len(paths)}

	readers := make([]*lineReader, 0, len(paths))
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()
	for _, p := range paths {
		r, err := openLineReader(fsys, p, codec, bufferSize)
		if err != nil {
			return stats, err
		}
		readers = append(readers, r)
	}

	out, err := createLineWriter(fsys, outPath, plainCodec{}, bufferSize)
	if err != nil {
		return stats, err
	}

	if err := mergeReaders(ctx, readers, out); err != nil {
		out.abort()
		return stats, err
	}
	if err := out.Close(); err != nil {
		return stats, err
	}
	stats.Lines, stats.BytesWritten = out.lines, out.bytes

	for _, r := range readers {
		if err := r.Close(); err != nil {
			return stats, err
		}
	}
	stats.Duration = time.Since(start)
	log.Debug().
		Int("chunks", stats.Chunks).
		Int64("lines", stats.Lines).
		Dur("elapsed", stats.Duration).
		Msg("chunks merged")
	return stats, nil
}

// mergeReaders seeds a heap with the first line of every reader, then
// repeatedly writes the minimum and replaces it with the next line from
// the same chunk until every chunk is exhausted.
func mergeReaders(ctx context.Context, readers []*lineReader, out *lineWriter) error {
	initial := make([]frontier, 0, len(readers))
	for i, r := range readers {
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			continue
		}
		if err != nil {
			return err
		}
		initial = append(initial, frontier{chunk: i, line: line})
	}

	h := minheap.NewWithCapacity(compareFrontiers, len(readers))
	h.Heapify(initial)

	var emitted int
	for h.Len() > 0 {
		if emitted++; emitted%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		top, _ := h.Extract()
		if err := out.WriteLine(top.line); err != nil {
			return err
		}

		line, err := readers[top.chunk].ReadLine()
		if errors.Is(err, io.EOF) {
			continue
		}
		if err != nil {
			return err
		}
		h.Insert(frontier{chunk: top.chunk, line: line})
	}
	return nil
}
