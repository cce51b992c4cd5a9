// Package extsort sorts "Number. String" text files that do not fit in memory.
//
// A sort runs in up to three stages:
//  1. PlanChunks decides how many disk chunks and in-memory sub-chunks to use.
//  2. The input is streamed into <i>.chk chunk files. Each finished chunk is
//     sorted (sub-chunks in parallel, then merged in memory) while the next
//     one is being written. At most one chunk sort is in flight.
//  3. MergeChunks k-way merges the sorted chunks into the output and
//     removes them.
//
// Inputs that plan to a single chunk skip the chunk files and are sorted
// straight into the output. The output is always committed by renaming a
// fully written temporary file, so a failed sort leaves no output behind.
package extsort

import (
	"runtime"
	"time"

	"github.com/eunmann/linesort/pkg/memdiag"
)

// ChunkExt is the file extension of temporary chunk files.
const ChunkExt = ".chk"

// Config holds configuration for a Sorter.
type Config struct {
	// Planner controls chunk and sub-chunk counts.
	Planner PlannerConfig

	// Memory reports available memory to the planner.
	// Nil uses the operating system's figure (sysmem.AvailableProbe).
	Memory MemoryProbe

	// Codec names the chunk file encoding: "none", "zstd" or "lz4".
	// The final output is always plain text.
	Codec string

	// ChunkDir is where chunk files are written.
	// Empty means the directory of the output file.
	ChunkDir string

	// BufferSize is the bufio size for every reader and writer.
	// Default: 4MB.
	BufferSize int

	// CleanupOnError removes chunk files when the sort fails.
	// By default they are left on disk for inspection.
	CleanupOnError bool

	// MemTracker receives phase changes and per-chunk samples. May be nil.
	MemTracker *memdiag.Tracker
}

// DefaultConfig returns a Config with planner defaults and sub-chunk
// parallelism scaled to the CPU count.
func DefaultConfig() Config {
	return Config{
		Planner:    DefaultPlannerConfig(),
		Codec:      CodecNone,
		BufferSize: 4 * 1024 * 1024,
	}
}

// defaultSubChunks is NumCPU clamped to [2, 8].
func defaultSubChunks() int {
	return min(max(runtime.NumCPU(), 2), 8)
}

// Result holds the outcome of a successful sort.
type Result struct {
	Plan       Plan
	InputBytes int64
	Lines      int64
	Chunks     int
	Merge      MergeStats
	Duration   time.Duration
}

// MergeStats describes one disk merge.
type MergeStats struct {
	Chunks       int
	Lines        int64
	BytesWritten int64
	Duration     time.Duration
}
