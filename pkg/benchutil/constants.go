package benchutil

import "github.com/eunmann/linesort/pkg/humanfmt"

// Shared constants for benchmarks across packages.

// BenchmarkSeed is the default seed for reproducible benchmark data generation.
const BenchmarkSeed = 42

// BenchmarkSizes are input sizes in bytes for quick runs.
var BenchmarkSizes = []int64{256 * humanfmt.KiB, 4 * humanfmt.MiB, 32 * humanfmt.MiB}

// ScalingSizes are larger inputs for scaling tests.
// Used with LINESORT_LONG_BENCH=1 environment variable.
var ScalingSizes = []int64{256 * humanfmt.MiB, 1 * humanfmt.GiB}

// ChunkCounts are the forced disk chunk counts compared by merge benchmarks.
var ChunkCounts = []int{1, 4, 16}
