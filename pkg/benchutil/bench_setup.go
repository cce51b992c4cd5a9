// Package benchutil holds helpers shared by benchmarks.
package benchutil

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/eunmann/linesort/pkg/linegen"
)

// LongBenchEnv gates long-running benchmarks.
const LongBenchEnv = "LINESORT_LONG_BENCH"

// SkipIfNoLongBench skips the benchmark if LINESORT_LONG_BENCH is not set.
// Use this to gate long-running benchmarks that shouldn't run by default.
func SkipIfNoLongBench(b *testing.B) {
	b.Helper()
	if os.Getenv(LongBenchEnv) == "" {
		b.Skip("set " + LongBenchEnv + "=1 to run scaling benchmark")
	}
}

// WriteInput generates a size-byte input file named name under dir and
// returns its path. The same seed and size always give the same file.
func WriteInput(tb testing.TB, dir, name string, size int64, seed int64) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("create input: %v", err)
	}
	defer f.Close()

	cfg := linegen.DefaultConfig()
	cfg.Seed = seed
	bw := bufio.NewWriterSize(f, 1<<20)
	if _, err := linegen.New(cfg).WriteSize(bw, size); err != nil {
		tb.Fatalf("generate input: %v", err)
	}
	if err := bw.Flush(); err != nil {
		tb.Fatalf("flush input: %v", err)
	}
	return path
}
