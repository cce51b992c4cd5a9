// Package linegen generates synthetic "Number. String" files for tests,
// benchmarks and the generate subcommand.
package linegen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
)

// DefaultSeed is used when Config.Seed is zero.
const DefaultSeed = 42

const (
	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// tailThreshold is the remaining size below which WriteSize emits one
	// padded line to land on the exact byte count. It exceeds the longest
	// regular line, so the remainder never drops below minLineBytes.
	tailThreshold = 200
	// minLineBytes is "1. " plus the newline.
	minLineBytes = 4
)

// ErrSizeTooSmall is returned by WriteSize for sizes that cannot hold a line.
var ErrSizeTooSmall = errors.New("size too small for a single line")

// Config configures synthetic line generation.
type Config struct {
	// Seed for reproducible output. 0 = DefaultSeed.
	Seed int64
	// MinText and MaxText bound the text length of a fresh line.
	MinText, MaxText int
	// SavedStrings is how many texts are remembered for reuse.
	SavedStrings int
	// ReuseEvery makes every n-th line reuse a remembered text, which
	// produces equal suffixes with different numbers. 0 disables reuse.
	ReuseEvery int
}

// DefaultConfig returns the generator defaults: texts of 1..99 characters,
// 20 remembered texts, one reused every 30 lines.
func DefaultConfig() Config {
	return Config{
		Seed:         DefaultSeed,
		MinText:      1,
		MaxText:      99,
		SavedStrings: 20,
		ReuseEvery:   30,
	}
}

// Generator produces lines. It is not safe for concurrent use.
type Generator struct {
	cfg   Config
	rng   *rand.Rand
	saved []string
	count int64
}

// New creates a generator; zero Config fields take DefaultConfig values
// (ReuseEvery only when SavedStrings is also zero).
func New(cfg Config) *Generator {
	d := DefaultConfig()
	if cfg.Seed == 0 {
		cfg.Seed = d.Seed
	}
	if cfg.MinText <= 0 {
		cfg.MinText = d.MinText
	}
	if cfg.MaxText < cfg.MinText {
		cfg.MaxText = max(d.MaxText, cfg.MinText)
	}
	if cfg.SavedStrings == 0 && cfg.ReuseEvery == 0 {
		cfg.SavedStrings, cfg.ReuseEvery = d.SavedStrings, d.ReuseEvery
	}
	return &Generator{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		saved: make([]string, 0, max(cfg.SavedStrings, 0)),
	}
}

// Line returns the next line without a terminator.
func (g *Generator) Line() string {
	var text string
	if g.cfg.ReuseEvery > 0 && g.count%int64(g.cfg.ReuseEvery) == 0 && len(g.saved) > 0 {
		text = g.saved[g.rng.Intn(len(g.saved))]
	} else {
		text = g.text(g.cfg.MinText + g.rng.Intn(g.cfg.MaxText-g.cfg.MinText+1))
		if len(g.saved) < g.cfg.SavedStrings {
			g.saved = append(g.saved, text)
		}
	}
	g.count++
	return strconv.Itoa(int(g.rng.Int31())) + ". " + text
}

func (g *Generator) text(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[g.rng.Intn(len(alphabet))]
	}
	return string(b)
}

// WriteLines writes n newline-terminated lines and returns the bytes written.
func (g *Generator) WriteLines(w io.Writer, n int) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	for range n {
		k, err := bw.WriteString(g.Line() + "\n")
		written += int64(k)
		if err != nil {
			return written, fmt.Errorf("write line: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("flush: %w", err)
	}
	return written, nil
}

// WriteSize writes lines totalling exactly size bytes and returns the line
// count. The last line is "1. " followed by padding to hit the size.
func (g *Generator) WriteSize(w io.Writer, size int64) (int64, error) {
	if size > 0 && size < minLineBytes {
		return 0, fmt.Errorf("%w: %d bytes", ErrSizeTooSmall, size)
	}

	bw := bufio.NewWriter(w)
	var lines int64
	for remaining := size; remaining > 0; {
		var line string
		if remaining < tailThreshold {
			line = "1. " + g.text(int(remaining)-minLineBytes)
		} else {
			line = g.Line()
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return lines, fmt.Errorf("write line: %w", err)
		}
		remaining -= int64(len(line)) + 1
		lines++
	}
	if err := bw.Flush(); err != nil {
		return lines, fmt.Errorf("flush: %w", err)
	}
	return lines, nil
}
