// Package memdiag logs heap usage while a sort runs.
//
// Enable with LINESORT_MEM_DEBUG=1. LINESORT_MEM_PPROF=1 additionally serves
// net/http/pprof on :6060. All Tracker methods are no-ops on a nil or
// disabled tracker, so the sort engine can call them unconditionally.
package memdiag

import (
	"context"
	"errors"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	// Registers pprof handlers on DefaultServeMux for the pprof HTTP server.
	_ "net/http/pprof"

	"github.com/eunmann/linesort/pkg/humanfmt"
	"github.com/eunmann/linesort/pkg/logging"
)

const (
	// EnvDebug enables periodic heap logging.
	EnvDebug = "LINESORT_MEM_DEBUG"
	// EnvPprof enables the pprof listener.
	EnvPprof = "LINESORT_MEM_PPROF"

	pprofAddr = ":6060"
)

// Config holds configuration for memory diagnostics.
type Config struct {
	Enabled      bool
	PprofEnabled bool
	LogInterval  time.Duration
}

// ConfigFromEnv reads the LINESORT_MEM_* variables.
func ConfigFromEnv() Config {
	return Config{
		Enabled:      os.Getenv(EnvDebug) == "1",
		PprofEnabled: os.Getenv(EnvPprof) == "1",
		LogInterval:  5 * time.Second,
	}
}

// Stats is the subset of runtime.MemStats the tracker reports.
type Stats struct {
	HeapAlloc  uint64
	HeapSys    uint64
	HeapInuse  uint64
	StackInuse uint64
	Sys        uint64
	NumGC      uint32
}

// Read samples current memory statistics.
func Read() Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Stats{
		HeapAlloc:  m.HeapAlloc,
		HeapSys:    m.HeapSys,
		HeapInuse:  m.HeapInuse,
		StackInuse: m.StackInuse,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// Tracker samples the heap periodically and on demand, remembering the peak.
type Tracker struct {
	config Config

	mu       sync.Mutex
	phase    string
	peakHeap uint64
	cancel   context.CancelFunc
	done     chan struct{}
	pprof    *http.Server
}

// NewTracker creates a new memory tracker.
func NewTracker(config Config) *Tracker {
	if config.LogInterval <= 0 {
		config.LogInterval = 5 * time.Second
	}
	return &Tracker{config: config, phase: "init"}
}

func (t *Tracker) enabled() bool {
	return t != nil && t.config.Enabled
}

// Start begins periodic sampling until Stop. Calling it twice is harmless.
func (t *Tracker) Start() {
	if !t.enabled() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}

	log := logging.L()
	log.Info().Dur("interval", t.config.LogInterval).Msg("memory diagnostics enabled")

	if t.config.PprofEnabled {
		t.pprof = &http.Server{Addr: pprofAddr, ReadHeaderTimeout: 5 * time.Second}
		go func(srv *http.Server) {
			log.Info().Str("addr", pprofAddr).Msg("starting pprof server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("pprof server failed")
			}
		}(t.pprof)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.sampleLoop(ctx, t.done)
}

// Stop ends periodic sampling after one final sample. Safe to call more
// than once.
func (t *Tracker) Stop() {
	if t == nil {
		return
	}
	t.mu.Lock()
	cancel, done, srv := t.cancel, t.done, t.pprof
	t.cancel, t.pprof = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	if srv != nil {
		_ = srv.Close()
	}
}

func (t *Tracker) sampleLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.config.LogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.LogNow("shutdown")
			return
		case <-ticker.C:
			t.LogNow("periodic")
		}
	}
}

// SetPhase labels subsequent samples and logs one immediately.
func (t *Tracker) SetPhase(phase string) {
	if !t.enabled() {
		return
	}
	t.mu.Lock()
	t.phase = phase
	t.mu.Unlock()
	t.LogNow("phase_change")
}

// sample reads stats and folds them into the peak.
func (t *Tracker) sample() (Stats, string, uint64) {
	stats := Read()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peakHeap = max(t.peakHeap, stats.HeapAlloc)
	return stats, t.phase, t.peakHeap
}

// LogNow logs current memory stats immediately.
func (t *Tracker) LogNow(reason string) {
	if !t.enabled() {
		return
	}
	stats, phase, peak := t.sample()

	logging.L().Debug().
		Str("reason", reason).
		Str("phase", phase).
		Uint64("heap_alloc", stats.HeapAlloc).
		Uint64("heap_inuse", stats.HeapInuse).
		Uint64("sys", stats.Sys).
		Uint64("peak_heap", peak).
		Uint32("num_gc", stats.NumGC).
		Str("heap_alloc_h", humanfmt.BytesUint64(stats.HeapAlloc)).
		Str("peak_heap_h", humanfmt.BytesUint64(peak)).
		Msg("memory sample")
}

// LogChunk relates the heap to the chunk just sorted. A heap/chunk ratio
// well above the planner's memory multiplier means chunks are too large
// for this input; a heap above budget is logged as a warning.
func (t *Tracker) LogChunk(reason string, chunkBytes, budget uint64) {
	if !t.enabled() {
		return
	}
	stats, phase, peak := t.sample()

	var ratio float64
	if chunkBytes > 0 {
		ratio = float64(stats.HeapAlloc) / float64(chunkBytes)
	}

	log := logging.L()
	log.Debug().
		Str("reason", reason).
		Str("phase", phase).
		Uint64("heap_alloc", stats.HeapAlloc).
		Uint64("chunk_bytes", chunkBytes).
		Uint64("budget", budget).
		Float64("heap_chunk_ratio", ratio).
		Uint64("peak_heap", peak).
		Msg("chunk memory sample")

	if budget > 0 && stats.HeapAlloc > budget {
		log.Warn().
			Str("heap_alloc", humanfmt.BytesUint64(stats.HeapAlloc)).
			Str("budget", humanfmt.BytesUint64(budget)).
			Msg("heap exceeds memory budget")
	}
}

// PeakHeap returns the largest heap allocation sampled so far.
func (t *Tracker) PeakHeap() uint64 {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peakHeap
}
