package logging

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/eunmann/linesort/pkg/humanfmt"
	"github.com/rs/zerolog"
)

// ProgressTracker counts completed units of work (chunks sorted, files
// merged) and estimates the time left. It is safe for concurrent use.
type ProgressTracker struct {
	total     int64
	completed atomic.Int64
	startTime time.Time
	phase     string

	mu     sync.Mutex
	recent []time.Duration
}

// recentWindow is how many unit durations feed the ETA moving average.
const recentWindow = 8

// NewProgressTracker creates a tracker for total units in phase.
func NewProgressTracker(phase string, total int64) *ProgressTracker {
	return &ProgressTracker{
		total:     total,
		startTime: time.Now(),
		phase:     phase,
		recent:    make([]time.Duration, 0, recentWindow),
	}
}

// RecordCompletion records one finished unit that took d.
func (pt *ProgressTracker) RecordCompletion(d time.Duration) {
	pt.completed.Add(1)

	pt.mu.Lock()
	if len(pt.recent) == recentWindow {
		copy(pt.recent, pt.recent[1:])
		pt.recent = pt.recent[:recentWindow-1]
	}
	pt.recent = append(pt.recent, d)
	pt.mu.Unlock()
}

// SetTotal updates the expected unit count once it is known precisely.
func (pt *ProgressTracker) SetTotal(total int64) {
	pt.mu.Lock()
	pt.total = total
	pt.mu.Unlock()
}

// Completed returns the number of finished units.
func (pt *ProgressTracker) Completed() int64 {
	return pt.completed.Load()
}

// Total returns the expected unit count.
func (pt *ProgressTracker) Total() int64 {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.total
}

// Phase returns the phase name the tracker was created with.
func (pt *ProgressTracker) Phase() string {
	return pt.phase
}

// ProgressPct returns the progress percentage (0-100).
func (pt *ProgressTracker) ProgressPct() float64 {
	total := pt.Total()
	if total <= 0 {
		return 100.0
	}
	return float64(pt.completed.Load()) * 100.0 / float64(total)
}

// ETA extrapolates the remaining time from the recent unit durations.
func (pt *ProgressTracker) ETA() time.Duration {
	completed := pt.completed.Load()
	remaining := pt.Total() - completed
	if completed == 0 || remaining <= 0 {
		return 0
	}

	pt.mu.Lock()
	var sum time.Duration
	for _, d := range pt.recent {
		sum += d
	}
	n := len(pt.recent)
	pt.mu.Unlock()

	if n == 0 {
		return time.Since(pt.startTime) / time.Duration(completed) * time.Duration(remaining)
	}
	return sum / time.Duration(n) * time.Duration(remaining)
}

// Elapsed returns time since tracking started.
func (pt *ProgressTracker) Elapsed() time.Duration {
	return time.Since(pt.startTime)
}

// CompletionEvent builds a "something finished" log line. Fields keep the
// order they were added in; event, phase and duration_ms always come first.
type CompletionEvent struct {
	ctx     zerolog.Context
	elapsed time.Duration
	pretty  bool
}

// NewCompletionEvent creates a new completion event builder.
func NewCompletionEvent(log zerolog.Logger, event, phase string, elapsed time.Duration) *CompletionEvent {
	ce := &CompletionEvent{
		ctx: log.With().
			Str("event", event).
			Str("phase", phase).
			Int64("duration_ms", elapsed.Milliseconds()),
		elapsed: elapsed,
		pretty:  IsPrettyMode(),
	}
	ce.human("duration_h", func() string { return humanfmt.Duration(elapsed) })
	return ce
}

// human adds a companion field in pretty mode only.
func (ce *CompletionEvent) human(key string, render func() string) {
	if ce.pretty {
		ce.ctx = ce.ctx.Str(key, render())
	}
}

// Str adds a string field.
func (ce *CompletionEvent) Str(key, val string) *CompletionEvent {
	ce.ctx = ce.ctx.Str(key, val)
	return ce
}

// Int adds an int field.
func (ce *CompletionEvent) Int(key string, val int) *CompletionEvent {
	ce.ctx = ce.ctx.Int(key, val)
	return ce
}

// Bytes adds a byte count, plus key_h in pretty mode.
func (ce *CompletionEvent) Bytes(key string, n int64) *CompletionEvent {
	ce.ctx = ce.ctx.Int64(key, n)
	ce.human(key+"_h", func() string { return humanfmt.Bytes(n) })
	return ce
}

// Count adds a line or item count, plus key_h in pretty mode.
func (ce *CompletionEvent) Count(key string, n int64) *CompletionEvent {
	ce.ctx = ce.ctx.Int64(key, n)
	ce.human(key+"_h", func() string { return humanfmt.Count(n) })
	return ce
}

// ProgressFromTracker adds done, total, progress_pct and eta_ms.
func (ce *CompletionEvent) ProgressFromTracker(pt *ProgressTracker) *CompletionEvent {
	ce.ctx = ce.ctx.
		Int64("done", pt.Completed()).
		Int64("total", pt.Total()).
		Float64("progress_pct", pt.ProgressPct())
	if eta := pt.ETA(); eta > 0 {
		ce.ctx = ce.ctx.Int64("eta_ms", eta.Milliseconds())
		ce.human("eta_h", func() string { return humanfmt.Duration(eta) })
	}
	return ce
}

// Throughput adds bytes per second over the event's elapsed time.
func (ce *CompletionEvent) Throughput(n int64) *CompletionEvent {
	if ce.elapsed <= 0 {
		return ce
	}
	ce.ctx = ce.ctx.Float64("throughput_bps", float64(n)/ce.elapsed.Seconds())
	ce.human("throughput_h", func() string { return humanfmt.Throughput(n, ce.elapsed) })
	return ce
}

// Log emits the event at info level.
func (ce *CompletionEvent) Log(msg string) {
	l := ce.ctx.Logger()
	l.Info().Msg(msg)
}

// LogDebug emits the event at debug level.
func (ce *CompletionEvent) LogDebug(msg string) {
	l := ce.ctx.Logger()
	l.Debug().Msg(msg)
}

// PhaseComplete starts a phase_completed event.
func PhaseComplete(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "phase_completed", phase, elapsed)
}

// ChunkComplete starts a chunk_completed event.
func ChunkComplete(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "chunk_completed", phase, elapsed)
}

// FileCreated starts a file_created event.
func FileCreated(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "file_created", phase, elapsed)
}

// ChunkStarted logs a chunk_started event (no duration, no progress_pct).
func ChunkStarted(log zerolog.Logger, phase string, chunkIndex int, chunksComplete, chunksTotal int64) {
	log.Debug().
		Str("event", "chunk_started").
		Str("phase", phase).
		Int("chunk_index", chunkIndex).
		Int64("chunks_complete", chunksComplete).
		Int64("chunks_total", chunksTotal).
		Msg("chunk started")
}
