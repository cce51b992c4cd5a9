package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestProgressTracker_BasicOperations(t *testing.T) {
	pt := NewProgressTracker("sort_chunks", 4)

	pt.RecordCompletion(100 * time.Millisecond)
	pt.RecordCompletion(150 * time.Millisecond)

	if pt.Completed() != 2 {
		t.Errorf("expected completed=2, got %d", pt.Completed())
	}
	if pt.Total() != 4 {
		t.Errorf("expected total=4, got %d", pt.Total())
	}
	if pct := pt.ProgressPct(); pct != 50.0 {
		t.Errorf("expected progress 50%%, got %.1f%%", pct)
	}
	if pt.Phase() != "sort_chunks" {
		t.Errorf("Phase() = %q", pt.Phase())
	}
}

func TestProgressTracker_ETA(t *testing.T) {
	pt := NewProgressTracker("sort_chunks", 10)

	pt.RecordCompletion(100 * time.Millisecond)
	pt.RecordCompletion(100 * time.Millisecond)

	// 8 remaining at 100ms each
	if eta := pt.ETA(); eta != 800*time.Millisecond {
		t.Errorf("expected ETA 800ms, got %v", eta)
	}
}

func TestProgressTracker_WindowSlides(t *testing.T) {
	pt := NewProgressTracker("sort_chunks", 100)
	for range recentWindow {
		pt.RecordCompletion(time.Second)
	}
	for range recentWindow {
		pt.RecordCompletion(10 * time.Millisecond)
	}
	remaining := time.Duration(100 - 2*recentWindow)
	if eta := pt.ETA(); eta != 10*time.Millisecond*remaining {
		t.Errorf("ETA should only use the recent window, got %v", eta)
	}
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	pt := NewProgressTracker("sort_chunks", 0)
	if pct := pt.ProgressPct(); pct != 100.0 {
		t.Errorf("expected 100%% for zero total, got %.1f%%", pct)
	}
	if eta := pt.ETA(); eta != 0 {
		t.Errorf("expected 0 ETA for zero total, got %v", eta)
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return m
}

func TestCompletionEvent_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	PhaseComplete(log, "merge", 2*time.Second).
		Str("output", "/tmp/out.txt").
		Int("chunks", 3).
		Bytes("bytes_written", 2048).
		Count("lines", 1500).
		Throughput(2048).
		Log("merge complete")

	m := decodeLine(t, &buf)
	if m["event"] != "phase_completed" || m["phase"] != "merge" {
		t.Errorf("unexpected event/phase: %v", m)
	}
	if m["duration_ms"] != float64(2000) {
		t.Errorf("duration_ms = %v", m["duration_ms"])
	}
	if m["chunks"] != float64(3) || m["lines"] != float64(1500) {
		t.Errorf("missing numeric fields: %v", m)
	}
	if m["throughput_bps"] != float64(1024) {
		t.Errorf("throughput_bps = %v, want 1024", m["throughput_bps"])
	}
	if _, ok := m["bytes_written_h"]; ok {
		t.Error("human companion field present outside pretty mode")
	}
}

func TestCompletionEvent_PrettyMode(t *testing.T) {
	SetPrettyMode(true)
	defer SetPrettyMode(false)

	var buf bytes.Buffer
	FileCreated(zerolog.New(&buf), "sort", time.Second).
		Bytes("size", 3*1024*1024).
		Log("file created")

	m := decodeLine(t, &buf)
	if m["size_h"] != "3.00 MiB" {
		t.Errorf("size_h = %v, want 3.00 MiB", m["size_h"])
	}
	if m["duration_h"] != "1.00s" {
		t.Errorf("duration_h = %v, want 1.00s", m["duration_h"])
	}
}

func TestCompletionEvent_ProgressFromTracker(t *testing.T) {
	pt := NewProgressTracker("sort_chunks", 4)
	pt.RecordCompletion(time.Millisecond)

	var buf bytes.Buffer
	ChunkComplete(zerolog.New(&buf), "sort_chunks", time.Millisecond).
		ProgressFromTracker(pt).
		Log("chunk sorted")

	m := decodeLine(t, &buf)
	if m["done"] != float64(1) || m["total"] != float64(4) {
		t.Errorf("done/total = %v/%v", m["done"], m["total"])
	}
	if m["progress_pct"] != float64(25) {
		t.Errorf("progress_pct = %v", m["progress_pct"])
	}
}

func TestCompletionEvent_LogDebug(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.InfoLevel)

	ChunkComplete(log, "sort_chunks", time.Millisecond).LogDebug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug event emitted at info level: %s", buf.String())
	}
}

func TestChunkStarted(t *testing.T) {
	var buf bytes.Buffer
	ChunkStarted(zerolog.New(&buf), "split", 2, 1, 5)

	out := buf.String()
	for _, want := range []string{`"event":"chunk_started"`, `"chunk_index":2`, `"chunks_total":5`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestCompletionEvent_FieldOrder(t *testing.T) {
	var buf bytes.Buffer
	PhaseComplete(zerolog.New(&buf), "split", time.Second).
		Int("chunks", 2).
		Str("input", "in.txt").
		Log("done")

	out := buf.String()
	order := []string{`"event"`, `"phase"`, `"duration_ms"`, `"chunks"`, `"input"`, `"message"`}
	last := -1
	for _, key := range order {
		i := strings.Index(out, key)
		if i < last {
			t.Fatalf("%s out of order in %s", key, out)
		}
		last = i
	}
}
