package membudget

import (
	"strings"
	"testing"
)

func noProbe() (uint64, bool) { return 0, false }

func fixedProbe(n uint64) func() (uint64, bool) {
	return func() (uint64, bool) { return n, true }
}

func TestResolvePriority(t *testing.T) {
	tests := []struct {
		name       string
		cli, env   string
		probe      func() (uint64, bool)
		wantTotal  uint64
		wantSource BudgetSource
	}{
		{"cli wins", "4GiB", "2GiB", fixedProbe(1 << 20), 4 << 30, BudgetSourceCLI},
		{"env next", "", "2GiB", fixedProbe(1 << 20), 2 << 30, BudgetSourceEnv},
		{"probe next", "", "", fixedProbe(1 << 20), 1 << 20, BudgetSourceAvailable},
		{"default last", "", "", noProbe, 0, BudgetSourceDefault},
		{"zero probe is default", "", "", fixedProbe(0), 0, BudgetSourceDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := resolve(tt.cli, tt.env, tt.probe)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if b.Total() != tt.wantTotal {
				t.Errorf("Total() = %d, want %d", b.Total(), tt.wantTotal)
			}
			if b.Source() != tt.wantSource {
				t.Errorf("Source() = %s, want %s", b.Source(), tt.wantSource)
			}
		})
	}
}

func TestResolveInvalid(t *testing.T) {
	if _, err := resolve("lots", "", noProbe); err == nil || !strings.Contains(err.Error(), "--mem") {
		t.Errorf("expected --mem error, got %v", err)
	}
	if _, err := resolve("", "badvalue", noProbe); err == nil || !strings.Contains(err.Error(), EnvVar) {
		t.Errorf("expected %s error, got %v", EnvVar, err)
	}
}

func TestResolveReadsEnv(t *testing.T) {
	t.Setenv(EnvVar, "512MiB")
	b, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if b.Source() != BudgetSourceEnv || b.Total() != 512<<20 {
		t.Errorf("got %d from %s, want 512MiB from env", b.Total(), b.Source())
	}
}

func TestBudgetProbe(t *testing.T) {
	n, ok := New(0, BudgetSourceDefault).Probe()
	if ok || n != 0 {
		t.Errorf("default budget Probe() = (%d, %v), want (0, false)", n, ok)
	}
	n, ok = New(1<<30, BudgetSourceCLI).Probe()
	if !ok || n != 1<<30 {
		t.Errorf("cli budget Probe() = (%d, %v), want (1GiB, true)", n, ok)
	}
}
