// Package membudget decides how much memory a sort may plan around.
//
// The figure comes from the first source that yields a value:
//  1. an explicit size passed by the caller (the --mem flag),
//  2. the LINESORT_MEM_BUDGET environment variable,
//  3. the memory the operating system reports as available,
//
// and otherwise the budget is marked unreliable so chunk planning falls
// back to its fixed chunk size.
package membudget

import (
	"fmt"
	"os"

	"github.com/eunmann/linesort/pkg/humanfmt"
	"github.com/eunmann/linesort/pkg/sysmem"
)

// EnvVar is the environment variable consulted when no explicit size is given.
const EnvVar = "LINESORT_MEM_BUDGET"

// BudgetSource indicates how the memory budget was determined.
type BudgetSource string

const (
	// BudgetSourceCLI indicates the budget was set via CLI flag.
	BudgetSourceCLI BudgetSource = "cli"
	// BudgetSourceEnv indicates the budget was set via environment variable.
	BudgetSourceEnv BudgetSource = "env"
	// BudgetSourceAvailable indicates the budget is the OS-reported available memory.
	BudgetSourceAvailable BudgetSource = "auto-available"
	// BudgetSourceDefault indicates no source produced a value.
	BudgetSourceDefault BudgetSource = "default"
)

// Budget is an immutable memory figure and where it came from.
type Budget struct {
	total  uint64
	source BudgetSource
}

// New creates a Budget with an explicit size and source.
func New(total uint64, source BudgetSource) Budget {
	return Budget{total: total, source: source}
}

// Total returns the budget in bytes; 0 when the source is BudgetSourceDefault.
func (b Budget) Total() uint64 {
	return b.total
}

// Source returns how the budget was determined.
func (b Budget) Source() BudgetSource {
	return b.source
}

// Reliable reports whether the budget came from a real source.
func (b Budget) Reliable() bool {
	return b.source != BudgetSourceDefault && b.total > 0
}

// Probe returns the budget in the (bytes, ok) shape used by chunk planning.
func (b Budget) Probe() (uint64, bool) {
	return b.total, b.Reliable()
}

// Resolve picks the budget from cliValue, then the environment, then the
// available-memory probe. An unparsable explicit value is an error rather
// than a silent fallback.
func Resolve(cliValue string) (Budget, error) {
	return resolve(cliValue, os.Getenv(EnvVar), sysmem.AvailableProbe)
}

func resolve(cliValue, envValue string, probe func() (uint64, bool)) (Budget, error) {
	if cliValue != "" {
		n, err := humanfmt.ParseBytes(cliValue)
		if err != nil {
			return Budget{}, fmt.Errorf("invalid --mem value %q: %w", cliValue, err)
		}
		return New(n, BudgetSourceCLI), nil
	}

	if envValue != "" {
		n, err := humanfmt.ParseBytes(envValue)
		if err != nil {
			return Budget{}, fmt.Errorf("invalid %s value %q: %w", EnvVar, envValue, err)
		}
		return New(n, BudgetSourceEnv), nil
	}

	if n, ok := probe(); ok && n > 0 {
		return New(n, BudgetSourceAvailable), nil
	}
	return New(0, BudgetSourceDefault), nil
}
