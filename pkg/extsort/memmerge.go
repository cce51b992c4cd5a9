package extsort

import (
	"github.com/eunmann/linesort/pkg/linecmp"
	"github.com/eunmann/linesort/pkg/minheap"
)

// LinearMergeMaxFanIn is the largest number of sorted runs merged by a
// linear scan of their heads. Above it the merge switches to a min-heap.
const LinearMergeMaxFanIn = 8

// mergeRuns emits the lines of the sorted runs in global order.
func mergeRuns(runs [][]string, emit func(string) error) error {
	if len(runs) > LinearMergeMaxFanIn {
		return mergeRunsHeap(runs, emit)
	}
	return mergeRunsLinear(runs, emit)
}

// mergeRunsLinear keeps one cursor per run and picks the smallest head on
// every step: O(k) per line, which beats a heap at small k.
func mergeRunsLinear(runs [][]string, emit func(string) error) error {
	cursors := make([]int, len(runs))
	for {
		best := -1
		for i, run := range runs {
			if cursors[i] >= len(run) {
				continue
			}
			if best < 0 || linecmp.Compare(run[cursors[i]], runs[best][cursors[best]]) < 0 {
				best = i
			}
		}
		if best < 0 {
			return nil
		}
		if err := emit(runs[best][cursors[best]]); err != nil {
			return err
		}
		cursors[best]++
	}
}

// runHead is the current line of one in-memory run.
type runHead struct {
	run  int
	pos  int
	line string
}

func compareRunHeads(a, b runHead) int {
	return linecmp.Compare(a.line, b.line)
}

func mergeRunsHeap(runs [][]string, emit func(string) error) error {
	h := minheap.NewWithCapacity(compareRunHeads, len(runs))
	for i, run := range runs {
		if len(run) > 0 {
			h.Insert(runHead{run: i, line: run[0]})
		}
	}

	for h.Len() > 0 {
		head, _ := h.Extract()
		if err := emit(head.line); err != nil {
			return err
		}
		if next := head.pos + 1; next < len(runs[head.run]) {
			h.Insert(runHead{run: head.run, pos: next, line: runs[head.run][next]})
		}
	}
	return nil
}
