// Package qsort implements an in-place parallel quicksort.
//
// Ranges larger than Threshold are partitioned and both halves are sorted
// concurrently on an errgroup; smaller ranges are sorted on the calling
// goroutine. The halves never share indices, so no locking is required.
// The sort is not stable.
package qsort

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Threshold is the range length at or below which recursion stays on the
// current goroutine.
const Threshold = 4096

// Sort sorts s in place by cmp.
func Sort[T any](ctx context.Context, s []T, cmp func(a, b T) int) error {
	return SortRange(ctx, s, 0, len(s), cmp)
}

// SortRange sorts s[b:e] in place by cmp.
func SortRange[T any](ctx context.Context, s []T, b, e int, cmp func(a, b T) int) error {
	if b < 0 || e > len(s) || b > e {
		panic("qsort: range out of bounds")
	}
	return sortParallel(ctx, s, b, e, cmp)
}

func sortParallel[T any](ctx context.Context, s []T, b, e int, cmp func(a, b T) int) error {
	if e-b <= Threshold {
		sortSync(s, b, e, cmp)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mid := partition(s, b, e, cmp)

	var g errgroup.Group
	g.Go(func() error { return sortParallel(ctx, s, b, mid, cmp) })
	g.Go(func() error { return sortParallel(ctx, s, mid, e, cmp) })
	return g.Wait()
}

func sortSync[T any](s []T, b, e int, cmp func(a, b T) int) {
	for e-b > 1 {
		mid := partition(s, b, e, cmp)
		// Recurse into the smaller side to bound stack depth.
		if mid-b < e-mid {
			sortSync(s, b, mid, cmp)
			b = mid
		} else {
			sortSync(s, mid, e, cmp)
			e = mid
		}
	}
}

// partition runs a Hoare partition of s[b:e] (e-b >= 2) around the middle
// element and returns m with b < m < e such that every element of s[b:m]
// is <= every element of s[m:e].
//
// The pivot is taken at the lower middle, so it is never the last slot and
// the right scan always stops inside the range. Both scans stop on elements
// equal to the pivot, which keeps all-equal ranges balanced.
func partition[T any](s []T, b, e int, cmp func(a, b T) int) int {
	pivot := s[b+(e-1-b)/2]
	i := b - 1
	j := e
	for {
		i++
		for cmp(s[i], pivot) < 0 {
			i++
		}
		j--
		for cmp(s[j], pivot) > 0 {
			j--
		}
		if i >= j {
			return j + 1
		}
		s[i], s[j] = s[j], s[i]
	}
}
