// Package sysmem provides cross-platform system memory detection.
//
// Total reports installed RAM; Available reports memory the OS considers
// free for new allocations right now. Both fall back to a fixed value when
// the platform probe fails, flagged by Result.Reliable.
package sysmem

// DefaultMemoryBytes is the fallback total memory (4 GB) used when
// platform-specific detection fails or is unsupported.
const DefaultMemoryBytes uint64 = 4 * 1024 * 1024 * 1024

// Result holds the result of memory detection.
type Result struct {
	// Bytes is the detected amount of memory.
	Bytes uint64

	// Reliable indicates whether the value was obtained from
	// a platform-specific method (true) or is a fallback default (false).
	Reliable bool
}

// memInfo is one platform reading. Zero fields mean "not reported".
type memInfo struct {
	total     uint64
	available uint64
}

// readMemory is implemented per platform.
var readMemory = platformMemory

// Total returns installed memory, or DefaultMemoryBytes with Reliable=false
// when the platform cannot tell.
func Total() Result {
	m, err := readMemory()
	if err != nil || m.total == 0 {
		return Result{Bytes: DefaultMemoryBytes}
	}
	return Result{Bytes: m.total, Reliable: true}
}

// Available returns the memory currently available to new allocations.
// On failure it returns the zero Result, leaving the fallback policy to the
// caller.
func Available() Result {
	m, err := readMemory()
	if err != nil || m.available == 0 {
		return Result{}
	}
	return Result{Bytes: m.available, Reliable: true}
}

// AvailableProbe adapts Available to the (bytes, ok) probe shape used by
// chunk planning.
func AvailableProbe() (uint64, bool) {
	r := Available()
	return r.Bytes, r.Reliable
}
