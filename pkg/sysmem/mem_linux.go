//go:build linux

package sysmem

import "golang.org/x/sys/unix"

// platformMemory reads sysinfo(2). Available is free plus buffer RAM; page
// cache is not counted, so the figure errs low.
func platformMemory() (memInfo, error) {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return memInfo{}, err
	}
	unit := uint64(si.Unit)
	return memInfo{
		total:     uint64(si.Totalram) * unit,
		available: (uint64(si.Freeram) + uint64(si.Bufferram)) * unit,
	}, nil
}
