//go:build darwin

package sysmem

import "golang.org/x/sys/unix"

func platformMemory() (memInfo, error) {
	total, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return memInfo{}, err
	}
	m := memInfo{total: total}
	if free, err := unix.SysctlUint32("vm.page_free_count"); err == nil {
		m.available = uint64(free) * uint64(unix.Getpagesize())
	}
	return m, nil
}
