//go:build freebsd || openbsd || netbsd || dragonfly

package sysmem

import (
	"errors"

	"golang.org/x/sys/unix"
)

// platformMemory tries hw.physmem, then FreeBSD's hw.realmem. Free pages come
// from vm.stats, which only FreeBSD and DragonFly expose.
func platformMemory() (memInfo, error) {
	var m memInfo
	for _, name := range []string{"hw.physmem", "hw.realmem"} {
		if v, err := unix.SysctlUint64(name); err == nil && v > 0 {
			m.total = v
			break
		}
	}
	if m.total == 0 {
		return m, errors.New("sysctl: no physical memory figure")
	}
	if free, err := unix.SysctlUint32("vm.stats.vm.v_free_count"); err == nil {
		m.available = uint64(free) * uint64(unix.Getpagesize())
	}
	return m, nil
}
