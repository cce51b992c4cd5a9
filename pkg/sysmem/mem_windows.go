//go:build windows

package sysmem

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func platformMemory() (memInfo, error) {
	var st windows.MemoryStatusEx
	st.Length = uint32(unsafe.Sizeof(st))
	if err := windows.GlobalMemoryStatusEx(&st); err != nil {
		return memInfo{}, err
	}
	return memInfo{total: st.TotalPhys, available: st.AvailPhys}, nil
}
