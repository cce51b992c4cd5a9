//go:build !linux && !darwin && !windows && !freebsd && !openbsd && !netbsd && !dragonfly

package sysmem

import "errors"

func platformMemory() (memInfo, error) {
	return memInfo{}, errors.New("memory probe not supported on this platform")
}
