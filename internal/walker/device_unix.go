//go:build !windows

package walker

import (
	"os"
	"syscall"
)

// deviceID returns the filesystem device number for path, grounded on the
// teacher's scanner/filesystem.go use of syscall.Stat_t for inode/device
// capture. Used to prevent the walk from crossing filesystem boundaries.
func deviceID(path string) (uint64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(stat.Dev), true
}
