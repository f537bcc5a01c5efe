//go:build !windows

package atomicswap

import "os"

// syncFile fsyncs path, grounded on the original Rust fs_utils.rs
// sync_file (POSIX branch).
func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// syncParentDir fsyncs the directory itself so the rename that replaced
// its entry is durable, grounded on fs_utils.rs sync_parent_dir's Unix
// branch.
func syncParentDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// atomicReplace performs a POSIX rename, which atomically replaces an
// existing target.
func atomicReplace(from, to string) error {
	return os.Rename(from, to)
}
