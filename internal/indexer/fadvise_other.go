//go:build !linux

package indexer

import "os"

// applySequentialHint is a no-op on non-Linux systems: fadvise is
// Linux-specific. Grounded on the teacher's scanner/fadvise_other.go.
func applySequentialHint(f *os.File) {}
