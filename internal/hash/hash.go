// Package hash computes the deterministic content digest used for the
// store's lazy-invalidation upsert path.
package hash

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// seed is fixed at zero per spec §4.1: cross-process stability of the
// digest is required for lazy invalidation, so it must never be
// parameterized.
const seed uint64 = 0

// Content returns the 16-lowercase-hex-character digest of b. Deterministic
// and error-free by contract.
func Content(b []byte) string {
	d := xxhash.NewWithSeed(seed)
	_, _ = d.Write(b) // hash.Hash64.Write never errors
	return fmt.Sprintf("%016x", d.Sum64())
}
